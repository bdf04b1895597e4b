// Package sqlite provides the SQLite-backed implementation of driven.Ledger.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements every ledger store
// through a single database connection:
//
//   - CorrectionStore: AI suggestion vs. user choice, bounded to the newest N
//   - ActivityStore: Relocation history with undo flag, bounded to the newest M
//   - SettingStore: Last-write-wins key/value pairs
//   - RuleStore: Ordered filename pattern rules
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Timestamps are stored as unix milliseconds.
//
// # Data Location
//
// By default, the database is stored at ~/.sorta/sorta.db
//
// # Thread Safety
//
// All operations are serialised through one connection guarded by a mutex.
package sqlite
