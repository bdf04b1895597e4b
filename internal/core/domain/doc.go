// Package domain defines the core business entities for sorta.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - FileObservation: A newly arrived, stabilised file
//   - ClassificationRequest/Result: One pass of the classification cascade
//   - Correction, ActivityEntry, Rule: Ledger records
//   - MoveResult, FolderEntry, FileEntry, Preview: Relocation and browse output
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
