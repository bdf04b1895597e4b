// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Ledger: Corrections, activity, settings and rules persistence
//   - BackendFactory: Resolves the configured ClassifierBackend
//   - Gate: Minimum-interval serialisation of classifier calls
//   - EventSource: Raw filesystem events for one directory
//   - Trasher: Recoverable delete
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - TextExtractor: PDF, OCR and document text. Without them the cascade
//     stops at the filename stage.
//
// The filesystem itself is an afero.Fs, injected directly.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
