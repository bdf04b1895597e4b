// Package extractors provides implementations of the TextExtractor interface
// for the document formats the classification cascade can read. Each
// extractor knows how to pull text out of files with specific extensions.
//
// Extractors are registered with the Registry at startup.
package extractors
