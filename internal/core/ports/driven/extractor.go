package driven

import "context"

// TextExtractor pulls raw text out of a file for TextContent classification.
// Output is unnormalised; callers collapse whitespace and cap length.
type TextExtractor interface {
	// Extract returns the text content of the file at path.
	// Failures are reported as *domain.ExtractionError.
	Extract(ctx context.Context, path string) (string, error)

	// Supports reports whether the extractor handles the lower-cased extension.
	Supports(ext string) bool
}

// CommandRunner executes external binaries such as pdftotext and tesseract.
type CommandRunner interface {
	// Run executes name with args and returns stdout.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}
