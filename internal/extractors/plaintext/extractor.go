// Package plaintext reads text-like files directly.
package plaintext

import (
	"context"
	"io"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// readLimit bounds how much of a file is read; classification only needs
// the opening text.
const readLimit = 64 * 1024

var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".markdown": true, ".rst": true,
	".csv": true, ".tsv": true, ".json": true, ".log": true,
	".tex": true, ".bib": true, ".yaml": true, ".yml": true,
	".toml": true, ".xml": true, ".py": true, ".go": true,
	".java": true, ".c": true, ".cpp": true, ".h": true,
	".r": true, ".m": true, ".js": true, ".ts": true, ".sql": true,
}

// IsText reports whether the lower-cased extension is read as plain text.
func IsText(ext string) bool {
	return textExtensions[ext]
}

// Extractor handles plain text documents.
type Extractor struct {
	fs afero.Fs
}

// New creates a plain text extractor reading through fs.
func New(fs afero.Fs) *Extractor {
	return &Extractor{fs: fs}
}

// Supports reports whether ext is a known text extension.
func (e *Extractor) Supports(ext string) bool {
	return IsText(ext)
}

// Extract returns the opening text of the file, dropping a trailing
// partial rune.
func (e *Extractor) Extract(_ context.Context, path string) (string, error) {
	f, err := e.fs.Open(path)
	if err != nil {
		return "", &domain.ExtractionError{Kind: domain.ExtractionDocument, Err: err}
	}
	defer f.Close()

	buf, err := io.ReadAll(io.LimitReader(f, readLimit))
	if err != nil {
		return "", &domain.ExtractionError{Kind: domain.ExtractionDocument, Err: err}
	}
	for len(buf) > 0 && !utf8.Valid(buf) {
		buf = buf[:len(buf)-1]
	}
	return string(buf), nil
}
