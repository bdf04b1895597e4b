package extractors

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.TextExtractor = (*Registry)(nil)

// Registry selects the first registered extractor that supports a file's
// extension. It is itself a TextExtractor.
type Registry struct {
	extractors []driven.TextExtractor
}

// NewRegistry creates a registry. Order is selection priority.
func NewRegistry(extractors ...driven.TextExtractor) *Registry {
	return &Registry{extractors: extractors}
}

// Register appends an extractor.
func (r *Registry) Register(e driven.TextExtractor) {
	r.extractors = append(r.extractors, e)
}

// Supports reports whether any registered extractor handles ext.
func (r *Registry) Supports(ext string) bool {
	return r.For(ext) != nil
}

// For returns the extractor for ext, or nil.
func (r *Registry) For(ext string) driven.TextExtractor {
	ext = strings.ToLower(ext)
	for _, e := range r.extractors {
		if e.Supports(ext) {
			return e
		}
	}
	return nil
}

// Extract dispatches to the extractor for the file's extension.
func (r *Registry) Extract(ctx context.Context, path string) (string, error) {
	ext := filepath.Ext(path)
	e := r.For(ext)
	if e == nil {
		return "", &domain.ExtractionError{
			Kind: domain.ExtractionDocument,
			Err:  fmt.Errorf("%w: no extractor for %q", domain.ErrInvalidInput, ext),
		}
	}
	return e.Extract(ctx, path)
}
