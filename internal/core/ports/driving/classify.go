package driving

import (
	"context"

	"github.com/custodia-labs/sorta/internal/core/domain"
)

// ClassifyService classifies files into candidate folders.
type ClassifyService interface {
	// Classify runs one pass with the evidence carried by req.Mode.
	Classify(ctx context.Context, req domain.ClassificationRequest) (*domain.ClassificationResult, error)

	// ClassifyFilename classifies from the file name alone.
	ClassifyFilename(ctx context.Context, filename string, folders []string) (*domain.ClassificationResult, error)

	// ClassifyImage attaches the image at path for a vision pass.
	ClassifyImage(ctx context.Context, path string, folders []string) (*domain.ClassificationResult, error)

	// ClassifyOCR recognises the image's text and classifies it as text.
	ClassifyOCR(ctx context.Context, path string, folders []string) (*domain.ClassificationResult, error)

	// ClassifyContent extracts document text and classifies it as text.
	ClassifyContent(ctx context.Context, path string, folders []string) (*domain.ClassificationResult, error)
}

// CascadeService escalates through classification strategies.
type CascadeService interface {
	// Cascade classifies the file at path, escalating from rules to
	// filename to content as confidence requires.
	Cascade(ctx context.Context, path string, folders []string) (*domain.ClassificationResult, error)
}
