// Package ocr extracts on-image text by shelling out to tesseract.
package ocr

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

const tesseractBinary = "tesseract"

// ErrOCRToolNotFound indicates tesseract is not installed.
var ErrOCRToolNotFound = fmt.Errorf("%w: tesseract not found in PATH", domain.ErrToolNotFound)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// IsImage reports whether the lower-cased extension is a raster image.
func IsImage(ext string) bool {
	return imageExtensions[ext]
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Extractor runs OCR on raster images.
type Extractor struct {
	runner   driven.CommandRunner
	language string
	lookPath func(string) (string, error)
}

// New creates an OCR extractor that runs tesseract from PATH.
// An empty language defaults to "eng".
func New(language string) *Extractor {
	if language == "" {
		language = "eng"
	}
	return &Extractor{
		runner:   execRunner{},
		language: language,
		lookPath: exec.LookPath,
	}
}

// NewWithRunner creates an OCR extractor with a custom command runner.
func NewWithRunner(runner driven.CommandRunner) *Extractor {
	return &Extractor{runner: runner, language: "eng"}
}

// CheckAvailable reports whether tesseract is installed.
func CheckAvailable() error {
	if _, err := exec.LookPath(tesseractBinary); err != nil {
		return ErrOCRToolNotFound
	}
	return nil
}

// InstallInstructions returns platform hints for installing tesseract.
func InstallInstructions() string {
	return `tesseract is required for OCR of screenshots and photos.

  macOS:         brew install tesseract
  Debian/Ubuntu: sudo apt install tesseract-ocr
  Fedora:        sudo dnf install tesseract
  Windows:       choco install tesseract`
}

// Supports reports whether ext is a raster image extension.
func (e *Extractor) Supports(ext string) bool {
	return IsImage(ext)
}

// Extract returns the recognised text of the image at path.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	if e.lookPath != nil {
		if _, err := e.lookPath(tesseractBinary); err != nil {
			return "", &domain.ExtractionError{Kind: domain.ExtractionOCR, Err: ErrOCRToolNotFound}
		}
	}

	out, err := e.runner.Run(ctx, tesseractBinary, path, "stdout", "-l", e.language)
	if err != nil {
		return "", &domain.ExtractionError{
			Kind: domain.ExtractionOCR,
			Err:  fmt.Errorf("tesseract failed: %w", err),
		}
	}
	return string(out), nil
}
