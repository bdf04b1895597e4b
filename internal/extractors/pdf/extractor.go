// Package pdf extracts text from PDF files by shelling out to pdftotext
// (poppler-utils).
package pdf

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// pdftotextBinary is the name of the poppler text extractor.
const pdftotextBinary = "pdftotext"

// DefaultMaxPages limits how much of a document is read. The first pages
// carry the course code and title, which is all classification needs.
const DefaultMaxPages = 3

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = fmt.Errorf("%w: pdftotext not found in PATH", domain.ErrToolNotFound)

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Extractor handles PDF documents.
type Extractor struct {
	runner   driven.CommandRunner
	maxPages int
	lookPath func(string) (string, error)
}

// New creates a PDF extractor that runs pdftotext from PATH.
func New() *Extractor {
	return &Extractor{
		runner:   execRunner{},
		maxPages: DefaultMaxPages,
		lookPath: exec.LookPath,
	}
}

// NewWithRunner creates a PDF extractor with a custom command runner.
// The PATH check is skipped.
func NewWithRunner(runner driven.CommandRunner) *Extractor {
	return &Extractor{
		runner:   runner,
		maxPages: DefaultMaxPages,
	}
}

// CheckAvailable reports whether pdftotext is installed.
func CheckAvailable() error {
	if _, err := exec.LookPath(pdftotextBinary); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns platform hints for installing pdftotext.
func InstallInstructions() string {
	return `pdftotext is required for PDF text extraction.

  macOS:         brew install poppler
  Debian/Ubuntu: sudo apt install poppler-utils
  Fedora:        sudo dnf install poppler-utils
  Windows:       choco install poppler`
}

// Supports reports whether ext is ".pdf".
func (e *Extractor) Supports(ext string) bool {
	return ext == ".pdf"
}

// Extract returns the text of the first pages of the PDF at path.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	if e.lookPath != nil {
		if _, err := e.lookPath(pdftotextBinary); err != nil {
			return "", &domain.ExtractionError{Kind: domain.ExtractionPDF, Err: ErrPDFToolNotFound}
		}
	}

	args := []string{"-l", strconv.Itoa(e.maxPages), "-enc", "UTF-8", "-q", path, "-"}
	out, err := e.runner.Run(ctx, pdftotextBinary, args...)
	if err != nil {
		return "", &domain.ExtractionError{
			Kind: domain.ExtractionPDF,
			Err:  fmt.Errorf("pdftotext failed: %w", err),
		}
	}
	return string(out), nil
}
