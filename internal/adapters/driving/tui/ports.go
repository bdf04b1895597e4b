// Package tui provides an interactive terminal review of a folder of files.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/sorta/internal/core/ports/driving"
)

// DefaultConfirmBelow is the confidence under which suggestions are shown
// as uncertain.
const DefaultConfirmBelow = 0.7

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Organiser records moves and undoes them.
	Organiser driving.OrganiserService

	// Cascade classifies each file.
	Cascade driving.CascadeService

	// Browse lists files and renders previews.
	Browse driving.BrowseService

	// Relocation is optional; without it the trash key is disabled.
	Relocation driving.RelocationService

	// Folders are the candidate destination folders.
	Folders []string

	// LibraryRoot is where relative folders are resolved.
	LibraryRoot string

	// ConfirmBelow is the confidence at which suggestions are trusted.
	ConfirmBelow float64

	// Dir is the folder under review.
	Dir string
}

// Validate ensures all required ports are set.
// Returns an error if any port is nil.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Organiser == nil {
		return ErrMissingOrganiser
	}
	if p.Cascade == nil {
		return ErrMissingCascade
	}
	if p.Browse == nil {
		return ErrMissingBrowse
	}
	if p.Dir == "" {
		return ErrInvalidPorts
	}
	return nil
}

// Threshold returns the confidence threshold, taking the default when unset.
func (p *Ports) Threshold() float64 {
	if p.ConfirmBelow <= 0 || p.ConfirmBelow > 1 {
		return DefaultConfirmBelow
	}
	return p.ConfirmBelow
}

// Roots returns Dir and LibraryRoot as absolute paths. An empty
// LibraryRoot stays empty.
func (p *Ports) Roots() (dir, library string, err error) {
	dir, err = filepath.Abs(p.Dir)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s: %w", ErrInvalidPorts, p.Dir, err)
	}
	if p.LibraryRoot != "" {
		library, err = filepath.Abs(p.LibraryRoot)
		if err != nil {
			return "", "", fmt.Errorf("%w: %s: %w", ErrInvalidPorts, p.LibraryRoot, err)
		}
	}
	return dir, library, nil
}
