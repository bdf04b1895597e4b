package mcp

import (
	"github.com/custodia-labs/sorta/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Organiser records moves and undoes them.
	Organiser driving.OrganiserService

	// Cascade classifies files.
	Cascade driving.CascadeService

	// Classify runs single-mode passes. Optional; without it only the
	// cascade and filename modes are offered.
	Classify driving.ClassifyService

	// Relocation trashes files. Optional.
	Relocation driving.RelocationService

	// Watch drives the downloads watcher. Optional.
	Watch driving.WatchService

	// Browse lists folders and previews files.
	Browse driving.BrowseService

	// History exposes corrections, activity and rules.
	History driving.HistoryService

	// Folders returns the configured candidate folders, used when a tool
	// call names none. Optional.
	Folders func() []string

	// LibraryRoot is the default parent of the candidate folders.
	LibraryRoot string

	// ConfirmBelow is the confidence under which results need review.
	// Zero means 0.7.
	ConfirmBelow float64
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	switch {
	case p.Organiser == nil:
		return ErrMissingOrganiser
	case p.Cascade == nil:
		return ErrMissingCascade
	case p.Browse == nil:
		return ErrMissingBrowse
	case p.History == nil:
		return ErrMissingHistory
	}
	return nil
}

func (p *Ports) folders(given []string) []string {
	if len(given) > 0 || p.Folders == nil {
		return given
	}
	return p.Folders()
}

func (p *Ports) threshold() float64 {
	if p.ConfirmBelow <= 0 || p.ConfirmBelow > 1 {
		return 0.7
	}
	return p.ConfirmBelow
}
