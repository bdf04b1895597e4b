// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/sorta/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewReview is the file list with suggestions.
	ViewReview ViewType = iota
	// ViewFolderPicker chooses a destination folder.
	ViewFolderPicker
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewReview:
		return "review"
	case ViewFolderPicker:
		return "folder_picker"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// FilesLoaded carries the files found in the reviewed folder.
type FilesLoaded struct {
	Files []domain.FileEntry
	Err   error
}

// ClassificationDone carries the cascade's answer for one file.
type ClassificationDone struct {
	Path   string
	Result *domain.ClassificationResult
	Err    error
}

// FileMoved signals a relocation finished.
type FileMoved struct {
	Path  string
	Entry *domain.ActivityEntry
	Err   error
}

// MoveUndone signals an undo finished.
type MoveUndone struct {
	Entry *domain.ActivityEntry
	Err   error
}

// FileTrashed signals a file was moved to the trash.
type FileTrashed struct {
	Path      string
	TrashedTo string
	Err       error
}

// PreviewLoaded carries a file preview.
type PreviewLoaded struct {
	Path    string
	Preview *domain.Preview
	Err     error
}

// FolderPickRequested asks for a destination for the file at Path.
type FolderPickRequested struct {
	Path    string
	Current string
}

// FolderChosen carries the folder picked for the file at Path.
type FolderChosen struct {
	Path   string
	Folder string
}
