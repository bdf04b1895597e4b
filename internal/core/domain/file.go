package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// FileObservation is emitted once per newly arrived file after its
// filesystem activity has been quiet for the debounce window.
type FileObservation struct {
	// Path is the absolute path of the file.
	Path string `json:"path"`

	// Name is the base name of the file.
	Name string `json:"name"`

	// Size is the file size in bytes at stabilisation.
	Size int64 `json:"size"`
}

// WatchState is the directory watcher's lifecycle state.
type WatchState string

// Watch states.
const (
	WatchIdle          WatchState = "idle"
	WatchWatching      WatchState = "watching"
	WatchStopRequested WatchState = "stop_requested"
)

// WatchStatus describes the current watch session.
type WatchStatus struct {
	State WatchState `json:"state"`
	Path  string     `json:"path,omitempty"`
	Since time.Time  `json:"since,omitempty"`
}

// MoveResult reports where a relocated file ended up.
type MoveResult struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// FolderEntry is one directory found by a folder scan.
type FolderEntry struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Depth int    `json:"depth"`
}

// FileCategory is a coarse grouping of files by extension.
type FileCategory string

// File categories.
const (
	CategoryDocument     FileCategory = "document"
	CategoryImage        FileCategory = "image"
	CategorySpreadsheet  FileCategory = "spreadsheet"
	CategoryPresentation FileCategory = "presentation"
	CategoryArchive      FileCategory = "archive"
	CategoryCode         FileCategory = "code"
	CategoryAudio        FileCategory = "audio"
	CategoryVideo        FileCategory = "video"
	CategoryOther        FileCategory = "other"
)

var categoryByExt = map[string]FileCategory{
	".pdf": CategoryDocument, ".doc": CategoryDocument, ".docx": CategoryDocument,
	".txt": CategoryDocument, ".md": CategoryDocument, ".rtf": CategoryDocument,
	".odt": CategoryDocument, ".html": CategoryDocument, ".htm": CategoryDocument,

	".png": CategoryImage, ".jpg": CategoryImage, ".jpeg": CategoryImage,
	".gif": CategoryImage, ".webp": CategoryImage, ".bmp": CategoryImage,
	".svg": CategoryImage, ".heic": CategoryImage,

	".xls": CategorySpreadsheet, ".xlsx": CategorySpreadsheet,
	".csv": CategorySpreadsheet, ".ods": CategorySpreadsheet,

	".ppt": CategoryPresentation, ".pptx": CategoryPresentation,
	".key": CategoryPresentation, ".odp": CategoryPresentation,

	".zip": CategoryArchive, ".tar": CategoryArchive, ".gz": CategoryArchive,
	".rar": CategoryArchive, ".7z": CategoryArchive,

	".go": CategoryCode, ".py": CategoryCode, ".java": CategoryCode,
	".js": CategoryCode, ".ts": CategoryCode, ".c": CategoryCode,
	".cpp": CategoryCode, ".h": CategoryCode, ".rs": CategoryCode,
	".ipynb": CategoryCode, ".r": CategoryCode, ".m": CategoryCode,
	".json": CategoryCode,

	".mp3": CategoryAudio, ".wav": CategoryAudio, ".m4a": CategoryAudio,
	".flac": CategoryAudio,

	".mp4": CategoryVideo, ".mov": CategoryVideo, ".mkv": CategoryVideo,
	".avi": CategoryVideo, ".webm": CategoryVideo,
}

// CategoryFor returns the category of a file name by extension.
func CategoryFor(name string) FileCategory {
	if c, ok := categoryByExt[strings.ToLower(filepath.Ext(name))]; ok {
		return c
	}
	return CategoryOther
}

// FileEntry is one file found by a file scan.
type FileEntry struct {
	Name      string       `json:"name"`
	Path      string       `json:"path"`
	Extension string       `json:"extension"`
	Size      int64        `json:"size"`
	ModTime   time.Time    `json:"mod_time"`
	Category  FileCategory `json:"category"`
}

// PreviewKind identifies what a Preview carries.
type PreviewKind string

// Preview kinds.
const (
	PreviewText  PreviewKind = "text"
	PreviewImage PreviewKind = "image"
	PreviewNone  PreviewKind = "none"
)

// Preview is a bounded rendering of a file.
type Preview struct {
	Kind      PreviewKind `json:"kind"`
	Text      string      `json:"text,omitempty"`
	MIMEType  string      `json:"mime_type,omitempty"`
	DataURL   string      `json:"data_url,omitempty"`
	Truncated bool        `json:"truncated,omitempty"`
}

// IsHidden reports whether a base name denotes a hidden file.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

const reservedNameChars = `<>:"/\|?*`

// ValidateFileName checks a bare file name used as a rename target.
func ValidateFileName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty file name", ErrInvalidPath)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrPathTraversal, name)
	case strings.Contains(name, ".."+string(filepath.Separator)) || strings.Contains(name, "../"):
		return fmt.Errorf("%w: %q", ErrPathTraversal, name)
	case strings.ContainsAny(name, reservedNameChars):
		return fmt.Errorf("%w: %q contains reserved characters", ErrInvalidPath, name)
	case strings.TrimSpace(name) != name || strings.TrimRight(name, ".") != name:
		return fmt.Errorf("%w: %q has leading/trailing spaces or dots", ErrInvalidPath, name)
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("%w: %q contains control characters", ErrInvalidPath, name)
		}
	}
	return nil
}
