// Package mcp provides an MCP (Model Context Protocol) server adapter for
// sorta. It lets AI assistants classify, move and undo files, inspect
// folders and drive the downloads watcher.
package mcp

import "errors"

var (
	// ErrMissingOrganiser is returned when the organiser service is not provided.
	ErrMissingOrganiser = errors.New("mcp: organiser service is required")

	// ErrMissingCascade is returned when the cascade service is not provided.
	ErrMissingCascade = errors.New("mcp: cascade service is required")

	// ErrMissingBrowse is returned when the browse service is not provided.
	ErrMissingBrowse = errors.New("mcp: browse service is required")

	// ErrMissingHistory is returned when the history service is not provided.
	ErrMissingHistory = errors.New("mcp: history service is required")

	// ErrWatchUnavailable is returned by watch tools when no watcher is wired.
	ErrWatchUnavailable = errors.New("mcp: watcher is not available")

	// ErrTrashUnavailable is returned by trash_file when no relocation service is wired.
	ErrTrashUnavailable = errors.New("mcp: trash is not available")
)
