package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyUndone indicates an activity entry has already been reversed.
	ErrAlreadyUndone = errors.New("activity already undone")

	// Relocation Errors.

	// ErrPathTraversal indicates a path contains a ".." segment.
	ErrPathTraversal = errors.New("path traversal rejected")

	// ErrFileNotFound indicates the file to relocate does not exist or is not a regular file.
	ErrFileNotFound = errors.New("file not found")

	// ErrDuplicateExists indicates a file with the same name already occupies the destination.
	ErrDuplicateExists = errors.New("file already exists at destination")

	// ErrTooManyDuplicates indicates auto-rename exhausted its attempt budget.
	ErrTooManyDuplicates = errors.New("too many duplicates")

	// ErrPermissionDenied indicates the OS refused access to a path.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrFileInUse indicates the file is locked by another process.
	ErrFileInUse = errors.New("file in use")

	// ErrInvalidPath indicates a path or file name failed validation.
	ErrInvalidPath = errors.New("invalid path")

	// ErrIO indicates any other filesystem failure.
	ErrIO = errors.New("i/o error")

	// Classification Errors.

	// ErrMissingCredential indicates no API key is stored or configured.
	ErrMissingCredential = errors.New("missing credential")

	// ErrTransport indicates the request could not be built or sent.
	ErrTransport = errors.New("transport failure")

	// ErrNonSuccessStatus indicates the classifier answered with a non-2xx status.
	ErrNonSuccessStatus = errors.New("non-success status")

	// ErrEmptyResult indicates the classifier returned no choices or no content.
	ErrEmptyResult = errors.New("empty result")

	// ErrParseFailure indicates the classifier response was not valid result JSON.
	ErrParseFailure = errors.New("parse failure")

	// ErrImageTooLarge indicates an image exceeds the vision size limit.
	ErrImageTooLarge = errors.New("image too large")

	// ErrExtractionFailure indicates PDF, OCR or document text extraction failed.
	ErrExtractionFailure = errors.New("extraction failure")

	// ErrInsufficientText indicates extraction produced too little text to classify.
	// Callers escalate to vision when they see it.
	ErrInsufficientText = errors.New("insufficient extracted text")

	// ErrToolNotFound indicates an external extraction binary is not installed.
	ErrToolNotFound = errors.New("extraction tool not found")

	// Ledger Errors.

	// ErrInitFailed indicates the ledger could not be opened or migrated.
	ErrInitFailed = errors.New("ledger init failed")

	// ErrQueryFailed indicates a ledger read failed.
	ErrQueryFailed = errors.New("ledger query failed")

	// ErrInsertFailed indicates a ledger write failed.
	ErrInsertFailed = errors.New("ledger insert failed")

	// ErrUpdateFailed indicates a ledger update or delete failed.
	ErrUpdateFailed = errors.New("ledger update failed")

	// Watch Errors.

	// ErrWatchActive indicates a watch session is already running.
	ErrWatchActive = errors.New("watch already active")

	// ErrPathNotFound indicates the watch target does not exist.
	ErrPathNotFound = errors.New("path does not exist")

	// ErrNotDirectory indicates the watch target is not a directory.
	ErrNotDirectory = errors.New("path is not a directory")
)

// StatusError carries a non-success response from a classifier backend.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Is reports whether target is ErrNonSuccessStatus.
func (e *StatusError) Is(target error) bool {
	return target == ErrNonSuccessStatus
}

// ParseError carries the offending snippet of an unparsable response.
type ParseError struct {
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse failure: %v (response: %q)", e.Err, e.Snippet)
}

// Is reports whether target is ErrParseFailure.
func (e *ParseError) Is(target error) bool {
	return target == ErrParseFailure
}

// Unwrap returns the underlying decode error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ImageTooLargeError reports an image rejected before any call was made.
type ImageTooLargeError struct {
	Size  int64
	Limit int64
}

func (e *ImageTooLargeError) Error() string {
	return fmt.Sprintf("image too large: %.1fMB (max %.0fMB)",
		float64(e.Size)/(1024*1024), float64(e.Limit)/(1024*1024))
}

// Is reports whether target is ErrImageTooLarge.
func (e *ImageTooLargeError) Is(target error) bool {
	return target == ErrImageTooLarge
}

// ExtractionKind distinguishes the extraction path that failed.
type ExtractionKind string

// Extraction kinds.
const (
	ExtractionPDF      ExtractionKind = "pdf"
	ExtractionOCR      ExtractionKind = "ocr"
	ExtractionDocument ExtractionKind = "document"
)

// ExtractionError reports a failed PDF, OCR or document extraction.
type ExtractionError struct {
	Kind ExtractionKind
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s extraction failed: %v", e.Kind, e.Err)
}

// Is reports whether target is ErrExtractionFailure.
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtractionFailure
}

// Unwrap returns the underlying cause.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// RollbackError is returned when a compound operation failed and reversing
// its first phase failed as well. Both errors stay reachable via errors.Is.
type RollbackError struct {
	Op       error
	Rollback error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("%v (rollback failed: %v)", e.Op, e.Rollback)
}

// Unwrap returns the operation error and the rollback error.
func (e *RollbackError) Unwrap() []error {
	return []error{e.Op, e.Rollback}
}
