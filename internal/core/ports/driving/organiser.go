package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/sorta/internal/core/domain"
)

// ConflictPolicy decides what happens when the destination name is taken.
type ConflictPolicy string

// Conflict policies.
const (
	ConflictFail       ConflictPolicy = "fail"
	ConflictAutoRename ConflictPolicy = "auto_rename"
	ConflictReplace    ConflictPolicy = "replace"
)

// IsValid reports whether p is a known policy. Empty means fail.
func (p ConflictPolicy) IsValid() bool {
	switch p {
	case "", ConflictFail, ConflictAutoRename, ConflictReplace:
		return true
	}
	return false
}

// RelocateRequest describes one user- or classifier-driven relocation.
type RelocateRequest struct {
	Source     string
	DestFolder string

	// NewName renames the file on the way. Empty keeps the name.
	NewName string

	Conflict ConflictPolicy

	// AISuggested is the classifier's folder. When set, the relocation is
	// recorded as a correction too.
	AISuggested string
}

// ProcessOptions tunes ProcessObservation.
type ProcessOptions struct {
	// Auto relocates results that do not need confirmation.
	Auto bool

	// LibraryRoot is the parent of the candidate folders.
	LibraryRoot string
}

// Outcome is the result of processing one observation.
type Outcome struct {
	Observation domain.FileObservation       `json:"observation"`
	Result      *domain.ClassificationResult `json:"result,omitempty"`
	Activity    *domain.ActivityEntry        `json:"activity,omitempty"`

	// NeedsConfirmation is true when the file was left in place for review.
	NeedsConfirmation bool `json:"needs_confirmation"`

	// Retrying is true when a locked file was queued for another attempt.
	Retrying bool `json:"retrying,omitempty"`

	// Err holds a processing failure. Not serialised.
	Err error `json:"-"`
}

// BatchItem is one file's result in a batch classification.
type BatchItem struct {
	Path   string                       `json:"path"`
	Result *domain.ClassificationResult `json:"result,omitempty"`
	Error  string                       `json:"error,omitempty"`
}

// OrganiserService is the single entry point that ties classification,
// relocation and the ledger together.
type OrganiserService interface {
	Relocate(ctx context.Context, req RelocateRequest) (*domain.ActivityEntry, error)
	Undo(ctx context.Context, createdAt time.Time) (*domain.ActivityEntry, error)
	UndoLast(ctx context.Context) (*domain.ActivityEntry, error)
	ProcessObservation(ctx context.Context, obs domain.FileObservation, folders []string, opts ProcessOptions) Outcome
	ClassifyBatch(ctx context.Context, paths []string, folders []string, concurrency int) ([]BatchItem, error)
}
