package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/sorta/internal/core/domain"
)

// CorrectionStore persists corrections with bounded retention.
type CorrectionStore interface {
	// AddCorrection inserts a correction and evicts the oldest beyond the bound.
	AddCorrection(ctx context.Context, c domain.Correction) (int64, error)

	// ListCorrections returns up to limit corrections, newest first.
	// A limit <= 0 returns all retained corrections.
	ListCorrections(ctx context.Context, limit int) ([]domain.Correction, error)

	// ImportCorrections merges externally-held corrections. Records already
	// present are skipped. Returns the number inserted.
	ImportCorrections(ctx context.Context, cs []domain.Correction) (int, error)

	// ClearCorrections removes every correction.
	ClearCorrections(ctx context.Context) error
}

// ActivityStore persists relocation history with bounded retention.
type ActivityStore interface {
	// AddActivity inserts an entry and evicts the oldest beyond the bound.
	AddActivity(ctx context.Context, a domain.ActivityEntry) (int64, error)

	// ListActivity returns up to limit entries, newest first.
	// A limit <= 0 returns all retained entries.
	ListActivity(ctx context.Context, limit int) ([]domain.ActivityEntry, error)

	// GetActivity returns the entry created at the given millisecond.
	// Returns domain.ErrNotFound if none exists.
	GetActivity(ctx context.Context, createdAt time.Time) (*domain.ActivityEntry, error)

	// MarkUndone flips undone on entries created at the given millisecond.
	// Reports whether any entry changed.
	MarkUndone(ctx context.Context, createdAt time.Time) (bool, error)

	// ImportActivity merges externally-held entries. Records already present
	// are skipped. Returns the number inserted.
	ImportActivity(ctx context.Context, as []domain.ActivityEntry) (int, error)

	// ClearActivity removes every entry.
	ClearActivity(ctx context.Context) error
}

// SettingStore persists last-write-wins key/value pairs.
type SettingStore interface {
	// GetSetting returns the value and whether the key exists.
	GetSetting(ctx context.Context, key string) (string, bool, error)

	// SetSetting stores value under key, replacing any previous value.
	SetSetting(ctx context.Context, key, value string) error

	// DeleteSetting removes key. Missing keys are not an error.
	DeleteSetting(ctx context.Context, key string) error
}

// RuleStore persists deterministic filename rules.
type RuleStore interface {
	// AddRule inserts a rule and returns it with ID and CreatedAt set.
	AddRule(ctx context.Context, pattern, targetFolder string) (*domain.Rule, error)

	// ListRules returns rules in creation order.
	ListRules(ctx context.Context) ([]domain.Rule, error)

	// DeleteRule removes a rule. Returns domain.ErrNotFound if absent.
	DeleteRule(ctx context.Context, id int64) error
}

// Ledger is the complete persistent store.
// Implementations serialise every read and write.
type Ledger interface {
	CorrectionStore
	ActivityStore
	SettingStore
	RuleStore

	// Close releases the underlying storage.
	Close() error
}
