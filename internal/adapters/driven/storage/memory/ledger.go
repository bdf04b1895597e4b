// Package memory provides an in-memory driven.Ledger for tests and
// ephemeral runs (sorta --ephemeral). It mirrors the SQLite adapter's
// retention, ordering and duplicate-tolerance semantics.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driven"
)

// Ensure Ledger implements the interface.
var _ driven.Ledger = (*Ledger)(nil)

// Ledger is an in-memory implementation of driven.Ledger.
type Ledger struct {
	mu             sync.Mutex
	maxCorrections int
	maxActivity    int
	nextID         int64

	corrections []domain.Correction
	activity    []domain.ActivityEntry
	settings    map[string]string
	rules       []domain.Rule
}

// NewLedger creates an in-memory ledger. Non-positive bounds default to
// 50 corrections and 100 activity entries.
func NewLedger(maxCorrections, maxActivity int) *Ledger {
	if maxCorrections <= 0 {
		maxCorrections = 50
	}
	if maxActivity <= 0 {
		maxActivity = 100
	}
	return &Ledger{
		maxCorrections: maxCorrections,
		maxActivity:    maxActivity,
		settings:       make(map[string]string),
	}
}

func (l *Ledger) id() int64 {
	l.nextID++
	return l.nextID
}

// AddCorrection inserts a correction and enforces retention. A second
// correction for the same filename and millisecond fails with
// domain.ErrInsertFailed.
func (l *Ledger) AddCorrection(_ context.Context, c domain.Correction) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.CreatedAt = domain.Millis(c.CreatedAt)
	if l.hasCorrection(c) {
		return 0, fmt.Errorf("%w: adding correction: %s at %d already recorded",
			domain.ErrInsertFailed, c.Filename, c.CreatedAt.UnixMilli())
	}
	c.ID = l.id()
	l.corrections = append(l.corrections, c)
	l.pruneCorrections()
	return c.ID, nil
}

// ListCorrections returns corrections newest first.
func (l *Ledger) ListCorrections(_ context.Context, limit int) ([]domain.Correction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := append([]domain.Correction(nil), l.corrections...)
	sortCorrections(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ImportCorrections inserts corrections not already present.
func (l *Ledger) ImportCorrections(_ context.Context, cs []domain.Correction) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range cs {
		c.CreatedAt = domain.Millis(c.CreatedAt)
		if l.hasCorrection(c) {
			continue
		}
		c.ID = l.id()
		l.corrections = append(l.corrections, c)
		n++
	}
	l.pruneCorrections()
	return n, nil
}

// ClearCorrections removes every correction.
func (l *Ledger) ClearCorrections(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.corrections = nil
	return nil
}

func (l *Ledger) hasCorrection(c domain.Correction) bool {
	for _, existing := range l.corrections {
		if existing.Filename == c.Filename && existing.CreatedAt.Equal(c.CreatedAt) {
			return true
		}
	}
	return false
}

func (l *Ledger) pruneCorrections() {
	sortCorrections(l.corrections)
	if len(l.corrections) > l.maxCorrections {
		l.corrections = l.corrections[:l.maxCorrections]
	}
}

func sortCorrections(cs []domain.Correction) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].CreatedAt.Equal(cs[j].CreatedAt) {
			return cs[i].ID > cs[j].ID
		}
		return cs[i].CreatedAt.After(cs[j].CreatedAt)
	})
}

// AddActivity inserts an entry and enforces retention. Entries are keyed
// by filename, destination and millisecond.
func (l *Ledger) AddActivity(_ context.Context, a domain.ActivityEntry) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.CreatedAt = domain.Millis(a.CreatedAt)
	if l.hasActivity(a) {
		return 0, fmt.Errorf("%w: adding activity: %s at %d already recorded",
			domain.ErrInsertFailed, a.Filename, a.CreatedAt.UnixMilli())
	}
	a.ID = l.id()
	l.activity = append(l.activity, a)
	l.pruneActivity()
	return a.ID, nil
}

// ListActivity returns entries newest first.
func (l *Ledger) ListActivity(_ context.Context, limit int) ([]domain.ActivityEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := append([]domain.ActivityEntry(nil), l.activity...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetActivity returns the newest entry created at the given millisecond.
func (l *Ledger) GetActivity(_ context.Context, createdAt time.Time) (*domain.ActivityEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ms := createdAt.UnixMilli()
	for _, a := range l.activity {
		if a.CreatedAt.UnixMilli() == ms {
			found := a
			return &found, nil
		}
	}
	return nil, domain.ErrNotFound
}

// MarkUndone flips undone on not-yet-undone entries at createdAt.
func (l *Ledger) MarkUndone(_ context.Context, createdAt time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ms := createdAt.UnixMilli()
	changed := false
	for i := range l.activity {
		if l.activity[i].CreatedAt.UnixMilli() == ms && !l.activity[i].Undone {
			l.activity[i].Undone = true
			changed = true
		}
	}
	return changed, nil
}

// ImportActivity inserts entries not already present.
func (l *Ledger) ImportActivity(_ context.Context, as []domain.ActivityEntry) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, a := range as {
		a.CreatedAt = domain.Millis(a.CreatedAt)
		if l.hasActivity(a) {
			continue
		}
		a.ID = l.id()
		l.activity = append(l.activity, a)
		n++
	}
	l.pruneActivity()
	return n, nil
}

// ClearActivity removes every entry.
func (l *Ledger) ClearActivity(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.activity = nil
	return nil
}

func (l *Ledger) hasActivity(a domain.ActivityEntry) bool {
	for _, existing := range l.activity {
		if existing.Filename == a.Filename && existing.ToFolder == a.ToFolder &&
			existing.CreatedAt.Equal(a.CreatedAt) {
			return true
		}
	}
	return false
}

func (l *Ledger) pruneActivity() {
	sort.SliceStable(l.activity, func(i, j int) bool {
		if l.activity[i].CreatedAt.Equal(l.activity[j].CreatedAt) {
			return l.activity[i].ID > l.activity[j].ID
		}
		return l.activity[i].CreatedAt.After(l.activity[j].CreatedAt)
	})
	if len(l.activity) > l.maxActivity {
		l.activity = l.activity[:l.maxActivity]
	}
}

// GetSetting returns the value stored under key.
func (l *Ledger) GetSetting(_ context.Context, key string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.settings[key]
	return v, ok, nil
}

// SetSetting stores value under key.
func (l *Ledger) SetSetting(_ context.Context, key, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.settings[key] = value
	return nil
}

// DeleteSetting removes key.
func (l *Ledger) DeleteSetting(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.settings, key)
	return nil
}

// AddRule appends a rule.
func (l *Ledger) AddRule(_ context.Context, pattern, targetFolder string) (*domain.Rule, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r := domain.Rule{ID: l.id(), Pattern: pattern, TargetFolder: targetFolder, CreatedAt: domain.Millis(time.Now())}
	l.rules = append(l.rules, r)
	return &r, nil
}

// ListRules returns rules in insertion order.
func (l *Ledger) ListRules(_ context.Context) ([]domain.Rule, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Rule(nil), l.rules...), nil
}

// DeleteRule removes a rule by ID.
func (l *Ledger) DeleteRule(_ context.Context, id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, r := range l.rules {
		if r.ID == id {
			l.rules = append(l.rules[:i], l.rules[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// Close is a no-op.
func (l *Ledger) Close() error {
	return nil
}
