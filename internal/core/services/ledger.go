package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driven"
	"github.com/custodia-labs/sorta/internal/core/ports/driving"
)

// Ensure HistoryService implements the interface.
var _ driving.HistoryService = (*HistoryService)(nil)

// HistoryService exposes the ledger's corrections, activity and rules.
type HistoryService struct {
	ledger driven.Ledger
	log    *zap.Logger
}

// NewHistoryService creates a history service over ledger.
func NewHistoryService(ledger driven.Ledger) *HistoryService {
	return &HistoryService{ledger: ledger, log: zap.NewNop()}
}

// SetLogger sets the structured logger.
func (s *HistoryService) SetLogger(l *zap.Logger) {
	if l != nil {
		s.log = l
	}
}

// ListCorrections returns up to limit corrections, newest first.
func (s *HistoryService) ListCorrections(ctx context.Context, limit int) ([]domain.Correction, error) {
	return s.ledger.ListCorrections(ctx, limit)
}

// ListActivity returns up to limit activity entries, newest first.
func (s *HistoryService) ListActivity(ctx context.Context, limit int) ([]domain.ActivityEntry, error) {
	return s.ledger.ListActivity(ctx, limit)
}

// ClearCorrections removes every correction.
func (s *HistoryService) ClearCorrections(ctx context.Context) error {
	s.log.Info("clearing corrections")
	return s.ledger.ClearCorrections(ctx)
}

// ClearActivity removes every activity entry.
func (s *HistoryService) ClearActivity(ctx context.Context) error {
	s.log.Info("clearing activity")
	return s.ledger.ClearActivity(ctx)
}

// Export returns the whole retained history.
func (s *HistoryService) Export(ctx context.Context) (*driving.Export, error) {
	corrections, err := s.ledger.ListCorrections(ctx, 0)
	if err != nil {
		return nil, err
	}
	activity, err := s.ledger.ListActivity(ctx, 0)
	if err != nil {
		return nil, err
	}
	return &driving.Export{Corrections: corrections, Activity: activity}, nil
}

// Import merges exported history. Records already present are skipped,
// as are records without a file name or timestamp.
func (s *HistoryService) Import(ctx context.Context, data driving.Export) (*driving.ImportResult, error) {
	corrections := make([]domain.Correction, 0, len(data.Corrections))
	for _, c := range data.Corrections {
		if c.Filename == "" || c.CreatedAt.IsZero() {
			continue
		}
		if !c.Type.IsValid() {
			c.Type = domain.CorrectionCorrected
		}
		c.ID = 0
		corrections = append(corrections, c)
	}

	activity := make([]domain.ActivityEntry, 0, len(data.Activity))
	for _, a := range data.Activity {
		if a.Filename == "" || a.CreatedAt.IsZero() {
			continue
		}
		a.ID = 0
		activity = append(activity, a)
	}

	nc, err := s.ledger.ImportCorrections(ctx, corrections)
	if err != nil {
		return nil, err
	}
	na, err := s.ledger.ImportActivity(ctx, activity)
	if err != nil {
		return nil, err
	}
	s.log.Info("history imported", zap.Int("corrections", nc), zap.Int("activity", na))
	return &driving.ImportResult{Corrections: nc, Activity: na}, nil
}

// Stats summarises acceptance per suggested folder over the retained
// history.
func (s *HistoryService) Stats(ctx context.Context) (*domain.HistoryStats, error) {
	corrections, err := s.ledger.ListCorrections(ctx, 0)
	if err != nil {
		return nil, err
	}
	activity, err := s.ledger.ListActivity(ctx, 0)
	if err != nil {
		return nil, err
	}
	return domain.ComputeStats(corrections, activity), nil
}

// ListRules returns rules in evaluation order.
func (s *HistoryService) ListRules(ctx context.Context) ([]domain.Rule, error) {
	return s.ledger.ListRules(ctx)
}

// AddRule validates and stores a filename rule.
func (s *HistoryService) AddRule(ctx context.Context, pattern, targetFolder string) (*domain.Rule, error) {
	pattern = strings.TrimSpace(pattern)
	targetFolder = strings.TrimSpace(targetFolder)
	if pattern == "" {
		return nil, fmt.Errorf("%w: pattern is required", domain.ErrInvalidInput)
	}
	if targetFolder == "" {
		return nil, fmt.Errorf("%w: target folder is required", domain.ErrInvalidInput)
	}
	if strings.ContainsAny(pattern, "*?[") {
		if _, err := filepath.Match(strings.ToLower(pattern), ""); err != nil {
			return nil, fmt.Errorf("%w: pattern %q: %w", domain.ErrInvalidInput, pattern, err)
		}
	}
	return s.ledger.AddRule(ctx, pattern, targetFolder)
}

// DeleteRule removes a rule by ID.
func (s *HistoryService) DeleteRule(ctx context.Context, id int64) error {
	return s.ledger.DeleteRule(ctx, id)
}
