package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driven"
	"github.com/custodia-labs/sorta/internal/core/ports/driving"
)

// Ensure CascadeService implements the interface.
var _ driving.CascadeService = (*CascadeService)(nil)

// DefaultEscalateBelow is the confidence under which the cascade escalates.
const DefaultEscalateBelow = 0.7

// visionImages are the raster formats that can be attached for vision.
var visionImages = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true,
	".gif": true, ".webp": true, ".bmp": true,
}

// CascadeService escalates from rules to filename to content evidence.
type CascadeService struct {
	classify      *ClassifyService
	rules         driven.RuleStore
	escalateBelow float64
	log           *zap.Logger
}

// NewCascadeService creates a cascade over classify. rules may be nil.
func NewCascadeService(classify *ClassifyService, rules driven.RuleStore, escalateBelow float64) *CascadeService {
	if escalateBelow <= 0 || escalateBelow > 1 {
		escalateBelow = DefaultEscalateBelow
	}
	return &CascadeService{
		classify:      classify,
		rules:         rules,
		escalateBelow: escalateBelow,
		log:           zap.NewNop(),
	}
}

// SetLogger sets the structured logger.
func (s *CascadeService) SetLogger(l *zap.Logger) {
	if l != nil {
		s.log = l
	}
}

// EscalateBelow returns the escalation threshold.
func (s *CascadeService) EscalateBelow() float64 {
	return s.escalateBelow
}

// Cascade classifies the file at path. A matching rule wins outright.
// Otherwise the filename result is escalated to OCR, vision or content
// extraction while it still needs confirmation. A stage that does no
// better than the previous one is discarded.
func (s *CascadeService) Cascade(
	ctx context.Context, path string, folders []string,
) (*domain.ClassificationResult, error) {
	name := filepath.Base(path)

	if r, ok := s.matchRule(ctx, name); ok {
		s.log.Debug("rule matched", zap.String("file", name), zap.String("pattern", r.Pattern))
		return &domain.ClassificationResult{
			IsRelevant:      true,
			SuggestedFolder: r.TargetFolder,
			Confidence:      1,
			Reasoning:       fmt.Sprintf("matched rule %q", r.Pattern),
			Source:          domain.SourceRule,
		}, nil
	}

	best, err := s.classify.ClassifyFilename(ctx, name, folders)
	if err != nil {
		return nil, err
	}
	if !s.unsure(best) {
		return best, nil
	}

	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case visionImages[ext]:
		if best, err = s.escalate(ctx, best, domain.SourceOCR, path, folders, s.classify.ClassifyOCR); err != nil {
			return nil, err
		}
		if s.unsure(best) {
			if best, err = s.escalate(ctx, best, domain.SourceVision, path, folders, s.classify.ClassifyImage); err != nil {
				return nil, err
			}
		}
	case s.classify.CanExtract(path):
		if best, err = s.escalate(ctx, best, domain.SourceContent, path, folders, s.classify.ClassifyContent); err != nil {
			return nil, err
		}
	}
	return best, nil
}

type stageFunc func(ctx context.Context, path string, folders []string) (*domain.ClassificationResult, error)

// escalate runs one stage. Extraction failures and oversize images keep
// the previous result; other errors abort the cascade.
func (s *CascadeService) escalate(
	ctx context.Context, prev *domain.ClassificationResult, source domain.Source,
	path string, folders []string, stage stageFunc,
) (*domain.ClassificationResult, error) {
	s.log.Debug("escalating",
		zap.String("file", filepath.Base(path)),
		zap.String("stage", string(source)),
		zap.Float64("confidence", prev.Confidence))

	next, err := stage(ctx, path, folders)
	if err != nil {
		if recoverable(err) {
			s.log.Warn("escalation stage skipped",
				zap.String("file", filepath.Base(path)),
				zap.String("stage", string(source)),
				zap.Error(err))
			return prev, nil
		}
		return nil, err
	}
	next.Source = source
	if next.Better(*prev) {
		return next, nil
	}
	return prev, nil
}

func (s *CascadeService) unsure(r *domain.ClassificationResult) bool {
	return r.NeedsConfirmation(s.escalateBelow)
}

func (s *CascadeService) matchRule(ctx context.Context, name string) (domain.Rule, bool) {
	if s.rules == nil {
		return domain.Rule{}, false
	}
	rules, err := s.rules.ListRules(ctx)
	if err != nil {
		s.log.Warn("loading rules", zap.Error(err))
		return domain.Rule{}, false
	}
	return domain.MatchRule(rules, name)
}

func recoverable(err error) bool {
	return errors.Is(err, domain.ErrExtractionFailure) ||
		errors.Is(err, domain.ErrInsufficientText) ||
		errors.Is(err, domain.ErrImageTooLarge)
}
