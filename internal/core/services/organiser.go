package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driven"
	"github.com/custodia-labs/sorta/internal/core/ports/driving"
)

// Ensure OrganiserService implements the interface.
var _ driving.OrganiserService = (*OrganiserService)(nil)

// OrganiserService ties classification, relocation and the ledger
// together. Every driving adapter goes through it.
type OrganiserService struct {
	relocation   driving.RelocationService
	cascade      driving.CascadeService
	ledger       driven.Ledger
	confirmBelow float64
	retry        *RetryQueue
	now          func() time.Time
	log          *zap.Logger

	mu        sync.Mutex
	lastStamp time.Time
}

// NewOrganiserService creates an organiser. Results below confirmBelow
// are never relocated automatically.
func NewOrganiserService(
	relocation driving.RelocationService,
	cascade driving.CascadeService,
	ledger driven.Ledger,
	confirmBelow float64,
) *OrganiserService {
	if confirmBelow <= 0 || confirmBelow > 1 {
		confirmBelow = DefaultEscalateBelow
	}
	return &OrganiserService{
		relocation:   relocation,
		cascade:      cascade,
		ledger:       ledger,
		confirmBelow: confirmBelow,
		now:          time.Now,
		log:          zap.NewNop(),
	}
}

// SetLogger sets the structured logger.
func (s *OrganiserService) SetLogger(l *zap.Logger) {
	if l != nil {
		s.log = l
	}
}

// SetRetryQueue routes automatic relocations of locked files to q.
func (s *OrganiserService) SetRetryQueue(q *RetryQueue) {
	s.retry = q
}

// Relocate performs one relocation and records it. When the move succeeds
// but recording fails, the entry is returned together with the error.
func (s *OrganiserService) Relocate(ctx context.Context, req driving.RelocateRequest) (*domain.ActivityEntry, error) {
	if req.Source == "" || req.DestFolder == "" {
		return nil, fmt.Errorf("%w: source and destination are required", domain.ErrInvalidInput)
	}
	if !req.Conflict.IsValid() {
		return nil, fmt.Errorf("%w: unknown conflict policy %q", domain.ErrInvalidInput, req.Conflict)
	}

	var (
		moved *domain.MoveResult
		err   error
	)
	switch {
	case req.NewName != "":
		moved, err = s.relocation.RenameAndMove(req.Source, req.NewName, req.DestFolder)
	case req.Conflict == driving.ConflictAutoRename:
		moved, err = s.relocation.MoveWithAutoRename(req.Source, req.DestFolder)
	case req.Conflict == driving.ConflictReplace:
		moved, err = s.relocation.Replace(req.Source, req.DestFolder)
	default:
		moved, err = s.relocation.Move(req.Source, req.DestFolder)
	}
	if err != nil {
		return nil, err
	}

	entry := domain.ActivityEntry{
		Filename:   filepath.Base(moved.Destination),
		FromFolder: filepath.Dir(moved.Source),
		ToFolder:   filepath.Dir(moved.Destination),
		CreatedAt:  s.stamp(),
	}
	if original := filepath.Base(moved.Source); original != entry.Filename {
		entry.OriginalFilename = original
	}

	id, err := s.ledger.AddActivity(ctx, entry)
	if err != nil {
		s.log.Error("recording activity", zap.String("file", entry.Filename), zap.Error(err))
		return &entry, err
	}
	entry.ID = id

	if req.AISuggested != "" {
		s.recordCorrection(ctx, entry, req.AISuggested)
	}

	s.log.Info("relocated",
		zap.String("file", entry.Filename),
		zap.String("from", entry.FromFolder),
		zap.String("to", entry.ToFolder))
	return &entry, nil
}

func (s *OrganiserService) recordCorrection(ctx context.Context, entry domain.ActivityEntry, suggested string) {
	chose := filepath.Base(entry.ToFolder)
	kind := domain.CorrectionCorrected
	if strings.EqualFold(chose, suggested) || strings.EqualFold(entry.ToFolder, suggested) {
		kind = domain.CorrectionAccepted
	}
	filename := entry.Filename
	if entry.OriginalFilename != "" {
		filename = entry.OriginalFilename
	}
	_, err := s.ledger.AddCorrection(ctx, domain.Correction{
		Filename:    filename,
		AISuggested: suggested,
		UserChose:   chose,
		Type:        kind,
		CreatedAt:   entry.CreatedAt,
	})
	if err != nil {
		s.log.Warn("recording correction", zap.String("file", filename), zap.Error(err))
	}
}

// stamp returns a millisecond timestamp strictly after the previous one,
// so every activity entry is individually addressable for undo.
func (s *OrganiserService) stamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := domain.Millis(s.now())
	if !t.After(s.lastStamp) {
		t = s.lastStamp.Add(time.Millisecond)
	}
	s.lastStamp = t
	return t
}

// Undo reverses the relocation recorded at createdAt, restoring the
// original folder and name.
func (s *OrganiserService) Undo(ctx context.Context, createdAt time.Time) (*domain.ActivityEntry, error) {
	entry, err := s.ledger.GetActivity(ctx, createdAt)
	if err != nil {
		return nil, err
	}
	if entry.Undone {
		return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyUndone, entry.Filename)
	}

	if _, err := s.relocation.UndoAs(entry.MovedPath(), entry.FromFolder, entry.RestoreName()); err != nil {
		return nil, err
	}

	changed, err := s.ledger.MarkUndone(ctx, entry.CreatedAt)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyUndone, entry.Filename)
	}
	entry.Undone = true

	s.log.Info("undone",
		zap.String("file", entry.RestoreName()),
		zap.String("folder", entry.FromFolder))
	return entry, nil
}

// UndoLast reverses the newest relocation not yet undone.
func (s *OrganiserService) UndoLast(ctx context.Context) (*domain.ActivityEntry, error) {
	entries, err := s.ledger.ListActivity(ctx, 0)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if !e.Undone {
			return s.Undo(ctx, e.CreatedAt)
		}
	}
	return nil, fmt.Errorf("%w: nothing to undo", domain.ErrNotFound)
}

// ProcessObservation classifies a newly arrived file and, when opts.Auto
// is set and the result needs no confirmation, files it under
// opts.LibraryRoot.
func (s *OrganiserService) ProcessObservation(
	ctx context.Context, obs domain.FileObservation, folders []string, opts driving.ProcessOptions,
) driving.Outcome {
	out := driving.Outcome{Observation: obs}

	result, err := s.cascade.Cascade(ctx, obs.Path, folders)
	if err != nil {
		out.Err = err
		out.NeedsConfirmation = true
		return out
	}
	out.Result = result
	out.NeedsConfirmation = result.NeedsConfirmation(s.confirmBelow)

	// A classifier folder outside the candidate list is never acted on.
	if result.Source != domain.SourceRule && !slices.Contains(folders, result.SuggestedFolder) {
		out.NeedsConfirmation = true
	}
	if !opts.Auto || out.NeedsConfirmation {
		return out
	}

	dest := result.SuggestedFolder
	if !filepath.IsAbs(dest) {
		if opts.LibraryRoot == "" {
			out.NeedsConfirmation = true
			return out
		}
		dest = filepath.Join(opts.LibraryRoot, dest)
	}

	req := driving.RelocateRequest{
		Source:     obs.Path,
		DestFolder: dest,
		Conflict:   driving.ConflictAutoRename,
	}
	entry, err := s.Relocate(ctx, req)
	if err != nil {
		out.Err = err
		if errors.Is(err, domain.ErrFileInUse) && s.retry != nil && s.retry.Enqueue(req) {
			out.Retrying = true
		}
		return out
	}
	out.Activity = entry
	return out
}

// ClassifyBatch runs the cascade over paths with at most concurrency
// classifications in flight. Per-file failures are reported in the item;
// only context cancellation fails the batch.
func (s *OrganiserService) ClassifyBatch(
	ctx context.Context, paths []string, folders []string, concurrency int,
) ([]driving.BatchItem, error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	batch := uuid.NewString()
	log := s.log.With(zap.String("batch", batch))
	log.Debug("batch started", zap.Int("files", len(paths)), zap.Int("concurrency", concurrency))

	items := make([]driving.BatchItem, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			items[i].Path = path
			result, err := s.cascade.Cascade(gctx, path, folders)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Warn("classification failed", zap.String("path", path), zap.Error(err))
				items[i].Error = err.Error()
				return nil
			}
			items[i].Result = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Debug("batch finished")
	return items, nil
}
