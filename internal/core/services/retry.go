package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driving"
)

// retryBuffer bounds how many relocations may wait to be queued.
const retryBuffer = 64

// RelocateFunc performs one relocation attempt.
type RelocateFunc func(ctx context.Context, req driving.RelocateRequest) (*domain.ActivityEntry, error)

// RetryOptions tunes the backoff. Zero fields take defaults.
type RetryOptions struct {
	Base     time.Duration
	Max      time.Duration
	Attempts int
}

// RetryResult reports the final outcome of a queued relocation.
type RetryResult struct {
	Request  driving.RelocateRequest
	Entry    *domain.ActivityEntry
	Attempts int
	Err      error
}

type retryItem struct {
	req     driving.RelocateRequest
	attempt int
	due     time.Time
}

// RetryQueue re-attempts relocations that failed because the file was in
// use, with exponential backoff. Only domain.ErrFileInUse is retried.
type RetryQueue struct {
	relocate RelocateFunc
	opts     RetryOptions
	incoming chan retryItem
	onResult func(RetryResult)
	log      *zap.Logger
}

// NewRetryQueue creates a queue. Call Run to start processing.
func NewRetryQueue(relocate RelocateFunc, opts RetryOptions) *RetryQueue {
	if opts.Base <= 0 {
		opts.Base = 5 * time.Second
	}
	if opts.Max <= 0 {
		opts.Max = 60 * time.Second
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 5
	}
	return &RetryQueue{
		relocate: relocate,
		opts:     opts,
		incoming: make(chan retryItem, retryBuffer),
		log:      zap.NewNop(),
	}
}

// SetLogger sets the structured logger.
func (q *RetryQueue) SetLogger(l *zap.Logger) {
	if l != nil {
		q.log = l
	}
}

// OnResult registers a callback for final outcomes. It runs on the
// queue's goroutine. Must be called before Run.
func (q *RetryQueue) OnResult(fn func(RetryResult)) {
	q.onResult = fn
}

// Delay returns the wait before retry attempt n (0-based): base·2^n,
// capped at max.
func (q *RetryQueue) Delay(n int) time.Duration {
	d := q.opts.Base
	for i := 0; i < n; i++ {
		d *= 2
		if d >= q.opts.Max {
			return q.opts.Max
		}
	}
	return min(d, q.opts.Max)
}

// Enqueue schedules req for a retry. It reports false when the queue is
// full.
func (q *RetryQueue) Enqueue(req driving.RelocateRequest) bool {
	select {
	case q.incoming <- retryItem{req: req}:
		q.log.Debug("relocation queued for retry", zap.String("path", req.Source))
		return true
	default:
		q.log.Warn("retry queue full, dropping", zap.String("path", req.Source))
		return false
	}
}

// Run processes the queue until ctx is done.
func (q *RetryQueue) Run(ctx context.Context) {
	var pending []retryItem
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		if len(pending) > 0 {
			next := pending[0].due
			for _, it := range pending[1:] {
				if it.due.Before(next) {
					next = it.due
				}
			}
			timer.Reset(time.Until(next))
		}

		select {
		case <-ctx.Done():
			return
		case it := <-q.incoming:
			timer.Stop()
			it.due = time.Now().Add(q.Delay(0))
			pending = append(pending, it)
		case now := <-timer.C:
			pending = q.attemptDue(ctx, pending, now)
		}
	}
}

// attemptDue retries every item due by now and returns those still waiting.
func (q *RetryQueue) attemptDue(ctx context.Context, pending []retryItem, now time.Time) []retryItem {
	remaining := pending[:0]
	for _, it := range pending {
		if it.due.After(now) {
			remaining = append(remaining, it)
			continue
		}

		entry, err := q.relocate(ctx, it.req)
		it.attempt++
		if err != nil && errors.Is(err, domain.ErrFileInUse) && it.attempt < q.opts.Attempts {
			it.due = now.Add(q.Delay(it.attempt))
			q.log.Debug("file still in use",
				zap.String("path", it.req.Source),
				zap.Int("attempt", it.attempt),
				zap.Duration("next", q.Delay(it.attempt)))
			remaining = append(remaining, it)
			continue
		}

		if err != nil {
			q.log.Warn("retry gave up", zap.String("path", it.req.Source), zap.Int("attempts", it.attempt), zap.Error(err))
		}
		if q.onResult != nil {
			q.onResult(RetryResult{Request: it.req, Entry: entry, Attempts: it.attempt, Err: err})
		}
	}
	return remaining
}
