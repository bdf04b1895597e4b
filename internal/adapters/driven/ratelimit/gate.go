// Package ratelimit provides the minimum-interval gate that serialises
// outbound classifier calls.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sorta/internal/core/ports/driven"
)

// DefaultInterval is the minimum spacing between classifier calls.
const DefaultInterval = 500 * time.Millisecond

var _ driven.Gate = (*Gate)(nil)

// Gate admits one caller per interval. Callers beyond that wait in turn;
// none are rejected. The zero-interval gate admits everyone immediately.
type Gate struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	interval time.Duration
	retryAt  time.Time
}

// NewGate creates a gate with the given minimum interval.
func NewGate(interval time.Duration) *Gate {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Gate{
		limiter:  rate.NewLimiter(limit, 1),
		interval: interval,
	}
}

// NewNoopGate returns a gate that never waits. Used by tests.
func NewNoopGate() *Gate {
	return NewGate(0)
}

// Interval returns the configured minimum interval.
func (g *Gate) Interval() time.Duration {
	return g.interval
}

// Wait blocks until the caller may issue its request.
// It also respects any backoff period set by Backoff.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	retryAt := g.retryAt
	g.mu.Unlock()

	if time.Now().Before(retryAt) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(retryAt)):
		}
	}

	return g.limiter.Wait(ctx)
}

// Backoff holds every caller for d. Call this when the classifier
// answers 429; the failed request itself is not retried.
func (g *Gate) Backoff(d time.Duration) {
	if d <= 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if until := time.Now().Add(d); until.After(g.retryAt) {
		g.retryAt = until
	}
}
