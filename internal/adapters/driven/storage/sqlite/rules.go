package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driven"
)

// ruleStore implements driven.RuleStore.
type ruleStore struct {
	store *Store
}

var _ driven.RuleStore = (*ruleStore)(nil)

// AddRule inserts a rule.
func (s *ruleStore) AddRule(ctx context.Context, pattern, targetFolder string) (*domain.Rule, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	now := domain.Millis(time.Now())
	res, err := s.store.db.ExecContext(ctx,
		"INSERT INTO rules (pattern, target_folder, created_at) VALUES (?, ?, ?)",
		pattern, targetFolder, now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("%w: adding rule: %w", domain.ErrInsertFailed, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: adding rule: %w", domain.ErrInsertFailed, err)
	}
	return &domain.Rule{ID: id, Pattern: pattern, TargetFolder: targetFolder, CreatedAt: now}, nil
}

// ListRules returns rules in creation order.
func (s *ruleStore) ListRules(ctx context.Context) ([]domain.Rule, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	rows, err := s.store.db.QueryContext(ctx,
		"SELECT id, pattern, target_folder, created_at FROM rules ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("%w: listing rules: %w", domain.ErrQueryFailed, err)
	}
	defer rows.Close()

	var out []domain.Rule
	for rows.Next() {
		var (
			r       domain.Rule
			created int64
		)
		if err := rows.Scan(&r.ID, &r.Pattern, &r.TargetFolder, &created); err != nil {
			return nil, fmt.Errorf("%w: scanning rule: %w", domain.ErrQueryFailed, err)
		}
		r.CreatedAt = time.UnixMilli(created)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: listing rules: %w", domain.ErrQueryFailed, err)
	}
	return out, nil
}

// DeleteRule removes a rule by ID.
func (s *ruleStore) DeleteRule(ctx context.Context, id int64) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	res, err := s.store.db.ExecContext(ctx, "DELETE FROM rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%w: deleting rule: %w", domain.ErrUpdateFailed, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
