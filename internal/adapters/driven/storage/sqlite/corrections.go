package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driven"
)

// correctionStore implements driven.CorrectionStore.
type correctionStore struct {
	store *Store
}

var _ driven.CorrectionStore = (*correctionStore)(nil)

const pruneCorrections = `
	DELETE FROM corrections WHERE id NOT IN (
		SELECT id FROM corrections ORDER BY created_at DESC, id DESC LIMIT ?
	)`

// AddCorrection inserts a correction and enforces retention.
func (s *correctionStore) AddCorrection(ctx context.Context, c domain.Correction) (int64, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	var id int64
	err := s.store.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO corrections (filename, ai_suggested, user_chose, correction_type, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			c.Filename, c.AISuggested, c.UserChose, string(c.Type), c.CreatedAt.UnixMilli())
		if err != nil {
			return err
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, pruneCorrections, s.store.retention.MaxCorrections)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%w: adding correction: %w", domain.ErrInsertFailed, err)
	}
	return id, nil
}

// ListCorrections returns corrections newest first.
func (s *correctionStore) ListCorrections(ctx context.Context, limit int) ([]domain.Correction, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, filename, ai_suggested, user_chose, correction_type, created_at
		FROM corrections
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("%w: listing corrections: %w", domain.ErrQueryFailed, err)
	}
	defer rows.Close()

	var out []domain.Correction
	for rows.Next() {
		var (
			c       domain.Correction
			ctype   string
			created int64
		)
		if err := rows.Scan(&c.ID, &c.Filename, &c.AISuggested, &c.UserChose, &ctype, &created); err != nil {
			return nil, fmt.Errorf("%w: scanning correction: %w", domain.ErrQueryFailed, err)
		}
		c.Type = domain.CorrectionType(ctype)
		c.CreatedAt = time.UnixMilli(created)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: listing corrections: %w", domain.ErrQueryFailed, err)
	}
	return out, nil
}

// ImportCorrections inserts corrections that are not already present.
func (s *correctionStore) ImportCorrections(ctx context.Context, cs []domain.Correction) (int, error) {
	imported := 0
	err := s.store.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO corrections (filename, ai_suggested, user_chose, correction_type, created_at)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, c := range cs {
			res, err := stmt.ExecContext(ctx,
				c.Filename, c.AISuggested, c.UserChose, string(c.Type), c.CreatedAt.UnixMilli())
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n > 0 {
				imported++
			}
		}
		_, err = tx.ExecContext(ctx, pruneCorrections, s.store.retention.MaxCorrections)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%w: importing corrections: %w", domain.ErrInsertFailed, err)
	}
	return imported, nil
}

// ClearCorrections deletes every correction.
func (s *correctionStore) ClearCorrections(ctx context.Context) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM corrections"); err != nil {
		return fmt.Errorf("%w: clearing corrections: %w", domain.ErrUpdateFailed, err)
	}
	return nil
}
