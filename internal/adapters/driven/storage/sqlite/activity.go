package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driven"
)

// activityStore implements driven.ActivityStore.
type activityStore struct {
	store *Store
}

var _ driven.ActivityStore = (*activityStore)(nil)

const pruneActivity = `
	DELETE FROM activity_log WHERE id NOT IN (
		SELECT id FROM activity_log ORDER BY created_at DESC, id DESC LIMIT ?
	)`

const activityColumns = `id, filename, original_filename, from_folder, to_folder, undone, created_at`

// AddActivity inserts an entry and enforces retention.
func (s *activityStore) AddActivity(ctx context.Context, a domain.ActivityEntry) (int64, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	var id int64
	err := s.store.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO activity_log (filename, original_filename, from_folder, to_folder, undone, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			a.Filename, nullString(a.OriginalFilename), a.FromFolder, a.ToFolder, boolInt(a.Undone), a.CreatedAt.UnixMilli())
		if err != nil {
			return err
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, pruneActivity, s.store.retention.MaxActivity)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%w: adding activity: %w", domain.ErrInsertFailed, err)
	}
	return id, nil
}

// ListActivity returns entries newest first.
func (s *activityStore) ListActivity(ctx context.Context, limit int) ([]domain.ActivityEntry, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	rows, err := s.store.db.QueryContext(ctx,
		`SELECT `+activityColumns+` FROM activity_log ORDER BY created_at DESC, id DESC LIMIT ?`,
		sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("%w: listing activity: %w", domain.ErrQueryFailed, err)
	}
	defer rows.Close()

	var out []domain.ActivityEntry
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning activity: %w", domain.ErrQueryFailed, err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: listing activity: %w", domain.ErrQueryFailed, err)
	}
	return out, nil
}

// GetActivity returns the newest entry created at the given millisecond.
func (s *activityStore) GetActivity(ctx context.Context, createdAt time.Time) (*domain.ActivityEntry, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+activityColumns+` FROM activity_log WHERE created_at = ? ORDER BY id DESC LIMIT 1`,
		createdAt.UnixMilli())
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: getting activity: %w", domain.ErrQueryFailed, err)
	}
	return a, nil
}

// MarkUndone flips undone on not-yet-undone entries at createdAt.
func (s *activityStore) MarkUndone(ctx context.Context, createdAt time.Time) (bool, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	res, err := s.store.db.ExecContext(ctx,
		"UPDATE activity_log SET undone = 1 WHERE created_at = ? AND undone = 0",
		createdAt.UnixMilli())
	if err != nil {
		return false, fmt.Errorf("%w: marking undone: %w", domain.ErrUpdateFailed, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: marking undone: %w", domain.ErrUpdateFailed, err)
	}
	return n > 0, nil
}

// ImportActivity inserts entries that are not already present.
func (s *activityStore) ImportActivity(ctx context.Context, as []domain.ActivityEntry) (int, error) {
	imported := 0
	err := s.store.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO activity_log (filename, original_filename, from_folder, to_folder, undone, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, a := range as {
			res, err := stmt.ExecContext(ctx,
				a.Filename, nullString(a.OriginalFilename), a.FromFolder, a.ToFolder, boolInt(a.Undone), a.CreatedAt.UnixMilli())
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n > 0 {
				imported++
			}
		}
		_, err = tx.ExecContext(ctx, pruneActivity, s.store.retention.MaxActivity)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%w: importing activity: %w", domain.ErrInsertFailed, err)
	}
	return imported, nil
}

// ClearActivity deletes every entry.
func (s *activityStore) ClearActivity(ctx context.Context) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM activity_log"); err != nil {
		return fmt.Errorf("%w: clearing activity: %w", domain.ErrUpdateFailed, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivity(r rowScanner) (*domain.ActivityEntry, error) {
	var (
		a        domain.ActivityEntry
		original sql.NullString
		undone   int
		created  int64
	)
	if err := r.Scan(&a.ID, &a.Filename, &original, &a.FromFolder, &a.ToFolder, &undone, &created); err != nil {
		return nil, err
	}
	a.OriginalFilename = original.String
	a.Undone = undone != 0
	a.CreatedAt = time.UnixMilli(created)
	return &a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
