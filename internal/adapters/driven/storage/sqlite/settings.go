package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driven"
)

// settingStore implements driven.SettingStore.
type settingStore struct {
	store *Store
}

var _ driven.SettingStore = (*settingStore)(nil)

// GetSetting returns the value stored under key.
func (s *settingStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	var value string
	err := s.store.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: getting setting %s: %w", domain.ErrQueryFailed, key, err)
	}
	return value, true, nil
}

// SetSetting stores value under key, replacing any previous value.
func (s *settingStore) SetSetting(ctx context.Context, key, value string) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if _, err := s.store.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value); err != nil {
		return fmt.Errorf("%w: setting %s: %w", domain.ErrInsertFailed, key, err)
	}
	return nil
}

// DeleteSetting removes key.
func (s *settingStore) DeleteSetting(ctx context.Context, key string) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", key); err != nil {
		return fmt.Errorf("%w: deleting setting %s: %w", domain.ErrUpdateFailed, key, err)
	}
	return nil
}
