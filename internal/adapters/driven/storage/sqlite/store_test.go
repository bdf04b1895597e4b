package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sorta/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T, retention Retention) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "sorta-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir, retention)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

var base = time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

func at(i int) time.Time {
	return base.Add(time.Duration(i) * time.Second)
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	store, cleanup := setupTestStore(t, Retention{})
	defer cleanup()

	assert.Equal(t, "sorta.db", filepath.Base(store.Path()))
	_, err := os.Stat(store.Path())
	assert.NoError(t, err)
	assert.Equal(t, DefaultMaxCorrections, store.retention.MaxCorrections)
	assert.Equal(t, DefaultMaxActivity, store.retention.MaxActivity)
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir, Retention{})
	require.NoError(t, err)
	require.NoError(t, store.SetSetting(ctx, "k", "v"))
	require.NoError(t, store.Close())

	store, err = NewStore(dir, Retention{})
	require.NoError(t, err)
	defer store.Close()

	v, ok, err := store.GetSetting(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	var versions int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&versions))
	assert.Equal(t, 1, versions)
}

func TestCorrections_NewestFirst(t *testing.T) {
	store, cleanup := setupTestStore(t, Retention{})
	defer cleanup()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.AddCorrection(ctx, domain.Correction{
			Filename:    fmt.Sprintf("f%d.pdf", i),
			AISuggested: "ML",
			UserChose:   "Econ",
			Type:        domain.CorrectionCorrected,
			CreatedAt:   at(i),
		})
		require.NoError(t, err)
	}

	got, err := store.ListCorrections(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "f2.pdf", got[0].Filename)
	assert.Equal(t, "f0.pdf", got[2].Filename)
	assert.Equal(t, domain.CorrectionCorrected, got[0].Type)
	assert.True(t, at(2).Equal(got[0].CreatedAt))

	limited, err := store.ListCorrections(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestCorrections_RetentionKeepsMostRecent(t *testing.T) {
	store, cleanup := setupTestStore(t, Retention{MaxCorrections: 50})
	defer cleanup()
	ctx := context.Background()

	// Insert out of order so eviction must follow created_at, not id.
	for i := 59; i >= 0; i-- {
		_, err := store.AddCorrection(ctx, domain.Correction{
			Filename:  fmt.Sprintf("f%02d", i),
			Type:      domain.CorrectionAccepted,
			CreatedAt: at(i),
		})
		require.NoError(t, err)
	}

	got, err := store.ListCorrections(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 50)
	assert.Equal(t, "f59", got[0].Filename)
	assert.Equal(t, "f10", got[49].Filename)
}

func TestCorrections_ImportIsIdempotent(t *testing.T) {
	store, cleanup := setupTestStore(t, Retention{})
	defer cleanup()
	ctx := context.Background()

	batch := []domain.Correction{
		{Filename: "a.pdf", AISuggested: "ML", UserChose: "ML", Type: domain.CorrectionAccepted, CreatedAt: at(1)},
		{Filename: "b.pdf", AISuggested: "ML", UserChose: "Econ", Type: domain.CorrectionCorrected, CreatedAt: at(2)},
	}

	n, err := store.ImportCorrections(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = store.ImportCorrections(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := store.ListCorrections(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCorrections_Clear(t *testing.T) {
	store, cleanup := setupTestStore(t, Retention{})
	defer cleanup()
	ctx := context.Background()

	_, err := store.AddCorrection(ctx, domain.Correction{Filename: "a", Type: domain.CorrectionAccepted})
	require.NoError(t, err)
	require.NoError(t, store.ClearCorrections(ctx))

	got, err := store.ListCorrections(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestActivity_RetentionKeepsMostRecent(t *testing.T) {
	store, cleanup := setupTestStore(t, Retention{MaxActivity: 100})
	defer cleanup()
	ctx := context.Background()

	for i := 0; i < 105; i++ {
		_, err := store.AddActivity(ctx, domain.ActivityEntry{
			Filename:   fmt.Sprintf("f%03d", i),
			FromFolder: "/dl",
			ToFolder:   "/lib/ML",
			CreatedAt:  at(i),
		})
		require.NoError(t, err)
	}

	got, err := store.ListActivity(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 100)
	assert.Equal(t, "f104", got[0].Filename)
	assert.Equal(t, "f005", got[99].Filename)
}

func TestActivity_OriginalFilenameRoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t, Retention{})
	defer cleanup()
	ctx := context.Background()

	_, err := store.AddActivity(ctx, domain.ActivityEntry{
		Filename: "new.pdf", OriginalFilename: "old.pdf", FromFolder: "/dl", ToFolder: "/lib", CreatedAt: at(1),
	})
	require.NoError(t, err)
	_, err = store.AddActivity(ctx, domain.ActivityEntry{
		Filename: "plain.pdf", FromFolder: "/dl", ToFolder: "/lib", CreatedAt: at(2),
	})
	require.NoError(t, err)

	renamed, err := store.GetActivity(ctx, at(1))
	require.NoError(t, err)
	assert.Equal(t, "old.pdf", renamed.OriginalFilename)

	plain, err := store.GetActivity(ctx, at(2))
	require.NoError(t, err)
	assert.Empty(t, plain.OriginalFilename)

	_, err = store.GetActivity(ctx, at(99))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestActivity_MarkUndoneOnce(t *testing.T) {
	store, cleanup := setupTestStore(t, Retention{})
	defer cleanup()
	ctx := context.Background()

	_, err := store.AddActivity(ctx, domain.ActivityEntry{Filename: "a", FromFolder: "/x", ToFolder: "/y", CreatedAt: at(1)})
	require.NoError(t, err)

	changed, err := store.MarkUndone(ctx, at(1))
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = store.MarkUndone(ctx, at(1))
	require.NoError(t, err)
	assert.False(t, changed, "undone transitions at most once")

	changed, err = store.MarkUndone(ctx, at(42))
	require.NoError(t, err)
	assert.False(t, changed)

	a, err := store.GetActivity(ctx, at(1))
	require.NoError(t, err)
	assert.True(t, a.Undone)
}

func TestActivity_ImportIsIdempotent(t *testing.T) {
	store, cleanup := setupTestStore(t, Retention{})
	defer cleanup()
	ctx := context.Background()

	batch := []domain.ActivityEntry{
		{Filename: "a", FromFolder: "/dl", ToFolder: "/ML", CreatedAt: at(1)},
		{Filename: "b", FromFolder: "/dl", ToFolder: "/ML", CreatedAt: at(2), Undone: true},
	}
	n, err := store.ImportActivity(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = store.ImportActivity(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := store.ListActivity(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Undone)
}

func TestActivity_Clear(t *testing.T) {
	store, cleanup := setupTestStore(t, Retention{})
	defer cleanup()
	ctx := context.Background()

	_, err := store.AddActivity(ctx, domain.ActivityEntry{Filename: "a", FromFolder: "/x", ToFolder: "/y"})
	require.NoError(t, err)
	require.NoError(t, store.ClearActivity(ctx))

	got, err := store.ListActivity(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSettings_LastWriteWins(t *testing.T) {
	store, cleanup := setupTestStore(t, Retention{})
	defer cleanup()
	ctx := context.Background()

	_, ok, err := store.GetSetting(ctx, "openai.api_key")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetSetting(ctx, "openai.api_key", "one"))
	require.NoError(t, store.SetSetting(ctx, "openai.api_key", "two"))

	v, ok, err := store.GetSetting(ctx, "openai.api_key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "two", v)

	require.NoError(t, store.DeleteSetting(ctx, "openai.api_key"))
	_, ok, err = store.GetSetting(ctx, "openai.api_key")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRules_OrderAndDelete(t *testing.T) {
	store, cleanup := setupTestStore(t, Retention{})
	defer cleanup()
	ctx := context.Background()

	r1, err := store.AddRule(ctx, "*_ML_*", "ML")
	require.NoError(t, err)
	r2, err := store.AddRule(ctx, "Lecture*", "Lectures")
	require.NoError(t, err)

	rules, err := store.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, r1.ID, rules[0].ID)
	assert.Equal(t, r2.ID, rules[1].ID)
	assert.Equal(t, "Lectures", rules[1].TargetFolder)

	require.NoError(t, store.DeleteRule(ctx, r1.ID))
	assert.True(t, errors.Is(store.DeleteRule(ctx, r1.ID), domain.ErrNotFound))

	rules, err = store.ListRules(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, 1)
}

func TestStore_AddRejectsDuplicateKey(t *testing.T) {
	store, cleanup := setupTestStore(t, Retention{})
	defer cleanup()
	ctx := context.Background()

	_, err := store.AddCorrection(ctx, domain.Correction{Filename: "a.pdf", UserChose: "ML", CreatedAt: at(1)})
	require.NoError(t, err)
	_, err = store.AddCorrection(ctx, domain.Correction{Filename: "a.pdf", UserChose: "Physics", CreatedAt: at(1)})
	assert.ErrorIs(t, err, domain.ErrInsertFailed)

	_, err = store.AddActivity(ctx, domain.ActivityEntry{Filename: "a.pdf", FromFolder: "/in", ToFolder: "/lib/ML", CreatedAt: at(1)})
	require.NoError(t, err)
	_, err = store.AddActivity(ctx, domain.ActivityEntry{Filename: "a.pdf", FromFolder: "/in", ToFolder: "/lib/ML", CreatedAt: at(1)})
	assert.ErrorIs(t, err, domain.ErrInsertFailed)

	corrections, err := store.ListCorrections(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, corrections, 1)
	activity, err := store.ListActivity(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, activity, 1)
}

func TestStore_ConcurrentWrites(t *testing.T) {
	store, cleanup := setupTestStore(t, Retention{MaxActivity: 10})
	defer cleanup()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.AddActivity(ctx, domain.ActivityEntry{
				Filename: fmt.Sprintf("f%d", i), FromFolder: "/a", ToFolder: "/b", CreatedAt: at(i),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := store.ListActivity(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, 10)
}
