package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sorta/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driving"
)

func TestHistory_ExportImport(t *testing.T) {
	ctx := context.Background()
	src := NewHistoryService(memory.NewLedger(0, 0))
	at := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	_, err := src.ledger.AddCorrection(ctx, domain.Correction{
		Filename: "hw1.pdf", AISuggested: "ML", UserChose: "ML", Type: domain.CorrectionAccepted, CreatedAt: at,
	})
	require.NoError(t, err)
	_, err = src.ledger.AddActivity(ctx, domain.ActivityEntry{
		Filename: "hw1.pdf", FromFolder: "/d", ToFolder: "/lib/ML", CreatedAt: at,
	})
	require.NoError(t, err)

	export, err := src.Export(ctx)
	require.NoError(t, err)
	require.Len(t, export.Corrections, 1)
	require.Len(t, export.Activity, 1)

	dst := NewHistoryService(memory.NewLedger(0, 0))
	res, err := dst.Import(ctx, *export)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Corrections)
	assert.Equal(t, 1, res.Activity)

	res, err = dst.Import(ctx, *export)
	require.NoError(t, err)
	assert.Zero(t, res.Corrections)
	assert.Zero(t, res.Activity)
}

func TestHistory_ImportSkipsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	svc := NewHistoryService(memory.NewLedger(0, 0))
	at := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	res, err := svc.Import(ctx, driving.Export{
		Corrections: []domain.Correction{
			{Filename: "", CreatedAt: at},
			{Filename: "a.pdf"},
			{ID: 99, Filename: "b.pdf", AISuggested: "ML", UserChose: "DB", Type: "bogus", CreatedAt: at},
		},
		Activity: []domain.ActivityEntry{
			{Filename: "", CreatedAt: at},
			{ID: 7, Filename: "b.pdf", FromFolder: "/d", ToFolder: "/lib/DB", CreatedAt: at},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Corrections)
	assert.Equal(t, 1, res.Activity)

	cs, err := svc.ListCorrections(ctx, 0)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, domain.CorrectionCorrected, cs[0].Type)
	assert.NotEqual(t, int64(99), cs[0].ID)
}

func TestHistory_Clear(t *testing.T) {
	ctx := context.Background()
	svc := NewHistoryService(memory.NewLedger(0, 0))
	at := time.Now()
	_, err := svc.ledger.AddCorrection(ctx, domain.Correction{Filename: "a", Type: domain.CorrectionAccepted, CreatedAt: at})
	require.NoError(t, err)
	_, err = svc.ledger.AddActivity(ctx, domain.ActivityEntry{Filename: "a", CreatedAt: at})
	require.NoError(t, err)

	require.NoError(t, svc.ClearCorrections(ctx))
	require.NoError(t, svc.ClearActivity(ctx))

	cs, err := svc.ListCorrections(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, cs)
	as, err := svc.ListActivity(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, as)
}

func TestHistory_Rules(t *testing.T) {
	ctx := context.Background()
	svc := NewHistoryService(memory.NewLedger(0, 0))

	_, err := svc.AddRule(ctx, " ", "ML")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.AddRule(ctx, "*.ipynb", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.AddRule(ctx, "[unclosed", "ML")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	r, err := svc.AddRule(ctx, " *.ipynb ", " ML ")
	require.NoError(t, err)
	assert.Equal(t, "*.ipynb", r.Pattern)
	assert.Equal(t, "ML", r.TargetFolder)

	rules, err := svc.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)

	require.NoError(t, svc.DeleteRule(ctx, r.ID))
	rules, err = svc.ListRules(ctx)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestHistory_Stats(t *testing.T) {
	ctx := context.Background()
	svc := NewHistoryService(memory.NewLedger(0, 0))
	at := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	for i, c := range []struct {
		suggested string
		kind      domain.CorrectionType
	}{
		{"ML", domain.CorrectionAccepted},
		{"ML", domain.CorrectionAccepted},
		{"ML", domain.CorrectionCorrected},
		{"Physics", domain.CorrectionCorrected},
	} {
		_, err := svc.ledger.AddCorrection(ctx, domain.Correction{
			Filename: "f.pdf", AISuggested: c.suggested, Type: c.kind, CreatedAt: at.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}
	_, err := svc.ledger.AddActivity(ctx, domain.ActivityEntry{
		Filename: "f.pdf", FromFolder: "/d", ToFolder: "/lib/ML", Undone: true, CreatedAt: at,
	})
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Accepted)
	assert.Equal(t, 2, stats.Corrected)
	assert.Equal(t, 1, stats.Moves)
	assert.Equal(t, 1, stats.Undone)
	require.Len(t, stats.Folders, 2)
	assert.Equal(t, domain.FolderStats{Folder: "ML", Accepted: 2, Corrected: 1}, stats.Folders[0])
	require.Len(t, stats.ProblemFolders(), 1)
	assert.Equal(t, "ML", stats.ProblemFolders()[0].Folder)
}
