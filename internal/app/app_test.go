package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sorta/internal/adapters/driving/cli"
	"github.com/custodia-labs/sorta/internal/config"
	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driving"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.AI.Provider = "ollama"
	cfg.Library.Root = "/lib"
	cfg.Library.Folders = []string{"ML", "Physics"}
	return &cfg
}

func TestWire_NilConfig(t *testing.T) {
	_, err := Wire(nil, true, afero.NewMemMapFs())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWire_UnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.AI.Provider = "gemini"

	_, err := Wire(cfg, true, afero.NewMemMapFs())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "gemini")
}

func TestWire_EphemeralWiresEveryService(t *testing.T) {
	cfg := testConfig(t)

	s, err := Wire(cfg, true, afero.NewMemMapFs())
	require.NoError(t, err)

	assert.NotNil(t, s.Organiser)
	assert.NotNil(t, s.Classify)
	assert.NotNil(t, s.Cascade)
	assert.NotNil(t, s.Relocation)
	assert.NotNil(t, s.Watch)
	assert.NotNil(t, s.Browse)
	assert.NotNil(t, s.History)
	assert.NotNil(t, s.Credential)
	assert.NotNil(t, s.Background)
	assert.Same(t, cfg, s.Config)

	key, err := s.Credential.APIKey(context.Background())
	require.NoError(t, err)
	assert.Empty(t, key, "local providers need no key")

	require.NoError(t, s.Close())

	_, err = os.Stat(filepath.Join(cfg.DataDir, "sorta.db"))
	assert.True(t, os.IsNotExist(err), "ephemeral runs must not create the database")
}

func TestWire_PersistentLedgerCreatesDatabase(t *testing.T) {
	cfg := testConfig(t)

	s, err := Wire(cfg, false, afero.NewMemMapFs())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = os.Stat(filepath.Join(cfg.DataDir, "sorta.db"))
	assert.NoError(t, err)
}

func TestWire_RelocateHistoryUndo(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/in", 0o755))
	require.NoError(t, fs.MkdirAll("/lib/ML", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/in/notes.pdf", []byte("slides"), 0o644))

	s, err := Wire(testConfig(t), true, fs)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	entry, err := s.Organiser.Relocate(ctx, driving.RelocateRequest{
		Source:      "/in/notes.pdf",
		DestFolder:  "/lib/ML",
		AISuggested: "ML",
	})
	require.NoError(t, err)
	assert.Equal(t, "notes.pdf", entry.Filename)
	assert.Equal(t, "/lib/ML", entry.ToFolder)

	activity, err := s.History.ListActivity(ctx, 0)
	require.NoError(t, err)
	require.Len(t, activity, 1)

	corrections, err := s.History.ListCorrections(ctx, 0)
	require.NoError(t, err)
	require.Len(t, corrections, 1)
	assert.Equal(t, domain.CorrectionAccepted, corrections[0].Type)

	_, err = s.Organiser.UndoLast(ctx)
	require.NoError(t, err)

	ok, err := afero.Exists(fs, "/in/notes.pdf")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWire_BrowseUsesDocumentExtractors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/in/readme.txt", []byte("Lecture 3 covers gradient descent."), 0o644))

	s, err := Wire(testConfig(t), true, fs)
	require.NoError(t, err)
	defer s.Close()

	p, err := s.Browse.Preview(context.Background(), "/in/readme.txt")
	require.NoError(t, err)
	assert.Equal(t, domain.PreviewText, p.Kind)
	assert.Contains(t, p.Text, "gradient descent")
}

func TestBootstrap_LoadsExplicitConfig(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, config.Save(*cfg, path))

	s, err := Bootstrap(cli.BootOptions{ConfigPath: path, Ephemeral: true})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, cfg.DataDir, s.Config.DataDir)
	assert.Equal(t, []string{"ML", "Physics"}, s.Config.Library.Folders)
}

func TestBootstrap_MissingExplicitConfig(t *testing.T) {
	_, err := Bootstrap(cli.BootOptions{ConfigPath: filepath.Join(t.TempDir(), "absent.toml"), Ephemeral: true})
	assert.Error(t, err)
}
