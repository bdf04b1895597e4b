package mcp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driving"
)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestServer_RelativePathsMadeAbsolute(t *testing.T) {
	ctx := context.Background()
	t.Chdir(t.TempDir())
	wd, err := os.Getwd()
	require.NoError(t, err)

	ports := newTestPorts()
	org := ports.Organiser.(*mockOrganiser)
	org.entry = &domain.ActivityEntry{Filename: "n.pdf", CreatedAt: time.UnixMilli(42)}
	server := newTestServer(t, ports)

	_, out, err := server.handleWatchStart(ctx, nil, WatchStartInput{Path: "Downloads"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "Downloads"), out.Path)

	_, _, err = server.handleMoveFile(ctx, nil, MoveFileInput{Source: "dl/n.pdf", DestFolder: "lib/ML"})
	require.NoError(t, err)
	_, _, err = server.handleRenameFile(ctx, nil, RenameFileInput{Path: "dl/n.pdf", NewName: "notes.pdf"})
	require.NoError(t, err)
	require.Len(t, org.requests, 2)
	assert.Equal(t, filepath.Join(wd, "dl", "n.pdf"), org.requests[0].Source)
	assert.Equal(t, filepath.Join(wd, "lib", "ML"), org.requests[0].DestFolder)
	assert.Equal(t, filepath.Join(wd, "dl", "n.pdf"), org.requests[1].Source)
	assert.Equal(t, filepath.Join(wd, "dl"), org.requests[1].DestFolder)

	_, _, err = server.handleTrashFile(ctx, nil, PathInput{Path: "old.pdf"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "old.pdf"), ports.Relocation.(*mockRelocation).trashed)
}

func TestServer_handleWatch(t *testing.T) {
	ctx := context.Background()

	t.Run("start reports watching and records outcomes", func(t *testing.T) {
		ports := newTestPorts()
		watch := ports.Watch.(*mockWatch)
		ports.Organiser.(*mockOrganiser).outcome = driving.Outcome{
			Result: &domain.ClassificationResult{
				IsRelevant: true, SuggestedFolder: "ML", Confidence: 0.9,
			},
			Activity: &domain.ActivityEntry{
				Filename: "lecture3.pdf", FromFolder: "/dl", ToFolder: "/lib/ML",
				CreatedAt: time.UnixMilli(1700000000000),
			},
		}
		server := newTestServer(t, ports)

		_, out, err := server.handleWatchStart(ctx, nil, WatchStartInput{Path: "/dl", Auto: true})
		require.NoError(t, err)
		assert.Equal(t, "watching", out.State)
		assert.Equal(t, "/dl", out.Path)

		watch.sink(domain.FileObservation{Path: "/dl/lecture3.pdf", Name: "lecture3.pdf"})

		_, status, err := server.handleWatchStatus(ctx, nil, EmptyInput{})
		require.NoError(t, err)
		require.Len(t, status.Recent, 1)
		assert.Equal(t, "/dl/lecture3.pdf", status.Recent[0].Path)
		require.NotNil(t, status.Recent[0].Activity)
		assert.Equal(t, int64(1700000000000), status.Recent[0].Activity.CreatedAtMs)
		assert.False(t, status.Recent[0].Result.NeedsConfirmation)
	})

	t.Run("stop returns idle", func(t *testing.T) {
		ports := newTestPorts()
		server := newTestServer(t, ports)

		_, _, err := server.handleWatchStart(ctx, nil, WatchStartInput{Path: "/dl"})
		require.NoError(t, err)
		_, out, err := server.handleWatchStop(ctx, nil, EmptyInput{})
		require.NoError(t, err)
		assert.Equal(t, "idle", out.State)
		assert.Equal(t, 1, ports.Watch.(*mockWatch).stops)
	})

	t.Run("start error is returned", func(t *testing.T) {
		ports := newTestPorts()
		ports.Watch.(*mockWatch).err = domain.ErrWatchActive
		server := newTestServer(t, ports)

		_, _, err := server.handleWatchStart(ctx, nil, WatchStartInput{Path: "/dl"})
		assert.ErrorIs(t, err, domain.ErrWatchActive)
	})

	t.Run("no folders is invalid input", func(t *testing.T) {
		ports := newTestPorts()
		ports.Folders = nil
		server := newTestServer(t, ports)

		_, _, err := server.handleWatchStart(ctx, nil, WatchStartInput{Path: "/dl"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("no watcher", func(t *testing.T) {
		ports := newTestPorts()
		ports.Watch = nil
		server := newTestServer(t, ports)

		_, _, err := server.handleWatchStatus(ctx, nil, EmptyInput{})
		assert.ErrorIs(t, err, ErrWatchUnavailable)
	})
}

func TestServer_handleClassifyFile(t *testing.T) {
	ctx := context.Background()
	result := &domain.ClassificationResult{
		IsRelevant: true, SuggestedFolder: "ML", Confidence: 0.5, Reasoning: "lecture", Source: domain.SourceFilename,
	}

	t.Run("cascade is the default mode", func(t *testing.T) {
		ports := newTestPorts()
		cascade := ports.Cascade.(*mockCascade)
		cascade.result = result
		server := newTestServer(t, ports)

		_, out, err := server.handleClassifyFile(ctx, nil, ClassifyFileInput{Path: "/dl/ml.pdf"})
		require.NoError(t, err)
		assert.Equal(t, "ML", out.SuggestedFolder)
		assert.Equal(t, "filename", out.Source)
		assert.True(t, out.NeedsConfirmation)
		assert.Equal(t, []string{"ML", "Physics"}, cascade.folders)
	})

	t.Run("single modes use the classifier", func(t *testing.T) {
		ports := newTestPorts()
		classify := ports.Classify.(*mockClassify)
		classify.result = result
		server := newTestServer(t, ports)

		for _, mode := range []string{"filename", "vision", "ocr", "content"} {
			_, _, err := server.handleClassifyFile(ctx, nil, ClassifyFileInput{Path: "/dl/ml.pdf", Mode: mode})
			require.NoError(t, err)
		}
		assert.Equal(t, []string{"filename:ml.pdf", "vision", "ocr", "content"}, classify.calls)
	})

	t.Run("unknown mode", func(t *testing.T) {
		server := newTestServer(t, newTestPorts())
		_, _, err := server.handleClassifyFile(ctx, nil, ClassifyFileInput{Path: "/dl/a", Mode: "telepathy"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("cascade error is returned", func(t *testing.T) {
		ports := newTestPorts()
		ports.Cascade.(*mockCascade).err = domain.ErrMissingCredential
		server := newTestServer(t, ports)

		_, _, err := server.handleClassifyFile(ctx, nil, ClassifyFileInput{Path: "/dl/a"})
		assert.ErrorIs(t, err, domain.ErrMissingCredential)
	})
}

func TestServer_handleRelocation(t *testing.T) {
	ctx := context.Background()
	entry := &domain.ActivityEntry{
		Filename: "notes.pdf", OriginalFilename: "n.pdf", FromFolder: "/dl", ToFolder: "/lib/ML",
		CreatedAt: time.UnixMilli(42),
	}

	t.Run("move passes the conflict policy", func(t *testing.T) {
		ports := newTestPorts()
		org := ports.Organiser.(*mockOrganiser)
		org.entry = entry
		server := newTestServer(t, ports)

		_, out, err := server.handleMoveFile(ctx, nil, MoveFileInput{
			Source: "/dl/n.pdf", DestFolder: "/lib/ML", Conflict: "auto_rename", Suggested: "ML",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(42), out.CreatedAtMs)
		require.Len(t, org.requests, 1)
		assert.Equal(t, driving.ConflictAutoRename, org.requests[0].Conflict)
		assert.Equal(t, "ML", org.requests[0].AISuggested)
	})

	t.Run("rename defaults to the same folder", func(t *testing.T) {
		ports := newTestPorts()
		org := ports.Organiser.(*mockOrganiser)
		org.entry = entry
		server := newTestServer(t, ports)

		_, _, err := server.handleRenameFile(ctx, nil, RenameFileInput{Path: "/dl/n.pdf", NewName: "notes.pdf"})
		require.NoError(t, err)
		require.Len(t, org.requests, 1)
		assert.Equal(t, "/dl", org.requests[0].DestFolder)
		assert.Equal(t, "notes.pdf", org.requests[0].NewName)
	})

	t.Run("undo by timestamp", func(t *testing.T) {
		ports := newTestPorts()
		org := ports.Organiser.(*mockOrganiser)
		org.entry = entry
		server := newTestServer(t, ports)

		_, _, err := server.handleUndoMove(ctx, nil, UndoMoveInput{CreatedAtMs: 42})
		require.NoError(t, err)
		assert.Equal(t, int64(42), org.undoneAt.UnixMilli())
		assert.False(t, org.undoLast)
	})

	t.Run("undo without timestamp undoes the last move", func(t *testing.T) {
		ports := newTestPorts()
		org := ports.Organiser.(*mockOrganiser)
		org.entry = entry
		server := newTestServer(t, ports)

		_, _, err := server.handleUndoMove(ctx, nil, UndoMoveInput{})
		require.NoError(t, err)
		assert.True(t, org.undoLast)
	})

	t.Run("move error is returned", func(t *testing.T) {
		ports := newTestPorts()
		ports.Organiser.(*mockOrganiser).err = domain.ErrDuplicateExists
		server := newTestServer(t, ports)

		_, _, err := server.handleMoveFile(ctx, nil, MoveFileInput{Source: "/dl/a", DestFolder: "/b"})
		assert.ErrorIs(t, err, domain.ErrDuplicateExists)
	})

	t.Run("trash", func(t *testing.T) {
		ports := newTestPorts()
		ports.Relocation.(*mockRelocation).trashedTo = "/trash/files/a"
		server := newTestServer(t, ports)

		_, out, err := server.handleTrashFile(ctx, nil, PathInput{Path: "/dl/a"})
		require.NoError(t, err)
		assert.Equal(t, "/trash/files/a", out.TrashedTo)
	})

	t.Run("trash unavailable", func(t *testing.T) {
		ports := newTestPorts()
		ports.Relocation = nil
		server := newTestServer(t, ports)

		_, _, err := server.handleTrashFile(ctx, nil, PathInput{Path: "/dl/a"})
		assert.ErrorIs(t, err, ErrTrashUnavailable)
	})
}

func TestServer_handleBrowse(t *testing.T) {
	ctx := context.Background()
	mod := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	ports := newTestPorts()
	browse := ports.Browse.(*mockBrowse)
	browse.folders = []domain.FolderEntry{{Name: "ML", Path: "/lib/ML", Depth: 1}}
	browse.files = []domain.FileEntry{{
		Name: "a.pdf", Path: "/dl/a.pdf", Extension: "pdf", Size: 3, ModTime: mod, Category: domain.CategoryDocument,
	}}
	browse.preview = &domain.Preview{Kind: domain.PreviewText, Text: "hello", Truncated: true}
	server := newTestServer(t, ports)

	_, folders, err := server.handleScanFolders(ctx, nil, ScanFoldersInput{Root: "/lib"})
	require.NoError(t, err)
	assert.Equal(t, 1, folders.Count)
	assert.Equal(t, "ML", folders.Folders[0].Name)

	_, files, err := server.handleScanFiles(ctx, nil, ScanFilesInput{Dir: "/dl"})
	require.NoError(t, err)
	require.Equal(t, 1, files.Count)
	assert.Equal(t, "document", files.Files[0].Category)
	assert.Equal(t, "2024-03-01T12:00:00Z", files.Files[0].ModTime)

	_, preview, err := server.handlePreviewFile(ctx, nil, PathInput{Path: "/dl/a.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "text", preview.Kind)
	assert.Equal(t, "hello", preview.Text)
	assert.True(t, preview.Truncated)

	browse.err = domain.ErrPathNotFound
	_, _, err = server.handleScanFiles(ctx, nil, ScanFilesInput{Dir: "/missing"})
	assert.ErrorIs(t, err, domain.ErrPathNotFound)
}

func TestServer_handleHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("corrections default limit", func(t *testing.T) {
		ports := newTestPorts()
		hist := ports.History.(*mockHistory)
		hist.corrections = []domain.Correction{{
			Filename: "a.pdf", AISuggested: "ML", UserChose: "Stats", Type: domain.CorrectionCorrected,
		}}
		server := newTestServer(t, ports)

		_, out, err := server.handleListCorrections(ctx, nil, ListInput{})
		require.NoError(t, err)
		assert.Equal(t, defaultListLimit, hist.limit)
		require.Equal(t, 1, out.Count)
		assert.Equal(t, "corrected", out.Corrections[0].Type)
	})

	t.Run("activity honours limit", func(t *testing.T) {
		ports := newTestPorts()
		hist := ports.History.(*mockHistory)
		hist.activity = []domain.ActivityEntry{{Filename: "a.pdf", Undone: true}}
		server := newTestServer(t, ports)

		_, out, err := server.handleListActivity(ctx, nil, ListInput{Limit: 5})
		require.NoError(t, err)
		assert.Equal(t, 5, hist.limit)
		require.Equal(t, 1, out.Count)
		assert.True(t, out.Activity[0].Undone)
	})

	t.Run("empty lists are not nil", func(t *testing.T) {
		server := newTestServer(t, newTestPorts())
		_, out, err := server.handleListRules(ctx, nil, EmptyInput{})
		require.NoError(t, err)
		assert.NotNil(t, out.Rules)
		assert.Equal(t, 0, out.Count)
	})

	t.Run("add and delete rules", func(t *testing.T) {
		ports := newTestPorts()
		hist := ports.History.(*mockHistory)
		server := newTestServer(t, ports)

		_, rule, err := server.handleAddRule(ctx, nil, AddRuleInput{Pattern: "Lecture*", TargetFolder: "ML"})
		require.NoError(t, err)
		assert.Equal(t, int64(7), rule.ID)

		_, del, err := server.handleDeleteRule(ctx, nil, DeleteRuleInput{ID: 7})
		require.NoError(t, err)
		assert.True(t, del.Deleted)
		assert.Equal(t, int64(7), hist.deleted)
	})

	t.Run("stats rank folders", func(t *testing.T) {
		ports := newTestPorts()
		hist := ports.History.(*mockHistory)
		for i := 0; i < 3; i++ {
			hist.corrections = append(hist.corrections,
				domain.Correction{AISuggested: "ML", Type: domain.CorrectionAccepted},
				domain.Correction{AISuggested: "Stats", Type: domain.CorrectionCorrected},
			)
		}
		server := newTestServer(t, ports)

		_, out, err := server.handleHistoryStats(ctx, nil, EmptyInput{})
		require.NoError(t, err)
		assert.Equal(t, 3, out.Accepted)
		assert.Equal(t, 3, out.Corrected)
		assert.Equal(t, 0.5, out.Accuracy)
		require.Len(t, out.TopFolders, 2)
		assert.Equal(t, "ML", out.TopFolders[0].Folder)
		require.Len(t, out.ProblemFolders, 1)
		assert.Equal(t, "Stats", out.ProblemFolders[0].Folder)
		assert.Zero(t, out.ProblemFolders[0].AcceptRate)
	})

	t.Run("errors are returned", func(t *testing.T) {
		ports := newTestPorts()
		ports.History.(*mockHistory).err = errors.New("ledger down")
		server := newTestServer(t, ports)

		_, _, err := server.handleListActivity(ctx, nil, ListInput{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ledger down")
	})
}
