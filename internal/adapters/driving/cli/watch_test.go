package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driving"
)

type mockWatch struct {
	path string
	err  error
}

func (m *mockWatch) Start(path string, _ func(domain.FileObservation)) error {
	m.path = path
	return m.err
}
func (m *mockWatch) Stop()                      {}
func (m *mockWatch) Status() domain.WatchStatus { return domain.WatchStatus{} }

func TestWatchCmd_Use(t *testing.T) {
	assert.Equal(t, "watch [dir]", watchCmd.Use)
}

func TestWatchCmd_HasFlags(t *testing.T) {
	for _, name := range []string{"auto", "library", "folders"} {
		require.NotNil(t, watchCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "false", watchCmd.Flags().Lookup("auto").DefValue)
}

func TestWatchCmd_RequiresExactlyOneArg(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("watch")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestWatchCmd_ErrorsWithoutWatchService(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("watch", "/downloads")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "watch service not configured")
}

func TestWatchCmd_ErrorsWithoutFolders(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	services.Watch = &mockWatch{}
	services.Config.Library.Folders = nil

	_, err := execute("watch", "/downloads")

	assert.ErrorIs(t, err, errNoFolders)
}

func TestWatchCmd_StartFailure(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	services.Watch = &mockWatch{err: domain.ErrWatchActive}

	_, err := execute("watch", "/downloads")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrWatchActive)
	assert.Contains(t, err.Error(), "watch failed")
}

func TestWatchCmd_RelativeDirMadeAbsolute(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	t.Chdir(t.TempDir())
	wd, err := os.Getwd()
	require.NoError(t, err)
	w := &mockWatch{err: domain.ErrWatchActive}
	services.Watch = w

	_, err = execute("watch", "Downloads")

	require.Error(t, err)
	assert.Equal(t, filepath.Join(wd, "Downloads"), w.path)
}

func TestPrintOutcome(t *testing.T) {
	obs := domain.FileObservation{Name: "notes.pdf", Path: "/in/notes.pdf"}
	tests := []struct {
		name string
		out  driving.Outcome
		want string
	}{
		{
			name: "moved",
			out:  driving.Outcome{Activity: &domain.ActivityEntry{Filename: "notes.pdf", ToFolder: "/lib/ML"}},
			want: "notes.pdf -> /lib/ML/notes.pdf",
		},
		{
			name: "needs review",
			out: driving.Outcome{
				Result:            &domain.ClassificationResult{IsRelevant: true, SuggestedFolder: "ML", Confidence: 0.4},
				NeedsConfirmation: true,
			},
			want: "suggest ML (40%), needs review",
		},
		{
			name: "irrelevant",
			out:  driving.Outcome{Result: &domain.ClassificationResult{}},
			want: "not course material",
		},
		{
			name: "unsorted",
			out:  driving.Outcome{Result: &domain.ClassificationResult{IsRelevant: true}, NeedsConfirmation: true},
			want: "no matching folder, needs review",
		},
		{
			name: "retrying",
			out:  driving.Outcome{Retrying: true, Err: domain.ErrFileInUse},
			want: "in use, will retry",
		},
		{
			name: "error",
			out:  driving.Outcome{Err: errors.New("boom")},
			want: "notes.pdf: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			cmd := &cobra.Command{}
			cmd.SetOut(buf)

			tt.out.Observation = obs
			printOutcome(cmd, tt.out)

			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestPrintOutcome_SilentOnCancel(t *testing.T) {
	buf := new(bytes.Buffer)
	cmd := &cobra.Command{}
	cmd.SetOut(buf)

	printOutcome(cmd, driving.Outcome{Err: context.Canceled})

	assert.Empty(t, buf.String())
}
