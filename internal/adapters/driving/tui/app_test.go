package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sorta/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sorta/internal/adapters/driving/tui/views/review"
	"github.com/custodia-labs/sorta/internal/core/domain"
)

func newTestApp(t *testing.T) (*App, *mockOrganiser) {
	t.Helper()
	ports, org := newTestPorts()
	app, err := NewApp(ports)
	require.NoError(t, err)
	return app, org
}

// loadApp feeds the review its files and classifications.
func loadApp(t *testing.T, app *App) {
	t.Helper()
	var msg tea.Msg = messages.FilesLoaded{Files: []domain.FileEntry{{Name: "lecture.pdf", Path: "/in/lecture.pdf"}}}
	for i := 0; msg != nil && i < 10; i++ {
		_, cmd := app.Update(msg)
		if cmd == nil {
			break
		}
		msg = cmd()
	}
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestNewApp_InvalidPorts(t *testing.T) {
	ports, _ := newTestPorts()
	ports.Cascade = nil

	app, err := NewApp(ports)

	assert.Nil(t, app)
	assert.ErrorIs(t, err, ErrMissingCascade)
}

func TestApp_InitialState(t *testing.T) {
	app, _ := newTestApp(t)

	assert.Equal(t, messages.ViewReview, app.CurrentView())
	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())
	assert.NotNil(t, app.Init())
}

func TestApp_WindowSize(t *testing.T) {
	app, _ := newTestApp(t)

	model, cmd := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Nil(t, cmd)
	assert.True(t, model.(*App).Ready())
	assert.Contains(t, app.View(), "sorta review")
}

func TestApp_QuitKeys(t *testing.T) {
	app, _ := newTestApp(t)

	_, cmd := app.Update(keyRune('q'))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	_, cmd = app.Update(messages.Quit{})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_HelpToggle(t *testing.T) {
	app, _ := newTestApp(t)
	app.SetDimensions(100, 30)

	app.Update(keyRune('?'))
	assert.Equal(t, messages.ViewHelp, app.CurrentView())
	assert.Contains(t, app.View(), "choose folder")
	assert.Contains(t, app.View(), "back to review")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewReview, app.CurrentView())
}

func TestApp_ReviewClassifiesFiles(t *testing.T) {
	app, _ := newTestApp(t)

	loadApp(t, app)

	items := app.Review().Items()
	require.Len(t, items, 1)
	assert.Equal(t, review.StateSuggested, items[0].State)
}

func TestApp_ChooseFolderFlow(t *testing.T) {
	app, org := newTestApp(t)
	app.SetDimensions(100, 30)
	loadApp(t, app)
	org.entry = &domain.ActivityEntry{Filename: "lecture.pdf", FromFolder: "/in", ToFolder: "/lib/Physics"}

	_, cmd := app.Update(keyRune('c'))
	require.NotNil(t, cmd)
	_, cmd = app.Update(cmd())
	assert.Equal(t, messages.ViewFolderPicker, app.CurrentView())
	assert.Contains(t, app.View(), "Choose a folder")

	_, _ = app.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	chosen := cmd()
	assert.Equal(t, messages.FolderChosen{Path: "/in/lecture.pdf", Folder: "Physics"}, chosen)

	_, cmd = app.Update(chosen)
	assert.Equal(t, messages.ViewReview, app.CurrentView())
	require.NotNil(t, cmd)
	app.Update(cmd())

	require.Len(t, org.requests, 1)
	assert.Equal(t, "/lib/Physics", org.requests[0].DestFolder)
	assert.Equal(t, "ML", org.requests[0].AISuggested)
	assert.Equal(t, review.StateMoved, app.Review().Items()[0].State)
}

func TestApp_PickerEscReturnsToReview(t *testing.T) {
	app, _ := newTestApp(t)
	loadApp(t, app)

	app.Update(messages.FolderPickRequested{Path: "/in/lecture.pdf", Current: "ML"})
	require.Equal(t, messages.ViewFolderPicker, app.CurrentView())

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, messages.ViewReview, app.CurrentView())
}

func TestApp_PickerTypingDoesNotQuit(t *testing.T) {
	app, _ := newTestApp(t)
	app.Update(messages.FolderPickRequested{Path: "/in/lecture.pdf"})

	app.Update(keyRune('q'))

	assert.Equal(t, messages.ViewFolderPicker, app.CurrentView())
	assert.Contains(t, app.pickerView.Choice(), "q")
}

func TestApp_ErrorOccurred(t *testing.T) {
	app, _ := newTestApp(t)

	app.Update(messages.ErrorOccurred{Err: domain.ErrPermissionDenied})

	assert.ErrorIs(t, app.Err(), domain.ErrPermissionDenied)
}
