package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sorta/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sorta/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sorta/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sorta/internal/adapters/driving/tui/views/picker"
	"github.com/custodia-labs/sorta/internal/adapters/driving/tui/views/review"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	// reviewView lists the folder's files with their suggestions.
	reviewView *review.View

	// pickerView chooses a destination folder.
	pickerView *picker.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	return NewAppWithContext(context.Background(), ports)
}

// NewAppWithContext creates an app whose service calls run under ctx.
func NewAppWithContext(ctx context.Context, ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	dir, library, err := ports.Roots()
	if err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	reviewView := review.NewView(ctx, s, km, review.Config{
		Organiser:   ports.Organiser,
		Cascade:     ports.Cascade,
		Browse:      ports.Browse,
		Relocation:  ports.Relocation,
		Folders:     ports.Folders,
		LibraryRoot: library,
		Threshold:   ports.Threshold(),
		Dir:         dir,
	})

	return &App{
		ports:       ports,
		ctx:         ctx,
		styles:      s,
		keymap:      km,
		reviewView:  reviewView,
		pickerView:  picker.NewView(s, ports.Folders),
		currentView: messages.ViewReview,
	}, nil
}

// Init implements tea.Model.
// It runs initial commands when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("sorta - Review"),
		a.reviewView.Init(),
	)
}

// Update implements tea.Model.
// It handles messages and updates the model state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		return a, nil

	case messages.FolderPickRequested:
		a.currentView = messages.ViewFolderPicker
		return a, a.pickerView.Open(msg.Path, msg.Current)

	case messages.FolderChosen:
		a.currentView = messages.ViewReview
		return a, a.reviewView.MoveTo(msg.Path, msg.Folder)

	case messages.ErrorOccurred:
		a.err = msg.Err
		a.reviewView, cmd = a.reviewView.Update(msg)
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	// Everything else is a service result for the review.
	a.reviewView, cmd = a.reviewView.Update(msg)
	a.err = a.reviewView.Err()
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global quit with ctrl+c
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewFolderPicker:
		a.pickerView, cmd = a.pickerView.Update(msg)
		return a, cmd

	case messages.ViewHelp:
		switch {
		case key.Matches(msg, a.keymap.Quit):
			return a, tea.Quit
		case key.Matches(msg, a.keymap.Back), key.Matches(msg, a.keymap.Help):
			a.currentView = messages.ViewReview
		}
		return a, nil

	case messages.ViewReview:
		switch {
		case key.Matches(msg, a.keymap.Quit):
			return a, tea.Quit
		case key.Matches(msg, a.keymap.Help):
			a.currentView = messages.ViewHelp
			return a, nil
		}
		a.reviewView, cmd = a.reviewView.Update(msg)
		a.err = a.reviewView.Err()
		return a, cmd
	}
	return a, nil
}

// View implements tea.Model.
// It renders the current view as a string.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewFolderPicker:
		return a.pickerView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.reviewView.View()
	}
}

// viewHelp renders the help view from the key bindings.
func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n")
	for _, group := range a.keymap.FullHelp() {
		b.WriteString("\n")
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-10s %s\n", h.Key, h.Desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(a.styles.Muted.Render("[esc] back to review"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Review returns the review view.
func (a *App) Review() *review.View {
	return a.reviewView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.reviewView.SetDimensions(width, height)
	a.pickerView.SetDimensions(width, height)
}
