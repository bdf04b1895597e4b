// Package picker provides the destination folder picker.
package picker

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sorta/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sorta/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/sorta/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sorta/internal/adapters/driving/tui/styles"
)

// View lets the user filter the candidate folders or type a new one.
type View struct {
	styles   *styles.Styles
	input    *input.FilterInput
	list     *list.List
	folders  []string
	filtered []string
	path     string
	current  string
	width    int
	height   int
}

// NewView creates a picker over folders.
func NewView(s *styles.Styles, folders []string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	v := &View{
		styles:  s,
		input:   input.NewFilterInput(s, "Move to"),
		list:    list.NewList(s),
		folders: folders,
		width:   80,
		height:  24,
	}
	v.applyFilter()
	return v
}

// Open resets the picker for the file at path, preselecting current.
func (v *View) Open(path, current string) tea.Cmd {
	v.path = path
	v.current = current
	v.input.Reset()
	v.applyFilter()
	for i, f := range v.filtered {
		if f == current {
			v.list.Select(i)
			break
		}
	}
	return v.input.Focus()
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}

	switch keyMsg.Type {
	case tea.KeyEsc:
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewReview}
		}
	case tea.KeyUp:
		v.list.MoveUp()
		return v, nil
	case tea.KeyDown:
		v.list.MoveDown()
		return v, nil
	case tea.KeyEnter:
		folder := v.Choice()
		if folder == "" {
			return v, nil
		}
		path := v.path
		return v, func() tea.Msg {
			return messages.FolderChosen{Path: path, Folder: folder}
		}
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(keyMsg)
	v.applyFilter()
	return v, cmd
}

// Choice returns the highlighted folder, or the typed name when nothing
// matches it.
func (v *View) Choice() string {
	if len(v.filtered) > 0 {
		return v.filtered[v.list.SelectedIndex()]
	}
	return strings.TrimSpace(v.input.Value())
}

// Filtered returns the folders matching the current filter.
func (v *View) Filtered() []string {
	return v.filtered
}

// Path returns the file the picker is choosing for.
func (v *View) Path() string {
	return v.path
}

func (v *View) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(v.input.Value()))
	v.filtered = v.filtered[:0]
	for _, f := range v.folders {
		if query == "" || strings.Contains(strings.ToLower(f), query) {
			v.filtered = append(v.filtered, f)
		}
	}

	rows := make([]list.Row, 0, len(v.filtered))
	for _, f := range v.filtered {
		r := list.Row{Title: f}
		if f == v.current {
			r.Detail = "suggested"
		}
		rows = append(rows, r)
	}
	v.list.SetRows(rows)
}

// View renders the picker.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Choose a folder"))
	if v.path != "" {
		b.WriteString("  ")
		b.WriteString(v.styles.Muted.Render(v.path))
	}
	b.WriteString("\n\n")
	b.WriteString(v.input.View())
	b.WriteString("\n\n")
	if len(v.filtered) == 0 {
		if name := strings.TrimSpace(v.input.Value()); name != "" {
			b.WriteString(v.styles.Muted.Render("enter to create "))
			b.WriteString(v.styles.Folder.Render(name))
		} else {
			b.WriteString(v.styles.Muted.Render("No folders."))
		}
	} else {
		b.WriteString(v.list.View())
	}
	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("↑/↓ select | enter move | esc back"))
	return b.String()
}

// SetDimensions sets the terminal dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.input.SetWidth(width)
	v.list.SetDimensions(width, max(height-9, 1))
}
