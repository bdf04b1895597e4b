// Package list provides a scrollable list component for the TUI.
package list

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sorta/internal/adapters/driving/tui/styles"
)

// Row is one rendered line of the list.
type Row struct {
	Title  string
	Detail string
	Badge  string
	Muted  bool
}

// List displays rows with a movable selection, scrolling to keep it in view.
type List struct {
	styles   *styles.Styles
	rows     []Row
	selected int
	offset   int
	width    int
	height   int
}

// NewList creates an empty list.
func NewList(s *styles.Styles) *List {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &List{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (l *List) Init() tea.Cmd {
	return nil
}

// SetRows replaces the rows, keeping the selection in range.
func (l *List) SetRows(rows []Row) {
	l.rows = rows
	if l.selected >= len(rows) {
		l.selected = max(len(rows)-1, 0)
	}
	l.clampOffset()
}

// Rows returns the current rows.
func (l *List) Rows() []Row {
	return l.rows
}

// Len returns the number of rows.
func (l *List) Len() int {
	return len(l.rows)
}

// SelectedIndex returns the index of the selected row.
func (l *List) SelectedIndex() int {
	return l.selected
}

// Select moves the selection to i when it is in range.
func (l *List) Select(i int) {
	if i < 0 || i >= len(l.rows) {
		return
	}
	l.selected = i
	l.clampOffset()
}

// MoveUp moves the selection up by one.
func (l *List) MoveUp() {
	if l.selected > 0 {
		l.selected--
		l.clampOffset()
	}
}

// MoveDown moves the selection down by one.
func (l *List) MoveDown() {
	if l.selected < len(l.rows)-1 {
		l.selected++
		l.clampOffset()
	}
}

// SetDimensions sets the width and the number of visible rows.
func (l *List) SetDimensions(width, height int) {
	l.width = width
	l.height = max(height, 1)
	l.clampOffset()
}

func (l *List) clampOffset() {
	if l.selected < l.offset {
		l.offset = l.selected
	}
	if l.selected >= l.offset+l.height {
		l.offset = l.selected - l.height + 1
	}
	if l.offset < 0 {
		l.offset = 0
	}
}

// View renders the visible window of rows.
func (l *List) View() string {
	if len(l.rows) == 0 {
		return l.styles.Muted.Render("No files.")
	}

	end := min(l.offset+l.height, len(l.rows))
	lines := make([]string, 0, end-l.offset)
	for i := l.offset; i < end; i++ {
		lines = append(lines, l.renderRow(i))
	}
	return strings.Join(lines, "\n")
}

func (l *List) renderRow(i int) string {
	r := l.rows[i]
	marker := "  "
	if i == l.selected {
		marker = "> "
	}

	title := r.Title
	switch {
	case i == l.selected:
		title = l.styles.Selected.Render(title)
	case r.Muted:
		title = l.styles.Muted.Render(title)
	default:
		title = l.styles.Normal.Render(title)
	}

	line := marker + title
	if r.Badge != "" {
		line += " " + r.Badge
	}
	if r.Detail != "" {
		line += "  " + l.styles.Folder.Render(r.Detail)
	}
	return line
}
