// Package styles holds the review screen's palette and lipgloss styles.
package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the colour palette. Confident, unsure and failed results each
// get their own colour so a long review list can be scanned at a glance.
type Theme struct {
	Accent   lipgloss.Color
	Folder   lipgloss.Color
	Text     lipgloss.Color
	Dim      lipgloss.Color
	Bar      lipgloss.Color
	Frame    lipgloss.Color
	Moved    lipgloss.Color
	Unsure   lipgloss.Color
	Failed   lipgloss.Color
	Selected lipgloss.Color
}

// DefaultTheme returns the built-in dark palette.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:   lipgloss.Color("#0F766E"),
		Folder:   lipgloss.Color("#89B4FA"),
		Text:     lipgloss.Color("#CDD6F4"),
		Dim:      lipgloss.Color("#6C7086"),
		Bar:      lipgloss.Color("#181825"),
		Frame:    lipgloss.Color("#45475A"),
		Moved:    lipgloss.Color("#A6E3A1"),
		Unsure:   lipgloss.Color("#F9E2AF"),
		Failed:   lipgloss.Color("#F38BA8"),
		Selected: lipgloss.Color("#134E4A"),
	}
}

// Styles are the rendered styles built from a Theme.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Help     lipgloss.Style

	// Outcome styles.
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	// Folder renders destination folder names.
	Folder lipgloss.Style

	InputField lipgloss.Style
	StatusBar  lipgloss.Style

	// Panel frames the detail pane under the file list.
	Panel lipgloss.Style
}

// NewStyles builds styles from theme. A nil theme uses DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	framed := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Frame).
		Padding(0, 1)

	return &Styles{
		theme:    theme,
		Title:    lipgloss.NewStyle().Bold(true).Foreground(theme.Accent),
		Subtitle: lipgloss.NewStyle().Bold(true).Foreground(theme.Folder),
		Normal:   lipgloss.NewStyle().Foreground(theme.Text),
		Muted:    lipgloss.NewStyle().Foreground(theme.Dim),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(theme.Text).Background(theme.Selected),
		Help:     lipgloss.NewStyle().Foreground(theme.Dim),

		Success: lipgloss.NewStyle().Foreground(theme.Moved),
		Warning: lipgloss.NewStyle().Foreground(theme.Unsure),
		Error:   lipgloss.NewStyle().Foreground(theme.Failed),

		Folder: lipgloss.NewStyle().Bold(true).Foreground(theme.Folder),

		InputField: framed,
		StatusBar:  lipgloss.NewStyle().Foreground(theme.Dim).Background(theme.Bar).Padding(0, 1),
		Panel:      framed,
	}
}

// DefaultStyles returns styles for the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// Confidence renders c as a percentage: the outcome colour for success at
// or above threshold, warning down to half of it, error below.
func (s *Styles) Confidence(c, threshold float64) string {
	text := fmt.Sprintf("%3.0f%%", c*100)
	switch {
	case c >= threshold:
		return s.Success.Render(text)
	case c >= threshold/2:
		return s.Warning.Render(text)
	default:
		return s.Error.Render(text)
	}
}
