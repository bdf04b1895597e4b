package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sorta/internal/adapters/driving/tui/styles"
)

func TestNewFilterInput(t *testing.T) {
	input := NewFilterInput(styles.DefaultStyles(), "Move to")

	require.NotNil(t, input)
	assert.Equal(t, "", input.Value())
	assert.True(t, input.Focused())
	assert.Contains(t, input.View(), "Move to")
}

func TestNewFilterInput_Defaults(t *testing.T) {
	input := NewFilterInput(nil, "")

	require.NotNil(t, input)
	assert.NotNil(t, input.styles)
	assert.Equal(t, "Folder", input.label)
}

func TestFilterInput_Init(t *testing.T) {
	input := NewFilterInput(nil, "")

	// Blink command should be returned
	assert.NotNil(t, input.Init())
}

func TestFilterInput_Update(t *testing.T) {
	input := NewFilterInput(nil, "")

	updated, _ := input.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'M', 'L'}})

	assert.Equal(t, input, updated)
	assert.Equal(t, "ML", input.Value())
}

func TestFilterInput_SetValueAndReset(t *testing.T) {
	input := NewFilterInput(nil, "")

	input.SetValue("Physics")
	assert.Equal(t, "Physics", input.Value())

	input.Reset()
	assert.Equal(t, "", input.Value())
}

func TestFilterInput_FocusBlur(t *testing.T) {
	input := NewFilterInput(nil, "")

	input.Blur()
	assert.False(t, input.Focused())

	input.Focus()
	assert.True(t, input.Focused())
}

func TestFilterInput_SetWidth(t *testing.T) {
	input := NewFilterInput(nil, "")

	input.SetWidth(100)
	assert.Equal(t, 100, input.Width())

	input.SetWidth(10)
	assert.Equal(t, 10, input.Width())
	assert.Equal(t, 20, input.textinput.Width)
}
