package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	require.NotNil(t, km)
}

func TestDefaultKeyMap_Bindings(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name    string
		binding key.Binding
		keys    []string
	}{
		{"quit", km.Quit, []string{"q", "ctrl+c"}},
		{"help", km.Help, []string{"?"}},
		{"back", km.Back, []string{"esc"}},
		{"up", km.Up, []string{"up", "k"}},
		{"down", km.Down, []string{"down", "j"}},
		{"accept", km.Accept, []string{"enter", "a"}},
		{"choose", km.Choose, []string{"c"}},
		{"skip", km.Skip, []string{"s"}},
		{"undo", km.Undo, []string{"u"}},
		{"trash", km.Trash, []string{"t"}},
		{"preview", km.Preview, []string{"p"}},
		{"reclassify", km.Reclassify, []string{"r"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := tt.binding.Keys()
			for _, k := range tt.keys {
				assert.Contains(t, keys, k)
			}
			assert.NotEmpty(t, tt.binding.Help().Desc)
		})
	}
}

func TestKeyMap_ReviewHelp(t *testing.T) {
	km := DefaultKeyMap()

	help := km.ReviewHelp()

	require.Len(t, help, 5)
	assert.Equal(t, "accept", help[0].Help().Desc)
}

func TestKeyMap_FullHelp(t *testing.T) {
	km := DefaultKeyMap()

	groups := km.FullHelp()

	assert.Len(t, groups, 4)
	for _, g := range groups {
		assert.NotEmpty(t, g)
	}
}

func TestMatches(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, Matches("q", km.Quit))
	assert.True(t, Matches("a", km.Accept))
	assert.False(t, Matches("x", km.Accept))
	assert.False(t, Matches("", km.Skip))
}
