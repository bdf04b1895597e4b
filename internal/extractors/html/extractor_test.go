package html

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sorta/internal/core/domain"
)

func TestSupports(t *testing.T) {
	e := New(afero.NewMemMapFs())
	assert.True(t, e.Supports(".html"))
	assert.True(t, e.Supports(".htm"))
	assert.False(t, e.Supports(".txt"))
}

func TestExtract(t *testing.T) {
	page := `<html><head><title>PHYS 110 &amp; Lab</title><style>p{color:red}</style></head>
<body><script>alert(1)</script><h1>Week 2</h1><p>Kinematics   notes</p></body></html>`

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/in/page.html", []byte(page), 0o644))

	text, err := New(fs).Extract(context.Background(), "/in/page.html")
	require.NoError(t, err)
	assert.Contains(t, text, "PHYS 110 & Lab")
	assert.Contains(t, text, "Week 2")
	assert.Contains(t, text, "Kinematics notes")
	assert.NotContains(t, text, "alert(1)")
	assert.NotContains(t, text, "color:red")
}

func TestExtractTitle(t *testing.T) {
	assert.Equal(t, "a < b", extractTitle("<TITLE> a &lt; b </TITLE>"))
	assert.Empty(t, extractTitle("<p>no title</p>"))
}

func TestCompact(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "hello", "hello"},
		{"blank lines", "one\n\n\ntwo", "one\ntwo"},
		{"indent", "  x  \n\ty", "x\ny"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compact(tt.input))
		})
	}
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := New(afero.NewMemMapFs()).Extract(context.Background(), "/nope.html")
	assert.ErrorIs(t, err, domain.ErrExtractionFailure)
}
