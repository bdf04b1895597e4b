package extractors

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/extractors/html"
	"github.com/custodia-labs/sorta/internal/extractors/plaintext"
)

func TestRegistry_Dispatch(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/in/A.TXT", []byte("hello"), 0o644))

	r := NewRegistry(plaintext.New(fs))
	r.Register(html.New(fs))

	assert.True(t, r.Supports(".txt"))
	assert.True(t, r.Supports(".HTML"))
	assert.False(t, r.Supports(".zip"))

	text, err := r.Extract(context.Background(), "/in/A.TXT")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestRegistry_Unsupported(t *testing.T) {
	r := NewRegistry()
	_, err := r.Extract(context.Background(), "/in/a.zip")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtractionFailure)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
