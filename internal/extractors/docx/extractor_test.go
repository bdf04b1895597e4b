package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sorta/internal/core/domain"
)

// createDOCX builds a minimal DOCX archive with the given document.xml.
func createDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

const twoParagraphs = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>ECON 101 </w:t></w:r><w:r><w:t>Essay</w:t></w:r></w:p>
<w:p><w:r><w:t>Supply and demand</w:t></w:r></w:p>
</w:body>
</w:document>`

func TestSupports(t *testing.T) {
	e := New(afero.NewMemMapFs())
	assert.True(t, e.Supports(".docx"))
	assert.False(t, e.Supports(".doc"))
}

func TestExtract_Paragraphs(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/in/essay.docx", createDOCX(t, twoParagraphs), 0o644))

	text, err := New(fs).Extract(context.Background(), "/in/essay.docx")
	require.NoError(t, err)
	assert.Equal(t, "ECON 101 Essay\nSupply and demand", text)
}

func TestExtract_NotZip(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/in/fake.docx", []byte("plain text"), 0o644))

	_, err := New(fs).Extract(context.Background(), "/in/fake.docx")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtractionFailure)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtract_MissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	_, err := w.Create("word/styles.xml")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/in/empty.docx", buf.Bytes(), 0o644))

	_, err = New(fs).Extract(context.Background(), "/in/empty.docx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "word/document.xml missing")
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := New(afero.NewMemMapFs()).Extract(context.Background(), "/nope.docx")
	assert.ErrorIs(t, err, domain.ErrExtractionFailure)
}
