// Package docx extracts paragraph text from Office Open XML documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// maxFileSize bounds how much of a document is loaded.
const maxFileSize = 50 * 1024 * 1024

// Extractor handles DOCX documents.
type Extractor struct {
	fs afero.Fs
}

// New creates a DOCX extractor reading through fs.
func New(fs afero.Fs) *Extractor {
	return &Extractor{fs: fs}
}

// Supports reports whether ext is ".docx".
func (e *Extractor) Supports(ext string) bool {
	return ext == ".docx"
}

// Extract returns the paragraph text of word/document.xml.
func (e *Extractor) Extract(_ context.Context, path string) (string, error) {
	content, err := readLimited(e.fs, path)
	if err != nil {
		return "", fail(err)
	}

	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fail(fmt.Errorf("%w: not a zip archive: %w", domain.ErrInvalidInput, err))
	}

	text, err := extractDocumentText(reader)
	if err != nil {
		return "", fail(err)
	}
	return text, nil
}

func fail(err error) error {
	return &domain.ExtractionError{Kind: domain.ExtractionDocument, Err: err}
}

func readLimited(fs afero.Fs, path string) ([]byte, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxFileSize))
}

// extractDocumentText extracts text from word/document.xml.
func extractDocumentText(reader *zip.Reader) (string, error) {
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", err
		}

		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}

		return parseDocumentXML(content)
	}
	return "", errors.New("word/document.xml missing")
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// parseDocumentXML extracts text content from the document XML.
func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("parsing document.xml: %w", err)
	}

	var result strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			result.WriteString("\n")
		}
		for _, run := range para.Runs {
			for _, text := range run.Text {
				result.WriteString(text.Content)
			}
		}
	}

	return strings.TrimSpace(result.String()), nil
}
