// Package html extracts readable text from HTML pages saved to disk.
package html

import (
	"context"
	"html"
	"io"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/spf13/afero"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

const maxFileSize = 10 * 1024 * 1024

var titleTag = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

// Extractor handles HTML documents.
type Extractor struct {
	fs afero.Fs
}

// New creates an HTML extractor reading through fs.
func New(fs afero.Fs) *Extractor {
	return &Extractor{fs: fs}
}

// Supports reports whether ext is an HTML extension.
func (e *Extractor) Supports(ext string) bool {
	return ext == ".html" || ext == ".htm" || ext == ".xhtml"
}

// Extract returns the page title followed by the body rendered as
// markdown, one non-blank line per block.
func (e *Extractor) Extract(_ context.Context, path string) (string, error) {
	f, err := e.fs.Open(path)
	if err != nil {
		return "", &domain.ExtractionError{Kind: domain.ExtractionDocument, Err: err}
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, maxFileSize))
	if err != nil {
		return "", &domain.ExtractionError{Kind: domain.ExtractionDocument, Err: err}
	}

	content := string(raw)
	md, err := htmltomarkdown.ConvertString(content)
	if err != nil {
		return "", &domain.ExtractionError{Kind: domain.ExtractionDocument, Err: err}
	}

	text := compact(md)
	if title := extractTitle(content); title != "" && !strings.HasPrefix(text, title) {
		text = strings.TrimSpace(title + "\n" + text)
	}
	return text, nil
}

// extractTitle returns the decoded <title> text, if any.
func extractTitle(content string) string {
	m := titleTag.FindStringSubmatch(content)
	if len(m) > 1 {
		return strings.TrimSpace(html.UnescapeString(m[1]))
	}
	return ""
}

// compact trims every line and drops blank ones.
func compact(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
