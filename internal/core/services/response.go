package services

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/custodia-labs/sorta/internal/core/domain"
)

// maxSnippetRunes caps the response excerpt carried by a ParseError.
const maxSnippetRunes = 200

type classifierPayload struct {
	IsRelevant *bool    `json:"is_relevant"`
	Folder     *string  `json:"folder"`
	Confidence *float64 `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

// ParseResponse extracts the JSON object from a classifier reply, which
// may be wrapped in a markdown fence, and returns the sanitised result.
// A missing is_relevant field is read as not relevant.
func ParseResponse(raw string) (*domain.ClassificationResult, error) {
	body := stripFence(raw)

	var p classifierPayload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil, &domain.ParseError{Snippet: snippet(body), Err: err}
	}
	if p.Folder == nil {
		return nil, &domain.ParseError{Snippet: snippet(body), Err: errors.New("missing field \"folder\"")}
	}
	if p.Confidence == nil {
		return nil, &domain.ParseError{Snippet: snippet(body), Err: errors.New("missing field \"confidence\"")}
	}

	result := &domain.ClassificationResult{
		IsRelevant:      p.IsRelevant != nil && *p.IsRelevant,
		SuggestedFolder: *p.Folder,
		Confidence:      *p.Confidence,
		Reasoning:       p.Reasoning,
	}
	result.Sanitise()
	return result, nil
}

// stripFence returns the content of the first ```json fence, else the
// first ``` fence, else the trimmed input.
func stripFence(raw string) string {
	if _, after, ok := strings.Cut(raw, "```json"); ok {
		inner, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(inner)
	}
	if parts := strings.SplitN(raw, "```", 3); len(parts) > 1 {
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(raw)
}

func snippet(s string) string {
	runes := []rune(s)
	if len(runes) > maxSnippetRunes {
		return string(runes[:maxSnippetRunes])
	}
	return s
}
