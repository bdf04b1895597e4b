package domain

import (
	"math"
	"strings"
)

// UnsortedFolder is the sentinel folder a classifier returns when no
// candidate fits a relevant file.
const UnsortedFolder = "__UNSORTED__"

// Mode selects what evidence a classification request carries.
// The set of implementations is closed: FilenameOnly, Vision and TextContent.
type Mode interface {
	// Name returns the mode identifier used in logs and tool output.
	Name() string

	isMode()
}

// FilenameOnly classifies from the file name alone.
type FilenameOnly struct{}

// Name returns "filename".
func (FilenameOnly) Name() string { return "filename" }
func (FilenameOnly) isMode()      {}

// Vision attaches raw image bytes for a vision-capable classifier.
type Vision struct {
	// Image is the encoded image file content.
	Image []byte

	// MIMEType is the image media type (e.g. "image/png").
	MIMEType string
}

// Name returns "vision".
func (Vision) Name() string { return "vision" }
func (Vision) isMode()      {}

// TextContent supplies an extracted text snippet that outranks the file name.
type TextContent struct {
	// Text is the whitespace-normalised snippet.
	Text string
}

// Name returns "text".
func (TextContent) Name() string { return "text" }
func (TextContent) isMode()      {}

// ClassificationRequest asks the classifier for a destination folder.
type ClassificationRequest struct {
	// Filename is the base name of the file being classified.
	Filename string

	// Mode carries the evidence for this pass.
	Mode Mode

	// Folders lists candidate destination folder names.
	Folders []string

	// Hints are rendered past corrections used as few-shot examples.
	// Nil means load recent corrections from the ledger; an empty slice
	// means send none.
	Hints []string
}

// Source records which cascade stage produced a result.
type Source string

// Classification sources.
const (
	SourceRule     Source = "rule"
	SourceFilename Source = "filename"
	SourceOCR      Source = "ocr"
	SourceVision   Source = "vision"
	SourceContent  Source = "content"
)

// ClassificationResult is the sanitised answer of one classification pass.
type ClassificationResult struct {
	// IsRelevant reports whether the file is coursework material.
	IsRelevant bool `json:"is_relevant"`

	// SuggestedFolder is the chosen candidate folder. Always empty when
	// IsRelevant is false or no candidate fits.
	SuggestedFolder string `json:"suggested_folder"`

	// Confidence is the classifier's certainty in [0,1].
	Confidence float64 `json:"confidence"`

	// Reasoning is the classifier's one-line explanation.
	Reasoning string `json:"reasoning"`

	// Source is the cascade stage that produced the result.
	Source Source `json:"source,omitempty"`
}

// Sanitise enforces the result invariants in place: confidence is clamped
// into [0,1], and irrelevant or unsorted results carry no folder. An
// unsorted result stays relevant; it is coursework with no fitting folder.
func (r *ClassificationResult) Sanitise() {
	switch {
	case math.IsNaN(r.Confidence) || r.Confidence < 0:
		r.Confidence = 0
	case r.Confidence > 1:
		r.Confidence = 1
	}

	r.SuggestedFolder = strings.TrimSpace(r.SuggestedFolder)
	r.Reasoning = strings.TrimSpace(r.Reasoning)

	if !r.IsRelevant || r.SuggestedFolder == UnsortedFolder {
		r.SuggestedFolder = ""
		r.Confidence = 0
	}
}

// NeedsConfirmation reports whether a human must confirm the result before
// the file may be moved. Only relevant results with a folder at or above
// the threshold are safe to act on automatically.
func (r ClassificationResult) NeedsConfirmation(threshold float64) bool {
	return !r.IsRelevant || r.SuggestedFolder == "" || r.Confidence < threshold
}

// Unsorted reports whether r is coursework that fits none of the folders.
func (r ClassificationResult) Unsorted() bool {
	return r.IsRelevant && r.SuggestedFolder == ""
}

// Better reports whether r should replace prev as the cascade's answer.
func (r ClassificationResult) Better(prev ClassificationResult) bool {
	if r.IsRelevant != prev.IsRelevant {
		return r.IsRelevant
	}
	return r.Confidence > prev.Confidence
}
