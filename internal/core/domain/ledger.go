package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// CorrectionType records whether the user confirmed or overrode the AI.
type CorrectionType string

// Correction types.
const (
	CorrectionAccepted  CorrectionType = "accepted"
	CorrectionCorrected CorrectionType = "corrected"
)

// IsValid returns true if the correction type is recognised.
func (t CorrectionType) IsValid() bool {
	return t == CorrectionAccepted || t == CorrectionCorrected
}

// Correction is a recorded agreement or disagreement between the AI
// suggestion and the user's final destination.
type Correction struct {
	// ID is assigned by the ledger.
	ID int64 `json:"id,omitempty"`

	// Filename is the base name of the relocated file.
	Filename string `json:"filename"`

	// AISuggested is the folder the classifier proposed.
	AISuggested string `json:"ai_suggested"`

	// UserChose is the folder the user actually picked.
	UserChose string `json:"user_chose"`

	// Type is accepted or corrected.
	Type CorrectionType `json:"correction_type"`

	// CreatedAt orders corrections for retention and hints.
	CreatedAt time.Time `json:"created_at"`
}

// Hint renders the correction as a few-shot example line.
func (c Correction) Hint() string {
	if c.Type == CorrectionAccepted {
		return fmt.Sprintf("%q → AI suggested %s, user confirmed %s", c.Filename, c.AISuggested, c.UserChose)
	}
	return fmt.Sprintf("%q → AI suggested %s, user moved to %s", c.Filename, c.AISuggested, c.UserChose)
}

// ActivityEntry records one relocation so it can be undone.
type ActivityEntry struct {
	// ID is assigned by the ledger.
	ID int64 `json:"id,omitempty"`

	// Filename is the name the file has at ToFolder.
	Filename string `json:"filename"`

	// OriginalFilename is the name before a rename. Empty when not renamed.
	OriginalFilename string `json:"original_filename,omitempty"`

	// FromFolder is the folder the file was taken from.
	FromFolder string `json:"from_folder"`

	// ToFolder is the folder the file was placed in.
	ToFolder string `json:"to_folder"`

	// Undone flips to true at most once.
	Undone bool `json:"undone"`

	// CreatedAt identifies the entry for undo, at millisecond precision.
	CreatedAt time.Time `json:"created_at"`
}

// MovedPath returns the current location of the relocated file.
func (a ActivityEntry) MovedPath() string {
	return filepath.Join(a.ToFolder, a.Filename)
}

// RestoreName returns the name the file should have after undo.
func (a ActivityEntry) RestoreName() string {
	if a.OriginalFilename != "" {
		return a.OriginalFilename
	}
	return a.Filename
}

// Rule is a deterministic filename pattern mapped to a folder.
type Rule struct {
	// ID is assigned by the ledger.
	ID int64 `json:"id"`

	// Pattern is a shell glob (e.g. "Lecture*") or a plain substring.
	Pattern string `json:"pattern"`

	// TargetFolder is the destination folder for matching files.
	TargetFolder string `json:"target_folder"`

	// CreatedAt orders rule evaluation.
	CreatedAt time.Time `json:"created_at"`
}

// Matches reports whether filename matches the rule, ignoring case.
// Patterns containing glob metacharacters are matched as globs, others
// as substrings.
func (r Rule) Matches(filename string) bool {
	pattern := strings.ToLower(strings.TrimSpace(r.Pattern))
	if pattern == "" {
		return false
	}
	name := strings.ToLower(filename)
	if strings.ContainsAny(pattern, "*?[") {
		ok, err := filepath.Match(pattern, name)
		return err == nil && ok
	}
	return strings.Contains(name, pattern)
}

// MatchRule returns the first rule in order that matches filename.
func MatchRule(rules []Rule, filename string) (Rule, bool) {
	for _, r := range rules {
		if r.Matches(filename) {
			return r, true
		}
	}
	return Rule{}, false
}

// Millis truncates t to the millisecond precision the ledger stores.
func Millis(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli())
}
