package mcp

import (
	"time"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driving"
)

// EmptyInput is the input schema for tools that take no arguments.
type EmptyInput struct{}

// ClassificationOutput is a classification result.
type ClassificationOutput struct {
	IsRelevant        bool    `json:"is_relevant"`
	SuggestedFolder   string  `json:"suggested_folder"`
	Confidence        float64 `json:"confidence"`
	Reasoning         string  `json:"reasoning"`
	Source            string  `json:"source,omitempty"`
	NeedsConfirmation bool    `json:"needs_confirmation"`
}

// ActivityOutput is one recorded move.
type ActivityOutput struct {
	Filename         string `json:"filename"`
	OriginalFilename string `json:"original_filename,omitempty"`
	FromFolder       string `json:"from_folder"`
	ToFolder         string `json:"to_folder"`
	Undone           bool   `json:"undone"`
	CreatedAtMs      int64  `json:"created_at_ms"`
}

// CorrectionOutput is one recorded correction.
type CorrectionOutput struct {
	Filename    string `json:"filename"`
	AISuggested string `json:"ai_suggested"`
	UserChose   string `json:"user_chose"`
	Type        string `json:"correction_type"`
	CreatedAt   string `json:"created_at"`
}

// RuleOutput is one filename rule.
type RuleOutput struct {
	ID           int64  `json:"id"`
	Pattern      string `json:"pattern"`
	TargetFolder string `json:"target_folder"`
}

// FileOutput is one file found by scan_files.
type FileOutput struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Extension string `json:"extension"`
	Size      int64  `json:"size"`
	ModTime   string `json:"mod_time"`
	Category  string `json:"category"`
}

// FolderOutput is one folder found by scan_folders.
type FolderOutput struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Depth int    `json:"depth"`
}

// OutcomeOutput is the result of processing one watched file.
type OutcomeOutput struct {
	Path              string                `json:"path"`
	Result            *ClassificationOutput `json:"result,omitempty"`
	Activity          *ActivityOutput       `json:"activity,omitempty"`
	NeedsConfirmation bool                  `json:"needs_confirmation"`
	Retrying          bool                  `json:"retrying,omitempty"`
	Error             string                `json:"error,omitempty"`
}

// WatchStatusOutput is the output schema for the watch tools.
type WatchStatusOutput struct {
	State  string          `json:"state"`
	Path   string          `json:"path,omitempty"`
	Since  string          `json:"since,omitempty"`
	Recent []OutcomeOutput `json:"recent,omitempty"`
}

func toClassification(r *domain.ClassificationResult, threshold float64) *ClassificationOutput {
	if r == nil {
		return nil
	}
	return &ClassificationOutput{
		IsRelevant:        r.IsRelevant,
		SuggestedFolder:   r.SuggestedFolder,
		Confidence:        r.Confidence,
		Reasoning:         r.Reasoning,
		Source:            string(r.Source),
		NeedsConfirmation: r.NeedsConfirmation(threshold),
	}
}

func toActivity(e *domain.ActivityEntry) *ActivityOutput {
	if e == nil {
		return nil
	}
	return &ActivityOutput{
		Filename:         e.Filename,
		OriginalFilename: e.OriginalFilename,
		FromFolder:       e.FromFolder,
		ToFolder:         e.ToFolder,
		Undone:           e.Undone,
		CreatedAtMs:      e.CreatedAt.UnixMilli(),
	}
}

func toOutcome(o driving.Outcome, threshold float64) OutcomeOutput {
	out := OutcomeOutput{
		Path:              o.Observation.Path,
		Result:            toClassification(o.Result, threshold),
		Activity:          toActivity(o.Activity),
		NeedsConfirmation: o.NeedsConfirmation,
		Retrying:          o.Retrying,
	}
	if o.Err != nil {
		out.Error = o.Err.Error()
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
