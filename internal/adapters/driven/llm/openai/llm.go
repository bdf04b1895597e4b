// Package openai provides a classifier backend using the OpenAI API.
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driven"
)

// Ensure Backend implements the interface.
var _ driven.ClassifierBackend = (*Backend)(nil)

// Default configuration values.
const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultTextModel   = "gpt-4o-mini"
	DefaultVisionModel = "gpt-4o"
	DefaultTimeout     = 120 * time.Second
)

const providerName = "openai"

// Config holds configuration for the OpenAI backend.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// TextModel is used for prompts without an image (default: gpt-4o-mini).
	TextModel string

	// VisionModel is used when an image is attached (default: gpt-4o).
	VisionModel string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// Backend sends classification prompts to OpenAI chat completions.
type Backend struct {
	client      *openai.Client
	textModel   string
	visionModel string
}

// New creates a new OpenAI backend.
func New(cfg Config) (*Backend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai API key is required", domain.ErrMissingCredential)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.TextModel == "" {
		cfg.TextModel = DefaultTextModel
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = DefaultVisionModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Backend{
		client:      openai.NewClientWithConfig(clientCfg),
		textModel:   cfg.TextModel,
		visionModel: cfg.VisionModel,
	}, nil
}

// Name returns the provider identifier.
func (b *Backend) Name() string {
	return providerName
}

// Complete sends req as a single user message. An attached image is sent
// inline as a low-detail data URL.
func (b *Backend) Complete(ctx context.Context, req driven.CompletionRequest) (string, error) {
	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	model := b.textModel

	if req.Image != nil {
		model = b.visionModel
		dataURL := "data:" + req.Image.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(req.Image.Data)
		msg.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURL,
					Detail: openai.ImageURLDetailLow,
				},
			},
		}
	} else {
		msg.Content = req.Prompt
	}

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    []openai.ChatCompletionMessage{msg},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", mapError(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", domain.ErrEmptyResult)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: openai returned empty content", domain.ErrEmptyResult)
	}
	return content, nil
}

// mapError converts client errors into the classification taxonomy.
func mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &domain.StatusError{Provider: providerName, StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &domain.StatusError{Provider: providerName, StatusCode: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}
	return fmt.Errorf("%w: openai: %w", domain.ErrTransport, err)
}
