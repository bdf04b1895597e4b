// Package ollama provides a classifier backend using a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driven"
)

// Ensure Backend implements the interface.
var _ driven.ClassifierBackend = (*Backend)(nil)

// Default configuration values.
const (
	DefaultBaseURL     = "http://localhost:11434"
	DefaultTextModel   = "llama3.2"
	DefaultVisionModel = "llava"
	DefaultTimeout     = 120 * time.Second

	providerName = "ollama"
)

// Config holds configuration for the Ollama backend.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// TextModel is used for prompts without an image (default: llama3.2).
	TextModel string

	// VisionModel is used when an image is attached (default: llava).
	VisionModel string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// Backend sends classification prompts to Ollama.
type Backend struct {
	client      *http.Client
	baseURL     string
	textModel   string
	visionModel string
}

// generateRequest is the Ollama /api/generate request format.
type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Images  []string `json:"images,omitempty"`
	Stream  bool     `json:"stream"`
	Format  string   `json:"format,omitempty"`
	Options *options `json:"options,omitempty"`
}

// options holds generation parameters.
type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
}

// generateResponse is the Ollama /api/generate response format.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// New creates a new Ollama backend. No credential is needed.
func New(cfg Config) *Backend {
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

	return &Backend{
		client:      &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		textModel:   cfg.TextModel,
		visionModel: cfg.VisionModel,
	}
}

// Name returns the provider identifier.
func (b *Backend) Name() string {
	return providerName
}

// Complete runs a non-streaming generation constrained to JSON output.
func (b *Backend) Complete(ctx context.Context, req driven.CompletionRequest) (string, error) {
	reqBody := generateRequest{
		Model:  b.textModel,
		Prompt: req.Prompt,
		Stream: false,
		Format: "json",
	}
	if req.Image != nil {
		reqBody.Model = b.visionModel
		reqBody.Images = []string{base64.StdEncoding.EncodeToString(req.Image.Data)}
	}
	if req.MaxTokens > 0 || req.Temperature > 0 {
		reqBody.Options = &options{
			NumPredict:  req.MaxTokens,
			Temperature: req.Temperature,
		}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %w", domain.ErrTransport, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/generate", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %w", domain.ErrTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: ollama: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			body = []byte("failed to read response")
		}
		return "", &domain.StatusError{Provider: providerName, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", domain.ErrTransport, err)
	}
	if genResp.Error != "" {
		return "", &domain.StatusError{Provider: providerName, StatusCode: resp.StatusCode, Body: genResp.Error}
	}

	out := strings.TrimSpace(genResp.Response)
	if out == "" {
		return "", fmt.Errorf("%w: ollama returned an empty response", domain.ErrEmptyResult)
	}
	return out, nil
}
