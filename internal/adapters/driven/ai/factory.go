// Package ai resolves the configured classifier backend.
package ai

import (
	"context"
	"fmt"
	"sync"

	anthropicllm "github.com/custodia-labs/sorta/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/sorta/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/sorta/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.BackendFactory = (*Factory)(nil)

// Factory builds the classifier backend from settings and the current
// credential. A backend is reused until the credential changes.
type Factory struct {
	settings domain.AISettings
	creds    driven.CredentialSource

	mu      sync.Mutex
	backend driven.ClassifierBackend
	key     string
}

// NewFactory creates a backend factory. settings.APIKey is ignored; the
// key always comes from creds.
func NewFactory(settings domain.AISettings, creds driven.CredentialSource) *Factory {
	settings.APIKey = ""
	return &Factory{settings: settings, creds: creds}
}

// Backend returns a ready backend for the configured provider.
func (f *Factory) Backend(ctx context.Context) (driven.ClassifierBackend, error) {
	var key string
	if f.settings.Provider.RequiresAPIKey() {
		if f.creds == nil {
			return nil, fmt.Errorf("%w: no credential source", domain.ErrMissingCredential)
		}
		k, err := f.creds.APIKey(ctx)
		if err != nil {
			return nil, err
		}
		key = k
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.backend != nil && f.key == key {
		return f.backend, nil
	}

	settings := f.settings
	settings.APIKey = key
	backend, err := CreateBackend(&settings)
	if err != nil {
		return nil, err
	}
	f.backend = backend
	f.key = key
	return backend, nil
}

// CreateBackend creates the backend for settings.Provider.
func CreateBackend(settings *domain.AISettings) (driven.ClassifierBackend, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: no AI settings", domain.ErrInvalidInput)
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.New(ollamallm.Config{
			BaseURL:     settings.BaseURL,
			TextModel:   settings.TextModel,
			VisionModel: settings.VisionModel,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.New(openaillm.Config{
			APIKey:      settings.APIKey,
			BaseURL:     settings.BaseURL,
			TextModel:   settings.TextModel,
			VisionModel: settings.VisionModel,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.New(anthropicllm.Config{
			APIKey:      settings.APIKey,
			BaseURL:     settings.BaseURL,
			TextModel:   settings.TextModel,
			VisionModel: settings.VisionModel,
		})

	default:
		return nil, fmt.Errorf("%w: unsupported AI provider %q", domain.ErrInvalidInput, settings.Provider)
	}
}
