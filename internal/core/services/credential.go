package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/custodia-labs/sorta/internal/core/domain"
	"github.com/custodia-labs/sorta/internal/core/ports/driven"
	"github.com/custodia-labs/sorta/internal/core/ports/driving"
)

// Ensure CredentialService implements both interfaces.
var (
	_ driving.CredentialService = (*CredentialService)(nil)
	_ driven.CredentialSource   = (*CredentialService)(nil)
)

// providerEnv names the conventional environment variable per provider.
var providerEnv = map[domain.AIProvider]string{
	domain.AIProviderOpenAI:    "OPENAI_API_KEY",
	domain.AIProviderAnthropic: "ANTHROPIC_API_KEY",
}

// CredentialService resolves the classifier API key from, in order, its
// cache, the ledger settings, the configured key and the environment.
type CredentialService struct {
	settings   driven.SettingStore
	provider   domain.AIProvider
	configured string
	getenv     func(string) string
	log        *zap.Logger

	mu     sync.Mutex
	cached string
}

// NewCredentialService creates a credential service for provider.
// configured is the key from config, possibly empty.
func NewCredentialService(settings driven.SettingStore, provider domain.AIProvider, configured string) *CredentialService {
	return &CredentialService{
		settings:   settings,
		provider:   provider,
		configured: strings.TrimSpace(configured),
		getenv:     os.Getenv,
		log:        zap.NewNop(),
	}
}

// SetLogger sets the structured logger.
func (s *CredentialService) SetLogger(l *zap.Logger) {
	if l != nil {
		s.log = l
	}
}

// Provider returns the configured provider.
func (s *CredentialService) Provider() domain.AIProvider {
	return s.provider
}

// APIKey returns the key for the configured provider. Local providers
// need none and get an empty key.
func (s *CredentialService) APIKey(ctx context.Context) (string, error) {
	if !s.provider.RequiresAPIKey() {
		return "", nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != "" {
		return s.cached, nil
	}

	if s.settings != nil {
		stored, ok, err := s.settings.GetSetting(ctx, s.provider.CredentialKey())
		if err != nil {
			s.log.Warn("reading stored credential", zap.Error(err))
		} else if ok && strings.TrimSpace(stored) != "" {
			s.cached = strings.TrimSpace(stored)
			return s.cached, nil
		}
	}

	if s.configured != "" {
		s.cached = s.configured
		return s.cached, nil
	}

	if name, ok := providerEnv[s.provider]; ok {
		if v := strings.TrimSpace(s.getenv(name)); v != "" {
			s.cached = v
			return s.cached, nil
		}
	}

	return "", fmt.Errorf("%w: no API key for %s", domain.ErrMissingCredential, s.provider)
}

// SetAPIKey stores key in the ledger and refreshes the cache.
func (s *CredentialService) SetAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: key is empty", domain.ErrInvalidInput)
	}
	if s.settings == nil {
		return fmt.Errorf("%w: no settings store", domain.ErrInvalidInput)
	}
	if err := s.settings.SetSetting(ctx, s.provider.CredentialKey(), key); err != nil {
		return err
	}

	s.mu.Lock()
	s.cached = key
	s.mu.Unlock()
	s.log.Info("credential stored", zap.String("provider", s.provider.String()))
	return nil
}

// ClearAPIKey deletes the stored key and empties the cache. A configured
// or environment key still applies afterwards.
func (s *CredentialService) ClearAPIKey(ctx context.Context) error {
	if s.settings != nil {
		if err := s.settings.DeleteSetting(ctx, s.provider.CredentialKey()); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.cached = ""
	s.mu.Unlock()
	return nil
}

// Masked renders the current key as its first and last four characters.
func (s *CredentialService) Masked(ctx context.Context) string {
	key, err := s.APIKey(ctx)
	if err != nil || key == "" {
		return ""
	}
	return MaskKey(key)
}

// MaskKey hides the middle of key. Keys of eight characters or fewer are
// fully masked.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + "..." + key[len(key)-4:]
}
