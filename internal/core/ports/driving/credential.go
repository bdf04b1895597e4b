package driving

import "context"

// CredentialService resolves and stores the classifier API key.
type CredentialService interface {
	// APIKey returns the key for the configured provider.
	APIKey(ctx context.Context) (string, error)

	SetAPIKey(ctx context.Context, key string) error
	ClearAPIKey(ctx context.Context) error

	// Masked renders the current key for display. Empty when none is set.
	Masked(ctx context.Context) string
}
