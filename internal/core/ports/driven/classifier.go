package driven

import (
	"context"

	"github.com/custodia-labs/sorta/internal/core/domain"
)

// ClassifierBackend sends a prompt to an external text or vision model.
//
// Implementations include:
//   - OpenAI (gpt-4o-mini, gpt-4o)
//   - Anthropic (Claude)
//   - Ollama (local models, llava for vision)
//
// Errors must wrap the classification sentinels: domain.ErrTransport for
// request failures, *domain.StatusError for non-2xx responses and
// domain.ErrEmptyResult when no content came back.
type ClassifierBackend interface {
	// Complete returns the raw response text for the request.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Name returns the provider identifier.
	Name() string
}

// CompletionRequest is one outbound classifier call.
type CompletionRequest struct {
	// Prompt is the complete instruction text.
	Prompt string

	// Image is attached for vision requests. Nil for text-only requests.
	Image *ImageAttachment

	// MaxTokens caps the response length.
	MaxTokens int

	// Temperature controls sampling.
	Temperature float32
}

// ImageAttachment is an encoded image sent alongside a prompt.
type ImageAttachment struct {
	Data     []byte
	MIMEType string
}

// BackendFactory resolves the configured backend, reading the stored
// credential on each call so key changes take effect without restart.
type BackendFactory interface {
	// Backend returns a ready backend.
	// Returns domain.ErrMissingCredential if the provider needs a key and none is set.
	Backend(ctx context.Context) (ClassifierBackend, error)
}

// CredentialSource supplies the API key for the configured provider.
type CredentialSource interface {
	// Provider returns the configured provider.
	Provider() domain.AIProvider

	// APIKey returns the key, or domain.ErrMissingCredential.
	APIKey(ctx context.Context) (string, error)
}

// Gate serialises outbound classifier calls to a minimum interval.
// Wait blocks until the caller may proceed or ctx is done.
type Gate interface {
	Wait(ctx context.Context) error
}

// Prompt names, one per classification mode.
const (
	PromptFilename = "filename"
	PromptVision   = "vision"
	PromptText     = "text"
)

// PromptStore supplies the per-mode instruction that opens the
// classification prompt.
type PromptStore interface {
	// Load returns the instruction for name, or an error when none exists.
	Load(name string) (string, error)
}
