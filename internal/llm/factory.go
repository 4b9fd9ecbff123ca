package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/rubrix/internal/store"
)

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with retry and logging middleware.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// Wrap with middleware: caller → retry → logging → base
	if eventRepo != nil {
		base = WithLogging(base, eventRepo)
	}
	retried := WithRetry(base, cfg.Retry)

	return retried, nil
}

// NewProviderFromEnv builds a provider from RUBRIX_* environment
// variables. eventRepo may be nil to skip request logging.
func NewProviderFromEnv(ctx context.Context, eventRepo store.EventRepo) (Provider, error) {
	cfg := ConfigFromEnv()

	switch cfg.Provider {
	case "anthropic":
		if cfg.Anthropic.APIKey == "" {
			return nil, fmt.Errorf("RUBRIX_ANTHROPIC_API_KEY is not set")
		}
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("RUBRIX_OPENAI_API_KEY is not set")
		}
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("RUBRIX_GEMINI_API_KEY is not set")
		}
	}

	return NewProvider(ctx, cfg, eventRepo)
}
