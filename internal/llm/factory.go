package llm

import (
	"fmt"

	"go.uber.org/zap"

	"quizforge/internal/config"
	"quizforge/internal/store"
)

// Providers bundles the two pipeline roles. Generator writes questions,
// Critic reviews them. Both may point at the same endpoint with different
// models.
type Providers struct {
	Generator Provider
	Critic    Provider
}

// NewProviders builds both roles from configuration, each wrapped with event
// logging, transport retry and the fallback-model decorator:
// caller → fallback → retry → logging → base.
func NewProviders(cfg config.Config, repo store.EventRepo, log *zap.Logger) (*Providers, error) {
	gen, err := buildRole(cfg, cfg.GeneratorModel, repo, log)
	if err != nil {
		return nil, fmt.Errorf("generator provider: %w", err)
	}
	critic, err := buildRole(cfg, cfg.CriticModel, repo, log)
	if err != nil {
		return nil, fmt.Errorf("critic provider: %w", err)
	}
	return &Providers{Generator: gen, Critic: critic}, nil
}

func buildRole(cfg config.Config, model string, repo store.EventRepo, log *zap.Logger) (Provider, error) {
	primary, err := newBase(cfg, model, repo, log)
	if err != nil {
		return nil, err
	}
	primary = WithRetry(primary, cfg.Retry)

	if cfg.FallbackModel == "" || cfg.FallbackModel == model {
		return primary, nil
	}

	fallback, err := newBase(cfg, cfg.FallbackModel, repo, log)
	if err != nil {
		return nil, fmt.Errorf("fallback provider: %w", err)
	}
	// The fallback gets exactly one attempt.
	fallback = WithRetry(fallback, config.RetryConfig{MaxAttempts: 1})

	return WithFallback(primary, fallback, log), nil
}

func newBase(cfg config.Config, model string, repo store.EventRepo, log *zap.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "ollama":
		base, err = NewOllamaProvider(cfg.Ollama, model)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI, model)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if repo != nil {
		base = WithLogging(base, repo, log)
	}
	return base, nil
}
