package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sandevgo/lifecoach/internal/core"
	"github.com/sandevgo/lifecoach/pkg/log"
)

// Provider is what the factory hands out: chat plus model discovery.
type Provider interface {
	core.AIProvider
	core.ModelLister
}

// NewProvider creates the configured OpenAI-compatible backend.
func NewProvider(ctx context.Context, cfg core.ProviderConfig) (Provider, error) {
	candidates := cfg.GetCandidates()
	log.FromCtx(ctx).Info().
		Str("provider", cfg.GetProvider()).
		Strs("text_models", candidates.Text).
		Strs("vision_models", candidates.Vision).
		Msg("starting llm provider")

	switch cfg.GetProvider() {
	case "openrouter":
		return NewOpenRouter(cfg.GetAPIKey(), cfg.GetReferer(), cfg.GetTitle()), nil
	case "openai":
		return NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:    "https://api.openai.com",
			APIKey:     cfg.GetAPIKey(),
			AuthHeader: "Authorization",
			AuthPrefix: "Bearer ",
		}), nil
	case "ollama":
		return NewOllama(cfg.GetBaseURL(), cfg.GetAPIKey()), nil
	case "custom":
		if cfg.GetBaseURL() == "" {
			return nil, errors.New("custom provider requires LLM_BASE_URL")
		}
		return NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:    cfg.GetBaseURL(),
			APIKey:     cfg.GetAPIKey(),
			AuthHeader: "Authorization",
			AuthPrefix: "Bearer ",
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.GetProvider())
	}
}
