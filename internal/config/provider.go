package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/lifecoach/internal/core"
	"github.com/sandevgo/lifecoach/pkg/log"
)

type ProviderConfig struct {
	Provider string `env:"LLM_PROVIDER" envDefault:"openrouter"`
	APIKey   string `env:"LLM_API_KEY"`
	BaseURL  string `env:"LLM_BASE_URL"`

	TextModels   []string `env:"LLM_TEXT_MODELS" envSeparator:"," envDefault:"arcee-ai/trinity-large-preview:free,deepseek/deepseek-r1-0528:free,qwen/qwen3-next-80b-a3b-instruct:free,google/gemma-3-27b-it:free,openrouter/free"`
	VisionModels []string `env:"LLM_VISION_MODELS" envSeparator:"," envDefault:"google/gemma-3-27b-it:free,nvidia/nemotron-nano-12b-v2-vl:free,mistralai/mistral-small-3.1-24b-instruct:free"`

	// OpenRouter attribution headers
	Referer string `env:"LLM_REFERER" envDefault:"https://lifecoach-ai.vercel.app"`
	Title   string `env:"LLM_TITLE" envDefault:"LifeCoach AI"`
}

func NewProviderConfig(ctx context.Context) *ProviderConfig {
	c := &ProviderConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Provider config")
	}
	return c
}

func (c ProviderConfig) GetProvider() string {
	return c.Provider
}

func (c ProviderConfig) GetAPIKey() string {
	return c.APIKey
}

func (c ProviderConfig) GetBaseURL() string {
	return c.BaseURL
}

func (c ProviderConfig) GetReferer() string {
	return c.Referer
}

func (c ProviderConfig) GetTitle() string {
	return c.Title
}

func (c ProviderConfig) GetCandidates() core.Candidates {
	return core.Candidates{
		Text:   c.TextModels,
		Vision: c.VisionModels,
	}
}

// DefaultProviderConfig returns the envDefault values, ignoring the process environment.
func DefaultProviderConfig() ProviderConfig {
	var c ProviderConfig
	_ = env.ParseWithOptions(&c, env.Options{Environment: map[string]string{}})
	return c
}
