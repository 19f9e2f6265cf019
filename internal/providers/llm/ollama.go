package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sandevgo/lifecoach/internal/core"
)

const (
	defaultOllamaURL = "http://localhost:11434"
	// A local daemon answers fast or not at all.
	ollamaProbeTimeout = 5 * time.Second
)

// Ollama speaks the OpenAI chat API but lists models through its own endpoint.
type Ollama struct {
	*OpenAICompatible
}

func NewOllama(baseURL, apiKey string) *Ollama {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	return &Ollama{
		OpenAICompatible: NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:    baseURL,
			APIKey:     apiKey,
			AuthHeader: "Authorization",
			AuthPrefix: "Bearer ",
		}),
	}
}

type ollamaTags struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Models reads /api/tags; older Ollama builds lack /v1/models.
func (o *Ollama) Models(ctx context.Context) ([]core.Model, error) {
	ctx, cancel := context.WithTimeout(ctx, ollamaProbeTimeout)
	defer cancel()

	resp, err := o.doRequest(ctx, http.MethodGet, "/api/tags", nil, o.headers())
	if err != nil {
		return nil, fmt.Errorf("ollama not available: %w", err)
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var tags ollamaTags
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("decode ollama tags: %w", err)
	}

	models := make([]core.Model, 0, len(tags.Models))
	for _, m := range tags.Models {
		models = append(models, core.Model{ID: m.Name, Name: m.Name})
	}
	return models, nil
}
