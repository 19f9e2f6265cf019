package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sandevgo/lifecoach/internal/core"
)

var ErrEmptyCompletion = errors.New("empty completion")

// maxErrorBody caps how much of a failed response ends up in the error text.
const maxErrorBody = 512

// maxResponseBody bounds what is buffered from a provider; OpenRouter's full
// model list is the largest legitimate payload.
const maxResponseBody = 16 << 20

var ErrResponseTooLarge = errors.New("response too large")

type OpenAICompatible struct {
	baseProvider
	authHeader   string
	authPrefix   string
	extraHeaders map[string]string
}

type OpenAICompatibleConfig struct {
	BaseURL      string
	APIKey       string
	AuthHeader   string // e.g., "Authorization"
	AuthPrefix   string // e.g., "Bearer "
	ExtraHeaders map[string]string
}

func NewOpenAICompatible(cfg OpenAICompatibleConfig) *OpenAICompatible {
	return &OpenAICompatible{
		baseProvider: newBaseProvider(strings.TrimRight(cfg.BaseURL, "/"), cfg.APIKey),
		authHeader:   cfg.AuthHeader,
		authPrefix:   cfg.AuthPrefix,
		extraHeaders: cfg.ExtraHeaders,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

func buildMessages(conv core.Conversation) []chatMessage {
	msgs := conv.Messages()
	out := make([]chatMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, chatMessage{Role: m.Role, Content: m.Content})
	}

	if conv.NeedsVision() {
		last := &out[len(out)-1]
		last.Content = []contentPart{
			{Type: "text", Text: conv.CurrentTurn},
			{Type: "image_url", ImageURL: &imageURL{URL: conv.Attachment.DataURL()}},
		}
	}
	return out
}

func (o *OpenAICompatible) headers() map[string]string {
	headers := make(map[string]string, len(o.extraHeaders)+1)
	if o.authHeader != "" && o.apiKey != "" {
		headers[o.authHeader] = o.authPrefix + o.apiKey
	}
	for k, v := range o.extraHeaders {
		headers[k] = v
	}
	return headers
}

func (o *OpenAICompatible) Chat(ctx context.Context, model string, conv core.Conversation) (string, error) {
	payload := map[string]any{
		"model":    model,
		"messages": buildMessages(conv),
	}

	resp, err := o.doRequest(ctx, http.MethodPost, "/v1/chat/completions", payload, o.headers())
	if err != nil {
		return "", err
	}
	defer closeBody(resp)

	return parseOpenAIResponse(resp)
}

// readBody reads at most limit bytes and fails instead of truncating.
func readBody(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: over %d bytes", ErrResponseTooLarge, limit)
	}
	return data, nil
}

func parseOpenAIResponse(resp *http.Response) (string, error) {
	data, err := readBody(resp.Body, maxResponseBody)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("http %d: %s", resp.StatusCode, truncate(data))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrEmptyCompletion)
	}

	content := strings.TrimSpace(result.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}

// Models lists the models the endpoint advertises on /v1/models.
func (o *OpenAICompatible) Models(ctx context.Context) ([]core.Model, error) {
	resp, err := o.doRequest(ctx, http.MethodGet, "/v1/models", nil, o.headers())
	if err != nil {
		return nil, fmt.Errorf("fetch models: %w", err)
	}
	defer closeBody(resp)

	data, err := readBody(resp.Body, maxResponseBody)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, truncate(data))
	}

	var apiResp struct {
		Data []struct {
			ID            string `json:"id"`
			Name          string `json:"name"`
			ContextLength int    `json:"context_length"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &apiResp); err != nil {
		return nil, fmt.Errorf("decode models response: %w", err)
	}

	models := make([]core.Model, 0, len(apiResp.Data))
	for _, m := range apiResp.Data {
		name := m.Name
		if name == "" {
			name = m.ID
		}
		models = append(models, core.Model{ID: m.ID, Name: name, ContextLength: m.ContextLength})
	}
	return models, nil
}

func truncate(data []byte) string {
	if len(data) > maxErrorBody {
		return string(data[:maxErrorBody]) + "..."
	}
	return string(data)
}
