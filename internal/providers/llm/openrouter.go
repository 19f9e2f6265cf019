package llm

const openRouterBaseURL = "https://openrouter.ai/api"

type OpenRouter struct {
	*OpenAICompatible
}

// NewOpenRouter sets the attribution headers OpenRouter uses for app rankings.
func NewOpenRouter(apiKey, referer, title string) *OpenRouter {
	headers := map[string]string{}
	if referer != "" {
		headers["HTTP-Referer"] = referer
	}
	if title != "" {
		headers["X-Title"] = title
	}

	return &OpenRouter{
		OpenAICompatible: NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:      openRouterBaseURL,
			APIKey:       apiKey,
			AuthHeader:   "Authorization",
			AuthPrefix:   "Bearer ",
			ExtraHeaders: headers,
		}),
	}
}
