package llm

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterProvider talks to OpenRouter's OpenAI-compatible aggregator API,
// which fronts dozens of upstream models behind one key. AppURL/AppTitle are
// sent as the HTTP-Referer/X-Title headers OpenRouter uses for its public
// rankings of apps using the API.
type OpenRouterProvider struct {
	*OpenAICompatProvider
}

func NewOpenRouterProvider(apiKey, model, appURL, appTitle string) *OpenRouterProvider {
	headers := map[string]string{
		"HTTP-Referer": appURL,
		"X-Title":      appTitle,
	}
	return &OpenRouterProvider{
		OpenAICompatProvider: NewOpenAICompatProviderWithHeaders(openRouterBaseURL, apiKey, model, "OpenRouter", headers),
	}
}
