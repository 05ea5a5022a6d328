package llm

// ZenProvider talks to the OpenCode Zen API, a free-tier-friendly endpoint
// that speaks the OpenAI chat completions wire format. It's a thin
// specialization of OpenAICompatProvider: same request/response shapes,
// fixed base URL, no API key required for the free tier.
type ZenProvider struct {
	*OpenAICompatProvider
}

const zenBaseURL = "https://opencode.ai/zen/v1"

func NewZenProvider(apiKey, model string) *ZenProvider {
	return &ZenProvider{
		OpenAICompatProvider: NewOpenAICompatProviderFull(zenBaseURL, "", apiKey, model, "OpenCode Zen", nil),
	}
}
