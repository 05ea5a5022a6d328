package llm

import "strings"

const openAIBaseURL = "https://api.openai.com/v1"

// parseModelEffort extracts effort suffix from model name
// "gpt-5.2-high" -> ("gpt-5.2", "high")
// "gpt-5.2-xhigh" -> ("gpt-5.2", "xhigh")
// "gpt-5.2" -> ("gpt-5.2", "")
func parseModelEffort(model string) (string, string) {
	// Check suffixes in order from longest to shortest to avoid "-high" matching "-xhigh"
	suffixes := []string{"xhigh", "medium", "high", "low"}
	for _, effort := range suffixes {
		suffix := "-" + effort
		if strings.HasSuffix(model, suffix) {
			return strings.TrimSuffix(model, suffix), effort
		}
	}
	return model, ""
}

// OpenAIProvider talks to the stock OpenAI chat completions API with a plain
// API key. It's a thin specialization of OpenAICompatProvider: same wire
// format, fixed base URL, OpenAI display name.
type OpenAIProvider struct {
	*OpenAICompatProvider
}

func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	return &OpenAIProvider{
		OpenAICompatProvider: NewOpenAICompatProviderFull(openAIBaseURL, "", apiKey, model, "OpenAI", nil),
	}
}
