// Package search implements the web_search tool's backends: DuckDuckGo's
// unauthenticated lite HTML endpoint by default, with Brave, Exa, and Google
// Custom Search available when their API keys are configured.
package search

import (
	"context"
	"fmt"

	"github.com/ion-cli/ion/internal/config"
)

// SearchResult is one hit from a web search.
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
}

// Searcher performs a web search, returning up to maxResults hits.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// NewSearcher builds a Searcher from a SearchConfig, choosing the provider
// named in cfg.Provider ("exa", "brave", "google", or "duckduckgo", the
// default when empty or unset).
func NewSearcher(cfg config.SearchConfig) (Searcher, error) {
	switch cfg.Provider {
	case "", "duckduckgo":
		return NewDuckDuckGoLite(nil), nil
	case "brave":
		if cfg.Brave.APIKey == "" {
			return nil, fmt.Errorf("search provider %q requires providers.search.brave.api_key or BRAVE_API_KEY", cfg.Provider)
		}
		return NewBraveSearcher(cfg.Brave.APIKey), nil
	case "exa":
		if cfg.Exa.APIKey == "" {
			return nil, fmt.Errorf("search provider %q requires providers.search.exa.api_key or EXA_API_KEY", cfg.Provider)
		}
		return NewExaSearcher(cfg.Exa.APIKey), nil
	case "google":
		if cfg.Google.APIKey == "" || cfg.Google.CX == "" {
			return nil, fmt.Errorf("search provider %q requires providers.search.google.api_key/cx or GOOGLE_SEARCH_API_KEY/GOOGLE_SEARCH_CX", cfg.Provider)
		}
		return NewGoogleSearcher(cfg.Google.APIKey, cfg.Google.CX), nil
	default:
		return nil, fmt.Errorf("unknown search provider: %s", cfg.Provider)
	}
}
