package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const braveSearchURL = "https://api.search.brave.com/res/v1/web/search"

// BraveSearcher queries the Brave Search API.
type BraveSearcher struct {
	apiKey string
	client *http.Client
}

func NewBraveSearcher(apiKey string) *BraveSearcher {
	return &BraveSearcher{apiKey: apiKey, client: &http.Client{Timeout: 15 * time.Second}}
}

type braveSearchResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

func (b *BraveSearcher) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	q := url.Values{"q": {query}, "count": {fmt.Sprintf("%d", maxResults)}}
	req, err := http.NewRequestWithContext(ctx, "GET", braveSearchURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brave search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave search: HTTP %d", resp.StatusCode)
	}

	var parsed braveSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("brave search: decode response: %w", err)
	}

	results := make([]SearchResult, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		results = append(results, SearchResult{Title: r.Title, URL: r.URL, Snippet: r.Description})
	}
	return results, nil
}
