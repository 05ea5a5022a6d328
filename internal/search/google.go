package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const googleSearchURL = "https://www.googleapis.com/customsearch/v1"

// GoogleSearcher queries Google Programmable (Custom) Search.
type GoogleSearcher struct {
	apiKey string
	cx     string
	client *http.Client
}

func NewGoogleSearcher(apiKey, cx string) *GoogleSearcher {
	return &GoogleSearcher{apiKey: apiKey, cx: cx, client: &http.Client{Timeout: 15 * time.Second}}
}

type googleSearchResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

func (g *GoogleSearcher) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	// Custom Search caps a single request at 10 results.
	if maxResults > 10 {
		maxResults = 10
	}
	q := url.Values{
		"key": {g.apiKey},
		"cx":  {g.cx},
		"q":   {query},
		"num": {fmt.Sprintf("%d", maxResults)},
	}
	req, err := http.NewRequestWithContext(ctx, "GET", googleSearchURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google search: HTTP %d", resp.StatusCode)
	}

	var parsed googleSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("google search: decode response: %w", err)
	}

	results := make([]SearchResult, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		results = append(results, SearchResult{Title: item.Title, URL: item.Link, Snippet: item.Snippet})
	}
	return results, nil
}
