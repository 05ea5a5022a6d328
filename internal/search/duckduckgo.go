package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const duckDuckGoLiteURL = "https://html.duckduckgo.com/html/"

// DuckDuckGoLite searches DuckDuckGo's unauthenticated lite HTML endpoint,
// used as the zero-config default when no search API key is configured.
type DuckDuckGoLite struct {
	client *http.Client
}

// NewDuckDuckGoLite returns a DuckDuckGoLite searcher. A nil client gets a
// reasonable default timeout.
func NewDuckDuckGoLite(client *http.Client) *DuckDuckGoLite {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &DuckDuckGoLite{client: client}
}

func (d *DuckDuckGoLite) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, "POST", duckDuckGoLiteURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; ion-cli/0.1)")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo search: HTTP %d", resp.StatusCode)
	}

	results, err := parseDuckDuckGoLiteHTML(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// parseDuckDuckGoLiteHTML walks the lite endpoint's result markup:
// <a class="result__a" href="...">title</a> followed by a sibling
// <a class="result__snippet">snippet</a>.
func parseDuckDuckGoLiteHTML(r io.Reader) ([]SearchResult, error) {
	tokenizer := html.NewTokenizer(r)
	var results []SearchResult
	var current *SearchResult
	var collecting string // "title" or "snippet" while inside the matching <a>

	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := tokenizer.Token()
			if tok.Data != "a" {
				continue
			}
			class, href := attrValue(tok, "class"), attrValue(tok, "href")
			switch {
			case strings.Contains(class, "result__a"):
				results = append(results, SearchResult{URL: href})
				current = &results[len(results)-1]
				collecting = "title"
			case strings.Contains(class, "result__snippet"):
				collecting = "snippet"
			}
		case html.TextToken:
			if current == nil || collecting == "" {
				continue
			}
			text := strings.TrimSpace(string(tokenizer.Text()))
			if text == "" {
				continue
			}
			switch collecting {
			case "title":
				current.Title += text
			case "snippet":
				current.Snippet += text
			}
		case html.EndTagToken:
			tok := tokenizer.Token()
			if tok.Data == "a" {
				collecting = ""
			}
		}
	}

	return results, nil
}

func attrValue(tok html.Token, name string) string {
	for _, a := range tok.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
