package llm

import (
	"fmt"
	"time"
)

// RateLimitError signals a provider-reported rate limit, optionally carrying
// the server's requested backoff so RetryProvider can honor it instead of
// guessing.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: rate limited: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: rate limited", e.Provider)
}

// IsLongWait reports whether the server asked for a backoff long enough that
// an automatic retry isn't worth attempting.
func (e *RateLimitError) IsLongWait() bool {
	return e.RetryAfter > 60*time.Second
}
