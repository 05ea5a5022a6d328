package composer

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// History is a bounded, most-recent-first log of submitted input, searched
// with Ctrl+R the way a shell's reverse-i-search works, but fuzzy rather
// than prefix-only.
type History struct {
	entries []string // oldest first
	max     int
}

func NewHistory(max int) *History {
	return &History{max: max}
}

// Add appends an entry, evicting the oldest once max is exceeded. A value
// equal to the most recent entry is not duplicated (matches shell history
// convention: repeating the same command doesn't grow the log).
func (h *History) Add(value string) {
	if len(h.entries) > 0 && h.entries[len(h.entries)-1] == value {
		return
	}
	h.entries = append(h.entries, value)
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
}

// Len returns the number of stored entries.
func (h *History) Len() int { return len(h.entries) }

// Recent returns the entry n back from the most recent (0 is most recent),
// or "" if n is out of range. Used for plain Up/Down arrow recall.
func (h *History) Recent(n int) string {
	idx := len(h.entries) - 1 - n
	if idx < 0 || idx >= len(h.entries) {
		return ""
	}
	return h.entries[idx]
}

// Search returns entries matching query in two classes: entries containing
// query as a case-insensitive substring first, then the remaining fuzzy
// matches. Each class is ordered most-recent-first.
func (h *History) Search(query string) []string {
	if query == "" {
		out := make([]string, len(h.entries))
		for i := range h.entries {
			out[i] = h.entries[len(h.entries)-1-i]
		}
		return out
	}
	matched := make(map[int]bool)
	for _, m := range fuzzy.Find(query, h.entries) {
		matched[m.Index] = true
	}
	q := strings.ToLower(query)
	var exact, rest []string
	for i := len(h.entries) - 1; i >= 0; i-- {
		switch {
		case strings.Contains(strings.ToLower(h.entries[i]), q):
			exact = append(exact, h.entries[i])
		case matched[i]:
			rest = append(rest, h.entries[i])
		}
	}
	return append(exact, rest...)
}

// StartRecall begins a Ctrl+R session against the composer's history.
func (c *Composer) StartRecall() {
	c.recall = &recallState{matches: c.history.Search("")}
}

// UpdateRecall narrows the active recall search by query, resetting the
// selection to the top match.
func (c *Composer) UpdateRecall(query string) {
	if c.recall == nil {
		c.StartRecall()
	}
	c.recall.query = query
	c.recall.matches = c.history.Search(query)
	c.recall.index = 0
}

// RecallMatches returns the current recall candidate list, most relevant
// first.
func (c *Composer) RecallMatches() []string {
	if c.recall == nil {
		return nil
	}
	return c.recall.matches
}

// AcceptRecall copies the selected match into the buffer and ends the
// recall session.
func (c *Composer) AcceptRecall() {
	if c.recall == nil || len(c.recall.matches) == 0 {
		c.recall = nil
		return
	}
	c.SetValue(c.recall.matches[c.recall.index])
	c.recall = nil
}

// CancelRecall ends the recall session without changing the buffer.
func (c *Composer) CancelRecall() { c.recall = nil }

// InRecall reports whether a Ctrl+R session is active.
func (c *Composer) InRecall() bool { return c.recall != nil }
