package composer

import (
	"fmt"
	"regexp"
	"sync"
)

// PasteRegistry maps placeholder sigils to the original pasted text they
// stand in for, so a visually-compact "[pasted #3, 42 lines]" marker can be
// expanded back to the real content before a turn is sent.
type PasteRegistry struct {
	mu     sync.Mutex
	blobs  map[string]string
	nextID int
}

func NewPasteRegistry() *PasteRegistry {
	return &PasteRegistry{blobs: make(map[string]string)}
}

var placeholderPattern = regexp.MustCompile(`\[pasted #(\d+), (\d+) lines?\]`)

// Register stores text and returns the placeholder sigil to insert in its
// place.
func (r *PasteRegistry) Register(text string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := fmt.Sprintf("%d", r.nextID)
	r.blobs[id] = text
	lines := countLines(text)
	return fmt.Sprintf("[pasted #%s, %d lines]", id, lines)
}

// Expand replaces every placeholder sigil in input with its original text.
func (r *PasteRegistry) Expand(input string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return placeholderPattern.ReplaceAllStringFunc(input, func(m string) string {
		sub := placeholderPattern.FindStringSubmatch(m)
		if sub == nil {
			return m
		}
		if text, ok := r.blobs[sub[1]]; ok {
			return text
		}
		return m
	})
}

// Clear drops all registered blobs, called when the composer is reset after
// a submit.
func (r *PasteRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blobs = make(map[string]string)
	r.nextID = 0
}

func countLines(s string) int {
	n := 1
	for _, r := range s {
		if r == '\n' {
			n++
		}
	}
	return n
}
