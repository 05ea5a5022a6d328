package chatmodel

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/ion-cli/ion/internal/style"
)

// markdownRenderers caches a glamour renderer per width, since constructing
// one is expensive and width only changes on resize.
var markdownRenderers sync.Map // map[int]*glamour.TermRenderer

func glamourRenderer(width int) (*glamour.TermRenderer, error) {
	if cached, ok := markdownRenderers.Load(width); ok {
		return cached.(*glamour.TermRenderer), nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	markdownRenderers.Store(width, r)
	return r, nil
}

// RenderMarkdown converts CommonMark content to StyledLines at the given
// width, falling back to plain text on a render error so a malformed
// document never blanks out a turn's response.
func RenderMarkdown(content string, width int) []style.StyledLine {
	if content == "" {
		return nil
	}
	r, err := glamourRenderer(width)
	if err != nil {
		return style.FromANSI(content)
	}
	rendered, err := r.Render(content)
	if err != nil {
		return style.FromANSI(content)
	}
	rendered = strings.TrimSpace(rendered)

	lines := style.FromANSI(rendered)
	return lines
}

// InvalidateMarkdownRenderers drops every cached width-keyed renderer,
// called on resize alongside the rest of the width-dependent caches.
func InvalidateMarkdownRenderers() {
	markdownRenderers.Range(func(key, _ any) bool {
		markdownRenderers.Delete(key)
		return true
	})
}
