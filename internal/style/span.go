// Package style defines the single styled-line representation used by every
// renderer in ion: markdown, syntax highlighting, diff coloring, ANSI-SGR
// passthrough for tool output, and popup/picker rows all normalize to
// StyledLine instead of keeping parallel per-renderer representations.
package style

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// StyledSpan is a run of text sharing one foreground color and one set of
// attribute flags.
type StyledSpan struct {
	Text    string
	Fg      string // empty means "theme default text color"
	Bold    bool
	Italic  bool
	Dim     bool
	Reverse bool
}

// StyledLine is a single display row: a sequence of spans with no embedded
// newlines. Width is always measured in display columns, never bytes or
// runes, so wide (CJK, emoji) and zero-width (combining, ZWJ) characters
// reflow correctly.
type StyledLine []StyledSpan

// Plain builds an unstyled StyledLine from a bare string.
func Plain(text string) StyledLine {
	if text == "" {
		return nil
	}
	return StyledLine{{Text: text}}
}

// Width returns the line's total display-column width.
func (l StyledLine) Width() int {
	w := 0
	for _, span := range l {
		w += SpanWidth(span.Text)
	}
	return w
}

// String concatenates the line's text, discarding style information. Used
// for plain-text exports (clipboard, search indexing) where attributes
// don't matter.
func (l StyledLine) String() string {
	var sb strings.Builder
	for _, span := range l {
		sb.WriteString(span.Text)
	}
	return sb.String()
}

// SpanWidth returns the display-column width of s, walking grapheme
// clusters so that combining marks and wide runes are counted correctly.
func SpanWidth(s string) int {
	w := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		cluster := g.Runes()
		cw := runewidth.RuneWidth(cluster[0])
		if cw < 0 {
			cw = 0
		}
		w += cw
	}
	return w
}

// Truncate returns the prefix of l whose width does not exceed width
// columns, appending tail (typically an ellipsis) if anything was cut.
// Truncation happens on grapheme-cluster boundaries, never mid-cluster.
func Truncate(l StyledLine, width int, tail string) StyledLine {
	tailWidth := SpanWidth(tail)
	if l.Width() <= width {
		return l
	}
	budget := width - tailWidth
	if budget < 0 {
		budget = 0
	}

	out := make(StyledLine, 0, len(l)+1)
	used := 0
	for _, span := range l {
		if used >= budget {
			break
		}
		kept := truncateSpanText(span.Text, budget-used)
		kw := SpanWidth(kept)
		if kw == 0 {
			continue
		}
		s := span
		s.Text = kept
		out = append(out, s)
		used += kw
	}
	if tail != "" {
		out = append(out, StyledSpan{Text: tail})
	}
	return out
}

func truncateSpanText(s string, budget int) string {
	if budget <= 0 {
		return ""
	}
	var sb strings.Builder
	used := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		cluster := g.Str()
		cw := SpanWidth(cluster)
		if used+cw > budget {
			break
		}
		sb.WriteString(cluster)
		used += cw
	}
	return sb.String()
}

// Pad right-pads l with spaces (as an unstyled trailing span) until it
// reaches width columns. Lines already at or past width are returned
// unchanged, never truncated.
func Pad(l StyledLine, width int) StyledLine {
	w := l.Width()
	if w >= width {
		return l
	}
	return append(append(StyledLine{}, l...), StyledSpan{Text: strings.Repeat(" ", width-w)})
}
