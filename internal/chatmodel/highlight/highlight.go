// Package highlight applies chroma syntax highlighting to fenced code
// blocks and diff hunks, producing style.StyledSpan runs directly instead
// of an intermediate ANSI string.
package highlight

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/ion-cli/ion/internal/style"
)

// Highlighter tokenizes source for one language, caching the matched lexer
// and chosen chroma style.
type Highlighter struct {
	lexer chroma.Lexer
	style *chroma.Style
}

// New returns a Highlighter for filePath/language hint, or nil when chroma
// has no matching lexer (callers fall back to plain text).
func New(filePathOrLang string) *Highlighter {
	lexer := lexers.Match(filePathOrLang)
	if lexer == nil {
		lexer = lexers.Get(filePathOrLang)
	}
	if lexer == nil {
		return nil
	}
	lexer = chroma.Coalesce(lexer)

	st := styles.Get("monokai")
	if st == nil {
		st = styles.Fallback
	}
	return &Highlighter{lexer: lexer, style: st}
}

// Line tokenizes a single line of source into styled spans. Returns a
// single unstyled span, unchanged, if h is nil or tokenizing fails.
func (h *Highlighter) Line(line string) style.StyledLine {
	if h == nil {
		return style.Plain(line)
	}

	iter, err := h.lexer.Tokenise(nil, line)
	if err != nil {
		return style.Plain(line)
	}

	var spans style.StyledLine
	for tok := iter(); tok != chroma.EOF; tok = iter() {
		value := strings.TrimRight(tok.Value, "\n")
		if value == "" {
			continue
		}
		entry := h.style.Get(tok.Type)
		span := style.StyledSpan{
			Text:   value,
			Bold:   entry.Bold == chroma.Yes,
			Italic: entry.Italic == chroma.Yes,
		}
		if entry.Colour.IsSet() {
			span.Fg = entry.Colour.String()
		}
		spans = append(spans, span)
	}
	return spans
}

// Lines tokenizes multi-line source, one StyledLine per input line.
func (h *Highlighter) Lines(src string) []style.StyledLine {
	raw := strings.Split(src, "\n")
	out := make([]style.StyledLine, len(raw))
	for i, line := range raw {
		out[i] = h.Line(line)
	}
	return out
}
