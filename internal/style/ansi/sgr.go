// Package ansi implements the minimal SGR (Select Graphic Rendition) parser
// built for tool-output passthrough: tool stdout/stderr often
// carries raw ANSI color codes (from linters, test runners, compilers) that
// should render as styled text in the chat log rather than as literal
// escape bytes or be stripped outright. This is intentionally not a full
// terminal emulator: only SGR (CSI ... 'm') sequences are interpreted,
// everything else is discarded.
package ansi

import (
	"strconv"
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// Segment is a run of text sharing one SGR state.
type Segment struct {
	Text    string
	Fg      string // "" (default), "red", "green", ... or "#rrggbb" for 256/truecolor
	Bold    bool
	Italic  bool
	Dim     bool
	Reverse bool
}

var names = map[int]string{30: "black", 31: "red", 32: "green", 33: "yellow", 34: "blue", 35: "magenta", 36: "cyan", 37: "white",
	90: "brightblack", 91: "brightred", 92: "brightgreen", 93: "brightyellow", 94: "brightblue", 95: "brightmagenta", 96: "brightcyan", 97: "brightwhite"}

// Parse splits raw into Segments, applying SGR codes as it goes. Unknown or
// unsupported CSI sequences (cursor movement, erase, etc.) are dropped
// silently; this function never needs to reproduce terminal state, only
// style runs of text.
func Parse(raw string) []Segment {
	var segs []Segment
	var cur Segment
	var text strings.Builder

	flush := func() {
		if text.Len() == 0 {
			return
		}
		cur.Text = text.String()
		segs = append(segs, cur)
		text.Reset()
	}

	for len(raw) > 0 {
		if raw[0] != 0x1b {
			r := raw[0]
			text.WriteByte(r)
			raw = raw[1:]
			continue
		}
		// xansi.Strip gives the length consumed by locating the next
		// non-escape byte; fall back to manual scanning for robustness.
		end := strings.IndexByte(raw, 'm')
		if end == -1 || end > 32 || !strings.HasPrefix(raw, "\x1b[") {
			// Not an SGR sequence (or malformed); drop this one escape
			// byte and keep scanning so we never get stuck.
			raw = raw[1:]
			continue
		}
		params := raw[2:end]
		flush()
		applySGR(&cur, params)
		raw = raw[end+1:]
	}
	flush()
	return segs
}

func applySGR(cur *Segment, params string) {
	if params == "" {
		*cur = Segment{}
		return
	}
	for _, p := range strings.Split(params, ";") {
		n, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		switch {
		case n == 0:
			*cur = Segment{}
		case n == 1:
			cur.Bold = true
		case n == 2:
			cur.Dim = true
		case n == 3:
			cur.Italic = true
		case n == 7:
			cur.Reverse = true
		case n == 22:
			cur.Bold, cur.Dim = false, false
		case n == 23:
			cur.Italic = false
		case n == 27:
			cur.Reverse = false
		case n == 39:
			cur.Fg = ""
		case n >= 30 && n <= 37, n >= 90 && n <= 97:
			cur.Fg = names[n]
		}
	}
}

// StripToPlain removes all ANSI escape sequences, for paths that only need
// plain text (history search indexing, clipboard copy).
func StripToPlain(raw string) string {
	return xansi.Strip(raw)
}
