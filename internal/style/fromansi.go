package style

import (
	"strings"

	"github.com/ion-cli/ion/internal/style/ansi"
)

// FromANSI converts raw tool output carrying SGR escape codes into
// StyledLines, splitting on newlines the way the chat renderer expects
// (§4.4: tool output is line-oriented scrollback content).
func FromANSI(raw string) []StyledLine {
	segs := ansi.Parse(raw)

	var lines []StyledLine
	var cur StyledLine
	for _, seg := range segs {
		parts := strings.Split(seg.Text, "\n")
		for i, p := range parts {
			if i > 0 {
				lines = append(lines, cur)
				cur = nil
			}
			if p == "" {
				continue
			}
			cur = append(cur, StyledSpan{
				Text:    p,
				Fg:      seg.Fg,
				Bold:    seg.Bold,
				Italic:  seg.Italic,
				Dim:     seg.Dim,
				Reverse: seg.Reverse,
			})
		}
	}
	lines = append(lines, cur)
	return lines
}
