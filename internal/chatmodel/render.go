package chatmodel

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ion-cli/ion/internal/chatmodel/difflines"
	"github.com/ion-cli/ion/internal/chatmodel/highlight"
	"github.com/ion-cli/ion/internal/style"
)

// OutputHeadLines/OutputTailLines bound how much of a tool's stdout/stderr
// is kept inline before an elision marker replaces the middle. They are
// fixed constants; config.toml has no setting for them.
const (
	OutputHeadLines = 200
	OutputTailLines = 50
)

// Render converts e into StyledLines at width. It is a pure function of
// (entry, width, theme); callers should go through MessageEntry.StyledLines
// for caching.
func Render(e *MessageEntry, width int, theme *style.Theme) []style.StyledLine {
	switch e.Sender {
	case SenderUser:
		return renderUser(e.Text, width)
	case SenderAgent:
		return renderAgent(e.Text, e.Tool, width)
	case SenderTool:
		return renderTool(e.Tool, width)
	case SenderSystem:
		return renderSystem(e.Text, width)
	default:
		return style.FromANSI(e.Text)
	}
}

func renderUser(text string, width int) []style.StyledLine {
	wrapped := wordWrap(text, width-2)
	lines := make([]style.StyledLine, 0, len(wrapped))
	for i, l := range wrapped {
		prefix := "  "
		if i == 0 {
			prefix = "> "
		}
		lines = append(lines, style.StyledLine{
			{Text: prefix, Fg: style.FgSecondary},
			{Text: l, Dim: true},
		})
	}
	return lines
}

func renderAgent(text string, tool *ToolMeta, width int) []style.StyledLine {
	var lines []style.StyledLine
	if strings.TrimSpace(text) != "" {
		lines = append(lines, trimBlankEdges(collapseBlankRuns(RenderMarkdown(text, width)))...)
	}
	if tool != nil {
		lines = append(lines, blankLine())
		lines = append(lines, renderTool(tool, width)...)
	}
	return lines
}

func renderTool(tool *ToolMeta, width int) []style.StyledLine {
	if tool == nil {
		return nil
	}
	var lines []style.StyledLine

	status := style.StyledLine{
		{Text: sanitize(tool.Name), Fg: style.FgPrimary, Bold: true},
		{Text: " " + sanitize(tool.ArgDigest), Fg: style.FgMuted},
	}
	if tool.IsError {
		status = append(status, style.StyledSpan{Text: fmt.Sprintf(" (exit %d)", tool.ExitCode), Fg: style.FgError})
	}
	lines = append(lines, status)

	output := tool.Stdout
	if tool.IsError && tool.Stderr != "" {
		output = tool.Stderr
	}
	if output != "" {
		lines = append(lines, truncateOutput(style.FromANSI(output), OutputHeadLines, OutputTailLines)...)
	}

	if tool.Diff != nil {
		lines = append(lines, blankLine())
		lines = append(lines, renderDiff(tool.Diff, width)...)
	}
	return lines
}

func renderDiff(d *DiffAttachment, width int) []style.StyledLine {
	classified := difflines.Compute(d.File, d.Old, d.New)
	lines := make([]style.StyledLine, 0, len(classified)+1)
	lines = append(lines, style.StyledLine{{Text: d.File, Fg: style.FgSecondary, Bold: true}})

	h := highlight.New(d.File)
	for _, cl := range classified {
		switch cl.Kind {
		case difflines.Hunk:
			lines = append(lines, style.StyledLine{{Text: cl.Text, Dim: true}})
		case difflines.Add:
			lines = append(lines, prefixLine("+", style.FgSuccess, h.Line(cl.Text)))
		case difflines.Remove:
			lines = append(lines, prefixLine("-", style.FgError, h.Line(cl.Text)))
		default:
			lines = append(lines, prefixLine(" ", "", h.Line(cl.Text)))
		}
	}
	return lines
}

func prefixLine(marker, fg string, body style.StyledLine) style.StyledLine {
	line := style.StyledLine{{Text: marker + " ", Fg: fg}}
	return append(line, body...)
}

func renderSystem(text string, width int) []style.StyledLine {
	isError := strings.Contains(strings.ToLower(text), "error")
	fg := style.FgMuted
	if isError {
		fg = style.FgError
	}
	wrapped := wordWrap(text, width)
	lines := make([]style.StyledLine, 0, len(wrapped))
	for _, l := range wrapped {
		lines = append(lines, style.StyledLine{{Text: l, Fg: fg, Dim: !isError}})
	}
	return lines
}

// sanitize strips control characters from tool names/arg digests, applied
// on both live emission and session reload.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// truncateOutput replaces the middle of a long output with an elision
// marker, keeping the first head and last tail lines.
func truncateOutput(lines []style.StyledLine, head, tail int) []style.StyledLine {
	if len(lines) <= head+tail {
		return lines
	}
	out := make([]style.StyledLine, 0, head+tail+1)
	out = append(out, lines[:head]...)
	elided := len(lines) - head - tail
	out = append(out, style.StyledLine{{Text: fmt.Sprintf("… %d lines elided …", elided), Dim: true}})
	out = append(out, lines[len(lines)-tail:]...)
	return out
}

func collapseBlankRuns(lines []style.StyledLine) []style.StyledLine {
	out := make([]style.StyledLine, 0, len(lines))
	blankRun := false
	for _, l := range lines {
		if len(l) == 0 || l.String() == "" {
			if blankRun {
				continue
			}
			blankRun = true
		} else {
			blankRun = false
		}
		out = append(out, l)
	}
	return out
}

func trimBlankEdges(lines []style.StyledLine) []style.StyledLine {
	start := 0
	for start < len(lines) && lines[start].String() == "" {
		start++
	}
	end := len(lines)
	for end > start && lines[end-1].String() == "" {
		end--
	}
	return lines[start:end]
}

func blankLine() style.StyledLine { return style.StyledLine{} }

// wordWrap breaks text into lines no wider than width display columns,
// breaking on spaces where possible.
func wordWrap(text string, width int) []string {
	if width < 1 {
		width = 1
	}
	var out []string
	for _, paragraph := range strings.Split(text, "\n") {
		if paragraph == "" {
			out = append(out, "")
			continue
		}
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := ""
		for _, w := range words {
			candidate := w
			if line != "" {
				candidate = line + " " + w
			}
			if style.SpanWidth(candidate) > width && line != "" {
				out = append(out, line)
				line = w
				continue
			}
			line = candidate
		}
		out = append(out, line)
	}
	return out
}
