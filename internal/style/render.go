package style

import "github.com/charmbracelet/lipgloss"

// Semantic foreground names a span can carry instead of a raw hex color, so
// renderers (markdown, diff, ANSI passthrough) don't need a *Theme in hand
// when building spans — only Render does, at the point text actually hits
// the terminal.
const (
	FgPrimary   = "primary"
	FgSecondary = "secondary"
	FgSuccess   = "success"
	FgError     = "error"
	FgWarning   = "warning"
	FgMuted     = "muted"
	FgText      = "text"
)

func resolve(t *Theme, fg string) lipgloss.Color {
	switch fg {
	case "", FgText:
		return t.Text
	case FgPrimary:
		return t.Primary
	case FgSecondary:
		return t.Secondary
	case FgSuccess:
		return t.Success
	case FgError:
		return t.Error
	case FgWarning:
		return t.Warning
	case FgMuted:
		return t.Muted
	default:
		return lipgloss.Color(fg)
	}
}

// Render converts l into a single line of ANSI-escaped text, ready to print.
// Adjacent spans with identical styling are not merged; lipgloss's renderer
// already collapses redundant SGR sequences across writes.
func Render(l StyledLine, t *Theme) string {
	if t == nil {
		t = Current()
	}
	out := make([]byte, 0, l.Width()*2)
	for _, span := range l {
		if span.Text == "" {
			continue
		}
		st := lipgloss.NewStyle().Foreground(resolve(t, span.Fg))
		if span.Bold {
			st = st.Bold(true)
		}
		if span.Italic {
			st = st.Italic(true)
		}
		if span.Dim {
			st = st.Faint(true)
		}
		if span.Reverse {
			st = st.Reverse(true)
		}
		out = append(out, st.Render(span.Text)...)
	}
	return string(out)
}

// RenderLines joins rendered lines with newlines, matching the line-oriented
// scrollback insertion the render loop performs.
func RenderLines(lines []StyledLine, t *Theme) string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = Render(l, t)
	}
	joined := ""
	for i, s := range out {
		if i > 0 {
			joined += "\n"
		}
		joined += s
	}
	return joined
}
