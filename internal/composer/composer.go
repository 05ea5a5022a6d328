// Package composer implements the multi-line input buffer: a rope-backed
// edit area (via bubbles/textarea) with grapheme-safe cursor
// movement, platform-aware word navigation, large-paste collapsing, an
// external-editor escape hatch, and fuzzy history recall.
package composer

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/lipgloss"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ion-cli/ion/internal/style"
)

// PasteThreshold is the character count above which a pasted blob is
// collapsed to a placeholder instead of being inserted inline; a paste with
// more than one newline is collapsed regardless of its length.
const PasteThreshold = 1000

// Composer wraps a textarea.Model with ion's input behavior: paste
// collapsing, history recall, and external-editor handoff.
type Composer struct {
	ta      textarea.Model
	pastes  *PasteRegistry
	history *History

	// recall holds in-progress Ctrl+R fuzzy search state; nil when not
	// searching.
	recall *recallState
}

type recallState struct {
	query   string
	matches []string
	index   int
}

// New creates a Composer sized for a terminal of the given width, starting
// at a single line with a prompt prefix.
func New(width int, theme *style.Theme) *Composer {
	ta := textarea.New()
	ta.Placeholder = "Type a message..."
	ta.Prompt = "❯ "
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetWidth(width)
	ta.SetHeight(1)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle()
	if theme != nil {
		ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(theme.Muted)
		ta.FocusedStyle.Prompt = lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	}
	ta.FocusedStyle.EndOfBuffer = lipgloss.NewStyle()
	ta.BlurredStyle = ta.FocusedStyle
	ta.KeyMap = platformWordKeyMap(ta.KeyMap)
	ta.Focus()

	return &Composer{
		ta:      ta,
		pastes:  NewPasteRegistry(),
		history: NewHistory(500),
	}
}

// Value returns the buffer's literal text, with any paste placeholders
// still collapsed.
func (c *Composer) Value() string { return c.ta.Value() }

// ResolvedValue returns Value with every paste placeholder expanded back to
// the original pasted text, for handoff to the agent.
func (c *Composer) ResolvedValue() string {
	return c.pastes.Expand(c.ta.Value())
}

// SetValue replaces the buffer contents outright (used for history recall
// and slash-command prefill).
func (c *Composer) SetValue(v string) {
	c.ta.SetValue(v)
	c.fitHeight()
}

// Reset clears the buffer and returns it to single-line height, called
// after a message is submitted.
func (c *Composer) Reset() {
	value := c.ResolvedValue()
	if strings.TrimSpace(value) != "" {
		c.history.Add(value)
	}
	c.ta.SetValue("")
	c.ta.SetHeight(1)
	c.pastes.Clear()
}

func (c *Composer) Focus() tea.Cmd { return c.ta.Focus() }
func (c *Composer) Blur()          { c.ta.Blur() }
func (c *Composer) Focused() bool  { return c.ta.Focused() }

// SetWidth resizes the textarea, called on terminal resize.
func (c *Composer) SetWidth(w int) { c.ta.SetWidth(w) }

// View renders the composer's current frame.
func (c *Composer) View() string { return c.ta.View() }

// Height returns the composer's current rendered height in rows, used by
// the layout engine to size the Input body region (must be >= 3: one line
// for content, one for a hint row, one for margin).
func (c *Composer) Height() int {
	h := c.ta.Height()
	if h < 3 {
		return 3
	}
	return h
}

// fitHeight grows the textarea to fit its content up to a soft cap,
// recomputing visual line count after each edit.
func (c *Composer) fitHeight() {
	lines := strings.Count(c.ta.Value(), "\n") + 1
	const maxHeight = 10
	if lines > maxHeight {
		lines = maxHeight
	}
	if lines < 1 {
		lines = 1
	}
	c.ta.SetHeight(lines)
}

// Paste inserts text, collapsing it to a placeholder sigil when it exceeds
// PasteThreshold characters or contains more than one newline.
func (c *Composer) Paste(text string) {
	newlines := strings.Count(text, "\n")
	if len(text) > PasteThreshold || newlines > 1 {
		placeholder := c.pastes.Register(text)
		c.ta.InsertString(placeholder)
	} else {
		c.ta.InsertString(text)
	}
	c.fitHeight()
}

// Update feeds a tea.Msg to the underlying textarea and keeps the height
// fit to content.
func (c *Composer) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	c.ta, cmd = c.ta.Update(msg)
	c.fitHeight()
	return cmd
}
