// Package termio is the terminal primitive layer: raw-mode acquisition, the
// handful of ANSI/DEC escape sequences the render loop needs (cursor
// movement, scroll-up, synchronized-update brackets), and a panic hook that
// restores the terminal before a crash prints. Nothing above this package
// writes an escape code directly.
package termio

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// RawState is the terminal's state before raw mode was enabled, returned by
// EnableRaw so the caller can hand it back to DisableRaw on exit or panic.
type RawState struct {
	fd   int
	prev *term.State
}

// EnableRaw puts stdin into raw mode so keystrokes (including Ctrl+C, Esc
// sequences, and bracketed paste) reach the event dispatcher one byte at a
// time instead of being line-buffered and signal-interpreted by the tty
// driver.
func EnableRaw() (*RawState, error) {
	fd := int(os.Stdin.Fd())
	prev, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("termio: enable raw mode: %w", err)
	}
	return &RawState{fd: fd, prev: prev}, nil
}

// DisableRaw restores the terminal mode captured by EnableRaw. Safe to call
// with a nil state (no-op), which happens when EnableRaw itself failed.
func DisableRaw(s *RawState) error {
	if s == nil {
		return nil
	}
	return term.Restore(s.fd, s.prev)
}

// InstallPanicHook returns a function to defer at the top of main: on a
// panic it restores raw mode and shows the cursor before letting the panic
// continue to the default handler, so a crash never leaves the terminal
// unusable for the next command typed into the shell.
func InstallPanicHook(s *RawState) func() {
	return func() {
		if r := recover(); r != nil {
			_ = DisableRaw(s)
			fmt.Fprint(os.Stderr, ShowCursor)
			panic(r)
		}
	}
}

// The escape sequences below are written inline rather than routed through
// an abstraction layer, matching how ion already emits ANSI codes elsewhere
// (diff highlighting, terminal titles): these are primitives, not a
// framework to wrap.
const (
	HideCursor = "\x1b[?25l"
	ShowCursor = "\x1b[?25h"

	// BeginSync and EndSync bracket a frame's writes in terminal
	// synchronized-output mode (DEC private mode 2026). Terminals that
	// don't support it ignore the brackets, so no capability probe is
	// needed before using them.
	BeginSync = "\x1b[?2026h"
	EndSync   = "\x1b[?2026l"

	// ClearFromCursor erases from the cursor to the end of the screen.
	ClearFromCursor = "\x1b[0J"
	// ClearLine erases the current line.
	ClearLine = "\x1b[2K"
	// ClearScreenAndScrollback wipes the visible screen and the terminal's
	// own scrollback buffer, then homes the cursor. Used on resize: ion
	// reflows by clearing and reprinting from canonical entries rather than
	// trying to repaint a reflowed scrollback in place.
	ClearScreenAndScrollback = "\x1b[3J\x1b[2J\x1b[H"
)

// MoveTo positions the cursor at the given 0-indexed row/col (escape
// sequences are themselves 1-indexed).
func MoveTo(row, col int) string {
	return fmt.Sprintf("\x1b[%d;%dH", row+1, col+1)
}

// ScrollUp scrolls the terminal's visible region up by n lines, shifting
// the top n lines into scrollback. A no-op string for n <= 0.
func ScrollUp(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("\x1b[%dS", n)
}
