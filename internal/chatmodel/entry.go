// Package chatmodel holds the chat log's display model: MessageEntry, its
// cached styled-line rendering, and the renderers (markdown, diff, tool
// status) that produce it.
package chatmodel

import "github.com/ion-cli/ion/internal/style"

// Sender classifies who produced an entry, driving which renderer runs.
type Sender int

const (
	SenderUser Sender = iota
	SenderAgent
	SenderTool
	SenderSystem
)

// ToolMeta carries the attachment a Tool entry renders alongside its
// status line: the invoked tool's name, a short digest of its arguments,
// captured output, and an optional diff.
type ToolMeta struct {
	Name      string
	ArgDigest string
	Stdout    string
	Stderr    string
	ExitCode  int
	IsError   bool
	Diff      *DiffAttachment
}

// DiffAttachment is the old/new content pair a diff-producing tool result
// attaches, rendered via internal/chatmodel/difflines.
type DiffAttachment struct {
	File string
	Old  string
	New  string
	Line int
}

// MessageEntry is one row of chat history: a Message (internal/llm) reduced
// to what the renderer needs, plus its render cache.
type MessageEntry struct {
	ID     int64
	TurnID string
	Sender Sender
	Text   string
	Tool   *ToolMeta

	// styledLines and width form the render cache: styledLines is stale
	// whenever width != the width it was built for.
	styledLines []style.StyledLine
	width       int

	// CommittedLinesInScrollback counts how many of styledLines have
	// already been printed above the bottom UI; never exceeds len(styledLines).
	CommittedLinesInScrollback int
}

// StyledLines returns the entry's cached rendering at width, rebuilding it
// if the cache is stale (width changed) or empty.
func (e *MessageEntry) StyledLines(width int, theme *style.Theme) []style.StyledLine {
	if e.styledLines != nil && e.width == width {
		return e.styledLines
	}
	e.styledLines = Render(e, width, theme)
	e.width = width
	if e.CommittedLinesInScrollback > len(e.styledLines) {
		e.CommittedLinesInScrollback = len(e.styledLines)
	}
	return e.styledLines
}

// InvalidateCache forces the next StyledLines call to rebuild, used on
// resize alongside a reset of the committed-lines count.
func (e *MessageEntry) InvalidateCache() {
	e.styledLines = nil
	e.width = 0
	e.CommittedLinesInScrollback = 0
}
