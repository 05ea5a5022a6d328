// Package session implements the session store: the durable, per-working-
// directory transcript (SessionRecord) and its persisted layout under
// ~/.ion/sessions/<path-encoded>/.
package session

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ion-cli/ion/internal/llm"
)

// NewID generates a new session ID.
func NewID() string {
	return uuid.NewString()
}

// Status represents the current state of a session.
type Status string

const (
	StatusActive      Status = "active"      // currently streaming or between turns
	StatusComplete    Status = "complete"    // finished normally
	StatusError       Status = "error"       // ended with an error
	StatusInterrupted Status = "interrupted" // cancelled by the user
)

// Mode distinguishes how a session was started.
type Mode string

const (
	ModeChat Mode = "chat" // interactive chat TUI
	ModeRun  Mode = "run"  // non-interactive `ion run` one-shot
)

// Session is the record of one conversation: {id, working_dir, model,
// provider, created_at, updated_at, messages}. The store owns durable
// state; the agent orchestrator holds a working in-memory copy and
// writes back through the Store interface.
type Session struct {
	ID        string    `json:"id"`
	Number    int64     `json:"number,omitempty"` // sequential session number for the working dir
	Summary   string    `json:"summary,omitempty"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Mode      Mode      `json:"mode,omitempty"`
	CWD       string    `json:"cwd,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ParentID  string    `json:"parent_id,omitempty"` // set when this session branched off another

	// ThinkingPersisted records that thinking blocks ARE written to the
	// JSONL transcript with this flag set,
	// but the chat renderer always collapses them to "thought for Xs" after Complete.
	ThinkingPersisted bool `json:"thinking_persisted"`

	// Settings restored on resume unless overridden by CLI flags.
	Search bool   `json:"search,omitempty"`
	Tools  string `json:"tools,omitempty"`
	MCP    string `json:"mcp,omitempty"`

	// Metrics accumulated across the session's turns.
	UserTurns    int    `json:"user_turns,omitempty"`
	LLMTurns     int    `json:"llm_turns,omitempty"`
	ToolCalls    int    `json:"tool_calls,omitempty"`
	InputTokens  int    `json:"input_tokens,omitempty"`
	OutputTokens int    `json:"output_tokens,omitempty"`
	Status       Status `json:"status,omitempty"`
}

// Message represents one stored message. Parts stores the full
// llm.Message.Parts as JSON so ToolCall/ToolResult round-trip exactly,
// satisfying the data-model invariant that every ToolCall.id is matched
// by exactly one ToolResult.tool_call_id before a turn is complete.
type Message struct {
	ID          int64      `json:"id"`
	SessionID   string     `json:"session_id"`
	Role        llm.Role   `json:"role"`
	Parts       []llm.Part `json:"parts"`
	TextContent string     `json:"text_content"`
	DurationMs  int64      `json:"duration_ms,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Sequence    int        `json:"sequence"`
}

// Summary is a lightweight listing row, mirroring index.db's schema:
// {id, updated_at, message_count, preview, branch}.
type Summary struct {
	ID           string    `json:"id"`
	Number       int64     `json:"number,omitempty"`
	Summary      string    `json:"summary,omitempty"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	Mode         Mode      `json:"mode,omitempty"`
	MessageCount int       `json:"message_count"`
	Branch       string    `json:"branch,omitempty"`
	Status       Status    `json:"status,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ListOptions configures Store.List.
type ListOptions struct {
	Mode   Mode
	Status Status
	Limit  int
	Offset int
}

// SearchResult is a full-text search hit against the session transcripts.
type SearchResult struct {
	SessionID     string    `json:"session_id"`
	SessionNumber int64     `json:"session_number"`
	MessageID     int64     `json:"message_id"`
	Summary       string    `json:"summary"`
	Snippet       string    `json:"snippet"`
	Provider      string    `json:"provider"`
	Model         string    `json:"model"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewMessage creates a Message from an llm.Message with an auto-extracted
// TextContent for display and full-text search.
func NewMessage(sessionID string, msg llm.Message, sequence int) *Message {
	m := &Message{
		SessionID: sessionID,
		Role:      msg.Role,
		Parts:     msg.Parts,
		CreatedAt: time.Now(),
		Sequence:  sequence,
	}
	m.TextContent = m.ExtractTextContent()
	return m
}

// ExtractTextContent concatenates all text parts for display/FTS.
func (m *Message) ExtractTextContent() string {
	var text string
	for _, p := range m.Parts {
		if p.Type == llm.PartText && p.Text != "" {
			if text != "" {
				text += "\n"
			}
			text += p.Text
		}
	}
	return text
}

// ToLLMMessage converts a stored Message back to an llm.Message.
func (m *Message) ToLLMMessage() llm.Message {
	return llm.Message{Role: m.Role, Parts: m.Parts}
}

// PartsJSON serializes Parts for database storage.
func (m *Message) PartsJSON() (string, error) {
	data, err := json.Marshal(m.Parts)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SetPartsFromJSON deserializes Parts from database storage.
func (m *Message) SetPartsFromJSON(data string) error {
	if data == "" {
		m.Parts = nil
		return nil
	}
	return json.Unmarshal([]byte(data), &m.Parts)
}

// TruncateSummary returns the first line of content, truncated to 100 chars,
// used to seed Session.Summary from the first user message.
func TruncateSummary(content string) string {
	content = strings.TrimSpace(content)
	if idx := strings.Index(content, "\n"); idx != -1 {
		content = content[:idx]
	}
	if len(content) > 100 {
		content = content[:97] + "..."
	}
	return content
}
