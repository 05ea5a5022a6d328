// Package hooks implements the PreToolUse/PostToolUse gate every tool
// invocation passes through: user-defined matchers decide whether a call
// proceeds unchanged, is skipped, has its arguments or output replaced, or
// aborts the turn.
package hooks

import "time"

// Event names the point in a tool invocation's lifecycle a hook attaches to.
type Event string

const (
	PreToolUse  Event = "pre_tool_use"
	PostToolUse Event = "post_tool_use"
)

// Scope marks where a hook definition was declared. Project-scoped hooks
// are stripped at load time so a cloned repository can never smuggle in an
// arbitrary command; only user-scoped hooks may run one.
type Scope string

const (
	ScopeUser    Scope = "user"
	ScopeProject Scope = "project"
)

// Definition is one configured hook: it matches a tool name (and, for
// file-touching tools, a path pattern) at a given event and runs a shell
// command with the invocation's details on stdin.
type Definition struct {
	Event   Event         `mapstructure:"event" yaml:"event"`
	Matcher string        `mapstructure:"matcher" yaml:"matcher"` // tool name glob, "*" for all
	Pattern string        `mapstructure:"pattern" yaml:"pattern"` // optional path glob, empty matches any path
	Command string        `mapstructure:"command" yaml:"command"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Scope   Scope         `mapstructure:"-" yaml:"-"`
}

// Invocation describes the tool call a hook is being asked to judge.
type Invocation struct {
	ToolName string
	Path     string // empty for tools with no single-path target
	Args     map[string]any
	Output   any // populated only for PostToolUse
	IsError  bool
}
