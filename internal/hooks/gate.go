package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/gobwas/glob"

	"github.com/ion-cli/ion/internal/obs"
)

const defaultHookTimeout = 10 * time.Second

// compiled pairs a Definition with its precompiled matchers so Dispatch
// never recompiles a glob per call.
type compiled struct {
	def     Definition
	matcher glob.Glob
	pattern glob.Glob // nil when Pattern is empty (matches any path)
}

// Gate holds the active hook set for a session and dispatches invocations
// through it in declaration order.
type Gate struct {
	hooks []compiled
}

// NewGate compiles defs into a dispatchable Gate, returning an error if any
// matcher or pattern glob fails to compile (spec: invalid hook patterns are
// rejected at load time, never silently treated as match-all).
func NewGate(defs []Definition) (*Gate, error) {
	g := &Gate{}
	for _, d := range defs {
		m, err := glob.Compile(d.Matcher)
		if err != nil {
			return nil, fmt.Errorf("hook matcher %q: %w", d.Matcher, err)
		}
		var p glob.Glob
		if d.Pattern != "" {
			p, err = glob.Compile(d.Pattern)
			if err != nil {
				return nil, fmt.Errorf("hook pattern %q: %w", d.Pattern, err)
			}
		}
		g.hooks = append(g.hooks, compiled{def: d, matcher: m, pattern: p})
	}
	return g, nil
}

// Dispatch runs every hook registered for event that matches inv's tool
// name and path, in declaration order, stopping at the first non-Continue
// result. A Gate with no matching hooks returns Continue.
func (g *Gate) Dispatch(ctx context.Context, event Event, inv Invocation) Result {
	logger := obs.For("hooks")
	for _, c := range g.hooks {
		if c.def.Event != event {
			continue
		}
		if !c.matcher.Match(inv.ToolName) {
			continue
		}
		if c.pattern != nil && !c.pattern.Match(inv.Path) {
			continue
		}
		res, err := runHook(ctx, c.def, inv)
		if err != nil {
			logger.Warn().Err(err).Str("tool", inv.ToolName).Str("event", string(event)).Msg("hook execution failed")
			return Result{Kind: Abort, Reason: fmt.Sprintf("hook %q failed: %v", c.def.Command, err)}
		}
		if res.Kind != Continue {
			return res
		}
	}
	return Result{Kind: Continue}
}

func runHook(ctx context.Context, def Definition, inv Invocation) (Result, error) {
	timeout := def.Timeout
	if timeout <= 0 {
		timeout = defaultHookTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(struct {
		Event    Event          `json:"event"`
		ToolName string         `json:"tool_name"`
		Path     string         `json:"path,omitempty"`
		Args     map[string]any `json:"args,omitempty"`
		Output   any            `json:"output,omitempty"`
		IsError  bool           `json:"is_error,omitempty"`
	}{Event: def.Event, ToolName: inv.ToolName, Path: inv.Path, Args: inv.Args, Output: inv.Output, IsError: inv.IsError})
	if err != nil {
		return Result{}, fmt.Errorf("marshal invocation: %w", err)
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", def.Command)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stdout.Len() == 0 {
			return Result{}, fmt.Errorf("%w: %s", err, stderr.String())
		}
		// A non-zero exit with output still lets the hook express Skip/Abort
		// explicitly; fall through to decode it.
	}

	if stdout.Len() == 0 {
		return Result{Kind: Continue}, nil
	}
	var w wire
	if err := json.Unmarshal(stdout.Bytes(), &w); err != nil {
		return Result{}, fmt.Errorf("decode hook output: %w", err)
	}
	return w.toResult(), nil
}
