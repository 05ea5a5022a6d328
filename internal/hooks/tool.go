package hooks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ion-cli/ion/internal/llm"
)

// Gated wraps an llm.Tool so every Execute call passes through the gate's
// PreToolUse/PostToolUse dispatch.
type Gated struct {
	llm.Tool
	gate *Gate
	name string
}

// Wrap returns tool unchanged if gate has no hooks registered, otherwise a
// Gated decorator around it.
func Wrap(tool llm.Tool, gate *Gate) llm.Tool {
	if gate == nil || len(gate.hooks) == 0 {
		return tool
	}
	return &Gated{Tool: tool, gate: gate, name: tool.Spec().Name}
}

// Execute runs the PreToolUse gate, the underlying tool (unless skipped or
// its arguments were replaced), then the PostToolUse gate.
func (g *Gated) Execute(ctx context.Context, args json.RawMessage) (llm.ToolOutput, error) {
	inv := Invocation{ToolName: g.name, Path: argsPath(args), Args: decodeArgs(args)}

	pre := g.gate.Dispatch(ctx, PreToolUse, inv)
	switch pre.Kind {
	case Skip:
		return llm.TextOutput(fmt.Sprintf("skipped by hook: %s", pre.Reason)), nil
	case Abort:
		return llm.ToolOutput{}, fmt.Errorf("aborted by hook: %s", pre.Reason)
	case ReplaceInput:
		encoded, err := json.Marshal(pre.Args)
		if err != nil {
			return llm.ToolOutput{}, fmt.Errorf("hook replace_input: %w", err)
		}
		args = encoded
		inv.Args = pre.Args
	}

	out, err := g.Tool.Execute(ctx, args)

	post := g.gate.Dispatch(ctx, PostToolUse, Invocation{
		ToolName: g.name,
		Path:     inv.Path,
		Args:     inv.Args,
		Output:   out.Content,
		IsError:  err != nil,
	})
	switch post.Kind {
	case Abort:
		return llm.ToolOutput{}, fmt.Errorf("aborted by hook: %s", post.Reason)
	case ReplaceOutput:
		if text, ok := post.Output.(string); ok {
			return llm.TextOutput(text), nil
		}
		encoded, mErr := json.Marshal(post.Output)
		if mErr != nil {
			return out, err
		}
		return llm.TextOutput(string(encoded)), nil
	}

	return out, err
}

func decodeArgs(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

// argsPath pulls a "path" or "file" field out of tool arguments, if present,
// so path-scoped hooks can match file-touching tools without each tool
// needing to know about hooks.
func argsPath(raw json.RawMessage) string {
	m := decodeArgs(raw)
	if m == nil {
		return ""
	}
	for _, key := range []string{"path", "file", "file_path"} {
		if v, ok := m[key].(string); ok {
			return v
		}
	}
	return ""
}
