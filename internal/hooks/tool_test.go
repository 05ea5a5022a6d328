package hooks

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ion-cli/ion/internal/llm"
)

type fakeTool struct {
	name   string
	called int
}

func (f *fakeTool) Spec() llm.ToolSpec { return llm.ToolSpec{Name: f.name} }

func (f *fakeTool) Execute(ctx context.Context, args json.RawMessage) (llm.ToolOutput, error) {
	f.called++
	return llm.TextOutput("real output"), nil
}

func (f *fakeTool) Preview(args json.RawMessage) string { return "" }

func TestWrapReturnsUnchangedWhenGateHasNoHooks(t *testing.T) {
	g, _ := NewGate(nil)
	tool := &fakeTool{name: "write_file"}
	wrapped := Wrap(tool, g)
	if wrapped != llm.Tool(tool) {
		t.Error("expected Wrap to return the original tool when gate is empty")
	}
}

func TestGatedExecuteSkipsUnderlyingCall(t *testing.T) {
	def := Definition{Event: PreToolUse, Matcher: "write_file", Command: `echo '{"outcome":"skip","reason":"nope"}'`}
	g, err := NewGate([]Definition{def})
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	tool := &fakeTool{name: "write_file"}
	wrapped := Wrap(tool, g)

	out, err := wrapped.Execute(context.Background(), json.RawMessage(`{"path":"a.go"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tool.called != 0 {
		t.Error("expected underlying tool not to be called when skipped")
	}
	if out.Content == "" {
		t.Error("expected a synthetic skip-note output")
	}
}

func TestGatedExecuteAbortsBeforeCall(t *testing.T) {
	def := Definition{Event: PreToolUse, Matcher: "*", Command: `echo '{"outcome":"abort","reason":"blocked"}'`}
	g, err := NewGate([]Definition{def})
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	tool := &fakeTool{name: "run_shell"}
	wrapped := Wrap(tool, g)

	_, err = wrapped.Execute(context.Background(), json.RawMessage(`{}`))
	if err == nil {
		t.Fatal("expected error when PreToolUse aborts")
	}
	if tool.called != 0 {
		t.Error("expected underlying tool not to be called when aborted")
	}
}

func TestGatedExecuteRunsUnderlyingToolOnContinue(t *testing.T) {
	g, _ := NewGate([]Definition{{Event: PreToolUse, Matcher: "nonexistent", Command: "true"}})
	tool := &fakeTool{name: "write_file"}
	wrapped := Wrap(tool, g)

	out, err := wrapped.Execute(context.Background(), json.RawMessage(`{"path":"a.go"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tool.called != 1 {
		t.Error("expected underlying tool to be called when no hook matches")
	}
	if out.Content != "real output" {
		t.Errorf("expected real output to pass through, got %q", out.Content)
	}
}

func TestArgsPathExtractsPathField(t *testing.T) {
	if got := argsPath(json.RawMessage(`{"path":"main.go"}`)); got != "main.go" {
		t.Errorf("expected path extraction, got %q", got)
	}
	if got := argsPath(json.RawMessage(`{}`)); got != "" {
		t.Errorf("expected empty path for no match, got %q", got)
	}
}
