package hooks

import (
	"context"
	"testing"
)

func TestDispatchNoHooksContinues(t *testing.T) {
	g, err := NewGate(nil)
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	res := g.Dispatch(context.Background(), PreToolUse, Invocation{ToolName: "write_file"})
	if res.Kind != Continue {
		t.Errorf("expected Continue with no hooks, got %v", res.Kind)
	}
}

func TestDispatchSkipFromHookCommand(t *testing.T) {
	def := Definition{
		Event:   PreToolUse,
		Matcher: "write_file",
		Command: `echo '{"outcome":"skip","reason":"dry run"}'`,
	}
	g, err := NewGate([]Definition{def})
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	res := g.Dispatch(context.Background(), PreToolUse, Invocation{ToolName: "write_file", Path: "a.go"})
	if res.Kind != Skip {
		t.Errorf("expected Skip, got %v", res.Kind)
	}
	if res.Reason != "dry run" {
		t.Errorf("expected reason %q, got %q", "dry run", res.Reason)
	}
}

func TestDispatchUnmatchedToolNameContinues(t *testing.T) {
	def := Definition{
		Event:   PreToolUse,
		Matcher: "run_shell",
		Command: `echo '{"outcome":"abort","reason":"should not run"}'`,
	}
	g, err := NewGate([]Definition{def})
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	res := g.Dispatch(context.Background(), PreToolUse, Invocation{ToolName: "write_file"})
	if res.Kind != Continue {
		t.Errorf("expected Continue for non-matching tool, got %v", res.Kind)
	}
}

func TestDispatchPatternMismatchSkipsHook(t *testing.T) {
	def := Definition{
		Event:   PreToolUse,
		Matcher: "*",
		Pattern: "*.md",
		Command: `echo '{"outcome":"abort","reason":"should not match go files"}'`,
	}
	g, err := NewGate([]Definition{def})
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	res := g.Dispatch(context.Background(), PreToolUse, Invocation{ToolName: "write_file", Path: "main.go"})
	if res.Kind != Continue {
		t.Errorf("expected Continue when path pattern doesn't match, got %v", res.Kind)
	}
}

func TestNewGateRejectsInvalidMatcher(t *testing.T) {
	_, err := NewGate([]Definition{{Event: PreToolUse, Matcher: "[", Command: "true"}})
	if err == nil {
		t.Fatal("expected error for invalid glob matcher")
	}
}

func TestDispatchEmptyHookOutputContinues(t *testing.T) {
	def := Definition{
		Event:   PreToolUse,
		Matcher: "*",
		Command: "true",
	}
	g, err := NewGate([]Definition{def})
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	res := g.Dispatch(context.Background(), PreToolUse, Invocation{ToolName: "write_file"})
	if res.Kind != Continue {
		t.Errorf("expected Continue for a hook that emits nothing, got %v", res.Kind)
	}
}

func TestDispatchStopsAtFirstNonContinue(t *testing.T) {
	defs := []Definition{
		{Event: PreToolUse, Matcher: "*", Command: `echo '{"outcome":"abort","reason":"first"}'`},
		{Event: PreToolUse, Matcher: "*", Command: `echo '{"outcome":"abort","reason":"second"}'`},
	}
	g, err := NewGate(defs)
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	res := g.Dispatch(context.Background(), PreToolUse, Invocation{ToolName: "write_file"})
	if res.Reason != "first" {
		t.Errorf("expected first hook's abort to win, got reason %q", res.Reason)
	}
}
