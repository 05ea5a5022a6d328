package chatmodel

import (
	"strings"
	"testing"

	"github.com/ion-cli/ion/internal/style"
)

func TestRenderUserPrefixesFirstLineOnly(t *testing.T) {
	lines := renderUser("hello there friend", 40)
	if len(lines) == 0 {
		t.Fatal("expected at least one line")
	}
	if lines[0][0].Text != "> " {
		t.Errorf("expected first line prefix '> ', got %q", lines[0][0].Text)
	}
	if len(lines) > 1 && lines[1][0].Text != "  " {
		t.Errorf("expected continuation prefix '  ', got %q", lines[1][0].Text)
	}
}

func TestRenderToolIncludesStatusAndOutput(t *testing.T) {
	tool := &ToolMeta{Name: "run_tests", ArgDigest: "pkg=./...", Stdout: "ok\n"}
	lines := renderTool(tool, 80)
	if len(lines) < 2 {
		t.Fatalf("expected status + output lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0].String(), "run_tests") {
		t.Errorf("expected status line to contain tool name, got %q", lines[0].String())
	}
}

func TestRenderToolErrorShowsExitCodeAndStderr(t *testing.T) {
	tool := &ToolMeta{Name: "build", ArgDigest: "", Stderr: "boom\n", ExitCode: 1, IsError: true}
	lines := renderTool(tool, 80)
	status := lines[0].String()
	if !strings.Contains(status, "exit 1") {
		t.Errorf("expected exit code in status line, got %q", status)
	}
}

func TestRenderSystemErrorIsNonDim(t *testing.T) {
	lines := renderSystem("an error occurred", 40)
	if len(lines) == 0 {
		t.Fatal("expected a line")
	}
	if lines[0][0].Dim {
		t.Error("expected error system message to not be dim")
	}
	if lines[0][0].Fg != style.FgError {
		t.Errorf("expected FgError, got %q", lines[0][0].Fg)
	}
}

func TestRenderSystemNonErrorIsDimMuted(t *testing.T) {
	lines := renderSystem("session saved", 40)
	if !lines[0][0].Dim {
		t.Error("expected non-error system message to be dim")
	}
	if lines[0][0].Fg != style.FgMuted {
		t.Errorf("expected FgMuted, got %q", lines[0][0].Fg)
	}
}

func TestSanitizeStripsControlCharacters(t *testing.T) {
	got := sanitize("abc\x00def\x07")
	if got != "abcdef" {
		t.Errorf("expected control chars stripped, got %q", got)
	}
}

func TestTruncateOutputElidesMiddle(t *testing.T) {
	lines := make([]style.StyledLine, 0, 300)
	for i := 0; i < 300; i++ {
		lines = append(lines, style.Plain("line"))
	}
	out := truncateOutput(lines, 200, 50)
	if len(out) != 251 {
		t.Fatalf("expected 200+1+50=251 lines, got %d", len(out))
	}
	if !strings.Contains(out[200].String(), "elided") {
		t.Errorf("expected elision marker at index 200, got %q", out[200].String())
	}
}

func TestTruncateOutputNoopWhenShort(t *testing.T) {
	lines := []style.StyledLine{style.Plain("a"), style.Plain("b")}
	out := truncateOutput(lines, 200, 50)
	if len(out) != 2 {
		t.Errorf("expected no truncation for short output, got %d lines", len(out))
	}
}

func TestCollapseBlankRunsAndTrimEdges(t *testing.T) {
	lines := []style.StyledLine{
		blankLine(),
		style.Plain("a"),
		blankLine(),
		blankLine(),
		style.Plain("b"),
		blankLine(),
	}
	collapsed := collapseBlankRuns(lines)
	if len(collapsed) != 4 {
		t.Fatalf("expected consecutive blanks collapsed to 1, got %d lines", len(collapsed))
	}
	trimmed := trimBlankEdges(collapsed)
	if trimmed[0].String() != "a" || trimmed[len(trimmed)-1].String() != "b" {
		t.Errorf("expected leading/trailing blanks trimmed, got %+v", trimmed)
	}
}

func TestWordWrapBreaksOnWidth(t *testing.T) {
	out := wordWrap("the quick brown fox jumps", 10)
	for _, l := range out {
		if style.SpanWidth(l) > 10 {
			t.Errorf("line %q exceeds width 10", l)
		}
	}
	if len(out) < 2 {
		t.Errorf("expected wrapping to produce multiple lines, got %d", len(out))
	}
}

func TestRenderAgentAppendsToolBlockAfterMarkdown(t *testing.T) {
	tool := &ToolMeta{Name: "read_file", ArgDigest: "path=a.go", Stdout: "package main\n"}
	lines := renderAgent("Here is the file:", tool, 80)
	found := false
	for _, l := range lines {
		if strings.Contains(l.String(), "read_file") {
			found = true
		}
	}
	if !found {
		t.Error("expected tool status line to appear in agent rendering")
	}
}
