package highlight

import "testing"

func TestNewReturnsNilForUnknownLanguage(t *testing.T) {
	if h := New("not-a-real-language-xyz"); h != nil {
		t.Fatalf("expected nil highlighter for unknown language, got %+v", h)
	}
}

func TestLineOnNilHighlighterReturnsPlainText(t *testing.T) {
	var h *Highlighter
	line := h.Line("package main")
	if line.String() != "package main" {
		t.Fatalf("got %q", line.String())
	}
}

func TestNewAndLineProduceNonEmptySpansForGo(t *testing.T) {
	h := New("main.go")
	if h == nil {
		t.Fatal("expected a lexer match for main.go")
	}
	line := h.Line("func main() {}")
	if line.String() != "func main() {}" {
		t.Fatalf("round-tripped text = %q, want unchanged", line.String())
	}
}

func TestLinesSplitsOnNewlines(t *testing.T) {
	h := New("main.go")
	lines := h.Lines("package main\n\nfunc main() {}")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
}
