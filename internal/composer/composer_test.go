package composer

import (
	"strings"
	"testing"
)

func TestNewStartsSingleLine(t *testing.T) {
	c := New(80, nil)
	if c.Value() != "" {
		t.Fatalf("expected empty value, got %q", c.Value())
	}
	if h := c.Height(); h < 3 {
		t.Fatalf("height = %d, want >= 3 (layout invariant)", h)
	}
}

func TestPasteCollapsesLargeBlob(t *testing.T) {
	c := New(80, nil)
	var sb strings.Builder
	for i := 0; i < 1200; i++ {
		sb.WriteByte('x')
	}
	c.Paste(sb.String())

	if strings.Contains(c.Value(), "xxxxxxxxxx") {
		t.Fatalf("large paste was not collapsed: %q", c.Value())
	}
	if !strings.Contains(c.Value(), "[pasted #1,") {
		t.Fatalf("expected placeholder sigil, got %q", c.Value())
	}

	resolved := c.ResolvedValue()
	if resolved != sb.String() {
		t.Fatalf("resolved value does not match original paste")
	}
}

func TestPasteSmallTextInsertedInline(t *testing.T) {
	c := New(80, nil)
	c.Paste("hi")
	if c.Value() != "hi" {
		t.Fatalf("got %q, want inline insert", c.Value())
	}
}

func TestResetAddsToHistoryAndClearsBuffer(t *testing.T) {
	c := New(80, nil)
	c.SetValue("hello there")
	c.Reset()

	if c.Value() != "" {
		t.Fatalf("expected cleared buffer, got %q", c.Value())
	}
	if c.history.Len() != 1 || c.history.Recent(0) != "hello there" {
		t.Fatalf("expected history to record submitted value")
	}
}

func TestRecallNarrowsAndAccepts(t *testing.T) {
	c := New(80, nil)
	c.SetValue("git status")
	c.Reset()
	c.SetValue("go build ./...")
	c.Reset()

	c.StartRecall()
	c.UpdateRecall("git")
	matches := c.RecallMatches()
	if len(matches) != 1 || matches[0] != "git status" {
		t.Fatalf("matches = %v, want [git status]", matches)
	}

	c.AcceptRecall()
	if c.Value() != "git status" {
		t.Fatalf("got %q after accept", c.Value())
	}
	if c.InRecall() {
		t.Fatal("expected recall session to end after accept")
	}
}
