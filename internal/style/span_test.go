package style

import "testing"

func TestSpanWidthWideAndCombining(t *testing.T) {
	if w := SpanWidth("abc"); w != 3 {
		t.Fatalf("ascii width = %d, want 3", w)
	}
	// CJK characters are double-width.
	if w := SpanWidth("日本語"); w != 6 {
		t.Fatalf("cjk width = %d, want 6", w)
	}
}

func TestLineWidthSumsSpans(t *testing.T) {
	l := StyledLine{{Text: "foo"}, {Text: "bar", Bold: true}}
	if w := l.Width(); w != 6 {
		t.Fatalf("line width = %d, want 6", w)
	}
}

func TestTruncateAddsTailAndRespectsBudget(t *testing.T) {
	l := Plain("hello world")
	out := Truncate(l, 7, "...")
	if out.Width() > 7 {
		t.Fatalf("truncated width = %d, want <= 7", out.Width())
	}
	if out.String() != "hell..." {
		t.Fatalf("truncated text = %q", out.String())
	}
}

func TestTruncateNoopWhenShort(t *testing.T) {
	l := Plain("short")
	out := Truncate(l, 20, "...")
	if out.String() != "short" {
		t.Fatalf("got %q, want unchanged", out.String())
	}
}

func TestPadRightPadsToWidth(t *testing.T) {
	l := Plain("ab")
	out := Pad(l, 5)
	if out.Width() != 5 {
		t.Fatalf("padded width = %d, want 5", out.Width())
	}
	if out.String() != "ab   " {
		t.Fatalf("padded text = %q", out.String())
	}
}
