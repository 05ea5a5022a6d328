package ansi

import "testing"

func TestParsePlainTextNoEscapes(t *testing.T) {
	segs := Parse("hello")
	if len(segs) != 1 || segs[0].Text != "hello" {
		t.Fatalf("got %+v", segs)
	}
}

func TestParseBoldRed(t *testing.T) {
	segs := Parse("\x1b[1;31mERROR\x1b[0m: failed")
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d: %+v", len(segs), segs)
	}
	if segs[0].Text != "ERROR" || !segs[0].Bold || segs[0].Fg != "red" {
		t.Fatalf("first segment = %+v", segs[0])
	}
	if segs[1].Text != ": failed" || segs[1].Bold || segs[1].Fg != "" {
		t.Fatalf("second segment = %+v", segs[1])
	}
}

func TestParseResetClearsState(t *testing.T) {
	segs := Parse("\x1b[32mok\x1b[0mplain")
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d: %+v", len(segs), segs)
	}
	if segs[1].Fg != "" {
		t.Fatalf("expected reset fg, got %q", segs[1].Fg)
	}
}

func TestStripToPlainRemovesEscapes(t *testing.T) {
	got := StripToPlain("\x1b[1;31mERROR\x1b[0m: failed")
	if got != "ERROR: failed" {
		t.Fatalf("got %q", got)
	}
}
