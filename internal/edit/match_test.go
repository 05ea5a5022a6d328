package edit

import "testing"

func TestFindMatch_Exact(t *testing.T) {
	content := "func Foo() {\n\treturn 1\n}\n"
	result, err := FindMatch(content, "\treturn 1")
	if err != nil {
		t.Fatalf("FindMatch: %v", err)
	}
	if result.Level != MatchExact {
		t.Errorf("level = %v, want MatchExact", result.Level)
	}
	if result.Original != "\treturn 1" {
		t.Errorf("Original = %q", result.Original)
	}

	updated := ApplyMatch(content, result, "\treturn 2")
	want := "func Foo() {\n\treturn 2\n}\n"
	if updated != want {
		t.Errorf("ApplyMatch = %q, want %q", updated, want)
	}
}

func TestFindMatch_TrailingWhitespaceTolerated(t *testing.T) {
	content := "line one   \nline two\n"
	result, err := FindMatch(content, "line one")
	if err != nil {
		t.Fatalf("FindMatch: %v", err)
	}
	if result.Level != MatchTrimTrailingWhitespace {
		t.Errorf("level = %v, want MatchTrimTrailingWhitespace", result.Level)
	}
}

func TestFindMatch_CollapsedWhitespace(t *testing.T) {
	content := "func   Foo(x,   y int) {\n}\n"
	result, err := FindMatch(content, "func Foo(x, y int) {")
	if err != nil {
		t.Fatalf("FindMatch: %v", err)
	}
	if result.Level != MatchCollapsedWhitespace {
		t.Errorf("level = %v, want MatchCollapsedWhitespace", result.Level)
	}
}

func TestFindMatch_NotFound(t *testing.T) {
	content := "alpha\nbeta\n"
	if _, err := FindMatch(content, "totally different content block"); err == nil {
		t.Fatal("expected error for unmatched old_text")
	}
}

func TestFindMatch_MultiLineReplace(t *testing.T) {
	content := "a\nb\nc\nd\n"
	result, err := FindMatch(content, "b\nc")
	if err != nil {
		t.Fatalf("FindMatch: %v", err)
	}
	updated := ApplyMatch(content, result, "B\nC")
	want := "a\nB\nC\nd\n"
	if updated != want {
		t.Errorf("ApplyMatch = %q, want %q", updated, want)
	}
}
