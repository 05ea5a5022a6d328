package composer

import (
	"strings"
	"testing"
)

func TestPasteRegistryRoundTrip(t *testing.T) {
	r := NewPasteRegistry()
	original := "line one\nline two\nline three"
	placeholder := r.Register(original)

	if !strings.Contains(placeholder, "3 lines") {
		t.Fatalf("placeholder = %q, want line count 3", placeholder)
	}

	input := "before " + placeholder + " after"
	expanded := r.Expand(input)
	want := "before " + original + " after"
	if expanded != want {
		t.Fatalf("expanded = %q, want %q", expanded, want)
	}
}

func TestPasteRegistryClearDropsBlobs(t *testing.T) {
	r := NewPasteRegistry()
	placeholder := r.Register("secret")
	r.Clear()
	if got := r.Expand(placeholder); got != placeholder {
		t.Fatalf("expected unresolved placeholder after Clear, got %q", got)
	}
}

func TestPasteRegistryUnknownPlaceholderPassesThrough(t *testing.T) {
	r := NewPasteRegistry()
	in := "[pasted #99, 4 lines]"
	if got := r.Expand(in); got != in {
		t.Fatalf("got %q, want unchanged", got)
	}
}
