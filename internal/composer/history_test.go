package composer

import "testing"

func TestHistoryAddDedupesConsecutive(t *testing.T) {
	h := NewHistory(10)
	h.Add("git status")
	h.Add("git status")
	if h.Len() != 1 {
		t.Fatalf("len = %d, want 1", h.Len())
	}
}

func TestHistoryEvictsOldest(t *testing.T) {
	h := NewHistory(2)
	h.Add("a")
	h.Add("b")
	h.Add("c")
	if h.Len() != 2 {
		t.Fatalf("len = %d, want 2", h.Len())
	}
	if h.Recent(0) != "c" || h.Recent(1) != "b" {
		t.Fatalf("recent(0)=%q recent(1)=%q", h.Recent(0), h.Recent(1))
	}
}

func TestHistorySearchFuzzyOrdersExactFirst(t *testing.T) {
	h := NewHistory(10)
	h.Add("go test ./...")
	h.Add("git commit -m fix")
	h.Add("git status")

	matches := h.Search("git")
	if len(matches) < 2 {
		t.Fatalf("expected at least 2 matches, got %d: %v", len(matches), matches)
	}
	for _, m := range matches {
		if m == "go test ./..." {
			t.Fatalf("unrelated entry matched: %v", matches)
		}
	}
	if matches[0] != "git status" || matches[1] != "git commit -m fix" {
		t.Fatalf("expected exact substring matches first, most recent first: %v", matches)
	}
}

func TestHistorySearchEmptyQueryReturnsAllMostRecentFirst(t *testing.T) {
	h := NewHistory(10)
	h.Add("first")
	h.Add("second")

	got := h.Search("")
	if len(got) != 2 || got[0] != "second" || got[1] != "first" {
		t.Fatalf("got %v", got)
	}
}
