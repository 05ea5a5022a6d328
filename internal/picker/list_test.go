package picker

import "testing"

func TestListUnfilteredReturnsAllInOrder(t *testing.T) {
	l := NewList([]Item{{Primary: "a"}, {Primary: "b"}, {Primary: "c"}})
	if l.Len() != 3 {
		t.Fatalf("len = %d, want 3", l.Len())
	}
	got := l.Items()
	if got[0].Primary != "a" || got[2].Primary != "c" {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestListFilterRanksExactSubstringFirst(t *testing.T) {
	l := NewList([]Item{
		{Primary: "model"},
		{Primary: "mcp"},
		{Primary: "compact"},
	})
	l.SetFilter("m")

	items := l.Items()
	if len(items) == 0 {
		t.Fatal("expected at least one match")
	}
	if items[0].Primary != "model" && items[0].Primary != "mcp" {
		t.Fatalf("expected an exact-substring match first, got %v", items)
	}
}

func TestListCursorClampsOnFilterShrink(t *testing.T) {
	l := NewList([]Item{{Primary: "apple"}, {Primary: "banana"}, {Primary: "cherry"}})
	l.MoveDown()
	l.MoveDown()
	if l.Cursor() != 2 {
		t.Fatalf("cursor = %d, want 2", l.Cursor())
	}

	l.SetFilter("apple")
	if l.Cursor() != 0 {
		t.Fatalf("cursor after shrink = %d, want clamped to 0", l.Cursor())
	}
}

func TestListMoveUpDownClampAtEnds(t *testing.T) {
	l := NewList([]Item{{Primary: "a"}, {Primary: "b"}})
	l.MoveUp()
	if l.Cursor() != 0 {
		t.Fatalf("cursor = %d, want 0 (clamped)", l.Cursor())
	}
	l.MoveDown()
	l.MoveDown()
	l.MoveDown()
	if l.Cursor() != 1 {
		t.Fatalf("cursor = %d, want 1 (clamped)", l.Cursor())
	}
}

func TestListSelectedEmptyReturnsFalse(t *testing.T) {
	l := NewList(nil)
	if _, ok := l.Selected(); ok {
		t.Fatal("expected no selection on empty list")
	}
}

func TestListHeightCapsAtMax(t *testing.T) {
	items := make([]Item, 20)
	for i := range items {
		items[i] = Item{Primary: "x"}
	}
	l := NewList(items)
	if h := l.Height(7); h != 7 {
		t.Fatalf("height = %d, want 7", h)
	}
	l.SetFilter("nomatch-xyz")
	if h := l.Height(7); h != 0 {
		t.Fatalf("height = %d, want 0", h)
	}
}
