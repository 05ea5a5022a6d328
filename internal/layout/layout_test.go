package layout

import "testing"

func allRegions(b Body) []Region {
	switch {
	case b.Input != nil:
		var rs []Region
		if b.Input.Popup != nil {
			rs = append(rs, *b.Input.Popup)
		}
		return append(rs, b.Input.Progress, b.Input.Input, b.Input.Status)
	case b.Selector != nil:
		return []Region{b.Selector.Region}
	case b.HistorySearch != nil:
		hs := b.HistorySearch
		return []Region{hs.Popup, hs.Progress, hs.Input, hs.Search}
	}
	return nil
}

func assertAdjacentNonOverlapping(t *testing.T, regions []Region) {
	t.Helper()
	for i := 1; i < len(regions); i++ {
		prev, next := regions[i-1], regions[i]
		if prev.Row+prev.Height != next.Row {
			t.Fatalf("regions not strictly adjacent: prev=%+v next=%+v", prev, next)
		}
	}
}

func TestInputModeRegionsAdjacentNoPopup(t *testing.T) {
	l := Compute(Inputs{Mode: ModeInput, TermWidth: 80, TermHeight: 24, InputHeight: 1})
	assertAdjacentNonOverlapping(t, allRegions(l.Body))
	if l.Body.Input.Popup != nil {
		t.Fatal("expected no popup region when PopupHeight is 0")
	}
}

func TestInputModeIncludesPopupWhenRequested(t *testing.T) {
	l := Compute(Inputs{Mode: ModeInput, TermWidth: 80, TermHeight: 24, InputHeight: 1, PopupHeight: 5})
	if l.Body.Input.Popup == nil {
		t.Fatal("expected popup region")
	}
	if l.Body.Input.Popup.Height != 5 {
		t.Fatalf("popup height = %d, want 5", l.Body.Input.Popup.Height)
	}
	assertAdjacentNonOverlapping(t, allRegions(l.Body))
}

func TestPopupHeightClampedToMax(t *testing.T) {
	l := Compute(Inputs{Mode: ModeInput, TermWidth: 80, TermHeight: 24, InputHeight: 1, PopupHeight: 50})
	if l.Body.Input.Popup.Height != MaxPopupHeight {
		t.Fatalf("popup height = %d, want clamped to %d", l.Body.Input.Popup.Height, MaxPopupHeight)
	}
}

func TestInputHeightClampedToMinimum(t *testing.T) {
	l := Compute(Inputs{Mode: ModeInput, TermWidth: 80, TermHeight: 24, InputHeight: 1})
	if l.Body.Input.Input.Height < MinInputHeight {
		t.Fatalf("input height = %d, want >= %d", l.Body.Input.Input.Height, MinInputHeight)
	}
}

func TestTopIsMinRegionRowAndWithinBounds(t *testing.T) {
	l := Compute(Inputs{Mode: ModeInput, TermWidth: 80, TermHeight: 24, InputHeight: 1, PopupHeight: 5})
	regions := allRegions(l.Body)
	min := regions[0].Row
	total := 0
	for _, r := range regions {
		if r.Row < min {
			min = r.Row
		}
		total += r.Height
	}
	if l.Top != min {
		t.Fatalf("top = %d, want %d", l.Top, min)
	}
	if l.Top < 0 || l.Top > 24-total {
		t.Fatalf("top %d out of bounds for term height 24 total %d", l.Top, total)
	}
}

func TestClearFromCoversShrinkingUI(t *testing.T) {
	l := Compute(Inputs{Mode: ModeInput, TermWidth: 80, TermHeight: 24, InputHeight: 1, PrevTop: 10})
	if l.ClearFrom != min(l.Top, 10) {
		t.Fatalf("clearFrom = %d, want min(top,prevTop)=%d", l.ClearFrom, min(l.Top, 10))
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func TestSelectorModeIsFullHeightOverlay(t *testing.T) {
	l := Compute(Inputs{Mode: ModeSelector, TermWidth: 80, TermHeight: 24, SelectorHeight: 20})
	if l.Body.Selector.Region.Height != 20 {
		t.Fatalf("selector height = %d, want 20", l.Body.Selector.Region.Height)
	}
	if l.Body.Input != nil || l.Body.HistorySearch != nil {
		t.Fatal("expected only the selector body to be populated")
	}
}

func TestHistorySearchModeRegionsAdjacent(t *testing.T) {
	l := Compute(Inputs{Mode: ModeHistorySearch, TermWidth: 80, TermHeight: 24, InputHeight: 1, PopupHeight: 4})
	assertAdjacentNonOverlapping(t, allRegions(l.Body))
	if l.Body.HistorySearch.Popup.Height != 4 {
		t.Fatalf("popup height = %d, want 4", l.Body.HistorySearch.Popup.Height)
	}
}
