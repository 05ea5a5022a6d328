package picker

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// Source maps a List's items to fuzzy.Source without requiring a type
// parameter on List itself.
type source []Item

func (s source) String(i int) string { return s[i].Primary }
func (s source) Len() int            { return len(s) }

// List is the shared filtered-list primitive behind selectors and popups: a
// filter string, the full item set, and a cursor over the filtered subset.
// Exact substring matches are ranked ahead of remaining fuzzy matches; both
// groups are stable-sorted so ties keep source order.
type List struct {
	all      []Item
	filtered []int // indexes into all
	filter   string
	cursor   int
}

// NewList builds a List over items, unfiltered.
func NewList(items []Item) *List {
	l := &List{all: items}
	l.applyFilter()
	return l
}

// SetItems replaces the backing item set and re-applies the current filter,
// clamping the cursor into range.
func (l *List) SetItems(items []Item) {
	l.all = items
	l.applyFilter()
}

// SetFilter updates the query and recomputes the filtered, ranked subset.
func (l *List) SetFilter(q string) {
	l.filter = q
	l.applyFilter()
}

func (l *List) Filter() string { return l.filter }

func (l *List) applyFilter() {
	if l.filter == "" {
		l.filtered = make([]int, len(l.all))
		for i := range l.all {
			l.filtered[i] = i
		}
		l.cursor = clamp(l.cursor, len(l.filtered))
		return
	}

	lower := strings.ToLower(l.filter)
	var exact, rest []int

	// fuzzy.FindFrom already returns matches ranked best-first; splitting
	// them into exact-substring vs. remaining fuzzy while preserving that
	// relative order puts contiguous matches ahead without re-deriving a
	// score ourselves.
	matches := fuzzy.FindFrom(l.filter, source(l.all))
	for _, m := range matches {
		if strings.Contains(strings.ToLower(l.all[m.Index].Primary), lower) {
			exact = append(exact, m.Index)
		} else {
			rest = append(rest, m.Index)
		}
	}

	l.filtered = append(exact, rest...)
	l.cursor = clamp(l.cursor, len(l.filtered))
}

func clamp(cursor, n int) int {
	if n == 0 {
		return 0
	}
	if cursor >= n {
		return n - 1
	}
	if cursor < 0 {
		return 0
	}
	return cursor
}

// Items returns the currently filtered, ranked items.
func (l *List) Items() []Item {
	out := make([]Item, len(l.filtered))
	for i, idx := range l.filtered {
		out[i] = l.all[idx]
	}
	return out
}

// Len returns the number of items passing the current filter.
func (l *List) Len() int { return len(l.filtered) }

// Cursor returns the index of the selected row within the filtered list.
func (l *List) Cursor() int { return l.cursor }

// MoveUp/MoveDown move the cursor within the filtered list, clamping at the
// ends rather than wrapping.
func (l *List) MoveUp() {
	if l.cursor > 0 {
		l.cursor--
	}
}

func (l *List) MoveDown() {
	if l.cursor < len(l.filtered)-1 {
		l.cursor++
	}
}

// Selected returns the item under the cursor, or false if the list is empty.
func (l *List) Selected() (Item, bool) {
	if l.cursor < 0 || l.cursor >= len(l.filtered) {
		return Item{}, false
	}
	return l.all[l.filtered[l.cursor]], true
}

// Height returns how many rows the list needs, capped at max (popups cap at
// layout.MaxPopupHeight; selectors pass a larger bound for the full-height
// overlay).
func (l *List) Height(max int) int {
	if len(l.filtered) < max {
		return len(l.filtered)
	}
	return max
}
