package picker

import (
	"strings"
	"testing"
)

func TestRowPadsToWidth(t *testing.T) {
	line := Row(Item{Primary: "hi"}, false, 10, DefaultRowStyle())
	if w := line.Width(); w != 10 {
		t.Fatalf("width = %d, want 10", w)
	}
}

func TestRowSelectedIsReversed(t *testing.T) {
	line := Row(Item{Primary: "hi"}, true, 10, DefaultRowStyle())
	var anyReverse bool
	for _, span := range line {
		if span.Reverse {
			anyReverse = true
		}
	}
	if !anyReverse {
		t.Fatal("expected selected row to carry a reversed span")
	}
}

func TestRowSecondaryOmittedWhenStyleDisables(t *testing.T) {
	rs := DefaultRowStyle()
	rs.ShowSecondary = false
	line := Row(Item{Primary: "hi", Secondary: "there"}, false, 20, rs)
	if strings.Contains(line.String(), "there") || line.Width() != 20 {
		t.Fatalf("unexpected content with secondary hidden: %q", line.String())
	}
}
