package difflines

import "testing"

func TestComputeClassifiesAddedAndRemovedLines(t *testing.T) {
	old := "one\ntwo\nthree\n"
	updated := "one\ntwo changed\nthree\n"

	lines := Compute("file.txt", old, updated)

	var sawAdd, sawRemove bool
	for _, l := range lines {
		if l.Kind == Add && l.Text == "two changed" {
			sawAdd = true
		}
		if l.Kind == Remove && l.Text == "two" {
			sawRemove = true
		}
	}
	if !sawAdd {
		t.Errorf("expected an Add line for %q, got %+v", "two changed", lines)
	}
	if !sawRemove {
		t.Errorf("expected a Remove line for %q, got %+v", "two", lines)
	}
}

func TestComputeIdenticalContentProducesNoChangeLines(t *testing.T) {
	same := "a\nb\nc\n"
	lines := Compute("file.txt", same, same)
	for _, l := range lines {
		if l.Kind == Add || l.Kind == Remove {
			t.Fatalf("expected no add/remove lines for identical content, got %+v", lines)
		}
	}
}
