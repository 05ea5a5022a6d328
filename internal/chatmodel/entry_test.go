package chatmodel

import (
	"testing"

	"github.com/ion-cli/ion/internal/style"
)

func TestStyledLinesCachesUntilWidthChanges(t *testing.T) {
	e := &MessageEntry{ID: 1, Sender: SenderSystem, Text: "hello world"}
	theme := style.DefaultTheme()

	first := e.StyledLines(40, theme)
	if len(first) == 0 {
		t.Fatal("expected non-empty rendering")
	}

	again := e.StyledLines(40, theme)
	if &again[0] != &first[0] {
		t.Error("expected cached slice to be reused for unchanged width")
	}

	rebuilt := e.StyledLines(20, theme)
	if &rebuilt[0] == &first[0] {
		t.Error("expected cache rebuild on width change")
	}
}

func TestCommittedLinesClampedAfterRebuild(t *testing.T) {
	e := &MessageEntry{ID: 2, Sender: SenderSystem, Text: "a longer system message that wraps across several lines of output"}
	theme := style.DefaultTheme()

	wide := e.StyledLines(200, theme)
	e.CommittedLinesInScrollback = len(wide)

	narrow := e.StyledLines(10, theme)
	if e.CommittedLinesInScrollback > len(narrow) {
		t.Errorf("committed lines %d exceeds rebuilt length %d", e.CommittedLinesInScrollback, len(narrow))
	}
}

func TestInvalidateCacheForcesRebuild(t *testing.T) {
	e := &MessageEntry{ID: 3, Sender: SenderSystem, Text: "hi"}
	theme := style.DefaultTheme()

	e.StyledLines(40, theme)
	e.CommittedLinesInScrollback = 1
	e.InvalidateCache()

	if e.styledLines != nil || e.width != 0 || e.CommittedLinesInScrollback != 0 {
		t.Error("expected InvalidateCache to reset all cache fields")
	}
}
