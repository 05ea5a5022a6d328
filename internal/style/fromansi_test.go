package style

import "testing"

func TestFromANSISplitsLinesAndKeepsStyle(t *testing.T) {
	lines := FromANSI("\x1b[31mfail\x1b[0m\nok\n")
	if len(lines) < 2 {
		t.Fatalf("expected at least 2 lines, got %d: %+v", len(lines), lines)
	}
	if lines[0].String() != "fail" || lines[0][0].Fg != "red" {
		t.Fatalf("first line = %+v", lines[0])
	}
	if lines[1].String() != "ok" {
		t.Fatalf("second line = %+v", lines[1])
	}
}
