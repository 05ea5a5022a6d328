package chatmodel

import "testing"

func TestShouldEmitFirstTimeTrueSecondTimeFalse(t *testing.T) {
	d := NewErrorDedup()
	if !d.ShouldEmit("turn-1", "connection refused") {
		t.Error("expected first emission to be allowed")
	}
	if d.ShouldEmit("turn-1", "connection refused") {
		t.Error("expected duplicate emission to be suppressed")
	}
}

func TestShouldEmitDistinguishesByTurn(t *testing.T) {
	d := NewErrorDedup()
	d.ShouldEmit("turn-1", "timeout")
	if !d.ShouldEmit("turn-2", "timeout") {
		t.Error("expected same message in a different turn to be allowed")
	}
}

func TestResetClearsSeenState(t *testing.T) {
	d := NewErrorDedup()
	d.ShouldEmit("turn-1", "timeout")
	d.Reset()
	if !d.ShouldEmit("turn-1", "timeout") {
		t.Error("expected Reset to clear previously seen pairs")
	}
}
