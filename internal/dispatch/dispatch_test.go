package dispatch

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ion-cli/ion/internal/layout"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestEnterSubmitsNonEmptyComposerWhenIdle(t *testing.T) {
	state := State{Mode: layout.ModeInput, ComposerEmpty: false}
	act := Handle(key("enter"), state, &ChordState{})
	if act.Kind != ActionSubmit {
		t.Fatalf("kind = %v, want ActionSubmit", act.Kind)
	}
}

func TestEnterOnEmptyComposerDoesNothing(t *testing.T) {
	state := State{Mode: layout.ModeInput, ComposerEmpty: true}
	act := Handle(key("enter"), state, &ChordState{})
	if act.Kind != ActionNone {
		t.Fatalf("kind = %v, want ActionNone", act.Kind)
	}
}

func TestEnterWhileRunningInterjectsInsteadOfSubmitting(t *testing.T) {
	state := State{Mode: layout.ModeInput, ComposerEmpty: false, TurnRunning: true}
	act := Handle(key("enter"), state, &ChordState{})
	if act.Kind != ActionInterject {
		t.Fatalf("kind = %v, want ActionInterject", act.Kind)
	}
}

func TestEscWhileRunningCancels(t *testing.T) {
	state := State{Mode: layout.ModeInput, TurnRunning: true}
	act := Handle(key("esc"), state, &ChordState{})
	if act.Kind != ActionCancelTurn {
		t.Fatalf("kind = %v, want ActionCancelTurn", act.Kind)
	}
}

func TestEscEscClearsWithinWindow(t *testing.T) {
	state := State{Mode: layout.ModeInput}
	chord := &ChordState{}
	now := time.Now()

	state.Now = now
	first := Handle(key("esc"), state, chord)
	if first.Kind != ActionNone {
		t.Fatalf("first esc kind = %v, want ActionNone", first.Kind)
	}

	state.Now = now.Add(100 * time.Millisecond)
	second := Handle(key("esc"), state, chord)
	if second.Kind != ActionClearComposer {
		t.Fatalf("second esc kind = %v, want ActionClearComposer", second.Kind)
	}
}

func TestEscEscOutsideWindowDoesNotClear(t *testing.T) {
	state := State{Mode: layout.ModeInput}
	chord := &ChordState{}
	now := time.Now()

	state.Now = now
	Handle(key("esc"), state, chord)

	state.Now = now.Add(2 * time.Second)
	second := Handle(key("esc"), state, chord)
	if second.Kind != ActionNone {
		t.Fatalf("kind = %v, want ActionNone (window expired)", second.Kind)
	}
}

func TestSingleCtrlCInterruptsStreamingTurn(t *testing.T) {
	state := State{Mode: layout.ModeInput, TurnRunning: true}
	act := Handle(key("ctrl+c"), state, &ChordState{})
	if act.Kind != ActionCancelTurn {
		t.Fatalf("kind = %v, want ActionCancelTurn", act.Kind)
	}
}

func TestCtrlCClearsNonEmptyComposerWhenIdle(t *testing.T) {
	state := State{Mode: layout.ModeInput, ComposerEmpty: false}
	act := Handle(key("ctrl+c"), state, &ChordState{})
	if act.Kind != ActionClearComposer {
		t.Fatalf("kind = %v, want ActionClearComposer", act.Kind)
	}
}

func TestDoubleCtrlCQuitsWhenIdleAndEmpty(t *testing.T) {
	state := State{Mode: layout.ModeInput, ComposerEmpty: true}
	chord := &ChordState{}
	now := time.Now()

	state.Now = now
	first := Handle(key("ctrl+c"), state, chord)
	if first.Kind != ActionNone {
		t.Fatalf("first ctrl+c kind = %v, want ActionNone", first.Kind)
	}

	state.Now = now.Add(100 * time.Millisecond)
	second := Handle(key("ctrl+c"), state, chord)
	if second.Kind != ActionQuit {
		t.Fatalf("second ctrl+c kind = %v, want ActionQuit", second.Kind)
	}
}

func TestApprovalModeRoutesYNA(t *testing.T) {
	state := State{Mode: layout.ModeApproval}
	cases := map[string]Approve{"y": ApproveYes, "n": ApproveNo, "a": ApproveAlways}
	for k, want := range cases {
		act := Handle(key(k), state, &ChordState{})
		if act.Kind != ActionApprove || act.Approve != want {
			t.Fatalf("key %q: got %v/%v, want ActionApprove/%v", k, act.Kind, act.Approve, want)
		}
	}
}

func TestPopupTabAcceptsWhenSelectionPresent(t *testing.T) {
	state := State{Mode: layout.ModeInput, PopupOpen: true, PopupHasSelection: true}
	act := Handle(tea.KeyMsg{Type: tea.KeyTab}, state, &ChordState{})
	if act.Kind != ActionAcceptPopup {
		t.Fatalf("kind = %v, want ActionAcceptPopup", act.Kind)
	}
}

func TestPopupEscClosesWithoutClearingComposer(t *testing.T) {
	state := State{Mode: layout.ModeInput, PopupOpen: true}
	act := Handle(key("esc"), state, &ChordState{})
	if act.Kind != ActionClosePopup {
		t.Fatalf("kind = %v, want ActionClosePopup", act.Kind)
	}
}

func TestSelectorEnterConfirms(t *testing.T) {
	state := State{Mode: layout.ModeSelector}
	act := Handle(key("enter"), state, &ChordState{})
	if act.Kind != ActionSelectConfirm {
		t.Fatalf("kind = %v, want ActionSelectConfirm", act.Kind)
	}
}

func TestCtrlYCopiesLastResponse(t *testing.T) {
	state := State{Mode: layout.ModeInput}
	act := Handle(tea.KeyMsg{Type: tea.KeyCtrlY}, state, &ChordState{})
	if act.Kind != ActionCopyLastResponse {
		t.Fatalf("kind = %v, want ActionCopyLastResponse", act.Kind)
	}
}

func TestWindowResizeProducesActionResize(t *testing.T) {
	act := Handle(tea.WindowSizeMsg{Width: 100, Height: 40}, State{}, &ChordState{})
	if act.Kind != ActionResize || act.Width != 100 || act.Height != 40 {
		t.Fatalf("got %+v", act)
	}
}
