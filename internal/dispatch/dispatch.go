// Package dispatch maps (event, mode) to actions the app loop executes. It
// owns the mode state machine and the key-chord timing for Esc-Esc and
// Ctrl+C-Ctrl+C, but never performs an effect itself — every handler
// returns an Action for internal/tui/app to carry out, so the routing
// table stays a pure function of (msg, state) and is testable without a
// terminal.
package dispatch

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ion-cli/ion/internal/layout"
)

// chordWindow bounds how long a double key-press (Esc Esc, Ctrl+C Ctrl+C)
// stays armed before it reverts to being treated as a fresh first press.
const chordWindow = 500 * time.Millisecond

// ActionKind names what the app loop should do in response to a dispatched
// event. Most carry no payload beyond the fields already set on Action.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionEditComposer      // forward msg to the composer unchanged
	ActionSubmit            // submit the composer's resolved value as a turn
	ActionCancelTurn        // AbortToken.Cancel() on the running turn
	ActionInterject         // queue composer text without interrupting the turn
	ActionClearComposer
	ActionQuit
	ActionOpenSelector  // open a full-height selector; Selector names which kind
	ActionCloseSelector
	ActionSelectConfirm // Enter in Selector mode: resolve the cursor's item
	ActionOpenPopup     // a trigger character now matches; Popup names which kind
	ActionUpdatePopup   // re-filter the active popup as the query changes
	ActionAcceptPopup   // Tab/Enter on a popup row: splice its text into the composer
	ActionClosePopup
	ActionOpenHistorySearch
	ActionCloseHistorySearch
	ActionApprove // y/n/a in Approval mode
	ActionResize
	ActionCopyLastResponse // Ctrl+Y: copy the last agent response to the clipboard
)

// Approve mirrors the three answers a pending tool approval accepts.
type Approve int

const (
	ApproveNo Approve = iota
	ApproveYes
	ApproveAlways
)

// Action is the single return value of Handle: what happened, plus
// whichever payload field that ActionKind fills in. Unused fields are zero.
type Action struct {
	Kind     ActionKind
	Selector layout.Mode // for ActionOpenSelector, which overlay to open
	Approve  Approve     // for ActionApprove
	Width    int         // for ActionResize
	Height   int
}

// ChordState tracks the in-progress Esc-Esc / Ctrl+C-Ctrl+C double-press
// windows. Zero value is "nothing armed".
type ChordState struct {
	lastEsc   time.Time
	lastCtrlC time.Time
}

func (c *ChordState) armEsc(now time.Time) bool {
	armed := !c.lastEsc.IsZero() && now.Sub(c.lastEsc) <= chordWindow
	if armed {
		c.lastEsc = time.Time{}
	} else {
		c.lastEsc = now
	}
	return armed
}

func (c *ChordState) armCtrlC(now time.Time) bool {
	armed := !c.lastCtrlC.IsZero() && now.Sub(c.lastCtrlC) <= chordWindow
	if armed {
		c.lastCtrlC = time.Time{}
	} else {
		c.lastCtrlC = now
	}
	return armed
}

// State is the minimal slice of app state Handle needs to decide an
// action: the current mode, whether a turn is running, whether the
// composer is empty, and whether a popup is currently open with a
// selectable row under its cursor. The app loop owns the full models
// (composer, popup, selector); this is a read-only projection of them.
type State struct {
	Mode             layout.Mode
	TurnRunning      bool
	ComposerEmpty    bool
	PopupOpen        bool
	PopupHasSelection bool
	Now              time.Time
}

// Handle computes the Action for one tea.Msg given state and the dispatcher's
// chord timers. It does not mutate state; callers apply the returned Action
// and recompute State for the next call.
func Handle(msg tea.Msg, state State, chord *ChordState) Action {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		return Action{Kind: ActionResize, Width: m.Width, Height: m.Height}
	case tea.KeyMsg:
		return handleKey(m, state, chord)
	default:
		return Action{Kind: ActionNone}
	}
}

func handleKey(m tea.KeyMsg, state State, chord *ChordState) Action {
	now := state.Now
	if now.IsZero() {
		now = time.Now()
	}

	switch state.Mode {
	case layout.ModeSelector:
		return handleSelectorKey(m)
	case layout.ModeHistorySearch:
		return handleHistorySearchKey(m)
	case layout.ModeApproval:
		return handleApprovalKey(m)
	default:
		return handleInputKey(m, state, chord, now)
	}
}

func handleInputKey(m tea.KeyMsg, state State, chord *ChordState, now time.Time) Action {
	key := m.String()

	if state.PopupOpen {
		switch key {
		case "esc":
			return Action{Kind: ActionClosePopup}
		case "up", "down":
			return Action{Kind: ActionUpdatePopup}
		case "tab", "enter":
			if state.PopupHasSelection {
				return Action{Kind: ActionAcceptPopup}
			}
		}
	}

	switch key {
	case "esc":
		if state.TurnRunning {
			return Action{Kind: ActionCancelTurn}
		}
		if chord.armEsc(now) {
			return Action{Kind: ActionClearComposer}
		}
		return Action{Kind: ActionNone}
	case "ctrl+c":
		if state.TurnRunning {
			return Action{Kind: ActionCancelTurn}
		}
		if state.ComposerEmpty && chord.armCtrlC(now) {
			return Action{Kind: ActionQuit}
		}
		if !state.ComposerEmpty {
			return Action{Kind: ActionClearComposer}
		}
		return Action{Kind: ActionNone}
	case "ctrl+r":
		return Action{Kind: ActionOpenHistorySearch}
	case "ctrl+y":
		return Action{Kind: ActionCopyLastResponse}
	case "enter":
		if state.PopupOpen {
			break
		}
		if state.ComposerEmpty {
			return Action{Kind: ActionNone}
		}
		if state.TurnRunning {
			return Action{Kind: ActionInterject}
		}
		return Action{Kind: ActionSubmit}
	}

	return Action{Kind: ActionEditComposer}
}

func handleSelectorKey(m tea.KeyMsg) Action {
	switch m.String() {
	case "esc":
		return Action{Kind: ActionCloseSelector}
	case "enter":
		return Action{Kind: ActionSelectConfirm}
	default:
		return Action{Kind: ActionEditComposer}
	}
}

func handleHistorySearchKey(m tea.KeyMsg) Action {
	switch m.String() {
	case "esc":
		return Action{Kind: ActionCloseHistorySearch}
	case "enter":
		return Action{Kind: ActionAcceptPopup}
	default:
		return Action{Kind: ActionEditComposer}
	}
}

func handleApprovalKey(m tea.KeyMsg) Action {
	switch m.String() {
	case "y":
		return Action{Kind: ActionApprove, Approve: ApproveYes}
	case "a":
		return Action{Kind: ActionApprove, Approve: ApproveAlways}
	case "n", "esc":
		return Action{Kind: ActionApprove, Approve: ApproveNo}
	default:
		return Action{Kind: ActionNone}
	}
}
