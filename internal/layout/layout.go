// Package layout computes the single, authoritative screen layout for each
// frame. Nothing else in ion decides where a region sits:
// every renderer receives the region it was assigned here and paints it as
// a pure function of (region, component state).
package layout

// Mode is the bottom UI's mode sum type: only one is active
// at a time and the event dispatcher owns transitions between them.
type Mode int

const (
	ModeInput Mode = iota
	ModeSelector
	ModeHistorySearch
	ModeApproval
)

// Region is a horizontal band of the terminal: rows [Row, Row+Height).
type Region struct {
	Row    int
	Height int
}

func (r Region) end() int { return r.Row + r.Height }

// InputBody lays out the Input mode: an optional popup (slash/@file
// completion), a progress line, the composer input box, and a status line.
type InputBody struct {
	Popup    *Region // nil when no completer is active
	Progress Region
	Input    Region
	Status   Region
}

// SelectorBody lays out a full-height selector overlay (provider/model/
// session pickers), which replaces the rest of the bottom UI outright.
type SelectorBody struct {
	Region Region
}

// HistorySearchBody lays out the Ctrl+R reverse history search UI: a popup
// listing matches, a progress line, the input box, and the search query
// row itself.
type HistorySearchBody struct {
	Popup    Region
	Progress Region
	Input    Region
	Search   Region
}

// Body holds exactly one of the per-mode layouts, selected by Mode.
type Body struct {
	Input         *InputBody
	Selector      *SelectorBody
	HistorySearch *HistorySearchBody
}

// UiLayout is the computed, immutable layout for one frame.
type UiLayout struct {
	Width     int
	Top       int
	ClearFrom int
	Body      Body
}

// MaxPopupHeight bounds how many rows a completer/selector popup may
// request ("at most MaxPopupHeight items").
const MaxPopupHeight = 7

// MinInputHeight is the floor for the composer's input box: two border rows
// plus at least one content row.
const MinInputHeight = 3

const statusHeight = 1
const progressHeight = 1
const searchHeight = 1

// Inputs bundles everything the layout function needs for one frame. It
// never reads terminal or component state directly — every dependency is
// passed in explicitly so the function stays pure and trivially testable.
type Inputs struct {
	Mode Mode

	TermWidth  int
	TermHeight int
	PrevTop    int

	// PopupHeight is the active completer/history-search popup's requested
	// height (already clamped to MaxPopupHeight by its owner), or 0 when no
	// popup is active.
	PopupHeight int

	// InputHeight is the composer's requested height before the
	// MinInputHeight floor is applied.
	InputHeight int

	// SelectorHeight is the full overlay height requested by the active
	// selector, used only in ModeSelector.
	SelectorHeight int
}

// Compute returns the UiLayout for one frame. It is the single source of
// truth for region placement: no other package computes these values
// independently.
func Compute(in Inputs) UiLayout {
	inputHeight := in.InputHeight
	if inputHeight < MinInputHeight {
		inputHeight = MinInputHeight
	}

	var body Body
	var regions []Region

	switch in.Mode {
	case ModeSelector:
		h := in.SelectorHeight
		if h <= 0 || h > in.TermHeight {
			h = in.TermHeight
		}
		row := in.TermHeight - h
		r := Region{Row: row, Height: h}
		body.Selector = &SelectorBody{Region: r}
		regions = []Region{r}

	case ModeHistorySearch:
		popupH := clampPopup(in.PopupHeight)
		total := popupH + progressHeight + inputHeight + searchHeight
		row := in.TermHeight - total
		popup := Region{Row: row, Height: popupH}
		progress := Region{Row: popup.end(), Height: progressHeight}
		input := Region{Row: progress.end(), Height: inputHeight}
		search := Region{Row: input.end(), Height: searchHeight}
		body.HistorySearch = &HistorySearchBody{Popup: popup, Progress: progress, Input: input, Search: search}
		regions = []Region{popup, progress, input, search}

	default: // ModeInput, ModeApproval (approval reuses the Input frame)
		popupH := clampPopup(in.PopupHeight)
		total := popupH + progressHeight + inputHeight + statusHeight
		row := in.TermHeight - total

		var ib InputBody
		cursor := row
		if popupH > 0 {
			r := Region{Row: cursor, Height: popupH}
			ib.Popup = &r
			regions = append(regions, r)
			cursor = r.end()
		}
		ib.Progress = Region{Row: cursor, Height: progressHeight}
		regions = append(regions, ib.Progress)
		cursor = ib.Progress.end()

		ib.Input = Region{Row: cursor, Height: inputHeight}
		regions = append(regions, ib.Input)
		cursor = ib.Input.end()

		ib.Status = Region{Row: cursor, Height: statusHeight}
		regions = append(regions, ib.Status)

		body.Input = &ib
	}

	top := regions[0].Row
	for _, r := range regions[1:] {
		if r.Row < top {
			top = r.Row
		}
	}
	if top < 0 {
		top = 0
	}

	clearFrom := top
	if in.PrevTop < clearFrom {
		clearFrom = in.PrevTop
	}
	if clearFrom < 0 {
		clearFrom = 0
	}

	return UiLayout{
		Width:     in.TermWidth,
		Top:       top,
		ClearFrom: clearFrom,
		Body:      body,
	}
}

func clampPopup(h int) int {
	if h <= 0 {
		return 0
	}
	if h > MaxPopupHeight {
		return MaxPopupHeight
	}
	return h
}
