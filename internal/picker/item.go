// Package picker implements the full-height overlay selectors (provider,
// model, session) and the filtered list state shared by popups: a filter
// input, a scrollable item list, and fuzzy ranking via sahilm/fuzzy.
package picker

import "github.com/ion-cli/ion/internal/style"

// Item is one row in a picker or popup list: a primary label, optional
// secondary text (dimmed, shown when the style record enables it), and an
// optional icon. Row's selected argument marks the row under the cursor, not
// a persistent choice.
type Item struct {
	Primary       string
	Secondary     string
	Icon          string
	ColorOverride string // empty means use the list's default row color
}

// RowStyle controls how List renders its rows.
type RowStyle struct {
	PrimaryColor    string
	ShowSecondary   bool
	DimUnselected   bool
	SelectedReverse bool
}

// DefaultRowStyle matches the density popups use: secondary text shown,
// unselected rows dimmed, selection drawn in reverse video.
func DefaultRowStyle() RowStyle {
	return RowStyle{
		PrimaryColor:    style.FgText,
		ShowSecondary:   true,
		DimUnselected:   true,
		SelectedReverse: true,
	}
}

// Row paints one item at width columns. Padding is computed in display
// columns via style.Pad, so wide characters and icons line up correctly.
func Row(item Item, selected bool, width int, rs RowStyle) style.StyledLine {
	fg := rs.PrimaryColor
	if item.ColorOverride != "" {
		fg = item.ColorOverride
	}

	var line style.StyledLine
	if item.Icon != "" {
		line = append(line, style.StyledSpan{Text: item.Icon + " ", Fg: fg})
	}
	line = append(line, style.StyledSpan{
		Text:    item.Primary,
		Fg:      fg,
		Dim:     rs.DimUnselected && !selected,
		Reverse: rs.SelectedReverse && selected,
	})
	if rs.ShowSecondary && item.Secondary != "" {
		line = append(line, style.StyledSpan{Text: "  " + item.Secondary, Fg: style.FgMuted, Dim: true})
	}

	padded := style.Pad(line, width)
	if selected && rs.SelectedReverse {
		out := make(style.StyledLine, len(padded))
		for i, span := range padded {
			span.Reverse = true
			out[i] = span
		}
		return out
	}
	return padded
}
