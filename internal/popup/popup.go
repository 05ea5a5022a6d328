// Package popup implements the completion overlays anchored above the
// input box: slash commands, @-file attachment, //-skill invocation, and
// Ctrl+R history search. All four share picker.List for ranking and
// picker.Row for painting; this package only supplies what differs between
// them — the trigger character, the item source, and what "accept" means.
package popup

import (
	"strings"

	"github.com/ion-cli/ion/internal/picker"
	"github.com/ion-cli/ion/internal/skills"
	"github.com/ion-cli/ion/internal/style"
)

// Kind identifies which completer is driving the popup.
type Kind int

const (
	KindCommand Kind = iota
	KindFile
	KindSkill
	KindHistory
)

// Popup is the active completion overlay: which kind triggered it, the
// ranked item list behind it, and the raw query text typed after the
// trigger character. It exists only while Mode == Input and the trigger is
// still matched at the cursor; the composer destroys it on dismissal,
// Escape, or a mode change.
type Popup struct {
	Kind  Kind
	List  *picker.List
	query string
}

// New starts a popup of the given kind over items, with the query already
// applied as the initial filter.
func New(kind Kind, items []picker.Item, query string) *Popup {
	p := &Popup{Kind: kind, List: picker.NewList(items), query: query}
	p.List.SetFilter(query)
	return p
}

// SetQuery re-filters the popup's list as the user keeps typing.
func (p *Popup) SetQuery(query string) {
	p.query = query
	p.List.SetFilter(query)
}

func (p *Popup) Query() string { return p.query }

// Height returns the row count to reserve in the layout, capped at max
// (layout.MaxPopupHeight for ordinary popups).
func (p *Popup) Height(max int) int {
	return p.List.Height(max)
}

// Render paints the popup's visible rows (at most height) as StyledLines,
// the cursor's row is drawn selected.
func (p *Popup) Render(width, height int, rs picker.RowStyle) []style.StyledLine {
	items := p.List.Items()
	cursor := p.List.Cursor()

	start := 0
	if cursor >= height {
		start = cursor - height + 1
	}
	end := start + height
	if end > len(items) {
		end = len(items)
	}

	lines := make([]style.StyledLine, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, picker.Row(items[i], i == cursor, width, rs))
	}
	return lines
}

// Accept returns the primary text of the item under the cursor, the form
// that replaces the trigger span in the composer buffer.
func (p *Popup) Accept() (string, bool) {
	item, ok := p.List.Selected()
	if !ok {
		return "", false
	}
	return item.Primary, true
}

// CommandItems adapts a flat command list (name, aliases, description) into
// popup items for the "/" trigger. Aliases aren't shown as separate rows;
// FilterCommands-equivalent matching happens against Primary (the command
// name) via picker.List's fuzzy ranking.
func CommandItems(names []string, descriptions map[string]string) []picker.Item {
	items := make([]picker.Item, len(names))
	for i, name := range names {
		items[i] = picker.Item{Primary: "/" + name, Secondary: descriptions[name]}
	}
	return items
}

// SkillItems adapts the skill registry into popup items for the "//"
// trigger.
func SkillItems(list []*skills.Skill) []picker.Item {
	items := make([]picker.Item, len(list))
	for i, s := range list {
		items[i] = picker.Item{Primary: "//" + s.Name, Secondary: s.Description}
	}
	return items
}

// FileItems adapts a directory listing into popup items for the "@"
// trigger. Directories get a trailing slash so the user can tell at a
// glance which entries need another Tab to descend into.
func FileItems(entries []FileEntry) []picker.Item {
	items := make([]picker.Item, len(entries))
	for i, e := range entries {
		label := e.RelPath
		icon := ""
		if e.IsDir {
			icon = "\U0001F4C1"
			if !strings.HasSuffix(label, "/") {
				label += "/"
			}
		}
		items[i] = picker.Item{Primary: label, Icon: icon}
	}
	return items
}

// FileEntry is the minimal shape FileItems needs; internal/input's
// directory walker produces these.
type FileEntry struct {
	RelPath string
	IsDir   bool
}

// HistoryItems adapts a composer.History search result into popup items
// for Ctrl+R reverse search.
func HistoryItems(entries []string) []picker.Item {
	items := make([]picker.Item, len(entries))
	for i, e := range entries {
		items[i] = picker.Item{Primary: e}
	}
	return items
}
