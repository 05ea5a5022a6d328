package picker

import (
	"context"
	"fmt"

	"github.com/ion-cli/ion/internal/config"
	"github.com/ion-cli/ion/internal/llm"
	"github.com/ion-cli/ion/internal/session"
	"github.com/ion-cli/ion/internal/style"
)

// Kind distinguishes the three full-height selector overlays. They share
// List and Row but differ in what populates the item set and what a
// selection means to the caller.
type Kind int

const (
	KindProvider Kind = iota
	KindModel
	KindSession
)

// Selector wraps a List with the identifiers behind each row, so a caller
// can resolve the cursor's selection back to a provider name, a model ID,
// or a session ID without re-parsing the display text.
type Selector struct {
	Kind  Kind
	Title string
	List  *List
	ids   []string
}

// NewProviderSelector lists the providers configured in cfg plus the
// built-in provider names not yet configured, current provider marked.
func NewProviderSelector(cfg *config.Config, current string) *Selector {
	seen := make(map[string]bool)
	var items []Item
	var ids []string

	addRow := func(name string, secondary string) {
		if seen[name] {
			return
		}
		seen[name] = true
		icon := ""
		if name == current {
			icon = "●"
		}
		items = append(items, Item{Primary: name, Secondary: secondary, Icon: icon})
		ids = append(ids, name)
	}

	if cfg != nil {
		for name, pc := range cfg.Providers {
			addRow(name, pc.Model)
		}
	}
	for _, name := range llm.GetBuiltInProviderNames() {
		addRow(name, "")
	}

	return &Selector{Kind: KindProvider, Title: "Select provider", List: NewList(items), ids: ids}
}

// NewModelSelector lists the models a provider reports via ListModels,
// falling back to an empty list (never an error) so a provider that can't
// enumerate models still opens an (empty, filterable-by-typing) selector.
func NewModelSelector(ctx context.Context, provider llm.Provider, current string) *Selector {
	lister, ok := provider.(interface {
		ListModels(ctx context.Context) ([]llm.ModelInfo, error)
	})
	if !ok {
		return &Selector{Kind: KindModel, Title: "Select model", List: NewList(nil)}
	}

	models, err := lister.ListModels(ctx)
	if err != nil {
		return &Selector{Kind: KindModel, Title: "Select model", List: NewList(nil)}
	}

	items := make([]Item, len(models))
	ids := make([]string, len(models))
	for i, m := range models {
		secondary := m.OwnedBy
		if m.InputLimit > 0 {
			secondary = fmt.Sprintf("%s  %dk ctx", secondary, m.InputLimit/1000)
		}
		icon := ""
		if m.ID == current {
			icon = "●"
		}
		label := m.DisplayName
		if label == "" {
			label = m.ID
		}
		items[i] = Item{Primary: label, Secondary: secondary, Icon: icon}
		ids[i] = m.ID
	}

	return &Selector{Kind: KindModel, Title: "Select model", List: NewList(items), ids: ids}
}

// NewSessionSelector lists recent sessions for the --resume picker, newest
// first (the store's List already orders that way).
func NewSessionSelector(ctx context.Context, store session.Store, opts session.ListOptions) (*Selector, error) {
	summaries, err := store.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	items := make([]Item, len(summaries))
	ids := make([]string, len(summaries))
	for i, s := range summaries {
		label := s.Summary
		if label == "" {
			label = fmt.Sprintf("session #%d", s.Number)
		}
		secondary := fmt.Sprintf("%s/%s  %d msgs  %s", s.Provider, s.Model, s.MessageCount, s.CreatedAt.Format("Jan 2 15:04"))
		items[i] = Item{Primary: label, Secondary: secondary}
		ids[i] = s.ID
	}

	return &Selector{Kind: KindSession, Title: "Resume session", List: NewList(items), ids: ids}, nil
}

// Selected resolves the cursor's item back to its identifier (provider
// name, model ID, or session ID depending on Kind).
func (s *Selector) Selected() (string, bool) {
	idx := s.List.filtered
	if s.List.cursor < 0 || s.List.cursor >= len(idx) {
		return "", false
	}
	return s.ids[idx[s.List.cursor]], true
}

// Render paints the full-height overlay: a title/filter row, the scrollable
// item list filling the rest of height, and a hint footer. Rows beyond the
// visible window scroll the cursor into view the same way popup.Render does.
func (s *Selector) Render(width, height int, rs RowStyle) []style.StyledLine {
	if height < 3 {
		height = 3
	}
	listHeight := height - 2

	header := style.StyledLine{{Text: s.Title, Fg: style.FgPrimary, Bold: true}}
	if s.List.Filter() != "" {
		header = append(header, style.StyledSpan{Text: "  /" + s.List.Filter(), Fg: style.FgMuted})
	}

	items := s.List.Items()
	cursor := s.List.Cursor()
	start := 0
	if cursor >= listHeight {
		start = cursor - listHeight + 1
	}
	end := start + listHeight
	if end > len(items) {
		end = len(items)
	}

	lines := make([]style.StyledLine, 0, height)
	lines = append(lines, style.Pad(header, width))
	for i := start; i < end; i++ {
		lines = append(lines, Row(items[i], i == cursor, width, rs))
	}
	for len(lines) < height-1 {
		lines = append(lines, style.Pad(nil, width))
	}
	footer := style.StyledLine{{Text: "↑/↓ select · enter confirm · esc cancel", Fg: style.FgMuted, Dim: true}}
	lines = append(lines, style.Pad(footer, width))
	return lines
}
