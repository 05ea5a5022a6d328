package popup

import (
	"testing"

	"github.com/ion-cli/ion/internal/picker"
)

func TestNewAppliesInitialFilter(t *testing.T) {
	items := []picker.Item{{Primary: "/model"}, {Primary: "/mcp"}, {Primary: "/compact"}}
	p := New(KindCommand, items, "mo")
	if p.List.Len() != 1 {
		t.Fatalf("len = %d, want 1 (only /model matches 'mo')", p.List.Len())
	}
}

func TestHeightCapsAtMax(t *testing.T) {
	items := make([]picker.Item, 20)
	for i := range items {
		items[i] = picker.Item{Primary: "x"}
	}
	p := New(KindFile, items, "")
	if h := p.Height(7); h != 7 {
		t.Fatalf("height = %d, want 7", h)
	}
}

func TestAcceptReturnsSelectedPrimary(t *testing.T) {
	items := []picker.Item{{Primary: "/model"}, {Primary: "/mcp"}}
	p := New(KindCommand, items, "")
	p.List.MoveDown()

	got, ok := p.Accept()
	if !ok || got != "/mcp" {
		t.Fatalf("Accept() = %q, %v; want /mcp, true", got, ok)
	}
}

func TestRenderScrollsToKeepCursorVisible(t *testing.T) {
	items := make([]picker.Item, 10)
	for i := range items {
		items[i] = picker.Item{Primary: "x"}
	}
	p := New(KindFile, items, "")
	for i := 0; i < 6; i++ {
		p.List.MoveDown()
	}

	lines := p.Render(20, 3, picker.DefaultRowStyle())
	if len(lines) != 3 {
		t.Fatalf("rendered %d lines, want 3", len(lines))
	}
}
