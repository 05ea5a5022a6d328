package picker

import (
	"context"
	"testing"
	"time"

	"github.com/ion-cli/ion/internal/config"
	"github.com/ion-cli/ion/internal/llm"
	"github.com/ion-cli/ion/internal/session"
)

func TestNewProviderSelectorMarksCurrent(t *testing.T) {
	cfg := &config.Config{
		DefaultProvider: "anthropic",
		Providers: map[string]config.ProviderConfig{
			"anthropic": {Model: "claude-sonnet-4-5"},
		},
	}
	sel := NewProviderSelector(cfg, "anthropic")

	id, ok := sel.Selected()
	_ = id
	if !ok {
		t.Fatal("expected a selectable item")
	}
	found := false
	for _, item := range sel.List.Items() {
		if item.Primary == "anthropic" && item.Icon != "" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the current provider to carry a marker icon")
	}
}

type fakeModelProvider struct {
	models []llm.ModelInfo
}

func (p *fakeModelProvider) Name() string                   { return "fake" }
func (p *fakeModelProvider) Credential() string              { return "api_key" }
func (p *fakeModelProvider) Capabilities() llm.Capabilities  { return llm.Capabilities{} }
func (p *fakeModelProvider) Stream(ctx context.Context, req llm.Request) (llm.Stream, error) {
	return nil, nil
}
func (p *fakeModelProvider) ListModels(ctx context.Context) ([]llm.ModelInfo, error) {
	return p.models, nil
}

func TestNewModelSelectorListsModels(t *testing.T) {
	provider := &fakeModelProvider{models: []llm.ModelInfo{
		{ID: "gpt-5.2", DisplayName: "GPT-5.2"},
		{ID: "gpt-5.2-mini", DisplayName: "GPT-5.2 Mini"},
	}}
	sel := NewModelSelector(context.Background(), provider, "gpt-5.2")

	if sel.List.Len() != 2 {
		t.Fatalf("len = %d, want 2", sel.List.Len())
	}
	id, ok := sel.Selected()
	if !ok || id != "gpt-5.2" {
		t.Fatalf("Selected() = %q, %v; want gpt-5.2, true", id, ok)
	}
}

type fakeSessionStore struct {
	session.NoopStore
	summaries []session.Summary
}

func (s *fakeSessionStore) List(ctx context.Context, opts session.ListOptions) ([]session.Summary, error) {
	return s.summaries, nil
}

func TestNewSessionSelectorListsSessions(t *testing.T) {
	store := &fakeSessionStore{summaries: []session.Summary{
		{ID: "abc123", Number: 1, Summary: "fix the bug", Provider: "anthropic", Model: "claude-sonnet-4-5", CreatedAt: time.Now()},
	}}

	sel, err := NewSessionSelector(context.Background(), store, session.ListOptions{})
	if err != nil {
		t.Fatalf("NewSessionSelector: %v", err)
	}
	if sel.List.Len() != 1 {
		t.Fatalf("len = %d, want 1", sel.List.Len())
	}
	id, ok := sel.Selected()
	if !ok || id != "abc123" {
		t.Fatalf("Selected() = %q, %v; want abc123, true", id, ok)
	}
}
