package agent

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/ion-cli/ion/internal/llm"
)

type fakeProvider struct {
	events []llm.Event
}

func (p *fakeProvider) Name() string                      { return "fake" }
func (p *fakeProvider) Credential() string                { return "none" }
func (p *fakeProvider) Capabilities() llm.Capabilities     { return llm.Capabilities{} }
func (p *fakeProvider) Stream(ctx context.Context, req llm.Request) (llm.Stream, error) {
	ch := make(chan llm.Event, len(p.events))
	for _, e := range p.events {
		ch <- e
	}
	close(ch)
	return &fakeStream{ch: ch}, nil
}

type fakeStream struct {
	ch chan llm.Event
}

func (s *fakeStream) Recv() (llm.Event, error) {
	event, ok := <-s.ch
	if !ok {
		return llm.Event{}, io.EOF
	}
	return event, nil
}

func (s *fakeStream) Close() error { return nil }

func TestOrchestrator_RunsTurnToCompletion(t *testing.T) {
	provider := &fakeProvider{events: []llm.Event{
		{Type: llm.EventTextDelta, Text: "hi"},
		{Type: llm.EventUsage, Use: &llm.Usage{InputTokens: 10, OutputTokens: 5}},
		{Type: llm.EventDone},
	}}
	engine := llm.NewEngine(provider, llm.NewToolRegistry())
	orch := New(engine, "fake", "fake-model")

	events, turn, err := orch.Start(context.Background(), llm.Request{
		Messages: []llm.Message{llm.UserText("hello")},
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if turn.Phase != PhaseThinking {
		t.Errorf("expected initial phase Thinking, got %v", turn.Phase)
	}

	var gotText bool
	for e := range events {
		if e.Type == llm.EventTextDelta {
			gotText = true
		}
	}
	if !gotText {
		t.Error("expected to receive the text delta event")
	}
	if turn.OutputTokens != 5 {
		t.Errorf("expected usage to be folded into turn state, got %d output tokens", turn.OutputTokens)
	}

	select {
	case <-time.After(time.Second):
		t.Fatal("orchestrator never went idle after EventDone")
	default:
	}
	if orch.Busy() {
		t.Error("expected orchestrator to be idle after the turn completed")
	}
}

func TestOrchestrator_RejectsConcurrentTurns(t *testing.T) {
	provider := &fakeProvider{events: []llm.Event{}}
	engine := llm.NewEngine(provider, llm.NewToolRegistry())
	orch := New(engine, "fake", "fake-model")

	abort, _ := NewAbortToken(context.Background())
	orch.mu.Lock()
	orch.turn = NewTurnState(abort, "fake", "fake-model")
	orch.mu.Unlock()

	_, _, err := orch.Start(context.Background(), llm.Request{})
	if err == nil {
		t.Fatal("expected an error starting a second concurrent turn")
	}
}

func TestAbortToken_CancelIsIdempotent(t *testing.T) {
	token, ctx := NewAbortToken(context.Background())
	token.Cancel()
	token.Cancel()

	if !token.Cancelled() {
		t.Error("expected token to report cancelled")
	}
	select {
	case <-ctx.Done():
	default:
		t.Error("expected derived context to be done after Cancel")
	}
}
