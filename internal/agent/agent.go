// Package agent drives one turn of conversation against an llm.Engine: it
// owns the turn's AbortToken and TurnState, translates the engine's event
// stream into phase transitions, and queues user input that arrives while a
// turn is still streaming so it can be appended at the next turn boundary
// instead of interrupting the one in flight.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ion-cli/ion/internal/llm"
)

// Orchestrator wraps an llm.Engine with the turn-level state the UI needs:
// the current TurnState, a place to queue interjected input, and a single
// entry point to start a turn and get back its event stream.
type Orchestrator struct {
	engine   *llm.Engine
	provider string
	model    string

	mu        sync.Mutex
	turn      *TurnState
	lastError error
}

// New creates an orchestrator around an already-configured engine. provider
// and model are used only for cost estimation and the status line; they do
// not affect routing (the engine's own provider owns that).
func New(engine *llm.Engine, provider, model string) *Orchestrator {
	return &Orchestrator{
		engine:   engine,
		provider: provider,
		model:    model,
	}
}

// Turn returns the state of the turn currently in flight, or nil when idle.
func (o *Orchestrator) Turn() *TurnState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.turn
}

// LastError returns the error that ended the most recent turn, if any.
func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastError
}

// Busy reports whether a turn is currently streaming.
func (o *Orchestrator) Busy() bool {
	return o.Turn() != nil
}

// SetTarget updates the provider/model used for cost estimation and the
// status line after a mid-session switch (the /provider and /model
// commands). Routing is decided by the engine's own provider regardless;
// this only keeps the display in sync with it.
func (o *Orchestrator) SetTarget(provider, model string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.provider = provider
	o.model = model
}

// Interject appends text to the pending-message queue. If a turn is
// streaming, the engine appends it after the current turn's tool results,
// before the next LLM request; if idle, callers should submit a new turn
// directly instead.
func (o *Orchestrator) Interject(text string) {
	o.engine.Interject(text)
}

// Cancel requests cancellation of the turn in flight. A no-op when idle.
func (o *Orchestrator) Cancel() {
	if t := o.Turn(); t != nil {
		t.Abort.Cancel()
	}
}

// Start submits req as a new turn and returns a channel of llm.Event plus
// the TurnState tracking it. The channel is closed when the turn reaches a
// terminal state (EventDone, EventError, or cancellation); the caller drains
// it to drive rendering. Start returns an error immediately if a turn is
// already in flight.
func (o *Orchestrator) Start(ctx context.Context, req llm.Request) (<-chan llm.Event, *TurnState, error) {
	o.mu.Lock()
	if o.turn != nil {
		o.mu.Unlock()
		return nil, nil, fmt.Errorf("agent: turn already in progress")
	}
	abort, turnCtx := NewAbortToken(ctx)
	turn := NewTurnState(abort, o.provider, chooseModel(req.Model, o.model))
	o.turn = turn
	o.lastError = nil
	o.mu.Unlock()

	stream, err := o.engine.Stream(turnCtx, req)
	if err != nil {
		o.finish(err)
		return nil, nil, err
	}

	out := make(chan llm.Event, 64)
	go o.pump(stream, turn, out)
	return out, turn, nil
}

// pump relays engine events to out, updating turn's phase as it goes, and
// closes out once the stream reaches a terminal event or the turn is
// cancelled. Recv blocks, so cancellation is only observed between events;
// the engine itself polls turnCtx at its own suspension points (stream
// reads, tool awaits) and unblocks Recv once it does.
func (o *Orchestrator) pump(stream llm.Stream, turn *TurnState, out chan<- llm.Event) {
	defer close(out)
	defer stream.Close()

	for {
		event, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				o.finish(nil)
				return
			}
			if turn.Abort.Cancelled() {
				o.finish(context.Canceled)
				return
			}
			o.finish(err)
			return
		}

		o.applyEvent(turn, event)

		select {
		case out <- event:
		case <-turn.Abort.Done():
			o.finish(context.Canceled)
			return
		}

		if event.Type == llm.EventDone {
			o.finish(nil)
			return
		}
		if event.Type == llm.EventError {
			o.finish(event.Err)
			return
		}
	}
}

func (o *Orchestrator) applyEvent(turn *TurnState, event llm.Event) {
	switch event.Type {
	case llm.EventTextDelta, llm.EventReasoningDelta:
		turn.Phase = PhaseStreaming
	case llm.EventToolExecStart:
		turn.Phase = PhaseTool
		turn.ToolName = event.ToolName
	case llm.EventToolExecEnd:
		turn.ToolCalls++
		turn.Phase = PhaseThinking
		turn.ToolName = ""
	case llm.EventRetry:
		turn.Phase = PhaseRetrying
		turn.RetryAttempt = event.RetryAttempt
	case llm.EventUsage:
		turn.ApplyUsage(event.Use)
	case llm.EventPhase:
		turn.Phase = PhaseThinking
	}
}

func (o *Orchestrator) finish(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.turn = nil
	o.lastError = err
}

func chooseModel(reqModel, fallback string) string {
	if reqModel != "" {
		return reqModel
	}
	return fallback
}
