package agent

import (
	"time"

	"github.com/ion-cli/ion/internal/llm"
	"github.com/ion-cli/ion/internal/usage"
)

// Phase names the running turn's current activity for the status line.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseThinking
	PhaseStreaming
	PhaseTool
	PhaseRetrying
)

func (p Phase) String() string {
	switch p {
	case PhaseThinking:
		return "Thinking"
	case PhaseStreaming:
		return "Streaming"
	case PhaseTool:
		return "Tool"
	case PhaseRetrying:
		return "Retrying"
	default:
		return "Idle"
	}
}

// TurnState tracks the turn currently in flight. It is created when a turn
// is submitted and discarded when the turn reaches Complete, Error, or is
// cancelled; the dispatch layer reads it to drive the status line.
type TurnState struct {
	Started time.Time

	Phase       Phase
	ToolName    string // set when Phase == PhaseTool
	RetryAttempt int

	InputTokens       int
	OutputTokens      int
	CachedInputTokens int
	ToolCalls         int
	ToolElapsed       time.Duration

	Abort *AbortToken

	// Model and Provider identify the turn's pricing row for cost display;
	// populated from the request once the provider is known.
	Model    string
	Provider string
}

// NewTurnState starts a turn's bookkeeping, bound to abort.
func NewTurnState(abort *AbortToken, provider, model string) *TurnState {
	return &TurnState{
		Started:  time.Now(),
		Phase:    PhaseThinking,
		Abort:    abort,
		Model:    model,
		Provider: provider,
	}
}

// Elapsed returns how long the turn has been running.
func (t *TurnState) Elapsed() time.Duration {
	return time.Since(t.Started)
}

// ApplyUsage folds a streamed usage update into the turn's running counters.
func (t *TurnState) ApplyUsage(u *llm.Usage) {
	if u == nil {
		return
	}
	t.InputTokens += u.InputTokens
	t.OutputTokens += u.OutputTokens
	t.CachedInputTokens += u.CachedInputTokens
}

// CostUSD estimates the turn's cost so far using the shared pricing table.
// Returns 0 with no error when the model isn't in the pricing table, which
// is the common case for local/unlisted models and not worth surfacing.
func (t *TurnState) CostUSD(fetcher *usage.PricingFetcher) float64 {
	cost, err := fetcher.CalculateCost(usage.UsageEntry{
		Model:           t.Model,
		InputTokens:     t.InputTokens,
		OutputTokens:    t.OutputTokens,
		CacheReadTokens: t.CachedInputTokens,
		Provider:        t.Provider,
	})
	if err != nil {
		return 0
	}
	return cost
}
