package llm

import "encoding/json"

// codexSSEEvent is one decoded line of a Responses-API event stream, as used
// by ChatGPTProvider.Stream. The API multiplexes several event shapes over
// the same "type" discriminator; only the fields relevant to a given type are
// populated.
type codexSSEEvent struct {
	Type        string `json:"type"`
	Delta       string `json:"delta"`
	OutputIndex int    `json:"output_index"`

	ItemID    string `json:"item_id"`
	Arguments string `json:"arguments"`

	Item struct {
		Type             string                          `json:"type"`
		ID               string                          `json:"id"`
		CallID           string                          `json:"call_id"`
		Name             string                          `json:"name"`
		Arguments        string                          `json:"arguments"`
		EncryptedContent string                          `json:"encrypted_content"`
		Summary          []responsesReasoningSummaryPart `json:"summary"`
	} `json:"item"`

	Response struct {
		Usage struct {
			InputTokens         int `json:"input_tokens"`
			OutputTokens        int `json:"output_tokens"`
			InputTokensDetails struct {
				CachedTokens int `json:"cached_tokens"`
			} `json:"input_tokens_details"`
		} `json:"usage"`
	} `json:"response"`
}

// codexToolAccumulator collects function-call tool invocations streamed
// piecemeal across response.output_item.added/done and
// response.function_call_arguments.delta/done events, keyed by item ID, and
// preserves first-seen order for the final emitted tool calls.
type codexToolAccumulator struct {
	byID  map[string]*codexToolCallState
	order []string
}

type codexToolCallState struct {
	id   string
	name string
	args string
}

func newCodexToolAccumulator() *codexToolAccumulator {
	return &codexToolAccumulator{byID: make(map[string]*codexToolCallState)}
}

func (a *codexToolAccumulator) ensureCall(id string) {
	if id == "" {
		return
	}
	if _, ok := a.byID[id]; !ok {
		a.byID[id] = &codexToolCallState{id: id}
		a.order = append(a.order, id)
	}
}

func (a *codexToolAccumulator) setCall(call ToolCall) {
	if call.ID == "" {
		return
	}
	a.ensureCall(call.ID)
	state := a.byID[call.ID]
	if call.Name != "" {
		state.name = call.Name
	}
	if len(call.Arguments) > 0 {
		state.args = string(call.Arguments)
	}
}

func (a *codexToolAccumulator) appendArgs(id, delta string) {
	a.ensureCall(id)
	if state := a.byID[id]; state != nil {
		state.args += delta
	}
}

func (a *codexToolAccumulator) setArgs(id, args string) {
	a.ensureCall(id)
	if state := a.byID[id]; state != nil {
		state.args = args
	}
}

func (a *codexToolAccumulator) finalize() []ToolCall {
	calls := make([]ToolCall, 0, len(a.order))
	for _, id := range a.order {
		state := a.byID[id]
		if state == nil || state.name == "" {
			continue
		}
		calls = append(calls, ToolCall{
			ID:        state.id,
			Name:      state.name,
			Arguments: json.RawMessage(state.args),
		})
	}
	return calls
}
