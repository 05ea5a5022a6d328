// Package testutil provides small test doubles shared across package tests
// that need an llm.Tool without standing up a real one.
package testutil

import (
	"context"
	"encoding/json"

	"github.com/ion-cli/ion/internal/llm"
)

// MockTool is a configurable tool for testing.
type MockTool struct {
	SpecData    llm.ToolSpec
	ExecuteFn   func(ctx context.Context, args json.RawMessage) (llm.ToolOutput, error)
	PreviewFn   func(args json.RawMessage) string
	Invocations []MockToolInvocation
}

// MockToolInvocation records a single tool invocation.
type MockToolInvocation struct {
	Args   json.RawMessage
	Output llm.ToolOutput
	Result string // shortcut for Output.Content
	Error  error
}

// Spec implements llm.Tool.
func (m *MockTool) Spec() llm.ToolSpec {
	return m.SpecData
}

// Execute implements llm.Tool.
func (m *MockTool) Execute(ctx context.Context, args json.RawMessage) (llm.ToolOutput, error) {
	if m.ExecuteFn == nil {
		return llm.ToolOutput{}, nil
	}
	result, err := m.ExecuteFn(ctx, args)
	m.Invocations = append(m.Invocations, MockToolInvocation{
		Args:   args,
		Output: result,
		Result: result.Content,
		Error:  err,
	})
	return result, err
}

// Preview implements llm.Tool.
func (m *MockTool) Preview(args json.RawMessage) string {
	if m.PreviewFn == nil {
		return ""
	}
	return m.PreviewFn(args)
}

// NewMockTool creates a mock tool with the given name that returns a fixed result.
func NewMockTool(name string, result string) *MockTool {
	return &MockTool{
		SpecData: llm.ToolSpec{
			Name:        name,
			Description: "Mock tool: " + name,
			Schema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		ExecuteFn: func(ctx context.Context, args json.RawMessage) (llm.ToolOutput, error) {
			return llm.TextOutput(result), nil
		},
	}
}

// NewMockToolWithSchema creates a mock tool with a custom schema.
func NewMockToolWithSchema(name, description string, schema map[string]interface{}, executeFn func(ctx context.Context, args json.RawMessage) (llm.ToolOutput, error)) *MockTool {
	return &MockTool{
		SpecData: llm.ToolSpec{
			Name:        name,
			Description: description,
			Schema:      schema,
		},
		ExecuteFn: executeFn,
	}
}

// InvocationCount returns the number of times the tool was invoked.
func (m *MockTool) InvocationCount() int {
	return len(m.Invocations)
}

// LastArgs returns the arguments from the last invocation, or nil if never invoked.
func (m *MockTool) LastArgs() json.RawMessage {
	if len(m.Invocations) == 0 {
		return nil
	}
	return m.Invocations[len(m.Invocations)-1].Args
}
