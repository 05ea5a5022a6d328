package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ion-cli/ion/internal/credentials"
	"github.com/ion-cli/ion/internal/oauth"
)

const chatGPTDefaultModel = "gpt-5.2-codex"

// chatGPTResponsesURL is the ChatGPT backend's Responses-API endpoint, the
// same one the Codex CLI talks to when authenticated via ChatGPT OAuth.
const chatGPTResponsesURL = "https://chatgpt.com/backend-api/codex/responses"

// chatGPTHTTPTimeout is the timeout for ChatGPT HTTP requests
const chatGPTHTTPTimeout = 10 * time.Minute

// chatGPTHTTPClient is a shared HTTP client with reasonable timeouts
var chatGPTHTTPClient = &http.Client{
	Timeout: chatGPTHTTPTimeout,
}

// ChatGPTProvider implements Provider using the ChatGPT backend API with native OAuth.
type ChatGPTProvider struct {
	creds  *credentials.ChatGPTCredentials
	model  string
	effort string // reasoning effort: "low", "medium", "high", "xhigh", or ""
}

// NewChatGPTProvider creates a new ChatGPT provider.
// If credentials are not available or expired, it will prompt the user to authenticate.
func NewChatGPTProvider(model string) (*ChatGPTProvider, error) {
	if model == "" {
		model = chatGPTDefaultModel
	}
	actualModel, effort := parseModelEffort(model)

	// Try to load existing credentials
	creds, err := credentials.GetChatGPTCredentials()
	if err != nil {
		// No credentials - prompt user to authenticate
		creds, err = promptForChatGPTAuth()
		if err != nil {
			return nil, err
		}
	}

	// Refresh if expired
	if creds.IsExpired() {
		if err := credentials.RefreshChatGPTCredentials(creds); err != nil {
			// Refresh failed - need to re-authenticate
			fmt.Println("Token refresh failed. Re-authentication required.")
			creds, err = promptForChatGPTAuth()
			if err != nil {
				return nil, err
			}
		}
	}

	return &ChatGPTProvider{
		creds:  creds,
		model:  actualModel,
		effort: effort,
	}, nil
}

// NewChatGPTProviderWithCreds creates a ChatGPT provider with pre-loaded credentials.
// This is used by the factory when credentials are already resolved.
func NewChatGPTProviderWithCreds(creds *credentials.ChatGPTCredentials, model string) *ChatGPTProvider {
	if model == "" {
		model = chatGPTDefaultModel
	}
	actualModel, effort := parseModelEffort(model)
	return &ChatGPTProvider{
		creds:  creds,
		model:  actualModel,
		effort: effort,
	}
}

// promptForChatGPTAuth prompts the user to authenticate with ChatGPT
func promptForChatGPTAuth() (*credentials.ChatGPTCredentials, error) {
	fmt.Println("ChatGPT provider requires authentication.")
	fmt.Print("Press Enter to open browser and sign in with your ChatGPT account...")

	reader := bufio.NewReader(os.Stdin)
	reader.ReadString('\n')

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	oauthCreds, err := oauth.AuthenticateChatGPT(ctx)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	// Convert oauth credentials to stored credentials format
	creds := &credentials.ChatGPTCredentials{
		AccessToken:  oauthCreds.AccessToken,
		RefreshToken: oauthCreds.RefreshToken,
		ExpiresAt:    oauthCreds.ExpiresAt,
		AccountID:    oauthCreds.AccountID,
	}

	// Save credentials
	if err := credentials.SaveChatGPTCredentials(creds); err != nil {
		return nil, fmt.Errorf("failed to save credentials: %w", err)
	}

	fmt.Println("Authentication successful!")
	return creds, nil
}

func (p *ChatGPTProvider) Name() string {
	if p.effort != "" {
		return fmt.Sprintf("ChatGPT (%s, effort=%s)", p.model, p.effort)
	}
	return fmt.Sprintf("ChatGPT (%s)", p.model)
}

func (p *ChatGPTProvider) Credential() string {
	return "chatgpt"
}

func (p *ChatGPTProvider) Capabilities() Capabilities {
	return Capabilities{
		NativeWebSearch: true,
		NativeWebFetch:  false,
		ToolCalls:       true,
	}
}

func (p *ChatGPTProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	// Check and refresh token if needed
	if p.creds.IsExpired() {
		if err := credentials.RefreshChatGPTCredentials(p.creds); err != nil {
			return nil, fmt.Errorf("token refresh failed: %w (re-run with --provider chatgpt to re-authenticate)", err)
		}
	}

	return newEventStream(ctx, func(ctx context.Context, events chan<- Event) error {
		system, input := buildChatGPTInput(req.Messages)
		if system == "" && len(input) == 0 {
			return fmt.Errorf("no prompt content provided")
		}

		tools := []interface{}{}
		if req.Search {
			tools = append(tools, map[string]interface{}{"type": "web_search"})
		}
		for _, spec := range req.Tools {
			tools = append(tools, map[string]interface{}{
				"type":        "function",
				"name":        spec.Name,
				"description": spec.Description,
				"strict":      true,
				"parameters":  normalizeSchemaForOpenAI(spec.Schema),
			})
		}

		// Strip effort suffix from req.Model if present
		reqModel, reqEffort := parseModelEffort(req.Model)
		model := chooseModel(reqModel, p.model)
		effort := p.effort
		if effort == "" && reqEffort != "" {
			effort = reqEffort
		}

		reqBody := map[string]interface{}{
			"model":               model,
			"instructions":        system,
			"input":               input,
			"tools":               tools,
			"tool_choice":         "auto",
			"parallel_tool_calls": req.ParallelToolCalls,
			"stream":              true,
			"store":               false,
			"include":             []string{},
		}

		if effort != "" {
			reqBody["reasoning"] = map[string]interface{}{
				"effort":  effort,
				"summary": "auto",
			}
			reqBody["include"] = []string{"reasoning.encrypted_content"}
		}

		body, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}

		httpReq, err := http.NewRequestWithContext(ctx, "POST", chatGPTResponsesURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+p.creds.AccessToken)
		httpReq.Header.Set("ChatGPT-Account-ID", p.creds.AccountID)
		httpReq.Header.Set("OpenAI-Beta", "responses=experimental")
		httpReq.Header.Set("originator", "ion")
		httpReq.Header.Set("Accept", "text/event-stream")

		resp, err := chatGPTHTTPClient.Do(httpReq)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
		}

		// Stream and handle both text and tool calls (same logic as codex provider)
		acc := newCodexToolAccumulator()
		reasoningState := newResponsesReasoningState()
		var lastUsage *Usage
		buf := make([]byte, 4096)
		var pending string
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				pending += string(buf[:n])
				for {
					idx := strings.Index(pending, "\n")
					if idx < 0 {
						break
					}
					line := pending[:idx]
					pending = pending[idx+1:]
					if !strings.HasPrefix(line, "data:") {
						continue
					}
					jsonData := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
					if jsonData == "" || jsonData == "[DONE]" {
						continue
					}
					if req.DebugRaw {
						DebugRawSection(req.DebugRaw, "ChatGPT SSE Line", jsonData)
					}

					var event codexSSEEvent
					if json.Unmarshal([]byte(jsonData), &event) != nil {
						continue
					}

					switch event.Type {
					case "response.output_text.delta":
						if event.Delta != "" {
							events <- Event{Type: EventTextDelta, Text: event.Delta}
						}
					case "response.output_item.added":
						switch event.Item.Type {
						case "web_search_call":
							events <- Event{Type: EventToolExecStart, ToolName: "web_search"}
						case "function_call":
							id := event.Item.ID
							if id == "" {
								id = event.Item.CallID
							}
							call := ToolCall{
								ID:        id,
								Name:      event.Item.Name,
								Arguments: json.RawMessage(event.Item.Arguments),
							}
							acc.setCall(call)
							if event.Item.Arguments != "" {
								acc.setArgs(id, event.Item.Arguments)
							}
						case "reasoning":
							reasoningState.Start(event.OutputIndex, event.Item.ID, event.Item.EncryptedContent, event.Item.Summary)
						}
					case "response.reasoning_summary_text.delta":
						reasoningState.AppendSummary(event.OutputIndex, event.Delta)
					case "response.output_item.done":
						switch event.Item.Type {
						case "web_search_call":
							events <- Event{Type: EventToolExecEnd, ToolName: "web_search", ToolSuccess: true}
						case "function_call":
							id := event.Item.ID
							if id == "" {
								id = event.Item.CallID
							}
							call := ToolCall{
								ID:        id,
								Name:      event.Item.Name,
								Arguments: json.RawMessage(event.Item.Arguments),
							}
							acc.setCall(call)
							if event.Item.Arguments != "" {
								acc.setArgs(id, event.Item.Arguments)
							}
						case "reasoning":
							reasoningState.Finish(event.OutputIndex, event.Item.ID, event.Item.EncryptedContent, event.Item.Summary)
							if part := reasoningState.Part(event.OutputIndex); part != nil {
								events <- Event{
									Type:                      EventReasoningDelta,
									Text:                      part.ReasoningContent,
									ReasoningItemID:           part.ReasoningItemID,
									ReasoningEncryptedContent: part.ReasoningEncryptedContent,
								}
							}
						}
					case "response.function_call_arguments.delta":
						acc.ensureCall(event.ItemID)
						acc.appendArgs(event.ItemID, event.Delta)
					case "response.function_call_arguments.done":
						acc.ensureCall(event.ItemID)
						acc.setArgs(event.ItemID, event.Arguments)
					case "response.completed":
						if event.Response.Usage.OutputTokens > 0 {
							lastUsage = &Usage{
								InputTokens:       event.Response.Usage.InputTokens,
								OutputTokens:      event.Response.Usage.OutputTokens,
								CachedInputTokens: event.Response.Usage.InputTokensDetails.CachedTokens,
							}
						}
					}
				}
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return fmt.Errorf("stream read error: %w", err)
			}
		}

		// Emit any tool calls that were accumulated
		for _, call := range acc.finalize() {
			events <- Event{Type: EventToolCall, Tool: &call}
		}

		if lastUsage != nil {
			events <- Event{Type: EventUsage, Use: lastUsage}
		}
		events <- Event{Type: EventDone}
		return nil
	}), nil
}

// buildChatGPTInput converts a message history into the ChatGPT backend's
// Responses API shape, returning system instructions separately and an input
// array that skips any assistant tool call whose result never arrived (the
// backend rejects a function_call item with no matching function_call_output).
func buildChatGPTInput(messages []Message) (string, []interface{}) {
	resolved := make(map[string]bool)
	for _, msg := range messages {
		if msg.Role != RoleTool {
			continue
		}
		for _, part := range msg.Parts {
			if part.Type == PartToolResult && part.ToolResult != nil {
				resolved[strings.TrimSpace(part.ToolResult.ID)] = true
			}
		}
	}

	var system strings.Builder
	var input []interface{}

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			for _, part := range msg.Parts {
				if part.Type == PartText && part.Text != "" {
					if system.Len() > 0 {
						system.WriteString("\n")
					}
					system.WriteString(part.Text)
				}
			}
		case RoleUser:
			input = append(input, buildChatGPTUserItems(msg.Parts)...)
		case RoleAssistant:
			input = append(input, buildChatGPTAssistantItems(msg.Parts, resolved)...)
		case RoleTool:
			for _, part := range msg.Parts {
				if part.Type != PartToolResult || part.ToolResult == nil {
					continue
				}
				callID := strings.TrimSpace(part.ToolResult.ID)
				if callID == "" {
					continue
				}
				input = append(input, map[string]interface{}{
					"type":    "function_call_output",
					"call_id": callID,
					"output":  toolResultTextContent(part.ToolResult),
				})
			}
		}
	}

	return system.String(), input
}

func buildChatGPTUserItems(parts []Part) []interface{} {
	var items []interface{}
	var textBuf strings.Builder

	flushText := func() {
		if textBuf.Len() == 0 {
			return
		}
		items = append(items, map[string]interface{}{
			"type": "message",
			"role": "user",
			"content": []map[string]string{
				{"type": "input_text", "text": textBuf.String()},
			},
		})
		textBuf.Reset()
	}

	for _, part := range parts {
		switch part.Type {
		case PartText:
			if part.Text != "" {
				textBuf.WriteString(part.Text)
			}
		case PartImage:
			if part.ImageData != nil {
				flushText()
				dataURL := fmt.Sprintf("data:%s;base64,%s", part.ImageData.MediaType, part.ImageData.Base64)
				items = append(items, map[string]interface{}{
					"type": "message",
					"role": "user",
					"content": []map[string]interface{}{
						{"type": "input_image", "image_url": dataURL},
					},
				})
			}
		}
	}
	flushText()
	return items
}

func buildChatGPTAssistantItems(parts []Part, resolved map[string]bool) []interface{} {
	var items []interface{}
	var textBuf strings.Builder

	flushText := func() {
		if textBuf.Len() == 0 {
			return
		}
		items = append(items, map[string]interface{}{
			"type": "message",
			"role": "assistant",
			"content": []map[string]string{
				{"type": "output_text", "text": textBuf.String()},
			},
		})
		textBuf.Reset()
	}

	for _, part := range parts {
		switch part.Type {
		case PartText:
			if strings.TrimSpace(part.ReasoningItemID) != "" || strings.TrimSpace(part.ReasoningEncryptedContent) != "" {
				flushText()
				items = append(items, buildChatGPTReasoningItem(part))
			}
			if part.Text != "" {
				textBuf.WriteString(part.Text)
			}
		case PartToolCall:
			if part.ToolCall == nil {
				continue
			}
			callID := strings.TrimSpace(part.ToolCall.ID)
			if callID == "" || !resolved[callID] {
				continue
			}
			flushText()
			args := strings.TrimSpace(string(part.ToolCall.Arguments))
			if args == "" {
				args = "{}"
			}
			items = append(items, map[string]interface{}{
				"type":      "function_call",
				"call_id":   callID,
				"name":      part.ToolCall.Name,
				"arguments": args,
			})
		}
	}

	flushText()
	return items
}

func buildChatGPTReasoningItem(part Part) map[string]interface{} {
	summary := []map[string]string{}
	if strings.TrimSpace(part.ReasoningContent) != "" {
		summary = append(summary, map[string]string{
			"type": "summary_text",
			"text": strings.TrimSpace(part.ReasoningContent),
		})
	}
	return map[string]interface{}{
		"type":              "reasoning",
		"id":                strings.TrimSpace(part.ReasoningItemID),
		"encrypted_content": strings.TrimSpace(part.ReasoningEncryptedContent),
		"summary":           summary,
	}
}
