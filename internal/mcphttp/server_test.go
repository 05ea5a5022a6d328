package mcphttp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"
)

func startTestServer(t *testing.T, exec ToolExecutor) (*Server, string, string) {
	t.Helper()
	srv := NewServer(exec)
	url, token, err := srv.Start(context.Background(), []ToolSpec{
		{Name: "echo", Description: "echoes input", Schema: map[string]interface{}{"type": "object"}},
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Stop(ctx)
	})
	return srv, url, token
}

func rpcCall(t *testing.T, url, token, method string, params interface{}) map[string]interface{} {
	t.Helper()
	body := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	}
	if params != nil {
		body["params"] = params
	}
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestServer_ToolsList(t *testing.T) {
	_, url, token := startTestServer(t, func(ctx context.Context, name string, args json.RawMessage) (string, error) {
		return "", nil
	})

	resp := rpcCall(t, url, token, "tools/list", nil)
	result, ok := resp["result"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected result field, got %#v", resp)
	}
	tools, ok := result["tools"].([]interface{})
	if !ok || len(tools) != 1 {
		t.Fatalf("expected one tool, got %#v", result["tools"])
	}
	first := tools[0].(map[string]interface{})
	if first["name"] != "echo" {
		t.Errorf("expected tool name echo, got %v", first["name"])
	}
}

func TestServer_ToolsCall(t *testing.T) {
	var gotName string
	var gotArgs string
	_, url, token := startTestServer(t, func(ctx context.Context, name string, args json.RawMessage) (string, error) {
		gotName = name
		gotArgs = string(args)
		return "pong", nil
	})

	resp := rpcCall(t, url, token, "tools/call", map[string]interface{}{
		"name":      "echo",
		"arguments": map[string]interface{}{"msg": "ping"},
	})

	if gotName != "echo" {
		t.Errorf("expected executor called with echo, got %q", gotName)
	}
	if !strings.Contains(gotArgs, "ping") {
		t.Errorf("expected arguments to contain ping, got %q", gotArgs)
	}

	result, ok := resp["result"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected result field, got %#v", resp)
	}
	content, ok := result["content"].([]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("expected one content entry, got %#v", result["content"])
	}
	entry := content[0].(map[string]interface{})
	if entry["text"] != "pong" {
		t.Errorf("expected text pong, got %v", entry["text"])
	}
}

func TestServer_RejectsBadToken(t *testing.T) {
	_, url, _ := startTestServer(t, func(ctx context.Context, name string, args json.RawMessage) (string, error) {
		return "", nil
	})

	body, _ := json.Marshal(map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": "tools/list"})
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer not-the-token")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}
