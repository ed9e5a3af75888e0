package mcpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hylla/rewind/internal/domain"
	"github.com/hylla/rewind/internal/history"
)

// jsonRPCResponse models minimal JSON-RPC response fields used in MCP adapter tests.
type jsonRPCResponse struct {
	ID     float64        `json:"id"`
	Result map[string]any `json:"result"`
}

// callToolRequest constructs one deterministic tools/call JSON-RPC request payload.
func callToolRequest(id int, toolName string, arguments map[string]any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      toolName,
			"arguments": arguments,
		},
	}
}

// toolResultStructured decodes structuredContent as one map for stable assertions.
func toolResultStructured(t *testing.T, result map[string]any) map[string]any {
	t.Helper()
	structured, ok := result["structuredContent"].(map[string]any)
	if !ok {
		t.Fatalf("structuredContent missing in tool result: %#v", result)
	}
	return structured
}

// toolResultText decodes the first text entry from one tool-call result payload.
func toolResultText(t *testing.T, result map[string]any) string {
	t.Helper()

	contentRaw, ok := result["content"].([]any)
	if !ok || len(contentRaw) == 0 {
		t.Fatalf("content missing in tool result: %#v", result)
	}
	first, ok := contentRaw[0].(map[string]any)
	if !ok {
		t.Fatalf("first content entry has unexpected type: %#v", contentRaw[0])
	}
	text, ok := first["text"].(string)
	if !ok {
		t.Fatalf("content text missing in tool result: %#v", first)
	}
	return text
}

// postJSONRPC sends one JSON-RPC payload and decodes the response body.
func postJSONRPC(t *testing.T, client *http.Client, url string, payload any) (*http.Response, jsonRPCResponse) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	var decoded jsonRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if err := resp.Body.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return resp, decoded
}

// initializeRequest builds a deterministic MCP initialize request payload.
func initializeRequest() map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]any{
			"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
			"clientInfo": map[string]any{
				"name":    "rewind-test",
				"version": "1.0.0",
			},
		},
	}
}

// seededEngine builds an engine holding one add-block entry for wf-1/user-1.
func seededEngine(t *testing.T) *history.Engine {
	t.Helper()
	eng := history.New(nil)
	block := domain.BlockState{ID: "b1", Kind: "agent"}
	eng.Push("wf-1", "user-1", domain.OperationEntry{
		ID: "entry-1",
		Operation: domain.Operation{
			Type:       domain.OpAddBlock,
			WorkflowID: "wf-1",
			UserID:     "user-1",
			Data:       domain.OperationData{Blocks: []domain.BlockState{block}},
		},
		Inverse: domain.Operation{
			Type:       domain.OpRemoveBlock,
			WorkflowID: "wf-1",
			UserID:     "user-1",
			Data:       domain.OperationData{Blocks: []domain.BlockState{block}},
		},
	})
	return eng
}

// newTestServer builds one MCP test server over a fresh handler.
func newTestServer(t *testing.T, eng *history.Engine) *httptest.Server {
	t.Helper()
	handler, err := NewHandler(Config{}, eng)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	_, _ = postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	return server
}

// TestHandlerUsesStatelessTransport verifies MCP transport does not issue session ids.
func TestHandlerUsesStatelessTransport(t *testing.T) {
	handler, err := NewHandler(Config{}, history.New(nil))
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}

	server := httptest.NewServer(handler)
	defer server.Close()

	resp, decoded := postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if decoded.ID != 1 {
		t.Fatalf("id = %v, want 1", decoded.ID)
	}
	if got := resp.Header.Get("Mcp-Session-Id"); got != "" {
		t.Fatalf("Mcp-Session-Id header = %q, want empty (stateless transport)", got)
	}
}

// TestHandlerRequiresHistoryService verifies constructor validation.
func TestHandlerRequiresHistoryService(t *testing.T) {
	if _, err := NewHandler(Config{}, nil); err == nil {
		t.Fatal("NewHandler() expected error for nil history service")
	}
}

// TestHandlerRegistersHistoryTools verifies MCP tool discovery.
func TestHandlerRegistersHistoryTools(t *testing.T) {
	server := newTestServer(t, history.New(nil))

	_, toolsResp := postJSONRPC(t, server.Client(), server.URL, map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "tools/list",
	})
	toolsRaw, ok := toolsResp.Result["tools"].([]any)
	if !ok {
		t.Fatalf("tools list payload missing tools: %#v", toolsResp.Result)
	}
	toolNames := make([]string, 0, len(toolsRaw))
	for _, toolRaw := range toolsRaw {
		toolMap, ok := toolRaw.(map[string]any)
		if !ok {
			continue
		}
		if name, ok := toolMap["name"].(string); ok {
			toolNames = append(toolNames, name)
		}
	}

	for _, want := range []string{
		"rewind.stack_sizes",
		"rewind.undo",
		"rewind.redo",
		"rewind.history",
		"rewind.clear",
		"rewind.clear_redo",
		"rewind.keys",
		"rewind.set_capacity",
		"rewind.prune",
	} {
		if !slices.Contains(toolNames, want) {
			t.Fatalf("tool %s not registered, got %v", want, toolNames)
		}
	}
}

// TestStackSizesTool verifies the depth inspection tool.
func TestStackSizesTool(t *testing.T) {
	server := newTestServer(t, seededEngine(t))

	_, resp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(2, "rewind.stack_sizes", map[string]any{
		"workflow_id": "wf-1",
		"user_id":     "user-1",
	}))
	structured := toolResultStructured(t, resp.Result)
	if got := structured["undo_size"].(float64); got != 1 {
		t.Fatalf("undo_size = %v, want 1", got)
	}
	if got := structured["redo_size"].(float64); got != 0 {
		t.Fatalf("redo_size = %v, want 0", got)
	}
}

// TestUndoToolPopsEntry verifies undo moves the entry and returns the inverse to apply.
func TestUndoToolPopsEntry(t *testing.T) {
	eng := seededEngine(t)
	server := newTestServer(t, eng)

	_, resp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(2, "rewind.undo", map[string]any{
		"workflow_id": "wf-1",
		"user_id":     "user-1",
	}))
	structured := toolResultStructured(t, resp.Result)
	apply, ok := structured["apply"].(map[string]any)
	if !ok {
		t.Fatalf("apply missing in undo result: %#v", structured)
	}
	if apply["type"] != string(domain.OpRemoveBlock) {
		t.Fatalf("apply type = %v, want %s", apply["type"], domain.OpRemoveBlock)
	}
	if undoSize, redoSize := eng.StackSizes("wf-1", "user-1"); undoSize != 0 || redoSize != 1 {
		t.Fatalf("sizes after undo = %d, %d, want 0, 1", undoSize, redoSize)
	}

	// Second undo on an empty stack reports a nil entry, not an error.
	_, resp = postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "rewind.undo", map[string]any{
		"workflow_id": "wf-1",
		"user_id":     "user-1",
	}))
	structured = toolResultStructured(t, resp.Result)
	if structured["entry"] != nil {
		t.Fatalf("entry = %#v, want nil", structured["entry"])
	}
}

// TestSetCapacityToolRejectsInvalid verifies tool-level validation.
func TestSetCapacityToolRejectsInvalid(t *testing.T) {
	server := newTestServer(t, history.New(nil))

	_, resp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(2, "rewind.set_capacity", map[string]any{
		"capacity": 0,
	}))
	text := toolResultText(t, resp.Result)
	if !strings.Contains(text, "invalid_request") {
		t.Fatalf("expected invalid_request error, got %q", text)
	}
}

// TestPruneToolDropsInapplicableEntries verifies snapshot-driven pruning over MCP.
func TestPruneToolDropsInapplicableEntries(t *testing.T) {
	eng := seededEngine(t)
	server := newTestServer(t, eng)

	// The inverse (remove b1) needs b1 present; an empty graph invalidates it.
	_, resp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(2, "rewind.prune", map[string]any{
		"workflow_id": "wf-1",
		"user_id":     "user-1",
		"snapshot":    `{"blocks":[],"edges":[]}`,
	}))
	structured := toolResultStructured(t, resp.Result)
	if got := structured["undo_size"].(float64); got != 0 {
		t.Fatalf("undo_size after prune = %v, want 0", got)
	}
}
