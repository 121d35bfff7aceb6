package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/prompthist/prompthist/internal/storage"
)

func newTestMCPDeps(t *testing.T) MCPDeps {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return MCPDeps{Store: store, Cipher: xorCipher{}}
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func TestMCPSavePrompt(t *testing.T) {
	deps := newTestMCPDeps(t)
	handler := mcpSavePrompt(deps)

	result, err := handler(context.Background(), makeCallToolRequest("save_prompt", map[string]interface{}{
		"content": "summarize this design doc",
		"tags":    []interface{}{"work"},
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool errored: %s", toolText(t, result))
	}
	if !strings.HasPrefix(toolText(t, result), "Saved prompt ") {
		t.Errorf("unexpected text: %q", toolText(t, result))
	}

	prompts, err := deps.Store.GetPrompts(storage.PromptFilter{}, 0, 0)
	if err != nil {
		t.Fatalf("GetPrompts: %v", err)
	}
	if len(prompts) != 1 {
		t.Fatalf("stored %d prompts, want 1", len(prompts))
	}
	if prompts[0].Application != "mcp" {
		t.Errorf("application = %q, want mcp default", prompts[0].Application)
	}
	if len(prompts[0].Tags) != 1 || prompts[0].Tags[0] != "work" {
		t.Errorf("tags = %v", prompts[0].Tags)
	}
}

func TestMCPSavePrompt_MissingContent(t *testing.T) {
	handler := mcpSavePrompt(newTestMCPDeps(t))

	result, err := handler(context.Background(), makeCallToolRequest("save_prompt", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !result.IsError {
		t.Error("expected tool error for missing content")
	}
}

func TestMCPSearchPrompts(t *testing.T) {
	deps := newTestMCPDeps(t)
	deps.Store.SavePrompt(storage.PromptEntry{
		ID: "p1", Content: "refactor the billing module", Application: "Claude",
		Timestamp: time.Now().UTC(), Tags: []string{},
	})
	handler := mcpSearchPrompts(deps)

	result, err := handler(context.Background(), makeCallToolRequest("search_prompts", map[string]interface{}{
		"query": "billing",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool errored: %s", toolText(t, result))
	}

	var prompts []storage.PromptEntry
	if err := json.Unmarshal([]byte(toolText(t, result)), &prompts); err != nil {
		t.Fatalf("decoding results: %v", err)
	}
	if len(prompts) != 1 || prompts[0].ID != "p1" {
		t.Errorf("results = %v", prompts)
	}
}

func TestMCPSearchPrompts_NoMatches(t *testing.T) {
	handler := mcpSearchPrompts(newTestMCPDeps(t))

	result, err := handler(context.Background(), makeCallToolRequest("search_prompts", map[string]interface{}{
		"query": "nothing",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if got := toolText(t, result); got != "[]" {
		t.Errorf("text = %q, want []", got)
	}
}

func TestMCPPromptStats(t *testing.T) {
	deps := newTestMCPDeps(t)
	deps.Store.SavePrompt(storage.PromptEntry{
		ID: "p1", Content: "a counted prompt", Application: "ChatGPT",
		Timestamp: time.Now().UTC(), Tags: []string{},
	})
	handler := mcpPromptStats(deps)

	result, err := handler(context.Background(), makeCallToolRequest("prompt_stats", nil))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	var stats storage.PromptStats
	if err := json.Unmarshal([]byte(toolText(t, result)), &stats); err != nil {
		t.Fatalf("decoding stats: %v", err)
	}
	if stats.TotalPrompts != 1 {
		t.Errorf("total = %d, want 1", stats.TotalPrompts)
	}
}

func TestMCPResourceRecent(t *testing.T) {
	deps := newTestMCPDeps(t)
	deps.Store.SavePrompt(storage.PromptEntry{
		ID: "p1", Content: "sealed:hidden note", Application: "clipboard",
		Timestamp: time.Now().UTC(), Tags: []string{}, IsEncrypted: true,
	})
	handler := mcpResourceRecent(deps)

	contents, err := handler(context.Background(), mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{URI: "prompts://recent"},
	})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}

	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}
	var prompts []storage.PromptEntry
	if err := json.Unmarshal([]byte(text.Text), &prompts); err != nil {
		t.Fatalf("decoding resource: %v", err)
	}
	if len(prompts) != 1 {
		t.Fatalf("got %d prompts, want 1", len(prompts))
	}
	// Encrypted rows are decrypted on the way out.
	if prompts[0].Content != "hidden note" {
		t.Errorf("content = %q, want decrypted plaintext", prompts[0].Content)
	}
}
