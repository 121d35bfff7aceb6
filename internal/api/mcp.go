package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/prompthist/prompthist/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store  *storage.Store
	Cipher Cipher // optional; if nil, save_prompt cannot encrypt
}

// NewMCPServer creates an MCP server exposing the prompt history to local
// agents over stdio.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"prompthist",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("prompthist: local history of AI prompts with full-text search and statistics."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("save_prompt",
			mcp.WithDescription("Save a prompt into the local history."),
			mcp.WithString("content", mcp.Description("The prompt text"), mcp.Required()),
			mcp.WithString("application", mcp.Description("Application the prompt belongs to (default: mcp)")),
			mcp.WithArray("tags", mcp.Description("Optional tags for categorization")),
		),
		mcpSavePrompt(deps),
	)

	s.AddTool(
		mcp.NewTool("search_prompts",
			mcp.WithDescription("Full-text search the prompt history and return matching entries."),
			mcp.WithString("query", mcp.Description("Search query"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10)")),
		),
		mcpSearchPrompts(deps),
	)

	s.AddTool(
		mcp.NewTool("prompt_stats",
			mcp.WithDescription("Return aggregate statistics about the prompt history."),
		),
		mcpPromptStats(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"prompts://recent",
			"Recent Prompts",
			mcp.WithResourceDescription("Last 10 captured prompts"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecent(deps),
	)

	return s
}

func mcpSavePrompt(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content, err := req.RequireString("content")
		if err != nil {
			return mcpError("content is required"), nil
		}

		application := req.GetString("application", "mcp")
		tags := req.GetStringSlice("tags", nil)
		if tags == nil {
			tags = []string{}
		}

		entry := storage.PromptEntry{
			ID:          uuid.New().String(),
			Content:     content,
			Application: application,
			Timestamp:   time.Now().UTC(),
			Tags:        tags,
		}
		if err := deps.Store.SavePrompt(entry); err != nil {
			return mcpError(fmt.Sprintf("failed to save: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Saved prompt %s", entry.ID)), nil
	}
}

func mcpSearchPrompts(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		limit := req.GetInt("limit", 10)
		if limit <= 0 {
			limit = 10
		}
		if limit > 100 {
			limit = 100
		}

		prompts, err := deps.Store.SearchPrompts(query, limit)
		if err != nil {
			return mcpError(fmt.Sprintf("search failed: %v", err)), nil
		}

		if len(prompts) == 0 {
			return mcpText("[]"), nil
		}
		for i := range prompts {
			decryptEntry(deps.Cipher, &prompts[i])
		}

		b, err := json.Marshal(prompts)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpPromptStats(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := deps.Store.Stats()
		if err != nil {
			return mcpError(fmt.Sprintf("failed to compute stats: %v", err)), nil
		}

		b, err := json.Marshal(stats)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal stats: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceRecent(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		prompts, err := deps.Store.GetPrompts(storage.PromptFilter{}, 10, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to list recent prompts: %w", err)
		}

		for i := range prompts {
			decryptEntry(deps.Cipher, &prompts[i])
		}

		b, err := json.Marshal(prompts)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal prompts: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
