// Package mcpapi exposes the history engine over a stateless MCP
// streamable-HTTP transport.
package mcpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/hylla/rewind/internal/domain"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// HistoryService is the engine surface the MCP tools drive.
type HistoryService interface {
	Undo(workflowID, userID string) *domain.OperationEntry
	Redo(workflowID, userID string) *domain.OperationEntry
	Clear(workflowID, userID string)
	ClearRedo(workflowID, userID string)
	StackSizes(workflowID, userID string) (undoSize, redoSize int)
	Entries(workflowID, userID string) (undo, redo []domain.OperationEntry)
	Keys() []string
	Capacity() int
	SetCapacity(n int)
	PruneInvalidEntries(workflowID, userID string, snap domain.Snapshot)
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter over the history engine.
func NewHandler(cfg Config, history HistoryService) (*Handler, error) {
	if history == nil {
		return nil, fmt.Errorf("history service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerStackTools(mcpSrv, history)
	registerMaintenanceTools(mcpSrv, history)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "rewind"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// entryView is the wire shape for one history entry.
type entryView struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	Type      string `json:"type"`
	Summary   string `json:"summary"`
}

func viewOf(entry domain.OperationEntry) entryView {
	return entryView{
		ID:        entry.ID,
		CreatedAt: entry.CreatedAt.Format(time.RFC3339),
		Type:      string(entry.Operation.Type),
		Summary:   entry.Operation.Summary(),
	}
}

func viewsOf(entries []domain.OperationEntry) []entryView {
	views := make([]entryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, viewOf(entry))
	}
	return views
}

// registerStackTools registers the per-key undo/redo/inspection tools.
func registerStackTools(srv *mcpserver.MCPServer, history HistoryService) {
	srv.AddTool(
		mcp.NewTool(
			"rewind.stack_sizes",
			mcp.WithDescription("Return undo and redo depths for one workflow/user key."),
			mcp.WithString("workflow_id", mcp.Required(), mcp.Description("Workflow identifier")),
			mcp.WithString("user_id", mcp.Required(), mcp.Description("User identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			workflowID, userID, errResult := requireKey(req)
			if errResult != nil {
				return errResult, nil
			}
			undoSize, redoSize := history.StackSizes(workflowID, userID)
			result, err := mcp.NewToolResultJSON(map[string]any{
				"undo_size": undoSize,
				"redo_size": redoSize,
			})
			if err != nil {
				return nil, fmt.Errorf("encode stack_sizes result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"rewind.undo",
			mcp.WithDescription("Pop the most recent undo entry for one key and return it. The caller applies its inverse."),
			mcp.WithString("workflow_id", mcp.Required(), mcp.Description("Workflow identifier")),
			mcp.WithString("user_id", mcp.Required(), mcp.Description("User identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			workflowID, userID, errResult := requireKey(req)
			if errResult != nil {
				return errResult, nil
			}
			entry := history.Undo(workflowID, userID)
			if entry == nil {
				result, err := mcp.NewToolResultJSON(map[string]any{"entry": nil})
				if err != nil {
					return nil, fmt.Errorf("encode undo result: %w", err)
				}
				return result, nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"entry": entry,
				"apply": entry.Inverse,
			})
			if err != nil {
				return nil, fmt.Errorf("encode undo result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"rewind.redo",
			mcp.WithDescription("Pop the most recent redo entry for one key and return it. The caller applies its forward operation."),
			mcp.WithString("workflow_id", mcp.Required(), mcp.Description("Workflow identifier")),
			mcp.WithString("user_id", mcp.Required(), mcp.Description("User identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			workflowID, userID, errResult := requireKey(req)
			if errResult != nil {
				return errResult, nil
			}
			entry := history.Redo(workflowID, userID)
			if entry == nil {
				result, err := mcp.NewToolResultJSON(map[string]any{"entry": nil})
				if err != nil {
					return nil, fmt.Errorf("encode redo result: %w", err)
				}
				return result, nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"entry": entry,
				"apply": entry.Operation,
			})
			if err != nil {
				return nil, fmt.Errorf("encode redo result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"rewind.history",
			mcp.WithDescription("List the undo and redo entries for one key, oldest first."),
			mcp.WithString("workflow_id", mcp.Required(), mcp.Description("Workflow identifier")),
			mcp.WithString("user_id", mcp.Required(), mcp.Description("User identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			workflowID, userID, errResult := requireKey(req)
			if errResult != nil {
				return errResult, nil
			}
			undo, redo := history.Entries(workflowID, userID)
			result, err := mcp.NewToolResultJSON(map[string]any{
				"undo": viewsOf(undo),
				"redo": viewsOf(redo),
			})
			if err != nil {
				return nil, fmt.Errorf("encode history result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"rewind.clear",
			mcp.WithDescription("Drop both stacks for one workflow/user key."),
			mcp.WithString("workflow_id", mcp.Required(), mcp.Description("Workflow identifier")),
			mcp.WithString("user_id", mcp.Required(), mcp.Description("User identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			workflowID, userID, errResult := requireKey(req)
			if errResult != nil {
				return errResult, nil
			}
			history.Clear(workflowID, userID)
			result, err := mcp.NewToolResultJSON(map[string]any{"cleared": true})
			if err != nil {
				return nil, fmt.Errorf("encode clear result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"rewind.clear_redo",
			mcp.WithDescription("Drop only the redo stack for one workflow/user key."),
			mcp.WithString("workflow_id", mcp.Required(), mcp.Description("Workflow identifier")),
			mcp.WithString("user_id", mcp.Required(), mcp.Description("User identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			workflowID, userID, errResult := requireKey(req)
			if errResult != nil {
				return errResult, nil
			}
			history.ClearRedo(workflowID, userID)
			result, err := mcp.NewToolResultJSON(map[string]any{"cleared": true})
			if err != nil {
				return nil, fmt.Errorf("encode clear_redo result: %w", err)
			}
			return result, nil
		},
	)
}

// registerMaintenanceTools registers engine-wide inspection and maintenance tools.
func registerMaintenanceTools(srv *mcpserver.MCPServer, history HistoryService) {
	srv.AddTool(
		mcp.NewTool(
			"rewind.keys",
			mcp.WithDescription("List resident stack keys, most recently updated first."),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			result, err := mcp.NewToolResultJSON(map[string]any{
				"keys":     history.Keys(),
				"capacity": history.Capacity(),
			})
			if err != nil {
				return nil, fmt.Errorf("encode keys result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"rewind.set_capacity",
			mcp.WithDescription("Set the per-side stack bound and truncate resident stacks."),
			mcp.WithNumber("capacity", mcp.Required(), mcp.Description("New per-side bound, must be >= 1")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			capacity := req.GetInt("capacity", 0)
			if capacity < 1 {
				return mcp.NewToolResultError("invalid_request: capacity must be >= 1"), nil
			}
			history.SetCapacity(capacity)
			result, err := mcp.NewToolResultJSON(map[string]any{"capacity": history.Capacity()})
			if err != nil {
				return nil, fmt.Errorf("encode set_capacity result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"rewind.prune",
			mcp.WithDescription("Drop entries no longer applicable against the supplied document snapshot."),
			mcp.WithString("workflow_id", mcp.Required(), mcp.Description("Workflow identifier")),
			mcp.WithString("user_id", mcp.Required(), mcp.Description("User identifier")),
			mcp.WithString("snapshot", mcp.Required(), mcp.Description(`JSON document {"blocks":[...],"edges":[...]} describing the live graph`)),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			workflowID, userID, errResult := requireKey(req)
			if errResult != nil {
				return errResult, nil
			}
			raw, err := req.RequireString("snapshot")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			var graph domain.GraphState
			if err := json.Unmarshal([]byte(raw), &graph); err != nil {
				return mcp.NewToolResultError("invalid_request: snapshot: " + err.Error()), nil
			}
			history.PruneInvalidEntries(workflowID, userID, domain.SnapshotFromGraph(graph))
			undoSize, redoSize := history.StackSizes(workflowID, userID)
			result, err := mcp.NewToolResultJSON(map[string]any{
				"undo_size": undoSize,
				"redo_size": redoSize,
			})
			if err != nil {
				return nil, fmt.Errorf("encode prune result: %w", err)
			}
			return result, nil
		},
	)
}

// requireKey extracts the mandatory workflow/user pair from one request.
func requireKey(req mcp.CallToolRequest) (workflowID, userID string, errResult *mcp.CallToolResult) {
	workflowID, err := req.RequireString("workflow_id")
	if err != nil {
		return "", "", mcp.NewToolResultError(err.Error())
	}
	userID, err = req.RequireString("user_id")
	if err != nil {
		return "", "", mcp.NewToolResultError(err.Error())
	}
	return workflowID, userID, nil
}
