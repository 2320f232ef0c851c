package gateway

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"zanalytics/internal/zoho"
)

// AnalyticsClient is the slice of the Zoho Analytics client the gateway
// consumes. *zoho.Client satisfies it; tests substitute a fake.
type AnalyticsClient interface {
	ListWorkspaces(ctx context.Context) (map[string]interface{}, error)
	SearchViews(ctx context.Context, workspaceID, keyword string, limit, offset int) (map[string]interface{}, error)
	ViewDetails(ctx context.Context, viewID string) (map[string]interface{}, error)
	ExportView(ctx context.Context, workspaceID, view string, limit, offset int) (map[string]interface{}, error)
	Query(ctx context.Context, workspaceID, sql string) (map[string]interface{}, error)
	Health() zoho.Health
}

// toolHandler executes a tool call and returns the decoded upstream payload.
type toolHandler func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// toolDefinition pairs an MCP tool with the human title surfaced in
// tools/list and the handler that serves calls to it.
type toolDefinition struct {
	tool    mcp.Tool
	title   string
	handler toolHandler
}

// newToolRegistry builds the five analytics tools in their wire order.
// Argument names are part of the connector contract: views use `q` for the
// search keyword and exports name the target `view`, not `view_id`.
func newToolRegistry(client AnalyticsClient) []toolDefinition {
	return []toolDefinition{
		{
			title: "List Workspaces",
			tool: mcp.Tool{
				Name:        "workspaces_v2",
				Description: "List all workspaces available to the authenticated user.",
				InputSchema: mcp.ToolInputSchema{
					Type:       "object",
					Properties: map[string]interface{}{},
				},
			},
			handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				return client.ListWorkspaces(ctx)
			},
		},
		{
			title: "Search Views",
			tool: mcp.Tool{
				Name:        "views_v2",
				Description: "Search or list views within a workspace.",
				InputSchema: mcp.ToolInputSchema{
					Type: "object",
					Properties: map[string]interface{}{
						"workspace_id": map[string]interface{}{"type": "string"},
						"q":            map[string]interface{}{"type": []string{"string", "null"}},
						"limit":        map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 2000},
						"offset":       map[string]interface{}{"type": "integer", "minimum": 0},
					},
					Required: []string{"workspace_id"},
				},
			},
			handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				workspaceID := stringArg(args, "workspace_id")
				if workspaceID == "" {
					return nil, errors.New("Missing workspace_id")
				}
				limit, err := intArg(args, "limit")
				if err != nil {
					return nil, err
				}
				offset, err := intArg(args, "offset")
				if err != nil {
					return nil, err
				}
				return client.SearchViews(ctx, workspaceID, stringArg(args, "q"), limit, offset)
			},
		},
		{
			title: "View Details",
			tool: mcp.Tool{
				Name:        "view_details_v2",
				Description: "Retrieve metadata for a specific view.",
				InputSchema: mcp.ToolInputSchema{
					Type: "object",
					Properties: map[string]interface{}{
						"workspace_id": map[string]interface{}{"type": "string"},
						"view_id":      map[string]interface{}{"type": "string"},
					},
					Required: []string{"workspace_id", "view_id"},
				},
			},
			handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				workspaceID := stringArg(args, "workspace_id")
				viewID := stringArg(args, "view_id")
				if workspaceID == "" || viewID == "" {
					return nil, errors.New("Missing workspace_id/view_id")
				}
				return client.ViewDetails(ctx, viewID)
			},
		},
		{
			title: "Export View",
			tool: mcp.Tool{
				Name:        "export_view_v2",
				Description: "Export data from a specific view.",
				InputSchema: mcp.ToolInputSchema{
					Type: "object",
					Properties: map[string]interface{}{
						"workspace_id": map[string]interface{}{"type": "string"},
						"view":         map[string]interface{}{"type": "string"},
						"limit":        map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 10000},
						"offset":       map[string]interface{}{"type": "integer", "minimum": 0},
					},
					Required: []string{"workspace_id", "view"},
				},
			},
			handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				workspaceID := stringArg(args, "workspace_id")
				view := stringArg(args, "view")
				if workspaceID == "" || view == "" {
					return nil, errors.New("Missing workspace_id/view")
				}
				limit, err := intArg(args, "limit")
				if err != nil {
					return nil, err
				}
				offset, err := intArg(args, "offset")
				if err != nil {
					return nil, err
				}
				return client.ExportView(ctx, workspaceID, view, limit, offset)
			},
		},
		{
			title: "Execute SQL",
			tool: mcp.Tool{
				Name:        "query_v2",
				Description: "Execute a SQL query against a workspace.",
				InputSchema: mcp.ToolInputSchema{
					Type: "object",
					Properties: map[string]interface{}{
						"workspace_id": map[string]interface{}{"type": "string"},
						"sql":          map[string]interface{}{"type": "string"},
					},
					Required: []string{"workspace_id", "sql"},
				},
			},
			handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				workspaceID := stringArg(args, "workspace_id")
				sql := stringArg(args, "sql")
				if workspaceID == "" || sql == "" {
					return nil, errors.New("Missing workspace_id/sql")
				}
				return client.Query(ctx, workspaceID, sql)
			},
		},
	}
}

// lookupTool finds a registered tool by name.
func (s *Server) lookupTool(name string) (toolDefinition, bool) {
	for _, def := range s.tools {
		if def.tool.Name == name {
			return def, true
		}
	}
	return toolDefinition{}, false
}

// stringArg returns the named argument when it is a string, and ""
// otherwise.
func stringArg(args map[string]interface{}, name string) string {
	if value, ok := args[name].(string); ok {
		return value
	}
	return ""
}

// intArg coerces an optional integer argument, tolerating the numeric and
// string encodings JSON clients actually send. A zero return means the
// argument was absent and the operation's own default applies.
func intArg(args map[string]interface{}, name string) (int, error) {
	raw, present := args[name]
	if !present {
		return 0, nil
	}

	switch value := raw.(type) {
	case float64:
		return int(value), nil
	case int:
		return value, nil
	case string:
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %q is not an integer", name, value)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("invalid %s: %v is not an integer", name, raw)
	}
}
