// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/evanschultz/gantry/internal/adapters/server/common"
	"github.com/evanschultz/gantry/internal/grid"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing the gantry.* tools.
func NewHandler(cfg Config, service common.Service) (*Handler, error) {
	if service == nil {
		return nil, fmt.Errorf("mcp service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerProjectTools(mcpSrv, service)
	registerTaskTools(mcpSrv, service)
	registerTimelineTool(mcpSrv, service)
	registerLayoutTools(mcpSrv, service)

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
		cfg.ServerName = "gantry"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerProjectTools registers `gantry.list_projects`.
func registerProjectTools(srv *mcpserver.MCPServer, projects common.ProjectService) {
	srv.AddTool(
		mcp.NewTool(
			"gantry.list_projects",
			mcp.WithDescription("List projects, optionally only those one member may view."),
			mcp.WithBoolean("include_archived", mcp.Description("Include archived projects")),
			mcp.WithString("member_id", mcp.Description("Restrict to projects visible to this member")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			rows, err := projects.ListProjects(ctx, common.ListProjectsRequest{
				IncludeArchived: req.GetBool("include_archived", false),
				MemberID:        req.GetString("member_id", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"projects": rows,
			})
			if err != nil {
				return nil, fmt.Errorf("encode list_projects result: %w", err)
			}
			return result, nil
		},
	)
}

// registerTaskTools registers `gantry.list_tasks` and `gantry.bulk_update_tasks`.
func registerTaskTools(srv *mcpserver.MCPServer, tasks common.TaskService) {
	srv.AddTool(
		mcp.NewTool(
			"gantry.list_tasks",
			mcp.WithDescription("List one project's tasks through the task grid filters."),
			mcp.WithString("project_id", mcp.Required(), mcp.Description("Project identifier")),
			mcp.WithObject("filters", mcp.Description("Column key to filter value; text columns match substrings, enum columns match exactly")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args struct {
				ProjectID string            `json:"project_id"`
				Filters   map[string]string `json:"filters"`
			}
			if err := req.BindArguments(&args); err != nil {
				return invalidRequestToolResult(err), nil
			}
			if strings.TrimSpace(args.ProjectID) == "" {
				return mcp.NewToolResultError(`invalid_request: required argument "project_id" not found`), nil
			}
			rows, err := tasks.ListTasks(ctx, common.ListRecordsRequest{
				ProjectID: args.ProjectID,
				Filters:   grid.FilterMap(args.Filters),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"tasks": rows,
			})
			if err != nil {
				return nil, fmt.Errorf("encode list_tasks result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"gantry.bulk_update_tasks",
			mcp.WithDescription("Apply one set of field updates to every listed task. All tasks are validated before any is written."),
			mcp.WithArray("ids", mcp.Required(), mcp.Description("Task ids"), mcp.WithStringItems()),
			mcp.WithObject("updates", mcp.Required(), mcp.Description("Field key to new value: title, type, status, priority, assignee, start, due")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args struct {
				IDs     []string          `json:"ids"`
				Updates map[string]string `json:"updates"`
			}
			if err := req.BindArguments(&args); err != nil {
				return invalidRequestToolResult(err), nil
			}
			if len(args.IDs) == 0 {
				return mcp.NewToolResultError(`invalid_request: required argument "ids" not found`), nil
			}
			if len(args.Updates) == 0 {
				return mcp.NewToolResultError(`invalid_request: required argument "updates" not found`), nil
			}
			rows, err := tasks.BulkUpdateTasks(ctx, common.BulkUpdateRequest{
				IDs:     args.IDs,
				Updates: grid.FieldUpdates(args.Updates),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"tasks": rows,
			})
			if err != nil {
				return nil, fmt.Errorf("encode bulk_update_tasks result: %w", err)
			}
			return result, nil
		},
	)
}

// registerTimelineTool registers `gantry.timeline`.
func registerTimelineTool(srv *mcpserver.MCPServer, charts common.TimelineService) {
	srv.AddTool(
		mcp.NewTool(
			"gantry.timeline",
			mcp.WithDescription("Compute Gantt geometry for one project's tasks."),
			mcp.WithString("project_id", mcp.Required(), mcp.Description("Project identifier")),
			mcp.WithNumber("zoom", mcp.Description("Pixels per day; omitted uses the configured default")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			projectID, err := req.RequireString("project_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			chart, err := charts.Timeline(ctx, common.TimelineRequest{
				ProjectID:    projectID,
				PixelsPerDay: req.GetFloat("zoom", 0),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(chart)
			if err != nil {
				return nil, fmt.Errorf("encode timeline result: %w", err)
			}
			return result, nil
		},
	)
}

// registerLayoutTools registers `gantry.get_layout`.
func registerLayoutTools(srv *mcpserver.MCPServer, layouts common.LayoutService) {
	srv.AddTool(
		mcp.NewTool(
			"gantry.get_layout",
			mcp.WithDescription("Return the effective column layout of one grid."),
			mcp.WithString("grid_id", mcp.Required(), mcp.Description("Grid identifier"), mcp.Enum("tasks", "issues")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			gridID, err := req.RequireString("grid_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			layout, err := layouts.GetLayout(ctx, gridID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(layout)
			if err != nil {
				return nil, fmt.Errorf("encode get_layout result: %w", err)
			}
			return result, nil
		},
	)
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}

// invalidRequestToolResult wraps argument binding failures.
func invalidRequestToolResult(err error) *mcp.CallToolResult {
	if err == nil {
		return mcp.NewToolResultError("invalid_request: malformed arguments")
	}
	return mcp.NewToolResultError("invalid_request: " + err.Error())
}
