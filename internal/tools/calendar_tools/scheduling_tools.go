package calendar_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/calbridge/calbridge/internal/server"
	"github.com/calbridge/calbridge/internal/tools/common"
)

// RegisterSchedulingTools registers availability tools with the MCP server.
func RegisterSchedulingTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	freeBusyTool := mcp.NewTool("query_free_busy",
		mcp.WithDescription("Queries the free/busy information for a list of calendars over a time period"),
		mcp.WithArray("calendar_ids",
			mcp.Required(),
			mcp.Description("List of calendar identifiers to query"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("time_min",
			mcp.Required(),
			mcp.Description("Start of the time range (RFC3339 format)"),
		),
		mcp.WithString("time_max",
			mcp.Required(),
			mcp.Description("End of the time range (RFC3339 format)"),
		),
		mcp.WithString("user_id",
			mcp.Description("User whose credentials to use (default: 'default')"),
		),
	)

	s.AddTool(freeBusyTool, common.InstrumentedCalendarToolHandler("query_free_busy", "query_free_busy", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleQueryFreeBusy(ctx, request, sc)
		}))

	return nil
}

func handleQueryFreeBusy(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	calendarIDs := stringSlice(args["calendar_ids"])
	if len(calendarIDs) == 0 {
		return common.ValidationError("query_free_busy", "calendar_ids is required"), nil
	}
	timeMin, ok := args["time_min"].(string)
	if !ok || timeMin == "" {
		return common.ValidationError("query_free_busy", "time_min is required"), nil
	}
	timeMax, ok := args["time_max"].(string)
	if !ok || timeMax == "" {
		return common.ValidationError("query_free_busy", "time_max is required"), nil
	}

	client, err := calendarClient(ctx, sc, common.UserIDFromArgs(args))
	if err != nil {
		return common.ErrorResult("query_free_busy", err), nil
	}

	freeBusy, err := client.QueryFreeBusy(ctx, calendarIDs, timeMin, timeMax)
	if err != nil {
		return common.ErrorResult("query_free_busy", err), nil
	}

	return common.JSONResult(freeBusy)
}

// stringSlice converts a JSON array argument into a string slice, skipping
// non-string elements.
func stringSlice(arg any) []string {
	items, ok := arg.([]any)
	if !ok {
		return nil
	}

	var values []string
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			values = append(values, s)
		}
	}
	return values
}
