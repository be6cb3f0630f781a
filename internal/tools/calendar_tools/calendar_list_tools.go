package calendar_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/calbridge/calbridge/internal/server"
	"github.com/calbridge/calbridge/internal/tools/common"
)

// RegisterCalendarListTools registers calendar management tools with the MCP server.
func RegisterCalendarListTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listCalendarsTool := mcp.NewTool("list_calendars",
		mcp.WithDescription("Lists the calendars on the user's calendar list"),
		mcp.WithString("min_access_role",
			mcp.Description("Minimum access role ('reader', 'writer', 'owner')"),
		),
		mcp.WithString("user_id",
			mcp.Description("User whose credentials to use (default: 'default')"),
		),
	)

	s.AddTool(listCalendarsTool, common.InstrumentedCalendarToolHandler("list_calendars", "list_calendars", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListCalendars(ctx, request, sc)
		}))

	createCalendarTool := mcp.NewTool("create_calendar",
		mcp.WithDescription("Creates a new secondary calendar"),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("The title for the new calendar"),
		),
		mcp.WithString("user_id",
			mcp.Description("User whose credentials to use (default: 'default')"),
		),
	)

	s.AddTool(createCalendarTool, common.InstrumentedCalendarToolHandler("create_calendar", "create_calendar", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateCalendar(ctx, request, sc)
		}))

	return nil
}

func handleListCalendars(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	minAccessRole := ""
	if role, ok := args["min_access_role"].(string); ok {
		switch role {
		case "", "reader", "writer", "owner":
			minAccessRole = role
		default:
			return common.ValidationError("list_calendars", "min_access_role must be one of 'reader', 'writer', 'owner'"), nil
		}
	}

	client, err := calendarClient(ctx, sc, common.UserIDFromArgs(args))
	if err != nil {
		return common.ErrorResult("list_calendars", err), nil
	}

	calendars, err := client.ListCalendars(ctx, minAccessRole)
	if err != nil {
		return common.ErrorResult("list_calendars", err), nil
	}

	return common.JSONResult(map[string]any{"calendars": calendars})
}

func handleCreateCalendar(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	summary, ok := args["summary"].(string)
	if !ok || summary == "" {
		return common.ValidationError("create_calendar", "summary is required"), nil
	}

	client, err := calendarClient(ctx, sc, common.UserIDFromArgs(args))
	if err != nil {
		return common.ErrorResult("create_calendar", err), nil
	}

	created, err := client.CreateCalendar(ctx, summary)
	if err != nil {
		return common.ErrorResult("create_calendar", err), nil
	}

	return common.JSONResult(created)
}
