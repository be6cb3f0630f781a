package calendar_tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/calbridge/calbridge/internal/calendar"
	"github.com/calbridge/calbridge/internal/server"
	"github.com/calbridge/calbridge/internal/tools/common"
)

// RegisterEventTools registers event-related tools with the MCP server.
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	findEventsTool := mcp.NewTool("find_events",
		mcp.WithDescription("Find events in a specified calendar"),
		mcp.WithString("calendar_id",
			mcp.Required(),
			mcp.Description("Calendar identifier (e.g., 'primary', email address, or calendar ID)"),
		),
		mcp.WithString("time_min",
			mcp.Description("Start time (inclusive, RFC3339 format, e.g., '2026-01-01T00:00:00Z')"),
		),
		mcp.WithString("time_max",
			mcp.Description("End time (exclusive, RFC3339 format)"),
		),
		mcp.WithString("query",
			mcp.Description("Free text search query"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of events to return (default: 50)"),
		),
		mcp.WithString("user_id",
			mcp.Description("User whose credentials to use (default: 'default')"),
		),
	)

	s.AddTool(findEventsTool, common.InstrumentedCalendarToolHandler("find_events", "find_events", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleFindEvents(ctx, request, sc)
		}))

	createEventTool := mcp.NewTool("create_event",
		mcp.WithDescription("Creates a new event with detailed information"),
		mcp.WithString("calendar_id",
			mcp.Required(),
			mcp.Description("Calendar identifier"),
		),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Title of the event"),
		),
		mcp.WithString("start_time",
			mcp.Required(),
			mcp.Description("Start time in RFC3339 format"),
		),
		mcp.WithString("end_time",
			mcp.Required(),
			mcp.Description("End time in RFC3339 format"),
		),
		mcp.WithString("description",
			mcp.Description("Optional description for the event"),
		),
		mcp.WithString("location",
			mcp.Description("Optional location for the event"),
		),
		mcp.WithString("attendee_emails",
			mcp.Description("Optional comma-separated list of attendee email addresses"),
		),
		mcp.WithString("user_id",
			mcp.Description("User whose credentials to use (default: 'default')"),
		),
	)

	s.AddTool(createEventTool, common.InstrumentedCalendarToolHandler("create_event", "create_event", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateEvent(ctx, request, sc)
		}))

	quickAddTool := mcp.NewTool("quick_add_event",
		mcp.WithDescription("Creates an event based on a simple text string using Google's natural language parser"),
		mcp.WithString("calendar_id",
			mcp.Required(),
			mcp.Description("Calendar identifier"),
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The text description of the event (e.g., 'Lunch with Anna tomorrow at noon')"),
		),
		mcp.WithString("user_id",
			mcp.Description("User whose credentials to use (default: 'default')"),
		),
	)

	s.AddTool(quickAddTool, common.InstrumentedCalendarToolHandler("quick_add_event", "quick_add_event", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleQuickAddEvent(ctx, request, sc)
		}))

	updateEventTool := mcp.NewTool("update_event",
		mcp.WithDescription("Updates an existing event"),
		mcp.WithString("calendar_id",
			mcp.Required(),
			mcp.Description("Calendar identifier"),
		),
		mcp.WithString("event_id",
			mcp.Required(),
			mcp.Description("Event identifier"),
		),
		mcp.WithString("summary",
			mcp.Description("New title for the event"),
		),
		mcp.WithString("start_time",
			mcp.Description("New start time in RFC3339 format"),
		),
		mcp.WithString("end_time",
			mcp.Description("New end time in RFC3339 format"),
		),
		mcp.WithString("description",
			mcp.Description("New description for the event"),
		),
		mcp.WithString("location",
			mcp.Description("New location for the event"),
		),
		mcp.WithString("user_id",
			mcp.Description("User whose credentials to use (default: 'default')"),
		),
	)

	s.AddTool(updateEventTool, common.InstrumentedCalendarToolHandler("update_event", "update_event", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateEvent(ctx, request, sc)
		}))

	deleteEventTool := mcp.NewTool("delete_event",
		mcp.WithDescription("Deletes an event"),
		mcp.WithString("calendar_id",
			mcp.Required(),
			mcp.Description("Calendar identifier"),
		),
		mcp.WithString("event_id",
			mcp.Required(),
			mcp.Description("Event identifier"),
		),
		mcp.WithString("user_id",
			mcp.Description("User whose credentials to use (default: 'default')"),
		),
	)

	s.AddTool(deleteEventTool, common.InstrumentedCalendarToolHandler("delete_event", "delete_event", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteEvent(ctx, request, sc)
		}))

	return nil
}

func handleFindEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	calendarID, ok := args["calendar_id"].(string)
	if !ok || calendarID == "" {
		return common.ValidationError("find_events", "calendar_id is required"), nil
	}

	params := calendar.FindEventsParams{CalendarID: calendarID}
	if timeMin, ok := args["time_min"].(string); ok {
		params.TimeMin = timeMin
	}
	if timeMax, ok := args["time_max"].(string); ok {
		params.TimeMax = timeMax
	}
	if query, ok := args["query"].(string); ok {
		params.Query = query
	}
	if maxResults, ok := args["max_results"].(float64); ok {
		params.MaxResults = int64(maxResults)
	}

	client, err := calendarClient(ctx, sc, common.UserIDFromArgs(args))
	if err != nil {
		return common.ErrorResult("find_events", err), nil
	}

	events, err := client.FindEvents(ctx, params)
	if err != nil {
		return common.ErrorResult("find_events", err), nil
	}

	return common.JSONResult(map[string]any{"events": events})
}

func handleCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	calendarID, ok := args["calendar_id"].(string)
	if !ok || calendarID == "" {
		return common.ValidationError("create_event", "calendar_id is required"), nil
	}
	summary, ok := args["summary"].(string)
	if !ok || summary == "" {
		return common.ValidationError("create_event", "summary is required"), nil
	}
	startTime, ok := args["start_time"].(string)
	if !ok || startTime == "" {
		return common.ValidationError("create_event", "start_time is required"), nil
	}
	endTime, ok := args["end_time"].(string)
	if !ok || endTime == "" {
		return common.ValidationError("create_event", "end_time is required"), nil
	}

	params := calendar.CreateEventParams{
		CalendarID: calendarID,
		Summary:    summary,
		StartTime:  startTime,
		EndTime:    endTime,
	}
	if description, ok := args["description"].(string); ok {
		params.Description = description
	}
	if location, ok := args["location"].(string); ok {
		params.Location = location
	}
	params.AttendeeEmails = splitEmails(args["attendee_emails"])

	client, err := calendarClient(ctx, sc, common.UserIDFromArgs(args))
	if err != nil {
		return common.ErrorResult("create_event", err), nil
	}

	created, err := client.CreateEvent(ctx, params)
	if err != nil {
		return common.ErrorResult("create_event", err), nil
	}

	return common.JSONResult(created)
}

func handleQuickAddEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	calendarID, ok := args["calendar_id"].(string)
	if !ok || calendarID == "" {
		return common.ValidationError("quick_add_event", "calendar_id is required"), nil
	}
	text, ok := args["text"].(string)
	if !ok || text == "" {
		return common.ValidationError("quick_add_event", "text is required"), nil
	}

	client, err := calendarClient(ctx, sc, common.UserIDFromArgs(args))
	if err != nil {
		return common.ErrorResult("quick_add_event", err), nil
	}

	created, err := client.QuickAdd(ctx, calendarID, text)
	if err != nil {
		return common.ErrorResult("quick_add_event", err), nil
	}

	return common.JSONResult(created)
}

func handleUpdateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	calendarID, ok := args["calendar_id"].(string)
	if !ok || calendarID == "" {
		return common.ValidationError("update_event", "calendar_id is required"), nil
	}
	eventID, ok := args["event_id"].(string)
	if !ok || eventID == "" {
		return common.ValidationError("update_event", "event_id is required"), nil
	}

	params := calendar.UpdateEventParams{
		CalendarID: calendarID,
		EventID:    eventID,
	}
	if summary, ok := args["summary"].(string); ok {
		params.Summary = summary
	}
	if startTime, ok := args["start_time"].(string); ok {
		params.StartTime = startTime
	}
	if endTime, ok := args["end_time"].(string); ok {
		params.EndTime = endTime
	}
	if description, ok := args["description"].(string); ok {
		params.Description = description
	}
	if location, ok := args["location"].(string); ok {
		params.Location = location
	}

	client, err := calendarClient(ctx, sc, common.UserIDFromArgs(args))
	if err != nil {
		return common.ErrorResult("update_event", err), nil
	}

	updated, err := client.UpdateEvent(ctx, params)
	if err != nil {
		return common.ErrorResult("update_event", err), nil
	}

	return common.JSONResult(updated)
}

func handleDeleteEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	calendarID, ok := args["calendar_id"].(string)
	if !ok || calendarID == "" {
		return common.ValidationError("delete_event", "calendar_id is required"), nil
	}
	eventID, ok := args["event_id"].(string)
	if !ok || eventID == "" {
		return common.ValidationError("delete_event", "event_id is required"), nil
	}

	client, err := calendarClient(ctx, sc, common.UserIDFromArgs(args))
	if err != nil {
		return common.ErrorResult("delete_event", err), nil
	}

	if err := client.DeleteEvent(ctx, calendarID, eventID); err != nil {
		return common.ErrorResult("delete_event", err), nil
	}

	return common.JSONResult(map[string]string{"success": "Event successfully deleted"})
}

// splitEmails parses a comma-separated attendee list argument.
func splitEmails(arg any) []string {
	raw, ok := arg.(string)
	if !ok || raw == "" {
		return nil
	}

	var emails []string
	for _, email := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(email); trimmed != "" {
			emails = append(emails, trimmed)
		}
	}
	return emails
}
