package calendar_tools

import (
	"context"
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/calbridge/calbridge/internal/calendar"
	"github.com/calbridge/calbridge/internal/server"
)

// RegisterCalendarTools registers all Calendar-related tools with the MCP server.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := RegisterEventTools(s, sc); err != nil {
		return fmt.Errorf("failed to register event tools: %w", err)
	}

	if err := RegisterCalendarListTools(s, sc); err != nil {
		return fmt.Errorf("failed to register calendar list tools: %w", err)
	}

	if err := RegisterSchedulingTools(s, sc); err != nil {
		return fmt.Errorf("failed to register scheduling tools: %w", err)
	}

	return nil
}

// calendarClient resolves the user's credentials and builds a Calendar client
// for this single call. Arguments must already be validated: a call that
// would be rejected anyway should never trigger a token refresh.
func calendarClient(ctx context.Context, sc *server.ServerContext, userID string) (*calendar.Client, error) {
	token, err := sc.Resolver().Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	return calendar.NewClient(ctx, token, sc.CalendarClientOptions()...)
}
