package credential_tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/calbridge/calbridge/internal/logging"
	"github.com/calbridge/calbridge/internal/server"
	"github.com/calbridge/calbridge/internal/store"
	"github.com/calbridge/calbridge/internal/tools/common"
)

// RegisterCredentialTools registers credential management tools with the MCP server.
func RegisterCredentialTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	setupTool := mcp.NewTool("setup_credentials",
		mcp.WithDescription("Setup Google OAuth credentials for the MCP server"),
		mcp.WithString("client_id",
			mcp.Required(),
			mcp.Description("Google OAuth client ID"),
		),
		mcp.WithString("client_secret",
			mcp.Required(),
			mcp.Description("Google OAuth client secret"),
		),
		mcp.WithString("refresh_token",
			mcp.Required(),
			mcp.Description("Google OAuth refresh token"),
		),
		mcp.WithString("user_id",
			mcp.Description("User identifier (default: 'default')"),
		),
	)

	s.AddTool(setupTool, common.InstrumentedToolHandler("setup_credentials", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSetupCredentials(ctx, request, sc)
		}))

	listTool := mcp.NewTool("list_credentials",
		mcp.WithDescription("Lists the user ids that have stored credentials. Never returns secret material."),
	)

	s.AddTool(listTool, common.InstrumentedToolHandler("list_credentials", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListCredentials(ctx, request, sc)
		}))

	deleteTool := mcp.NewTool("delete_credentials",
		mcp.WithDescription("Deletes the stored credentials for a user"),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("User identifier"),
		),
	)

	s.AddTool(deleteTool, common.InstrumentedToolHandler("delete_credentials", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteCredentials(ctx, request, sc)
		}))

	return nil
}

func handleSetupCredentials(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	clientID, ok := args["client_id"].(string)
	if !ok || clientID == "" {
		return common.ValidationError("setup_credentials", "client_id is required"), nil
	}
	clientSecret, ok := args["client_secret"].(string)
	if !ok || clientSecret == "" {
		return common.ValidationError("setup_credentials", "client_secret is required"), nil
	}
	refreshToken, ok := args["refresh_token"].(string)
	if !ok || refreshToken == "" {
		return common.ValidationError("setup_credentials", "refresh_token is required"), nil
	}
	userID := common.UserIDFromArgs(args)

	err := sc.Store().Upsert(ctx, store.UpsertParams{
		UserID:       userID,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RefreshToken: refreshToken,
	})
	if err != nil {
		return common.ErrorResult("setup_credentials", err), nil
	}

	slog.Info("stored credentials", logging.UserHash(userID))

	// The success payload names the user only. Secrets went into the store
	// and nowhere else.
	return common.JSONResult(map[string]string{
		"success": fmt.Sprintf("Credentials set up successfully for user %s", userID),
	})
}

// credentialInfo is the secret-free view of a stored credential record.
type credentialInfo struct {
	UserID         string `json:"user_id"`
	HasAccessToken bool   `json:"has_access_token"`
	TokenExpiry    string `json:"token_expiry,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func handleListCredentials(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	records, err := sc.Store().List(ctx)
	if err != nil {
		return common.ErrorResult("list_credentials", err), nil
	}

	infos := []credentialInfo{}
	for _, rec := range records {
		info := credentialInfo{
			UserID:         rec.UserID,
			HasAccessToken: rec.AccessToken != "",
			CreatedAt:      rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			UpdatedAt:      rec.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if !rec.Expiry.IsZero() {
			info.TokenExpiry = rec.Expiry.Format("2006-01-02T15:04:05Z07:00")
		}
		infos = append(infos, info)
	}

	return common.JSONResult(map[string]any{"credentials": infos})
}

func handleDeleteCredentials(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	userID, ok := args["user_id"].(string)
	if !ok || userID == "" {
		return common.ValidationError("delete_credentials", "user_id is required"), nil
	}

	if err := sc.Store().Delete(ctx, userID); err != nil {
		return common.ErrorResult("delete_credentials", err), nil
	}

	slog.Info("deleted stored credentials", logging.UserHash(userID))

	return common.JSONResult(map[string]string{
		"success": fmt.Sprintf("Credentials deleted for user %s", userID),
	})
}
