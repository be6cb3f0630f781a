package credential_tools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calbridge/calbridge/internal/server"
	"github.com/calbridge/calbridge/internal/store"
)

func newServerContext(t *testing.T) (*server.ServerContext, *store.CredentialStore) {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.RunMigrations(db.Writer))

	s := store.NewCredentialStore(db)
	return server.NewServerContext(context.Background(), s, nil, nil), s
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return text.Text
}

func TestHandleSetupCredentials_StoresRecord(t *testing.T) {
	sc, s := newServerContext(t)

	result, err := handleSetupCredentials(context.Background(),
		callRequest("setup_credentials", map[string]any{
			"client_id":     "cid",
			"client_secret": "csec",
			"refresh_token": "rt1",
			"user_id":       "alice",
		}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	rec, err := s.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "cid", rec.ClientID)
	assert.Equal(t, "csec", rec.ClientSecret)
	assert.Equal(t, "rt1", rec.RefreshToken)
	assert.Empty(t, rec.AccessToken)
}

func TestHandleSetupCredentials_DefaultUser(t *testing.T) {
	sc, s := newServerContext(t)

	result, err := handleSetupCredentials(context.Background(),
		callRequest("setup_credentials", map[string]any{
			"client_id":     "cid",
			"client_secret": "csec",
			"refresh_token": "rt1",
		}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	_, err = s.Get(context.Background(), "default")
	require.NoError(t, err)
}

func TestHandleSetupCredentials_NeverEchoesSecrets(t *testing.T) {
	sc, _ := newServerContext(t)

	result, err := handleSetupCredentials(context.Background(),
		callRequest("setup_credentials", map[string]any{
			"client_id":     "cid-value",
			"client_secret": "csec-value",
			"refresh_token": "rt-value",
		}), sc)
	require.NoError(t, err)

	text := resultText(t, result)
	assert.NotContains(t, text, "csec-value")
	assert.NotContains(t, text, "rt-value")
}

func TestHandleSetupCredentials_Validation(t *testing.T) {
	sc, _ := newServerContext(t)

	for name, args := range map[string]map[string]any{
		"missing client_id":     {"client_secret": "s", "refresh_token": "r"},
		"missing client_secret": {"client_id": "c", "refresh_token": "r"},
		"missing refresh_token": {"client_id": "c", "client_secret": "s"},
	} {
		t.Run(name, func(t *testing.T) {
			result, err := handleSetupCredentials(context.Background(),
				callRequest("setup_credentials", args), sc)
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), "ValidationError")
		})
	}
}

func TestHandleSetupCredentials_OverwritesExisting(t *testing.T) {
	sc, s := newServerContext(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, store.UpsertParams{
		UserID:       "alice",
		ClientID:     "old-cid",
		ClientSecret: "old-csec",
		AccessToken:  "at1",
		Expiry:       time.Now().UTC().Add(time.Hour),
		RefreshToken: "old-rt",
	}))

	result, err := handleSetupCredentials(ctx,
		callRequest("setup_credentials", map[string]any{
			"client_id":     "new-cid",
			"client_secret": "new-csec",
			"refresh_token": "new-rt",
			"user_id":       "alice",
		}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	rec, err := s.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "new-cid", rec.ClientID)
	assert.Equal(t, "new-rt", rec.RefreshToken)
	// Previously cached access token survives until the next refresh.
	assert.Equal(t, "at1", rec.AccessToken)
}

func TestHandleListCredentials_NoSecrets(t *testing.T) {
	sc, s := newServerContext(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, store.UpsertParams{
		UserID:       "alice",
		ClientID:     "cid-secret",
		ClientSecret: "csec-secret",
		AccessToken:  "at-secret",
		Expiry:       time.Now().UTC().Add(time.Hour),
		RefreshToken: "rt-secret",
	}))

	result, err := handleListCredentials(ctx, callRequest("list_credentials", nil), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.NotContains(t, text, "csec-secret")
	assert.NotContains(t, text, "at-secret")
	assert.NotContains(t, text, "rt-secret")

	var payload struct {
		Credentials []struct {
			UserID         string `json:"user_id"`
			HasAccessToken bool   `json:"has_access_token"`
		} `json:"credentials"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &payload))
	require.Len(t, payload.Credentials, 1)
	assert.Equal(t, "alice", payload.Credentials[0].UserID)
	assert.True(t, payload.Credentials[0].HasAccessToken)
}

func TestHandleListCredentials_Empty(t *testing.T) {
	sc, _ := newServerContext(t)

	result, err := handleListCredentials(context.Background(), callRequest("list_credentials", nil), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	assert.JSONEq(t, `{"credentials":[]}`, resultText(t, result))
}

func TestHandleDeleteCredentials(t *testing.T) {
	sc, s := newServerContext(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, store.UpsertParams{
		UserID:       "alice",
		ClientID:     "cid",
		ClientSecret: "csec",
		RefreshToken: "rt",
	}))

	result, err := handleDeleteCredentials(ctx,
		callRequest("delete_credentials", map[string]any{"user_id": "alice"}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)

	_, err = s.Get(ctx, "alice")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Deleting again is still a success.
	result, err = handleDeleteCredentials(ctx,
		callRequest("delete_credentials", map[string]any{"user_id": "alice"}), sc)
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func TestHandleDeleteCredentials_Validation(t *testing.T) {
	sc, _ := newServerContext(t)

	result, err := handleDeleteCredentials(context.Background(),
		callRequest("delete_credentials", map[string]any{}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
