package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when no credential record exists for a user.
var ErrNotFound = errors.New("credential record not found")

// CredentialRecord is the durable per-user tuple of OAuth client id/secret
// and tokens. AccessToken and Expiry are decoded from the serialized token
// column; an empty AccessToken means no usable access token is stored.
type CredentialRecord struct {
	ID           int64
	UserID       string
	ClientID     string
	ClientSecret string
	AccessToken  string
	Expiry       time.Time
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UpsertParams are the fields written by Upsert. AccessToken, Expiry and
// RefreshToken are optional; empty values leave the stored ones untouched
// on an existing record.
type UpsertParams struct {
	UserID       string
	ClientID     string
	ClientSecret string
	AccessToken  string
	Expiry       time.Time
	RefreshToken string
}

// tokenJSON is the serialized form of the token column.
type tokenJSON struct {
	AccessToken string    `json:"access_token"`
	Expiry      time.Time `json:"expiry,omitzero"`
}

// CredentialStore persists per-user OAuth credential records.
// All operations are single-row and atomic; no cross-row transactions exist.
type CredentialStore struct {
	db *DB
}

// NewCredentialStore creates a CredentialStore backed by the given database.
func NewCredentialStore(db *DB) *CredentialStore {
	return &CredentialStore{db: db}
}

// Get returns the credential record for the given user id,
// or ErrNotFound when no record exists.
func (s *CredentialStore) Get(ctx context.Context, userID string) (*CredentialRecord, error) {
	const query = `SELECT id, user_id, client_id, client_secret, token, refresh_token, created_at, updated_at
FROM user_credentials WHERE user_id = ?`

	var (
		rec          CredentialRecord
		token        sql.NullString
		refreshToken sql.NullString
		createdAt    string
		updatedAt    string
	)

	err := s.db.Reader.QueryRowContext(ctx, query, userID).Scan(
		&rec.ID, &rec.UserID, &rec.ClientID, &rec.ClientSecret,
		&token, &refreshToken, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get credentials for %q: %w", userID, err)
	}

	if token.Valid && token.String != "" {
		var tj tokenJSON
		if err := json.Unmarshal([]byte(token.String), &tj); err != nil {
			return nil, fmt.Errorf("decode token for %q: %w", userID, err)
		}
		rec.AccessToken = tj.AccessToken
		rec.Expiry = tj.Expiry
	}
	rec.RefreshToken = refreshToken.String

	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at for %q: %w", userID, err)
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at for %q: %w", userID, err)
	}

	return &rec, nil
}

// Upsert inserts a credential record for the user, or overwrites the provided
// fields of an existing one. client_id and client_secret are always written;
// token and refresh_token only when non-empty. updated_at is bumped on every
// call. The write is a single statement, so concurrent readers never observe
// a partial update.
func (s *CredentialStore) Upsert(ctx context.Context, p UpsertParams) error {
	if p.UserID == "" {
		return errors.New("user id is required")
	}
	if p.ClientID == "" || p.ClientSecret == "" {
		return errors.New("client id and client secret are required")
	}

	var token string
	if p.AccessToken != "" {
		encoded, err := json.Marshal(tokenJSON{AccessToken: p.AccessToken, Expiry: p.Expiry})
		if err != nil {
			return fmt.Errorf("encode token for %q: %w", p.UserID, err)
		}
		token = string(encoded)
	}

	now := formatTime(time.Now().UTC())

	const query = `INSERT INTO user_credentials (user_id, client_id, client_secret, token, refresh_token, created_at, updated_at)
VALUES (?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
    client_id = excluded.client_id,
    client_secret = excluded.client_secret,
    token = COALESCE(excluded.token, user_credentials.token),
    refresh_token = COALESCE(excluded.refresh_token, user_credentials.refresh_token),
    updated_at = excluded.updated_at`

	_, err := s.db.Writer.ExecContext(ctx, query,
		p.UserID, p.ClientID, p.ClientSecret, token, p.RefreshToken, now, now)
	if err != nil {
		return fmt.Errorf("upsert credentials for %q: %w", p.UserID, err)
	}
	return nil
}

// UpdateTokens persists a freshly minted access token for the user. It is the
// narrow mutation used exclusively by token refresh and never touches
// client_id, client_secret or refresh_token. A missing row is not an error:
// the record was deleted concurrently and the refreshed token is simply dropped.
func (s *CredentialStore) UpdateTokens(ctx context.Context, userID, accessToken string, expiry, updatedAt time.Time) error {
	encoded, err := json.Marshal(tokenJSON{AccessToken: accessToken, Expiry: expiry})
	if err != nil {
		return fmt.Errorf("encode token for %q: %w", userID, err)
	}

	const query = `UPDATE user_credentials SET token = ?, updated_at = ? WHERE user_id = ?`
	_, err = s.db.Writer.ExecContext(ctx, query, string(encoded), formatTime(updatedAt.UTC()), userID)
	if err != nil {
		return fmt.Errorf("update tokens for %q: %w", userID, err)
	}
	return nil
}

// Delete removes the credential record for the user.
// Deleting an absent user id is a no-op, not an error.
func (s *CredentialStore) Delete(ctx context.Context, userID string) error {
	const query = `DELETE FROM user_credentials WHERE user_id = ?`
	if _, err := s.db.Writer.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("delete credentials for %q: %w", userID, err)
	}
	return nil
}

// List returns all credential records ordered by user id.
func (s *CredentialStore) List(ctx context.Context) ([]CredentialRecord, error) {
	const query = `SELECT id, user_id, client_id, client_secret, token, refresh_token, created_at, updated_at
FROM user_credentials ORDER BY user_id`

	rows, err := s.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var records []CredentialRecord
	for rows.Next() {
		var (
			rec          CredentialRecord
			token        sql.NullString
			refreshToken sql.NullString
			createdAt    string
			updatedAt    string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.ClientID, &rec.ClientSecret,
			&token, &refreshToken, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan credential record: %w", err)
		}

		if token.Valid && token.String != "" {
			var tj tokenJSON
			if err := json.Unmarshal([]byte(token.String), &tj); err != nil {
				return nil, fmt.Errorf("decode token for %q: %w", rec.UserID, err)
			}
			rec.AccessToken = tj.AccessToken
			rec.Expiry = tj.Expiry
		}
		rec.RefreshToken = refreshToken.String

		if rec.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at for %q: %w", rec.UserID, err)
		}
		if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("parse updated_at for %q: %w", rec.UserID, err)
		}

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}

	return records, nil
}

// Ping verifies the underlying database is reachable. Used by readiness checks.
func (s *CredentialStore) Ping(ctx context.Context) error {
	return s.db.Reader.PingContext(ctx)
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
