package credentials

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/calbridge/calbridge/internal/instrumentation"
	"github.com/calbridge/calbridge/internal/logging"
	"github.com/calbridge/calbridge/internal/store"
)

// DefaultExchangeTimeout bounds the refresh token exchange against the
// provider's token endpoint.
const DefaultExchangeTimeout = 30 * time.Second

// RefreshRecorder records the outcome of token refresh attempts.
// Implemented by the instrumentation metrics; may be nil.
type RefreshRecorder interface {
	RecordTokenRefresh(ctx context.Context, result string)
}

// Resolver produces a credential usable for an immediate provider call,
// refreshing lazily when the stored access token is stale. It holds no state
// across calls: every resolution re-reads the store, so it always observes
// the latest token even under concurrent refreshes.
type Resolver struct {
	store      *store.CredentialStore
	endpoint   oauth2.Endpoint
	httpClient *http.Client
	timeout    time.Duration
	now        func() time.Time
	logger     *slog.Logger
	recorder   RefreshRecorder
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithEndpoint overrides the OAuth token endpoint. Used in tests.
func WithEndpoint(endpoint oauth2.Endpoint) Option {
	return func(r *Resolver) { r.endpoint = endpoint }
}

// WithHTTPClient sets the HTTP client used for the refresh exchange.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Resolver) { r.httpClient = client }
}

// WithTimeout bounds the refresh exchange.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Resolver) { r.timeout = timeout }
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithLogger sets the logger for refresh outcomes.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithRefreshRecorder sets the metrics recorder for refresh attempts.
func WithRefreshRecorder(recorder RefreshRecorder) Option {
	return func(r *Resolver) { r.recorder = recorder }
}

// NewResolver creates a Resolver over the given credential store.
// By default it exchanges refresh tokens against the Google token endpoint.
func NewResolver(s *store.CredentialStore, opts ...Option) *Resolver {
	r := &Resolver{
		store:    s,
		endpoint: google.Endpoint,
		timeout:  DefaultExchangeTimeout,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns an access token valid for an immediate provider call for
// the given user.
//
// A valid stored token is returned without any write. A stale token with a
// stored refresh token triggers exactly one refresh exchange; the new access
// token is persisted before it is returned. Failures are classified:
// NoCredentials (no record), Unrefreshable (stale token, no refresh token)
// and RefreshFailed (exchange rejected or unreachable). A failed refresh
// never mutates storage and is never retried here; retry policy belongs to
// the caller.
func (r *Resolver) Resolve(ctx context.Context, userID string) (*oauth2.Token, error) {
	rec, err := r.store.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NewError(KindNoCredentials, "no stored credentials for user")
	}
	if err != nil {
		return nil, WrapError(KindNoCredentials, "read credentials", err)
	}

	snap := SnapshotFromRecord(rec)

	switch Decide(snap, r.now()) {
	case UseAsIs:
		return &oauth2.Token{
			AccessToken: snap.AccessToken,
			TokenType:   "Bearer",
			Expiry:      snap.Expiry,
		}, nil
	case Refresh:
		return r.refresh(ctx, snap)
	default:
		return nil, NewError(KindUnrefreshable, "access token stale and no refresh token stored")
	}
}

// refresh performs the refresh token exchange and persists the new access
// token. The exchange carries a bounded timeout; a timed-out exchange is a
// RefreshFailed like any other.
func (r *Resolver) refresh(ctx context.Context, snap Snapshot) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if r.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	}

	conf := &oauth2.Config{
		ClientID:     snap.ClientID,
		ClientSecret: snap.ClientSecret,
		Endpoint:     r.endpoint,
	}

	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: snap.RefreshToken}).Token()
	if err != nil {
		r.record(ctx, instrumentation.RefreshResultFailure)
		r.logger.Error("token refresh failed",
			logging.UserHash(snap.UserID),
			logging.Err(err),
		)
		return nil, WrapError(KindRefreshFailed, "refresh token exchange failed", err)
	}

	if err := r.store.UpdateTokens(ctx, snap.UserID, token.AccessToken, token.Expiry, r.now()); err != nil {
		r.record(ctx, instrumentation.RefreshResultFailure)
		return nil, WrapError(KindRefreshFailed, "persist refreshed token", err)
	}

	r.record(ctx, instrumentation.RefreshResultSuccess)
	r.logger.Info("refreshed credentials",
		logging.UserHash(snap.UserID),
		slog.String("access_token", logging.SanitizeToken(token.AccessToken)),
	)

	return token, nil
}

func (r *Resolver) record(ctx context.Context, result string) {
	if r.recorder != nil {
		r.recorder.RecordTokenRefresh(ctx, result)
	}
}
