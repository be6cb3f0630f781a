package server

import (
	"context"
	"sync"

	"google.golang.org/api/option"

	"github.com/calbridge/calbridge/internal/credentials"
	"github.com/calbridge/calbridge/internal/instrumentation"
	"github.com/calbridge/calbridge/internal/store"
)

// ServerContext holds the shared dependencies of the MCP server.
//
// It deliberately caches no API clients: every tool call resolves credentials
// from the store and builds a fresh Calendar client, so a setup_credentials
// call or an external token refresh is visible on the very next call.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	store    *store.CredentialStore
	resolver *credentials.Resolver
	metrics  *instrumentation.Metrics

	// calendarOpts are appended when building Calendar clients.
	// Tests use them to point clients at a fake API endpoint.
	calendarOpts []option.ClientOption

	mu       sync.RWMutex
	shutdown bool
}

// ContextOption configures a ServerContext.
type ContextOption func(*ServerContext)

// WithCalendarClientOptions sets extra options for Calendar clients built by
// tool handlers. Used in tests.
func WithCalendarClientOptions(opts ...option.ClientOption) ContextOption {
	return func(sc *ServerContext) { sc.calendarOpts = opts }
}

// NewServerContext creates a new server context around the credential store,
// the credential resolver and the metrics recorder.
func NewServerContext(ctx context.Context, st *store.CredentialStore, resolver *credentials.Resolver, metrics *instrumentation.Metrics, opts ...ContextOption) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		store:    st,
		resolver: resolver,
		metrics:  metrics,
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Store returns the credential store.
func (sc *ServerContext) Store() *store.CredentialStore {
	return sc.store
}

// Resolver returns the credential resolver.
func (sc *ServerContext) Resolver() *credentials.Resolver {
	return sc.resolver
}

// Metrics returns the metrics recorder. May be nil when instrumentation is
// not configured.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// CalendarClientOptions returns extra options for Calendar clients.
func (sc *ServerContext) CalendarClientOptions() []option.ClientOption {
	return sc.calendarOpts
}

// IsShutdown returns whether the server has been shutdown.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
