// Package session manages the authenticated session of the mediscan client.
//
// A Manager owns the session Store and registers two hooks on a
// transport.Transport: the Augmentor stamps outgoing requests with the
// current bearer token, and the Coordinator recovers requests rejected with
// 401 through a single-flight silent refresh. Bootstrap recovers a session
// from the server-held refresh credential once per process.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/yammahtea/mediscan/internal/logger"
	"github.com/yammahtea/mediscan/internal/telemetry"
	"github.com/yammahtea/mediscan/pkg/transport"
)

// Authenticator performs the session calls against the API.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
	Refresh(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
}

// Options configures a Manager.
type Options struct {
	// RefreshPath and LoginPath are the session endpoints excluded from
	// recovery. They default to DefaultRefreshPath and DefaultLoginPath.
	RefreshPath string
	LoginPath   string

	// Metrics receives refresh statistics. Nil disables collection.
	Metrics Metrics

	// Store is the session state to manage. A new Store is created if nil.
	Store *Store
}

// Manager exposes the session to the rest of the client: the token, the
// bootstrapping flag, login and logout.
type Manager struct {
	store       *Store
	transport   *transport.Transport
	auth        Authenticator
	augmentor   *Augmentor
	coordinator *Coordinator

	mu         sync.Mutex
	started    bool
	reqHandle  transport.Handle
	respHandle transport.Handle

	bootstrapOnce sync.Once
}

// NewManager creates a Manager for t. Call Start to register its hooks.
func NewManager(t *transport.Transport, auth Authenticator, opts Options) *Manager {
	store := opts.Store
	if store == nil {
		store = NewStore()
	}

	return &Manager{
		store:       store,
		transport:   t,
		auth:        auth,
		augmentor:   NewAugmentor(store),
		coordinator: NewCoordinator(store, t, auth.Refresh, CoordinatorConfig{
			RefreshPath: opts.RefreshPath,
			LoginPath:   opts.LoginPath,
			Metrics:     opts.Metrics,
		}),
	}
}

// Start registers the request and response hooks. Calling Start on a started
// Manager is a no-op.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return
	}
	m.reqHandle = m.transport.UseRequest(m.augmentor.Hook)
	m.respHandle = m.transport.UseResponse(m.coordinator.Hook)
	m.started = true
}

// Close ejects the hooks registered by Start. It is safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return nil
	}
	m.transport.EjectRequest(m.reqHandle)
	m.transport.EjectResponse(m.respHandle)
	m.started = false
	return nil
}

// Bootstrap attempts to recover a session from the refresh credential. It
// runs at most once per Manager; later calls return immediately.
//
// A failed refresh is the normal "not logged in" outcome and is not
// reported. Bootstrapping ends in every case.
func (m *Manager) Bootstrap(ctx context.Context) {
	m.bootstrapOnce.Do(func() {
		defer m.store.SetBootstrapping(false)

		if m.store.Token() != "" {
			return
		}

		ctx, span := telemetry.StartSessionSpan(ctx, telemetry.SpanSessionBootstrap)
		defer span.End()

		token, err := m.auth.Refresh(ctx)
		if err == nil && token == "" {
			err = ErrEmptyToken
		}
		if err != nil {
			span.SetAttributes(telemetry.Authenticated(false))
			logger.DebugCtx(ctx, "no session to restore", logger.KeyError, err)
			return
		}

		m.store.SetToken(token)
		span.SetAttributes(telemetry.Authenticated(true))
		logger.DebugCtx(ctx, "session restored")
	})
}

// Login authenticates with username and password and stores the returned
// token. Errors are returned as produced by the Authenticator.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	ctx, span := telemetry.StartSessionSpan(ctx, telemetry.SpanSessionLogin, telemetry.Username(username))
	defer span.End()

	token, err := m.auth.Login(ctx, username, password)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return err
	}
	if token == "" {
		telemetry.RecordError(ctx, ErrEmptyToken)
		return ErrEmptyToken
	}

	m.store.SetToken(token)
	logger.InfoCtx(ctx, "logged in", logger.KeyUsername, username)
	return nil
}

// Logout ends the session on the server and locally. The local token is
// cleared even when the server call fails; that failure is still returned so
// the caller can report it.
func (m *Manager) Logout(ctx context.Context) error {
	ctx, span := telemetry.StartSessionSpan(ctx, telemetry.SpanSessionLogout)
	defer span.End()
	defer m.store.Clear()

	if err := m.auth.Logout(ctx); err != nil {
		telemetry.RecordError(ctx, err)
		logger.DebugCtx(ctx, "server logout failed", logger.KeyError, err)
		return err
	}
	return nil
}

// Token returns the current access token, or "" when unauthenticated.
func (m *Manager) Token() string {
	return m.store.Token()
}

// Bootstrapping reports whether Bootstrap has yet to settle.
func (m *Manager) Bootstrapping() bool {
	return m.store.Bootstrapping()
}

// State returns the current session state.
func (m *Manager) State() State {
	return m.store.Snapshot()
}

// Store returns the managed session store.
func (m *Manager) Store() *Store {
	return m.store
}

// Coordinator returns the refresh coordinator.
func (m *Manager) Coordinator() *Coordinator {
	return m.coordinator
}

// IsSessionExpired reports whether err means the session could not be
// recovered: an unauthorized response that survived recovery, or a refresh
// that was rejected.
func IsSessionExpired(err error) bool {
	return transport.IsUnauthorized(err) || errors.Is(err, ErrEmptyToken)
}
