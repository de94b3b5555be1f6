package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aspectstore/storekit/pkg/identity"
	"github.com/aspectstore/storekit/pkg/kvstore"
	"github.com/aspectstore/storekit/pkg/logger"
)

// ChangeHook observes the session's user after every completed transition
// (login, signup, logout, redirect callback). Hooks run synchronously in
// registration order while the manager's transition lock is held, so a
// rapid sequence of transitions is observed as a strict sequence with no
// intermediate state skipped. The cart binder registers itself here.
type ChangeHook func(ctx context.Context, user *identity.User)

// Manager is the process-wide session: one backend selected at
// construction, wrapped with transition serialization and change hooks.
type Manager struct {
	mu      sync.Mutex
	backend backend
	logger  *slog.Logger
	hooks   []ChangeHook

	// construction-time collaborators, passed down to the backend
	kv         kvstore.Store
	httpClient *http.Client
	redirector Redirector
}

// Option configures a Manager during construction.
type Option func(*Manager)

// WithLogger sets the logger shared by the manager and its backend.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithStore sets the key-value store that backs persisted session state.
// Defaults to an in-memory store.
func WithStore(kv kvstore.Store) Option {
	return func(m *Manager) {
		if kv != nil {
			m.kv = kv
		}
	}
}

// WithHTTPClient sets the HTTP client the api backend uses.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) {
		if c != nil {
			m.httpClient = c
		}
	}
}

// WithRedirector sets the navigation collaborator the hosted backend uses
// to send the browser to the provider.
func WithRedirector(r Redirector) Option {
	return func(m *Manager) {
		if r != nil {
			m.redirector = r
		}
	}
}

// WithAfterChange registers a change hook. May be given more than once;
// hooks fire in registration order.
func WithAfterChange(hook ChangeHook) Option {
	return func(m *Manager) {
		if hook != nil {
			m.hooks = append(m.hooks, hook)
		}
	}
}

// New creates the session manager for the configured mode. Construction
// never fails: an unrecognized mode falls back to the default, and a
// backend missing required configuration reports ErrMisconfiguredBackend
// from its operations instead of preventing startup.
func New(cfg Config, opts ...Option) *Manager {
	m := &Manager{
		logger:     logger.Discard(),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.kv == nil {
		m.kv = kvstore.NewMemoryStore()
	}

	switch parseMode(cfg.Mode, m.logger) {
	case ModeNone:
		m.backend = &noopBackend{}
	case ModeAPI:
		m.backend = newAPIBackend(cfg, m.kv, m.httpClient, m.logger)
	case ModeAuth0:
		m.backend = newHostedBackend(cfg, m.kv, m.httpClient, m.redirector, m.logger)
	default:
		m.backend = &localBackend{kv: m.kv, logger: m.logger}
	}

	return m
}

// Login authenticates and notifies change hooks on success.
func (m *Manager) Login(ctx context.Context, creds Credentials) (*identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, err := m.backend.login(ctx, creds)
	if err != nil {
		return nil, err
	}
	m.notify(ctx)
	return user, nil
}

// Signup registers an account and notifies change hooks on success.
func (m *Manager) Signup(ctx context.Context, details SignupDetails) (*identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, err := m.backend.signup(ctx, details)
	if err != nil {
		return nil, err
	}
	m.notify(ctx)
	return user, nil
}

// Logout ends the session and notifies change hooks. It never returns an
// error; backends clean up locally even when remote calls fail.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_ = m.backend.logout(ctx)
	m.notify(ctx)
	return nil
}

// ResetPassword starts a password reset for the email.
func (m *Manager) ResetPassword(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.backend.resetPassword(ctx, email)
}

// Session returns a snapshot of the observable session state.
func (m *Manager) Session(ctx context.Context) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.backend.session(ctx)
}

// AuthorizedPost performs an authenticated JSON POST through the api
// backend, applying its refresh-and-retry policy, and decodes the response
// into out when non-nil. Backends without bearer tokens return
// ErrMisconfiguredBackend. The transition lock is not taken: data calls
// must not serialize behind logins, and the backend's own synchronization
// covers the token lifecycle.
func (m *Manager) AuthorizedPost(ctx context.Context, path string, payload, out any) error {
	caller, ok := m.backend.(authorizedCaller)
	if !ok {
		return ErrMisconfiguredBackend
	}
	return caller.authorizedPost(ctx, path, payload, out)
}

// HandleCallback completes a hosted redirect round-trip. Backends without a
// redirect flow return ErrCallbackNotSupported.
func (m *Manager) HandleCallback(ctx context.Context, code, state string) (*identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	handler, ok := m.backend.(callbackBackend)
	if !ok {
		return nil, ErrCallbackNotSupported
	}

	user, err := handler.handleCallback(ctx, code, state)
	if err != nil {
		return nil, err
	}
	m.notify(ctx)
	return user, nil
}

// Close tears the session down: the backend clears any armed renewal timer
// and in-flight refresh state. Safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.backend.close()
}

// notify runs the change hooks with the backend's current user. Callers
// must hold m.mu.
func (m *Manager) notify(ctx context.Context) {
	if len(m.hooks) == 0 {
		return
	}
	user := m.backend.session(ctx).User
	for _, hook := range m.hooks {
		hook(ctx, user)
	}
}

// callbackBackend is satisfied by backends that finish authentication via a
// browser round-trip.
type callbackBackend interface {
	handleCallback(ctx context.Context, code, state string) (*identity.User, error)
}

// authorizedCaller is satisfied by backends that can make bearer-token
// requests on behalf of the rest of the application.
type authorizedCaller interface {
	authorizedPost(ctx context.Context, path string, payload, out any) error
}

var _ Authenticator = (*Manager)(nil)
