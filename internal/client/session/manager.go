// Package session owns the authenticated session: the current user, the
// persisted bearer credential, and the Authorization value installed on the
// request gateway. All session mutation goes through the Manager.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/dbarkov/feedline/internal/client/api"
	"github.com/dbarkov/feedline/internal/client/models"
	"github.com/dbarkov/feedline/internal/filex"
	"github.com/dbarkov/feedline/internal/logging"
)

// State is the session lifecycle position. Logout returns to
// StateUnauthenticated; the cycle repeats.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateAuthenticated   State = "authenticated"
)

// API is the slice of the gateway the manager depends on.
//
// Contract:
//   - Login: exchange credentials for a token+scheme pair.
//   - Register: create an account (multipart form, optional avatar).
//   - CurrentUser: fetch the session owner's profile.
//   - SetAuthorization: install/remove the outbound Authorization value.
type API interface {
	Login(ctx context.Context, identifier, secret string) (api.AuthResult, error)
	Register(ctx context.Context, req api.RegisterRequest, image *filex.Attachment) (api.AuthResult, error)
	CurrentUser(ctx context.Context) (models.User, error)
	SetAuthorization(value string)
}

// Store is the durable credential store the manager depends on.
type Store interface {
	Save(ctx context.Context, token string) error
	Load(ctx context.Context) (token string, ok bool, err error)
	Clear(ctx context.Context) error
}

// Manager is the authentication-session manager. At most one session is
// active per Manager; all methods are safe for concurrent use.
type Manager struct {
	api   API
	store Store
	log   logging.Logger

	mu        sync.RWMutex
	state     State
	user      *models.User
	resolving bool

	// onIdentityChange runs after the session owner changes (login as a
	// different user, or logout). The synchronizer hooks in here to drop
	// collections belonging to the previous identity.
	onIdentityChange func()
}

// NewManager wires a Manager. The gateway carries no credential until
// Bootstrap or a login succeeds.
func NewManager(a API, store Store, log logging.Logger) *Manager {
	return &Manager{api: a, store: store, log: log, state: StateUnauthenticated}
}

// OnIdentityChange registers fn to run whenever the session owner changes.
// Must be called before the manager is shared between goroutines.
func (m *Manager) OnIdentityChange(fn func()) {
	m.onIdentityChange = fn
}

// State returns the current lifecycle position.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Resolving reports whether a Bootstrap is still deciding the session's
// fate. View layers must not make redirect decisions while this is true.
func (m *Manager) Resolving() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resolving
}

// IsAuthenticated is exactly "a current user is present".
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil
}

// CurrentUser returns a copy of the session owner, ok=false when anonymous.
func (m *Manager) CurrentUser() (models.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return models.User{}, false
	}
	return *m.user, true
}

// Bootstrap restores the session on process start. If a token is persisted,
// it is installed on the gateway and the current user is fetched.
//
// A fetch failure that is not authorization-denied (network outage, server
// error) leaves the token in place for a later retry and reports the error;
// only an authorization-denied response tears the session down.
func (m *Manager) Bootstrap(ctx context.Context) error {
	m.setResolving(true)
	defer m.setResolving(false)

	token, ok, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load credential: %w", err)
	}
	if !ok {
		m.log.Debug(ctx, "no persisted credential")
		return nil
	}

	m.api.SetAuthorization(api.NormalizeBearer(token))
	m.setState(StateAuthenticating)

	if err := m.FetchCurrentUser(ctx); err != nil {
		if api.IsAuthError(err) {
			// FetchCurrentUser already tore the session down.
			return err
		}
		// Soft failure: token stays persisted and installed.
		m.setState(StateUnauthenticated)
		m.log.Warn(ctx, "session resolution failed, keeping token", "err", err)
		return err
	}

	m.log.Info(ctx, "session restored")
	return nil
}

// Login exchanges credentials for a token, persists it, installs it on the
// gateway and resolves the current user. It returns true only when the whole
// chain succeeds. The token is persisted only after a successful exchange,
// so a failed login never leaves a partial session behind.
func (m *Manager) Login(ctx context.Context, identifier, secret string) (bool, error) {
	m.setState(StateAuthenticating)

	res, err := m.api.Login(ctx, identifier, secret)
	if err != nil {
		m.setState(StateUnauthenticated)
		return false, fmt.Errorf("credential exchange: %w", err)
	}

	return m.installToken(ctx, composeToken(res))
}

// LoginWithToken starts a session from an externally obtained token,
// skipping the exchange step.
func (m *Manager) LoginWithToken(ctx context.Context, token string) (bool, error) {
	m.setState(StateAuthenticating)
	return m.installToken(ctx, api.NormalizeBearer(token))
}

// Register creates an account and, on success, follows the same
// persist-then-fetch chain as Login.
func (m *Manager) Register(ctx context.Context, profile api.RegisterRequest, image *filex.Attachment) (bool, error) {
	m.setState(StateAuthenticating)

	res, err := m.api.Register(ctx, profile, image)
	if err != nil {
		m.setState(StateUnauthenticated)
		return false, fmt.Errorf("register: %w", err)
	}

	return m.installToken(ctx, composeToken(res))
}

// installToken persists the composed token, installs it on the gateway and
// fetches the user. Shared tail of Login/LoginWithToken/Register.
func (m *Manager) installToken(ctx context.Context, token string) (bool, error) {
	if err := m.store.Save(ctx, token); err != nil {
		m.setState(StateUnauthenticated)
		return false, fmt.Errorf("persist credential: %w", err)
	}

	m.api.SetAuthorization(token)

	if err := m.FetchCurrentUser(ctx); err != nil {
		if !api.IsAuthError(err) {
			m.setState(StateUnauthenticated)
		}
		return false, err
	}
	return true, nil
}

// FetchCurrentUser replaces the in-memory user wholesale with the server's
// representation. Idempotent. An authorization-denied response forces a full
// Logout.
func (m *Manager) FetchCurrentUser(ctx context.Context) error {
	u, err := m.api.CurrentUser(ctx)
	if err != nil {
		if api.IsAuthError(err) {
			m.log.Warn(ctx, "credential rejected, clearing session")
			_ = m.Logout(ctx)
		}
		return fmt.Errorf("fetch current user: %w", err)
	}

	m.mu.Lock()
	prevID := ""
	if m.user != nil {
		prevID = m.user.ID
	}
	m.user = &u
	m.state = StateAuthenticated
	changed := prevID != u.ID
	m.mu.Unlock()

	if changed && m.onIdentityChange != nil {
		m.onIdentityChange()
	}
	return nil
}

// Logout clears the credential store, removes the gateway's Authorization
// value and drops the in-memory user. Safe to call from any state. Requests
// already dispatched with the old credential are unaffected.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.store.Clear(ctx)

	m.api.SetAuthorization("")

	m.mu.Lock()
	hadUser := m.user != nil
	m.user = nil
	m.state = StateUnauthenticated
	m.mu.Unlock()

	if hadUser && m.onIdentityChange != nil {
		m.onIdentityChange()
	}

	if err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) setResolving(v bool) {
	m.mu.Lock()
	m.resolving = v
	m.mu.Unlock()
}

// composeToken joins the exchange response's scheme and raw token with a
// space, falling back to the bearer scheme when none was returned.
func composeToken(res api.AuthResult) string {
	if res.Scheme == "" {
		return api.NormalizeBearer(res.Token)
	}
	return res.Scheme + " " + res.Token
}
