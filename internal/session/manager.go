package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"chat-client/internal/gateway"
	"chat-client/internal/models"
)

var ErrNotAuthenticated = errors.New("session: not authenticated")

// Manager owns the credential lifecycle: login, refresh-on-expiry, logout.
// It implements gateway.TokenSource, so long-lived clients pick up rotated
// tokens without rebuilding. Components receive credential snapshots by
// value and never hold the live state.
type Manager struct {
	mu           sync.RWMutex
	auth         gateway.AuthGateway
	cred         models.Credential
	refreshToken string
	logger       zerolog.Logger
}

// NewManager constructs an unauthenticated Manager. The auth gateway is
// bound afterwards because the HTTP client needs the manager as its token
// source first.
func NewManager(logger zerolog.Logger) *Manager {
	return &Manager{logger: logger}
}

// SetGateway binds the auth gateway used for login/refresh/logout.
func (m *Manager) SetGateway(auth gateway.AuthGateway) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auth = auth
}

// Token returns the current bearer token. Empty when logged out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cred.Token
}

// Credential returns an immutable snapshot of the session.
func (m *Manager) Credential() models.Credential {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cred
}

// Authenticated reports whether a usable credential is held.
func (m *Manager) Authenticated() bool {
	return m.Credential().Valid()
}

// Login authenticates against the backend and stores the credential pair.
func (m *Manager) Login(ctx context.Context, email, password string) (models.Credential, error) {
	m.mu.RLock()
	auth := m.auth
	m.mu.RUnlock()
	if auth == nil {
		return models.Credential{}, ErrNotAuthenticated
	}

	cred, refreshToken, err := auth.Login(ctx, email, password)
	if err != nil {
		return models.Credential{}, fmt.Errorf("login: %w", err)
	}

	m.mu.Lock()
	m.cred = cred
	m.refreshToken = refreshToken
	m.mu.Unlock()

	m.logger.Info().Int("user_id", cred.UserID).Msg("logged in")
	return cred, nil
}

// Refresh rotates the access token using the stored refresh token.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.RLock()
	auth := m.auth
	refreshToken := m.refreshToken
	m.mu.RUnlock()
	if auth == nil || refreshToken == "" {
		return ErrNotAuthenticated
	}

	cred, newRefresh, err := auth.Refresh(ctx, refreshToken)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	m.mu.Lock()
	m.cred = cred
	if newRefresh != "" {
		m.refreshToken = newRefresh
	}
	m.mu.Unlock()
	return nil
}

// Ping fetches the current profile, refreshing the token once on expiry. It
// backs the presence poller and keeps the online flag current.
func (m *Manager) Ping(ctx context.Context) error {
	m.mu.RLock()
	auth := m.auth
	m.mu.RUnlock()
	if auth == nil {
		return ErrNotAuthenticated
	}

	cred, err := auth.CurrentUser(ctx)
	if errors.Is(err, gateway.ErrUnauthorized) {
		if refreshErr := m.Refresh(ctx); refreshErr != nil {
			return refreshErr
		}
		cred, err = auth.CurrentUser(ctx)
	}
	if err != nil {
		return err
	}

	m.mu.Lock()
	token := m.cred.Token
	m.cred = cred
	m.cred.Token = token
	m.cred.Online = true
	m.mu.Unlock()
	return nil
}

// Logout invalidates the session remotely (best-effort) and always clears
// local state.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.RLock()
	auth := m.auth
	m.mu.RUnlock()

	if auth != nil && m.Authenticated() {
		if err := auth.Logout(ctx); err != nil {
			m.logger.Warn().Err(err).Msg("remote logout failed")
		}
	}

	m.mu.Lock()
	m.cred = models.Credential{}
	m.refreshToken = ""
	m.mu.Unlock()
}
