package session_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-client/internal/gateway"
	"chat-client/internal/mocks"
	"chat-client/internal/models"
	"chat-client/internal/session"
)

func newManager(t *testing.T) (*mocks.AuthGatewayMock, *session.Manager) {
	t.Helper()
	auth := new(mocks.AuthGatewayMock)
	mgr := session.NewManager(zerolog.Nop())
	mgr.SetGateway(auth)
	return auth, mgr
}

func TestLoginStoresCredentialPair(t *testing.T) {
	auth, mgr := newManager(t)

	cred := models.Credential{Token: "acc", UserID: 12, Username: "ada"}
	auth.On("Login", mock.Anything, "ada@example.com", "hunter2").Return(cred, "ref", nil).Once()

	got, err := mgr.Login(context.Background(), "ada@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Username)

	assert.Equal(t, "acc", mgr.Token())
	assert.True(t, mgr.Authenticated())
	auth.AssertExpectations(t)
}

func TestLoginWithoutGateway(t *testing.T) {
	mgr := session.NewManager(zerolog.Nop())

	_, err := mgr.Login(context.Background(), "a@b", "pw")
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
}

func TestLoginFailureLeavesSessionEmpty(t *testing.T) {
	auth, mgr := newManager(t)
	auth.On("Login", mock.Anything, "a@b", "wrong").
		Return(models.Credential{}, "", gateway.ErrUnauthorized).Once()

	_, err := mgr.Login(context.Background(), "a@b", "wrong")
	require.Error(t, err)
	assert.False(t, mgr.Authenticated())
	assert.Empty(t, mgr.Token())
}

func TestRefreshRotatesToken(t *testing.T) {
	auth, mgr := newManager(t)
	auth.On("Login", mock.Anything, "a@b", "pw").
		Return(models.Credential{Token: "acc-1", UserID: 12}, "ref-1", nil).Once()
	auth.On("Refresh", mock.Anything, "ref-1").
		Return(models.Credential{Token: "acc-2", UserID: 12}, "ref-2", nil).Once()
	auth.On("Refresh", mock.Anything, "ref-2").
		Return(models.Credential{Token: "acc-3", UserID: 12}, "", nil).Once()

	_, err := mgr.Login(context.Background(), "a@b", "pw")
	require.NoError(t, err)

	require.NoError(t, mgr.Refresh(context.Background()))
	assert.Equal(t, "acc-2", mgr.Token())

	// Empty refresh token in the response keeps the previous one.
	require.NoError(t, mgr.Refresh(context.Background()))
	assert.Equal(t, "acc-3", mgr.Token())
	auth.AssertExpectations(t)
}

func TestRefreshWithoutSession(t *testing.T) {
	_, mgr := newManager(t)
	assert.ErrorIs(t, mgr.Refresh(context.Background()), session.ErrNotAuthenticated)
}

func TestPingPreservesTokenAndSetsOnline(t *testing.T) {
	auth, mgr := newManager(t)
	auth.On("Login", mock.Anything, "a@b", "pw").
		Return(models.Credential{Token: "acc", UserID: 12}, "ref", nil).Once()
	auth.On("CurrentUser", mock.Anything).
		Return(models.Credential{UserID: 12, Username: "ada", Online: false}, nil).Once()

	_, err := mgr.Login(context.Background(), "a@b", "pw")
	require.NoError(t, err)

	require.NoError(t, mgr.Ping(context.Background()))

	cred := mgr.Credential()
	assert.Equal(t, "acc", cred.Token, "profile fetch must not wipe the bearer token")
	assert.Equal(t, "ada", cred.Username)
	assert.True(t, cred.Online)
	auth.AssertExpectations(t)
}

func TestPingRefreshesOnceOnExpiry(t *testing.T) {
	auth, mgr := newManager(t)
	auth.On("Login", mock.Anything, "a@b", "pw").
		Return(models.Credential{Token: "stale", UserID: 12}, "ref", nil).Once()
	auth.On("CurrentUser", mock.Anything).
		Return(models.Credential{}, gateway.ErrUnauthorized).Once()
	auth.On("Refresh", mock.Anything, "ref").
		Return(models.Credential{Token: "fresh", UserID: 12}, "ref-2", nil).Once()
	auth.On("CurrentUser", mock.Anything).
		Return(models.Credential{UserID: 12, Username: "ada"}, nil).Once()

	_, err := mgr.Login(context.Background(), "a@b", "pw")
	require.NoError(t, err)

	require.NoError(t, mgr.Ping(context.Background()))
	assert.Equal(t, "fresh", mgr.Token())
	auth.AssertExpectations(t)
}

func TestPingGivesUpWhenRefreshFails(t *testing.T) {
	auth, mgr := newManager(t)
	auth.On("Login", mock.Anything, "a@b", "pw").
		Return(models.Credential{Token: "stale", UserID: 12}, "ref", nil).Once()
	auth.On("CurrentUser", mock.Anything).
		Return(models.Credential{}, gateway.ErrUnauthorized).Once()
	auth.On("Refresh", mock.Anything, "ref").
		Return(models.Credential{}, "", gateway.ErrUnauthorized).Once()

	_, err := mgr.Login(context.Background(), "a@b", "pw")
	require.NoError(t, err)

	require.Error(t, mgr.Ping(context.Background()))
	auth.AssertExpectations(t)
}

func TestLogoutClearsStateEvenWhenRemoteFails(t *testing.T) {
	auth, mgr := newManager(t)
	auth.On("Login", mock.Anything, "a@b", "pw").
		Return(models.Credential{Token: "acc", UserID: 12}, "ref", nil).Once()
	auth.On("Logout", mock.Anything).Return(assert.AnError).Once()

	_, err := mgr.Login(context.Background(), "a@b", "pw")
	require.NoError(t, err)

	mgr.Logout(context.Background())
	assert.False(t, mgr.Authenticated())
	assert.Empty(t, mgr.Token())
	auth.AssertExpectations(t)
}

func TestLogoutWhileLoggedOutSkipsRemoteCall(t *testing.T) {
	auth, mgr := newManager(t)

	mgr.Logout(context.Background())
	auth.AssertNotCalled(t, "Logout", mock.Anything)
}

func TestPresencePollerLifecycle(t *testing.T) {
	auth, mgr := newManager(t)
	var pings atomic.Int32
	auth.On("CurrentUser", mock.Anything).
		Run(func(mock.Arguments) { pings.Add(1) }).
		Return(models.Credential{UserID: 12}, nil)

	poller := session.NewPresencePoller(mgr, 10*time.Millisecond, zerolog.Nop())

	require.NoError(t, poller.Start(context.Background()))
	assert.ErrorIs(t, poller.Start(context.Background()), session.ErrPollerAlreadyRunning)

	assert.Eventually(t, func() bool {
		return pings.Load() > 0
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, poller.Stop())
	assert.ErrorIs(t, poller.Stop(), session.ErrPollerNotRunning)

	// Restart after stop is allowed.
	require.NoError(t, poller.Start(context.Background()))
	require.NoError(t, poller.Stop())
}
