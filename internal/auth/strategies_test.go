package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pitchey-api/internal/cache"
	"pitchey-api/internal/mocks"
	"pitchey-api/internal/models"
	"pitchey-api/internal/repositories"
)

func liveSession(id string, userID int) models.Session {
	return models.Session{ID: id, UserID: userID, ExpiresAt: fixedNow.Add(time.Hour)}
}

func TestCookieStrategyResolvesSession(t *testing.T) {
	repo := new(mocks.SessionRepositoryMock)
	repo.On("FindValidSession", mock.Anything, "sid").Return(liveSession("sid", 7), models.User{ID: 7}, nil).Once()
	strategy := NewCookieSessionStrategy(testCookies(""), newTestSessionStore(repo, cache.NewMemory()))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "pitchey_session", Value: "sid"})

	identity, err := strategy.Resolve(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, 7, identity.User.ID)
}

func TestCookieStrategyWithoutCookie(t *testing.T) {
	repo := new(mocks.SessionRepositoryMock)
	strategy := NewCookieSessionStrategy(testCookies(""), newTestSessionStore(repo, nil))

	identity, err := strategy.Resolve(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Nil(t, identity)
	repo.AssertNotCalled(t, "FindValidSession", mock.Anything, mock.Anything)
}

func TestSessionAPIStrategyReadsPrefixedCookie(t *testing.T) {
	repo := new(mocks.SessionRepositoryMock)
	repo.On("FindValidSession", mock.Anything, "prefixed").Return(liveSession("prefixed", 9), models.User{ID: 9}, nil).Once()
	kv := cache.NewMemory()
	strategy := NewSessionAPIStrategy(testCookies(""), newTestSessionStore(repo, kv))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "theme", Value: "dark"})
	req.AddCookie(&http.Cookie{Name: "__Secure-better-auth.session_token", Value: "prefixed"})

	identity, err := strategy.Resolve(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, 9, identity.User.ID)

	// database only, nothing cached
	_, cached, _ := kv.Get(context.Background(), sessionKey("prefixed"))
	assert.False(t, cached)
}

func TestSessionAPIStrategySkipsKnownNames(t *testing.T) {
	repo := new(mocks.SessionRepositoryMock)
	strategy := NewSessionAPIStrategy(testCookies(""), newTestSessionStore(repo, nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "pitchey_session", Value: "sid"})

	identity, err := strategy.Resolve(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, identity)
	repo.AssertNotCalled(t, "FindValidSession", mock.Anything, mock.Anything)
}

func bearerRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestBearerStrategyReloadsUser(t *testing.T) {
	issuer := issuerAt("secret", time.Hour, fixedNow)
	token, err := issuer.Issue(models.User{ID: 7, Email: "seven@pitchey.test", DisplayName: "stale"})
	require.NoError(t, err)

	users := new(mocks.UserRepositoryMock)
	users.On("GetByID", mock.Anything, 7).Return(models.User{ID: 7, DisplayName: "fresh"}, nil).Once()

	identity, err := NewBearerJWTStrategy(issuer, users).Resolve(context.Background(), bearerRequest(token))
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "fresh", identity.User.DisplayName)
}

func TestBearerStrategyFallsBackToEmail(t *testing.T) {
	issuer := issuerAt("secret", time.Hour, fixedNow)
	token, err := issuer.Issue(models.User{ID: 70, Email: "seven@pitchey.test"})
	require.NoError(t, err)

	users := new(mocks.UserRepositoryMock)
	users.On("GetByID", mock.Anything, 70).Return(nil, repositories.ErrUserNotFound).Once()
	users.On("GetByEmail", mock.Anything, "seven@pitchey.test").Return(models.User{ID: 7}, nil).Once()

	identity, err := NewBearerJWTStrategy(issuer, users).Resolve(context.Background(), bearerRequest(token))
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, 7, identity.User.ID)
	users.AssertExpectations(t)
}

func TestBearerStrategyExpiredTokenSkipsDatabase(t *testing.T) {
	token, err := issuerAt("secret", time.Hour, fixedNow).Issue(models.User{ID: 7})
	require.NoError(t, err)

	users := new(mocks.UserRepositoryMock)
	later := issuerAt("secret", time.Hour, fixedNow.Add(time.Hour))

	identity, err := NewBearerJWTStrategy(later, users).Resolve(context.Background(), bearerRequest(token))
	require.NoError(t, err)
	assert.Nil(t, identity)
	users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	users.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := BearerToken(req)
	assert.False(t, ok)

	req.Header.Set("Authorization", "Basic abc")
	_, ok = BearerToken(req)
	assert.False(t, ok)

	req.Header.Set("Authorization", "bearer  tok ")
	token, ok := BearerToken(req)
	require.True(t, ok)
	assert.Equal(t, "tok", token)
}

func TestResolverChainFallsThroughToBearer(t *testing.T) {
	sessions := new(mocks.SessionRepositoryMock)
	sessions.On("FindValidSession", mock.Anything, "dead").Return(nil, nil, repositories.ErrSessionNotFound).Once()
	store := newTestSessionStore(sessions, cache.NewMemory())

	issuer := issuerAt("secret", time.Hour, fixedNow)
	token, err := issuer.Issue(models.User{ID: 9})
	require.NoError(t, err)
	users := new(mocks.UserRepositoryMock)
	users.On("GetByID", mock.Anything, 9).Return(models.User{ID: 9}, nil).Once()

	resolver := NewIdentityResolver(
		NewCookieSessionStrategy(testCookies(""), store),
		NewSessionAPIStrategy(testCookies(""), store),
		NewBearerJWTStrategy(issuer, users),
	)

	req := bearerRequest(token)
	req.AddCookie(&http.Cookie{Name: "pitchey-session", Value: "dead"})

	res := resolver.Resolve(context.Background(), req)
	require.True(t, res.Authenticated)
	assert.Equal(t, 9, res.Identity.User.ID)
	assert.Equal(t, "bearer_jwt", res.Identity.Method)
}

func TestCookieStrategyFallsThroughStalePrimaryToLegacy(t *testing.T) {
	repo := new(mocks.SessionRepositoryMock)
	repo.On("FindValidSession", mock.Anything, "stale").Return(nil, nil, repositories.ErrSessionNotFound).Once()
	repo.On("FindValidSession", mock.Anything, "live").Return(liveSession("live", 7), models.User{ID: 7}, nil).Once()
	store := newTestSessionStore(repo, cache.NewMemory())

	resolver := NewIdentityResolver(
		NewCookieSessionStrategy(testCookies(""), store),
		NewSessionAPIStrategy(testCookies(""), store),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "pitchey-session", Value: "stale"})
	req.AddCookie(&http.Cookie{Name: "pitchey_session", Value: "live"})

	res := resolver.Resolve(context.Background(), req)
	require.True(t, res.Authenticated)
	assert.Equal(t, 7, res.Identity.User.ID)
	assert.Equal(t, "live", res.Identity.SessionID)
	assert.Equal(t, "cookie_session", res.Identity.Method)
	repo.AssertExpectations(t)
}

func TestCookieStrategyErrorOnOneCookieDoesNotHideAnother(t *testing.T) {
	repo := new(mocks.SessionRepositoryMock)
	repo.On("FindValidSession", mock.Anything, "flaky").Return(nil, nil, errors.New("timeout")).Once()
	repo.On("FindValidSession", mock.Anything, "live").Return(liveSession("live", 9), models.User{ID: 9}, nil).Once()
	strategy := NewCookieSessionStrategy(testCookies(""), newTestSessionStore(repo, nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "pitchey-session", Value: "flaky"})
	req.AddCookie(&http.Cookie{Name: "better-auth.session_token", Value: "live"})

	identity, err := strategy.Resolve(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, 9, identity.User.ID)
}

func TestCookieStrategyReportsLastErrorWhenNothingResolves(t *testing.T) {
	repo := new(mocks.SessionRepositoryMock)
	repo.On("FindValidSession", mock.Anything, "flaky").Return(nil, nil, errors.New("timeout")).Once()
	strategy := NewCookieSessionStrategy(testCookies(""), newTestSessionStore(repo, nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "pitchey_session", Value: "flaky"})

	identity, err := strategy.Resolve(context.Background(), req)
	require.Error(t, err)
	assert.Nil(t, identity)
}
