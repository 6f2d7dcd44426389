package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openarcloud/ssd/pkg/observability"
	"github.com/openarcloud/ssd/pkg/sso"
)

// fakeClient is an identity client whose session is driven by the test
type fakeClient struct {
	mu sync.Mutex

	settings      sso.Settings
	user          *sso.User
	authenticated bool
	token         string

	loginErr    error
	logoutErr   error
	callbackErr error
	tokenErr    error

	callbacks   []string
	redirectURI []string
	returnTo    []string
}

func (f *fakeClient) LoginWithRedirect(_ context.Context, redirectURI string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.redirectURI = append(f.redirectURI, redirectURI)
	return f.loginErr
}

func (f *fakeClient) HandleRedirectCallback(_ context.Context, callbackURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callbacks = append(f.callbacks, callbackURL)
	if f.callbackErr != nil {
		return f.callbackErr
	}
	f.user = &sso.User{Subject: "auth0|42", Name: "Ada Lovelace"}
	f.authenticated = true
	f.token = "fresh-token"
	return nil
}

func (f *fakeClient) Logout(_ context.Context, returnTo string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.returnTo = append(f.returnTo, returnTo)
	return f.logoutErr
}

func (f *fakeClient) User(context.Context) (*sso.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user, nil
}

func (f *fakeClient) IsAuthenticated(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authenticated, nil
}

func (f *fakeClient) TokenSilently(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tokenErr != nil {
		return "", f.tokenErr
	}
	if !f.authenticated {
		return "", sso.ErrLoginRequired
	}
	return f.token, nil
}

func (f *fakeClient) factory(_ context.Context, settings sso.Settings) (sso.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings = settings
	return f, nil
}

type fixture struct {
	manager *Manager
	client  *fakeClient
	nav     *sso.MemoryNavigator
	hook    *test.Hook
	metrics *observability.ClientMetrics
}

func newFixture(t *testing.T, location string, opts ...Option) *fixture {
	t.Helper()
	nav, err := sso.NewMemoryNavigator(location)
	require.NoError(t, err)
	logger, hook := test.NewNullLogger()
	client := &fakeClient{}
	metrics := observability.NewClientMetrics(nil)

	opts = append([]Option{
		WithLogger(logger),
		WithNavigator(nav),
		WithClientFactory(client.factory),
		WithMetrics(metrics),
	}, opts...)

	return &fixture{
		manager: New(opts...),
		client:  client,
		nav:     nav,
		hook:    hook,
		metrics: metrics,
	}
}

func initFixture(t *testing.T, f *fixture) {
	t.Helper()
	require.NoError(t, f.manager.Init(context.Background(), "example.auth0.com", "client", "https://ssd.example.com", "openid"))
}

func TestNew_InitialState(t *testing.T) {
	m := New()
	assert.False(t, m.Loading.Get())
	assert.False(t, m.Authenticated.Get())
	assert.Nil(t, m.User.Get())
	assert.Empty(t, m.GetToken(context.Background()))
}

func TestInit_InvalidParameters(t *testing.T) {
	tests := []struct {
		name     string
		domain   string
		clientID string
		audience string
		scope    string
	}{
		{"missing domain", "", "client", "aud", "openid"},
		{"missing client id", "example.auth0.com", "", "aud", "openid"},
		{"missing audience", "example.auth0.com", "client", "", "openid"},
		{"missing scope", "example.auth0.com", "client", "aud", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "http://localhost:5173/ssd/")
			err := f.manager.Init(context.Background(), tt.domain, tt.clientID, tt.audience, tt.scope)
			assert.ErrorIs(t, err, ErrInvalidParameters)
			assert.Empty(t, f.client.settings.Domain, "factory must not be called")
		})
	}
}

func TestInit_FactoryError(t *testing.T) {
	boom := errors.New("discovery failed")
	f := newFixture(t, "http://localhost:5173/ssd/", WithClientFactory(func(context.Context, sso.Settings) (sso.Client, error) {
		return nil, boom
	}))

	err := f.manager.Init(context.Background(), "example.auth0.com", "client", "aud", "openid")
	assert.ErrorIs(t, err, boom)
	assert.False(t, f.manager.Loading.Get())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SessionEventsTotal.WithLabelValues("init", "failure")))
}

func TestInit_WithoutCallback(t *testing.T) {
	f := newFixture(t, "http://localhost:5173/ssd/?tab=map")

	var loading []bool
	unsubscribe := f.manager.Loading.Subscribe(func(v bool) { loading = append(loading, v) })
	defer unsubscribe()

	initFixture(t, f)

	assert.Equal(t, []bool{false, true, false}, loading)
	assert.False(t, f.manager.Authenticated.Get())
	assert.Nil(t, f.manager.User.Get())
	assert.Empty(t, f.client.callbacks)
	assert.Equal(t, "http://localhost:5173/ssd/?tab=map", f.nav.Location().String())

	settings := f.client.settings
	assert.Equal(t, "example.auth0.com", settings.Domain)
	assert.Equal(t, "client", settings.ClientID)
	assert.Equal(t, "https://ssd.example.com", settings.Audience)
	assert.Equal(t, "openid", settings.Scope)
	assert.Same(t, f.nav, settings.Navigator)
	assert.NotNil(t, settings.Transactions)
}

func TestInit_CompletesCallback(t *testing.T) {
	f := newFixture(t, "http://localhost:5173/ssd/?code=abc&state=xyz&tab=map")

	var users []*sso.User
	f.manager.User.Subscribe(func(u *sso.User) { users = append(users, u) })

	initFixture(t, f)

	require.Len(t, f.client.callbacks, 1)
	assert.Equal(t, "http://localhost:5173/ssd/?code=abc&state=xyz&tab=map", f.client.callbacks[0])

	loc := f.nav.Location()
	assert.Equal(t, "/ssd/", loc.Path)
	assert.NotContains(t, loc.RawQuery, "code=")
	assert.NotContains(t, loc.RawQuery, "state=")
	assert.Equal(t, "map", loc.Query().Get("tab"))

	assert.True(t, f.manager.Authenticated.Get())
	require.NotNil(t, f.manager.User.Get())
	assert.Equal(t, "auth0|42", f.manager.User.Get().Subject)
	assert.Len(t, users, 2)
	assert.Equal(t, "fresh-token", f.manager.GetToken(context.Background()))
}

func TestInit_OnlyCodeIsNotCallback(t *testing.T) {
	f := newFixture(t, "http://localhost:5173/ssd/?code=abc")
	initFixture(t, f)

	assert.Empty(t, f.client.callbacks)
	assert.Equal(t, "code=abc", f.nav.Location().RawQuery)
}

func TestInit_CallbackError(t *testing.T) {
	f := newFixture(t, "http://localhost:5173/ssd/?code=abc&state=stale")
	f.client.callbackErr = sso.ErrInvalidState

	err := f.manager.Init(context.Background(), "example.auth0.com", "client", "aud", "openid")
	assert.ErrorIs(t, err, sso.ErrInvalidState)

	assert.Empty(t, f.nav.Location().RawQuery, "callback parameters are stripped even on failure")
	assert.False(t, f.manager.Authenticated.Get())
	assert.False(t, f.manager.Loading.Get())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SessionEventsTotal.WithLabelValues("callback", "failure")))
}

func TestLogin(t *testing.T) {
	t.Run("before init", func(t *testing.T) {
		f := newFixture(t, "http://localhost:5173/ssd/")
		assert.NotPanics(t, func() { f.manager.Login(context.Background()) })

		entry := f.hook.LastEntry()
		require.NotNil(t, entry)
		assert.Equal(t, logrus.ErrorLevel, entry.Level)
		assert.ErrorIs(t, entry.Data[logrus.ErrorKey].(error), ErrNotInitialized)
	})

	t.Run("redirects to return uri", func(t *testing.T) {
		f := newFixture(t, "https://app.example.com/ssd/browse?x=1")
		initFixture(t, f)

		f.manager.Login(context.Background())
		assert.Equal(t, []string{"https://app.example.com/ssd/"}, f.client.redirectURI)
	})

	t.Run("custom redirect path", func(t *testing.T) {
		f := newFixture(t, "https://app.example.com/", WithRedirectPath("/callback"))
		initFixture(t, f)

		f.manager.Login(context.Background())
		assert.Equal(t, []string{"https://app.example.com/callback"}, f.client.redirectURI)
	})

	t.Run("failure is logged", func(t *testing.T) {
		f := newFixture(t, "https://app.example.com/")
		initFixture(t, f)
		f.client.loginErr = errors.New("popup blocked")

		f.manager.Login(context.Background())

		entry := f.hook.LastEntry()
		require.NotNil(t, entry)
		assert.Equal(t, logrus.ErrorLevel, entry.Level)
		assert.Equal(t, "Login failed", entry.Message)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SessionEventsTotal.WithLabelValues("login", "failure")))
	})
}

func TestLogout(t *testing.T) {
	tests := []struct {
		name      string
		logoutErr error
	}{
		{"accepted", nil},
		{"rejected", errors.New("network unreachable")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "https://app.example.com/ssd/?code=abc&state=xyz")
			initFixture(t, f)
			require.True(t, f.manager.Authenticated.Get())

			f.client.logoutErr = tt.logoutErr
			f.manager.Logout(context.Background())

			assert.Equal(t, []string{"https://app.example.com"}, f.client.returnTo)
			assert.False(t, f.manager.Authenticated.Get())
			assert.Nil(t, f.manager.User.Get())

			if tt.logoutErr != nil {
				entry := f.hook.LastEntry()
				require.NotNil(t, entry)
				assert.Equal(t, "Logout failed", entry.Message)
			}
		})
	}

	t.Run("before init", func(t *testing.T) {
		f := newFixture(t, "https://app.example.com/")
		f.manager.Authenticated.Set(true)

		f.manager.Logout(context.Background())
		assert.False(t, f.manager.Authenticated.Get())
	})
}

func TestGetToken(t *testing.T) {
	f := newFixture(t, "https://app.example.com/")
	initFixture(t, f)

	assert.Empty(t, f.manager.GetToken(context.Background()), "no session")

	f.client.authenticated = true
	f.client.token = "abc"
	assert.Equal(t, "abc", f.manager.GetToken(context.Background()))

	f.client.tokenErr = errors.New("login_required")
	assert.Empty(t, f.manager.GetToken(context.Background()))
}

func TestInit_SharedTransactions(t *testing.T) {
	store := sso.NewMemoryTransactions(0)
	f := newFixture(t, "https://app.example.com/", WithTransactions(store))
	initFixture(t, f)
	first := f.client.settings.Transactions

	initFixture(t, f)
	assert.Same(t, store, first)
	assert.Same(t, first, f.client.settings.Transactions)
}

func TestInit_SharedSessions(t *testing.T) {
	store := sso.NewMemorySessions()
	f := newFixture(t, "https://app.example.com/", WithSessions(store))
	initFixture(t, f)
	assert.Same(t, store, f.client.settings.Sessions)

	initFixture(t, f)
	assert.Same(t, store, f.client.settings.Sessions)
}
