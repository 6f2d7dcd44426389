package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/openarcloud/ssd/pkg/observability"
	"github.com/openarcloud/ssd/pkg/observable"
	"github.com/openarcloud/ssd/pkg/sso"
)

// DefaultRedirectPath is appended to the navigator origin to form the
// login return URI
const DefaultRedirectPath = "/ssd/"

var (
	// ErrInvalidParameters is returned by Init when a parameter is empty
	ErrInvalidParameters = errors.New("check parameters")
	// ErrNotInitialized is logged when Login or Logout run before Init
	ErrNotInitialized = errors.New("session not initialized")
)

// callbackParams are removed from the location once a callback is handled
var callbackParams = []string{"code", "state", "error", "error_description"}

// Manager tracks the authentication session of one user. Its state is
// exposed as observable values for UI code to subscribe to.
type Manager struct {
	Loading       *observable.Value[bool]
	Authenticated *observable.Value[bool]
	User          *observable.Value[*sso.User]

	factory      sso.Factory
	navigator    sso.Navigator
	transactions sso.TransactionStore
	sessions     sso.SessionStore
	httpClient   *http.Client
	redirectPath string
	logger       *logrus.Logger
	metrics      *observability.ClientMetrics

	mu     sync.Mutex
	client sso.Client
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the logger (default logrus.New())
func WithLogger(logger *logrus.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClientFactory sets how Init builds the identity client (default sso.NewClient)
func WithClientFactory(factory sso.Factory) Option {
	return func(m *Manager) {
		m.factory = factory
	}
}

// WithNavigator sets the browser location stand-in (default a
// MemoryNavigator at http://localhost/)
func WithNavigator(navigator sso.Navigator) Option {
	return func(m *Manager) {
		m.navigator = navigator
	}
}

// WithRedirectPath sets the path of the login return URI (default "/ssd/")
func WithRedirectPath(path string) Option {
	return func(m *Manager) {
		m.redirectPath = path
	}
}

// WithHTTPClient sets the HTTP client handed to the identity client
func WithHTTPClient(client *http.Client) Option {
	return func(m *Manager) {
		m.httpClient = client
	}
}

// WithTransactions sets where pending logins are kept between Init calls
// (default an in-memory store owned by the Manager)
func WithTransactions(store sso.TransactionStore) Option {
	return func(m *Manager) {
		m.transactions = store
	}
}

// WithSessions sets where completed logins are kept between Init calls
// (default an in-memory store owned by the Manager)
func WithSessions(store sso.SessionStore) Option {
	return func(m *Manager) {
		m.sessions = store
	}
}

// WithMetrics records session events
func WithMetrics(metrics *observability.ClientMetrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// New creates a new session manager
func New(opts ...Option) *Manager {
	m := &Manager{
		Loading:       observable.NewValue(false),
		Authenticated: observable.NewValue(false),
		User:          observable.NewValue[*sso.User](nil),
		factory:       sso.NewClient,
		redirectPath:  DefaultRedirectPath,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = logrus.New()
	}
	if m.navigator == nil {
		m.navigator, _ = sso.NewMemoryNavigator("http://localhost/")
	}
	if m.transactions == nil {
		m.transactions = sso.NewMemoryTransactions(0)
	}
	if m.sessions == nil {
		m.sessions = sso.NewMemorySessions()
	}
	return m
}

// Init creates the identity client, completes a pending login if the
// current location is a redirect callback, and refreshes User and
// Authenticated. It must be called again after every login redirect.
func (m *Manager) Init(ctx context.Context, domain, clientID, audience, scope string) error {
	if domain == "" || clientID == "" || audience == "" || scope == "" {
		return fmt.Errorf("%w: domain=%q client_id=%q audience=%q scope=%q",
			ErrInvalidParameters, domain, clientID, audience, scope)
	}

	m.Loading.Set(true)
	defer m.Loading.Set(false)

	client, err := m.factory(ctx, sso.Settings{
		Domain:       domain,
		ClientID:     clientID,
		Audience:     audience,
		Scope:        scope,
		HTTPClient:   m.httpClient,
		Navigator:    m.navigator,
		Transactions: m.transactions,
		Sessions:     m.sessions,
		Logger:       m.logger,
	})
	m.metrics.RecordSessionEvent("init", err)
	if err != nil {
		return fmt.Errorf("failed to create identity client: %w", err)
	}

	m.mu.Lock()
	m.client = client
	m.mu.Unlock()

	var callbackErr error
	if loc := m.navigator.Location(); isCallback(loc) {
		callbackErr = client.HandleRedirectCallback(ctx, loc.String())
		m.metrics.RecordSessionEvent("callback", callbackErr)
		if callbackErr != nil {
			m.logger.WithError(callbackErr).Error("Failed to complete login")
			callbackErr = fmt.Errorf("failed to handle login callback: %w", callbackErr)
		}
		m.navigator.Replace(stripCallback(loc))
	}

	if err := m.refresh(ctx, client); err != nil {
		return errors.Join(callbackErr, err)
	}

	m.logger.WithFields(logrus.Fields{
		"domain":        domain,
		"authenticated": m.Authenticated.Get(),
	}).Info("Session initialized")
	return callbackErr
}

func (m *Manager) refresh(ctx context.Context, client sso.Client) error {
	user, err := client.User(ctx)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	authenticated, err := client.IsAuthenticated(ctx)
	if err != nil {
		return fmt.Errorf("failed to get authentication status: %w", err)
	}

	m.User.Set(user)
	m.Authenticated.Set(authenticated)
	return nil
}

// isCallback reports whether the query carries both code and state
func isCallback(u *url.URL) bool {
	return strings.Contains(u.RawQuery, "code=") && strings.Contains(u.RawQuery, "state=")
}

func stripCallback(u *url.URL) *url.URL {
	stripped := *u
	q := stripped.Query()
	for _, p := range callbackParams {
		q.Del(p)
	}
	stripped.RawQuery = q.Encode()
	return &stripped
}

// Login starts a redirect login returning to <origin><redirect path>.
// Failures are logged and never returned.
func (m *Manager) Login(ctx context.Context) {
	client := m.currentClient()
	if client == nil {
		m.logger.WithError(ErrNotInitialized).Error("Login failed")
		m.metrics.RecordSessionEvent("login", ErrNotInitialized)
		return
	}

	redirectURI := m.navigator.Origin() + m.redirectPath
	err := client.LoginWithRedirect(ctx, redirectURI)
	m.metrics.RecordSessionEvent("login", err)
	if err != nil {
		m.logger.WithError(err).Error("Login failed")
		return
	}
	m.logger.WithField("redirect_uri", redirectURI).Debug("Login redirect started")
}

// Logout ends the session at the identity provider, returning to the
// origin. Failures are logged and never returned; User and Authenticated
// are cleared either way.
func (m *Manager) Logout(ctx context.Context) {
	defer func() {
		m.User.Set(nil)
		m.Authenticated.Set(false)
	}()

	client := m.currentClient()
	if client == nil {
		m.logger.WithError(ErrNotInitialized).Error("Logout failed")
		m.metrics.RecordSessionEvent("logout", ErrNotInitialized)
		return
	}

	err := client.Logout(ctx, m.navigator.Origin())
	m.metrics.RecordSessionEvent("logout", err)
	if err != nil {
		m.logger.WithError(err).Error("Logout failed")
		return
	}
	m.logger.Info("Logged out")
}

// GetToken returns a fresh bearer token, or "" when there is no session
// or it cannot be renewed
func (m *Manager) GetToken(ctx context.Context) string {
	client := m.currentClient()
	if client == nil {
		return ""
	}

	token, err := client.TokenSilently(ctx)
	if err != nil {
		m.logger.WithError(err).Debug("No token available")
		return ""
	}
	return token
}

func (m *Manager) currentClient() sso.Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client
}
