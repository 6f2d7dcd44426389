package sso

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// OIDCClient implements Client against an OpenID Connect provider using
// the authorization code flow with PKCE
type OIDCClient struct {
	settings     Settings
	issuer       string
	provider     *oidc.Provider
	verifier     *oidc.IDTokenVerifier
	oauth2Config oauth2.Config
	endSession   string
	navigator    Navigator
	transactions TransactionStore
	sessions     SessionStore
	sessionKey   string
	logger       *logrus.Logger

	// baseCtx carries the HTTP client for token refreshes
	baseCtx context.Context

	// mu guards load-modify-save of the stored session
	mu sync.Mutex
}

// NewOIDCClient discovers the provider for settings.Domain and creates a client
func NewOIDCClient(ctx context.Context, settings Settings) (*OIDCClient, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if settings.Navigator == nil {
		return nil, fmt.Errorf("%w: navigator required", ErrInvalidSettings)
	}
	if settings.Transactions == nil {
		settings.Transactions = NewMemoryTransactions(0)
	}
	if settings.Sessions == nil {
		settings.Sessions = NewMemorySessions()
	}
	logger := settings.Logger
	if logger == nil {
		logger = logrus.New()
	}

	baseCtx := context.Background()
	if settings.HTTPClient != nil {
		ctx = oidc.ClientContext(ctx, settings.HTTPClient)
		baseCtx = oidc.ClientContext(baseCtx, settings.HTTPClient)
	}

	// Discover OIDC provider
	issuer := settings.Issuer()
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	var metadata struct {
		EndSessionEndpoint string `json:"end_session_endpoint"`
	}
	if err := provider.Claims(&metadata); err != nil {
		return nil, fmt.Errorf("failed to parse provider metadata: %w", err)
	}

	return &OIDCClient{
		settings: settings,
		issuer:   issuer,
		provider: provider,
		verifier: provider.Verifier(&oidc.Config{ClientID: settings.ClientID}),
		oauth2Config: oauth2.Config{
			ClientID:     settings.ClientID,
			ClientSecret: settings.ClientSecret,
			Endpoint:     provider.Endpoint(),
			Scopes:       scopes(settings.Scope),
		},
		endSession:   metadata.EndSessionEndpoint,
		navigator:    settings.Navigator,
		transactions: settings.Transactions,
		sessions:     settings.Sessions,
		sessionKey:   sessionKey(issuer, settings.ClientID),
		logger:       logger,
		baseCtx:      baseCtx,
	}, nil
}

// scopes splits a space separated scope string and makes sure openid is requested
func scopes(scope string) []string {
	fields := strings.Fields(scope)
	for _, s := range fields {
		if s == oidc.ScopeOpenID {
			return fields
		}
	}
	return append([]string{oidc.ScopeOpenID}, fields...)
}

func (c *OIDCClient) configFor(redirectURI string) *oauth2.Config {
	cfg := c.oauth2Config
	cfg.RedirectURL = redirectURI
	return &cfg
}

// LoginWithRedirect records a pending transaction and navigates to the
// provider's authorization endpoint
func (c *OIDCClient) LoginWithRedirect(ctx context.Context, redirectURI string) error {
	tx := Transaction{
		State:       uuid.NewString(),
		Verifier:    oauth2.GenerateVerifier(),
		Nonce:       uuid.NewString(),
		RedirectURI: redirectURI,
	}
	if err := c.transactions.Put(tx); err != nil {
		return fmt.Errorf("failed to store login transaction: %w", err)
	}

	authURL := c.configFor(redirectURI).AuthCodeURL(tx.State,
		oauth2.S256ChallengeOption(tx.Verifier),
		oauth2.SetAuthURLParam("audience", c.settings.Audience),
		oauth2.SetAuthURLParam("nonce", tx.Nonce),
	)

	c.logger.WithField("issuer", c.issuer).Debug("Redirecting to identity provider")
	return c.navigator.Redirect(ctx, authURL)
}

// HandleRedirectCallback completes a login from the URL the provider
// redirected back to
func (c *OIDCClient) HandleRedirectCallback(ctx context.Context, callbackURL string) error {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return fmt.Errorf("invalid callback URL: %w", err)
	}
	q := u.Query()

	tx, ok := c.transactions.Take(q.Get("state"))
	if code := q.Get("error"); code != "" {
		return &CallbackError{Code: code, Description: q.Get("error_description")}
	}
	if !ok {
		return ErrInvalidState
	}
	code := q.Get("code")
	if code == "" {
		return ErrMissingCode
	}

	if c.settings.HTTPClient != nil {
		ctx = oidc.ClientContext(ctx, c.settings.HTTPClient)
	}

	// Exchange code for token
	cfg := c.configFor(tx.RedirectURI)
	token, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(tx.Verifier))
	if err != nil {
		return fmt.Errorf("failed to exchange token: %w", err)
	}

	// Extract and verify ID token
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return fmt.Errorf("missing id_token in response")
	}
	idToken, err := c.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return fmt.Errorf("failed to verify ID token: %w", err)
	}
	if idToken.Nonce != tx.Nonce {
		return fmt.Errorf("failed to verify ID token: nonce mismatch")
	}

	var claims map[string]interface{}
	if err := idToken.Claims(&claims); err != nil {
		return fmt.Errorf("failed to parse claims: %w", err)
	}
	user := userFromClaims(claims)
	if user.Subject == "" {
		user.Subject = idToken.Subject
	}

	if token.Expiry.IsZero() {
		token.Expiry = accessTokenExpiry(token.AccessToken)
	}

	c.mu.Lock()
	err = c.sessions.Save(c.sessionKey, Session{
		Token:       token,
		User:        user,
		IDToken:     rawIDToken,
		RedirectURI: tx.RedirectURI,
	})
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	c.logger.WithField("sub", user.Subject).Info("Login completed")
	return nil
}

// accessTokenExpiry reads the exp claim of a JWT access token without
// verifying it; the API it is sent to does that. Opaque tokens yield the
// zero time, which oauth2 treats as never expiring.
func accessTokenExpiry(accessToken string) (expiry time.Time) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return expiry
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return expiry
	}
	return exp.Time
}

// Logout clears the local session and navigates to the provider's logout
// endpoint, which returns the browser to returnTo
func (c *OIDCClient) Logout(ctx context.Context, returnTo string) error {
	c.mu.Lock()
	session, _ := c.sessions.Load(c.sessionKey)
	err := c.sessions.Delete(c.sessionKey)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	target, err := c.logoutURL(returnTo, session.IDToken)
	if err != nil {
		return err
	}
	return c.navigator.Redirect(ctx, target)
}

func (c *OIDCClient) logoutURL(returnTo, idToken string) (string, error) {
	q := url.Values{}
	q.Set("client_id", c.settings.ClientID)

	var endpoint string
	if c.endSession != "" {
		endpoint = c.endSession
		q.Set("post_logout_redirect_uri", returnTo)
		if idToken != "" {
			q.Set("id_token_hint", idToken)
		}
	} else {
		// Auth0 does not advertise end_session_endpoint
		endpoint = strings.TrimRight(c.issuer, "/") + "/v2/logout"
		q.Set("returnTo", returnTo)
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid logout endpoint: %w", err)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// User returns the signed-in user, or nil without a session
func (c *OIDCClient) User(ctx context.Context) (*User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	session, ok := c.sessions.Load(c.sessionKey)
	if !ok {
		return nil, nil
	}
	return session.User.clone(), nil
}

// IsAuthenticated reports whether a login has completed
func (c *OIDCClient) IsAuthenticated(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.sessions.Load(c.sessionKey)
	return ok, nil
}

// TokenSilently returns a valid access token, refreshing it when it has
// expired and a refresh token is available
func (c *OIDCClient) TokenSilently(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.sessions.Load(c.sessionKey)
	if !ok {
		return "", ErrLoginRequired
	}
	token, err := c.configFor(session.RedirectURI).TokenSource(c.baseCtx, session.Token).Token()
	if err != nil {
		return "", fmt.Errorf("failed to renew token: %w", err)
	}
	if token.AccessToken != session.Token.AccessToken {
		session.Token = token
		if err := c.sessions.Save(c.sessionKey, session); err != nil {
			return "", fmt.Errorf("failed to store renewed token: %w", err)
		}
	}
	return token.AccessToken, nil
}
