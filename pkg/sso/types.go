package sso

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidSettings is returned when required identity provider settings are missing
	ErrInvalidSettings = errors.New("invalid identity provider settings")
	// ErrLoginRequired is returned when an operation needs a session and there is none
	ErrLoginRequired = errors.New("login required")
	// ErrInvalidState is returned for a callback whose state matches no pending login
	ErrInvalidState = errors.New("invalid state")
	// ErrMissingCode is returned for a callback without an authorization code
	ErrMissingCode = errors.New("missing authorization code")
)

// CallbackError is an error reported by the identity provider on the
// redirect callback
type CallbackError struct {
	Code        string
	Description string
}

func (e *CallbackError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("identity provider error: %s", e.Code)
	}
	return fmt.Sprintf("identity provider error: %s: %s", e.Code, e.Description)
}

// Client is an identity provider client performing redirect-based login.
// LoginWithRedirect and Logout navigate away; the login completes when the
// redirect URI is loaded again and passed to HandleRedirectCallback.
type Client interface {
	LoginWithRedirect(ctx context.Context, redirectURI string) error
	HandleRedirectCallback(ctx context.Context, callbackURL string) error
	Logout(ctx context.Context, returnTo string) error
	User(ctx context.Context) (*User, error)
	IsAuthenticated(ctx context.Context) (bool, error)
	TokenSilently(ctx context.Context) (string, error)
}

// Factory constructs a Client from settings
type Factory func(ctx context.Context, settings Settings) (Client, error)

// NewClient is the default Factory, returning an OIDCClient
func NewClient(ctx context.Context, settings Settings) (Client, error) {
	client, err := NewOIDCClient(ctx, settings)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Settings configures an identity provider client
type Settings struct {
	Domain   string
	ClientID string
	Audience string
	Scope    string

	// ClientSecret is only needed for confidential clients
	ClientSecret string

	HTTPClient   *http.Client
	Navigator    Navigator
	Transactions TransactionStore
	Sessions     SessionStore
	Logger       *logrus.Logger
}

// Validate checks that domain, client ID, audience and scope are set
func (s Settings) Validate() error {
	var missing []string
	if s.Domain == "" {
		missing = append(missing, "domain")
	}
	if s.ClientID == "" {
		missing = append(missing, "client_id")
	}
	if s.Audience == "" {
		missing = append(missing, "audience")
	}
	if s.Scope == "" {
		missing = append(missing, "scope")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrInvalidSettings, strings.Join(missing, ", "))
	}
	return nil
}

// Issuer returns the issuer URL for Domain. A bare domain becomes
// https://<domain>/; a value with a scheme is used as is.
func (s Settings) Issuer() string {
	if strings.Contains(s.Domain, "://") {
		return s.Domain
	}
	return "https://" + strings.TrimRight(s.Domain, "/") + "/"
}

// User is the profile of the signed-in user, taken from the ID token
type User struct {
	Subject       string                 `json:"sub"`
	Name          string                 `json:"name,omitempty"`
	Nickname      string                 `json:"nickname,omitempty"`
	Email         string                 `json:"email,omitempty"`
	EmailVerified bool                   `json:"email_verified,omitempty"`
	Picture       string                 `json:"picture,omitempty"`
	UpdatedAt     time.Time              `json:"updated_at,omitempty"`
	Claims        map[string]interface{} `json:"-"`
}

// userFromClaims maps standard ID token claims onto a User
func userFromClaims(claims map[string]interface{}) *User {
	user := &User{
		Subject:  getStringValue(claims, "sub"),
		Name:     getStringValue(claims, "name"),
		Nickname: getStringValue(claims, "nickname"),
		Email:    getStringValue(claims, "email"),
		Picture:  getStringValue(claims, "picture"),
		Claims:   claims,
	}
	if verified, ok := claims["email_verified"].(bool); ok {
		user.EmailVerified = verified
	}
	switch updated := claims["updated_at"].(type) {
	case string:
		if t, err := time.Parse(time.RFC3339, updated); err == nil {
			user.UpdatedAt = t
		}
	case float64:
		user.UpdatedAt = time.Unix(int64(updated), 0).UTC()
	}
	return user
}

func getStringValue(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

func (u *User) clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Claims = make(map[string]interface{}, len(u.Claims))
	for k, v := range u.Claims {
		c.Claims[k] = v
	}
	return &c
}
