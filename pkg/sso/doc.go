// Package sso implements redirect-based login against an OpenID Connect
// identity provider such as Auth0.
//
// # Overview
//
// OIDCClient runs the authorization code flow with PKCE. LoginWithRedirect
// stores a pending Transaction and navigates to the provider; when the
// provider redirects back, a client (possibly a new one sharing the same
// TransactionStore) completes the login with HandleRedirectCallback. The
// ID token is verified against the provider's JWKS and mapped onto a User.
// The completed session lands in a SessionStore, so later clients for the
// same issuer and client ID resume it. TokenSilently returns the access token, refreshing it when possible.
//
// A Navigator stands in for the browser location. MemoryNavigator records
// redirects, which suits tests and embedding; LoopbackNavigator serves the
// redirect URI on a local port for command line tools.
//
// # Usage Example
//
//	nav, err := sso.NewLoopbackNavigator("127.0.0.1:8085")
//	if err != nil {
//		return err
//	}
//	defer nav.Close()
//
//	client, err := sso.NewOIDCClient(ctx, sso.Settings{
//		Domain:    "example.eu.auth0.com",
//		ClientID:  clientID,
//		Audience:  "https://ssd.example.com",
//		Scope:     "openid profile email",
//		Navigator: nav,
//	})
//	if err != nil {
//		return err
//	}
//
//	_ = client.LoginWithRedirect(ctx, nav.Origin()+"/ssd/")
//	_ = nav.WaitForCallback(ctx)
//	_ = client.HandleRedirectCallback(ctx, nav.Location().String())
//
//	token, err := client.TokenSilently(ctx)
//
// # Logout
//
// Logout clears the local session and redirects to the provider's
// end_session_endpoint, or to /v2/logout for Auth0 tenants that do not
// advertise one.
//
// # Related Packages
//
//   - pkg/session: Observable session state built on Client
//   - pkg/config: Identity provider settings
package sso
