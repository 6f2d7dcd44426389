// Package session keeps the authentication state of a discovery client
// user as observable values.
//
// # Overview
//
// Manager wraps an sso.Client. Loading, Authenticated and User are
// observable.Value cells a UI can subscribe to. Init must run on every
// page load, including the one the identity provider redirects back to:
// it detects the code and state parameters, completes the login and
// removes them from the location.
//
// Login and Logout never return errors. Failures are logged, and Logout
// always clears the local state. GetToken returns "" when there is no
// usable session.
//
// # Usage Example
//
//	manager := session.New(
//		session.WithNavigator(nav),
//		session.WithLogger(logger),
//	)
//	if err := manager.Init(ctx, domain, clientID, audience, scope); err != nil {
//		return err
//	}
//
//	manager.Authenticated.Subscribe(func(ok bool) {
//		fmt.Println("authenticated:", ok)
//	})
//
//	if !manager.Authenticated.Get() {
//		manager.Login(ctx)
//	}
//
//	records, err := client.ServicesForProducer(ctx, "fi", manager.GetToken(ctx))
//
// # Related Packages
//
//   - pkg/sso: Identity provider client and navigators
//   - pkg/observable: Observable values
//   - pkg/discovery: Consumes the bearer token
package session
