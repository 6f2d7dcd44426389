package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/openarcloud/ssd/pkg/session"
	"github.com/openarcloud/ssd/pkg/sso"
)

// DefaultLoginTimeout bounds how long login waits for the browser
const DefaultLoginTimeout = 5 * time.Minute

// LoginResult is the JSON form of a completed login
type LoginResult struct {
	Subject     string `json:"sub"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	AccessToken string `json:"access_token"`
}

func newLoginCommand() *Command {
	cmd := &Command{
		Name:        "login",
		Usage:       "login [--timeout DURATION] [--no-browser]",
		Description: "Sign in with the identity provider and print an access token",
		Flags:       pflag.NewFlagSet("login", pflag.ContinueOnError),
	}

	timeout := cmd.Flags.Duration("timeout", DefaultLoginTimeout, "How long to wait for the browser to return")
	noBrowser := cmd.Flags.Bool("no-browser", false, "Only print the login URL")

	cmd.Run = func(ctx context.Context, app *App, args []string) error {
		return runLogin(ctx, app, *timeout, *noBrowser)
	}
	return cmd
}

func runLogin(ctx context.Context, app *App, timeout time.Duration, noBrowser bool) error {
	auth := app.Config.Auth
	if !auth.Enabled() {
		return errors.New("login: identity provider not configured (set SSD_AUTH_DOMAIN, SSD_AUTH_CLIENT_ID, SSD_AUTH_AUDIENCE and SSD_AUTH_SCOPE)")
	}

	browser := app.browser
	if noBrowser {
		browser = nil
	}
	nav, err := sso.NewLoopbackNavigator(auth.CallbackAddr,
		sso.WithOutput(app.Stderr),
		sso.WithBrowser(browser),
		sso.WithNavigatorLogger(app.Logger),
	)
	if err != nil {
		return err
	}
	defer nav.Close()

	factory := func(ctx context.Context, settings sso.Settings) (sso.Client, error) {
		settings.ClientSecret = auth.ClientSecret
		return app.sessionFactory(ctx, settings)
	}
	manager := session.New(
		session.WithLogger(app.Logger),
		session.WithNavigator(nav),
		session.WithClientFactory(factory),
		session.WithRedirectPath(auth.RedirectPath),
		session.WithHTTPClient(app.httpClient),
		session.WithMetrics(app.Metrics),
	)

	if err := manager.Init(ctx, auth.Domain, auth.ClientID, auth.Audience, auth.Scope); err != nil {
		return err
	}
	manager.Login(ctx)

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := nav.WaitForCallback(waitCtx); err != nil {
		return err
	}

	// The callback is now the navigator's location; Init completes the login
	if err := manager.Init(ctx, auth.Domain, auth.ClientID, auth.Audience, auth.Scope); err != nil {
		return err
	}
	if !manager.Authenticated.Get() {
		return errors.New("login did not complete")
	}

	token := manager.GetToken(ctx)
	if token == "" {
		return errors.New("login completed without an access token")
	}

	result := LoginResult{AccessToken: token}
	if user := manager.User.Get(); user != nil {
		result.Subject = user.Subject
		result.Name = user.Name
		result.Email = user.Email
	}
	app.Logger.WithField("sub", result.Subject).Info("Logged in")
	if err := app.printJSON(result); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return nil
}
