package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/openarcloud/ssd/pkg/config"
	"github.com/openarcloud/ssd/pkg/discovery"
	"github.com/openarcloud/ssd/pkg/observability"
	"github.com/openarcloud/ssd/pkg/sso"
	"github.com/openarcloud/ssd/pkg/ssr"
)

// App holds what a command needs to run: the resolved configuration, a
// logger and a discovery client
type App struct {
	Config  *config.Config
	Logger  *logrus.Logger
	Client  *discovery.Client
	Metrics *observability.ClientMetrics
	Token   string
	Stdout  io.Writer
	Stderr  io.Writer

	httpClient     *http.Client
	sessionFactory sso.Factory
	browser        func(string) error
	registry       *prometheus.Registry
	shutdown       *observability.ShutdownManager
}

// AppOption customizes the environment commands run in
type AppOption func(*appSettings)

type appSettings struct {
	stdout         io.Writer
	stderr         io.Writer
	httpClient     *http.Client
	sessionFactory sso.Factory
	browser        func(string) error
}

// WithStdout sets where command output is written (default os.Stdout)
func WithStdout(w io.Writer) AppOption {
	return func(s *appSettings) {
		s.stdout = w
	}
}

// WithStderr sets where logs and prompts are written (default os.Stderr)
func WithStderr(w io.Writer) AppOption {
	return func(s *appSettings) {
		s.stderr = w
	}
}

// WithHTTPClient sets the HTTP client used for the discovery server and
// the identity provider
func WithHTTPClient(client *http.Client) AppOption {
	return func(s *appSettings) {
		s.httpClient = client
	}
}

// WithSessionFactory sets how the login command builds its identity client
// (default sso.NewClient)
func WithSessionFactory(factory sso.Factory) AppOption {
	return func(s *appSettings) {
		s.sessionFactory = factory
	}
}

// WithBrowser sets how the login command opens the authorization URL
// (default sso.OpenBrowser)
func WithBrowser(open func(string) error) AppOption {
	return func(s *appSettings) {
		s.browser = open
	}
}

func newAppSettings(opts []AppOption) *appSettings {
	s := &appSettings{
		stdout:         os.Stdout,
		stderr:         os.Stderr,
		sessionFactory: sso.NewClient,
		browser:        sso.OpenBrowser,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newApp(ctx context.Context, g *globalOptions, flags *pflag.FlagSet, s *appSettings) (*App, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if flags.Changed("url") {
		cfg.Discovery.BaseURL = g.baseURL
	}
	if flags.Changed("path") {
		cfg.Discovery.SubPath = g.subPath
	}
	if flags.Changed("local") {
		cfg.Discovery.Local = g.local
	}
	if flags.Changed("log-level") {
		cfg.Observability.LogLevel = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}

	level, _ := observability.ParseLogLevel(cfg.Observability.LogLevel)
	format, _ := observability.ParseLogFormat(cfg.Observability.LogFormat)
	logger := observability.NewLogger(level, format, s.stderr)

	app := &App{
		Config:         cfg,
		Logger:         logger,
		Token:          g.token,
		Stdout:         s.stdout,
		Stderr:         s.stderr,
		httpClient:     s.httpClient,
		sessionFactory: s.sessionFactory,
		browser:        s.browser,
		shutdown:       observability.NewShutdownManager(logger, 0),
	}
	if app.Token == "" {
		app.Token = tokenFromEnv()
	}
	if app.httpClient == nil {
		app.httpClient = &http.Client{Timeout: cfg.Discovery.Timeout}
	}

	providers, err := observability.InitOTel(ctx, cfg.OTel(), logger)
	if err != nil {
		return nil, err
	}
	if providers != nil {
		app.shutdown.Register("opentelemetry", providers.Shutdown)
	}

	if cfg.Observability.MetricsEnabled {
		app.registry = prometheus.NewRegistry()
		app.Metrics = observability.NewClientMetrics(app.registry)
		app.shutdown.Register("metrics", app.writeMetrics)
	}

	app.Client = discovery.New(
		discovery.WithBaseURL(cfg.Discovery.BaseURL),
		discovery.WithSubPath(cfg.Discovery.SubPath),
		discovery.WithLocal(cfg.Discovery.Local),
		discovery.WithHTTPClient(app.httpClient),
		discovery.WithLogger(logger),
		discovery.WithMetrics(app.Metrics),
		discovery.WithTracing(cfg.Observability.OTelEnabled),
	)

	logger.WithFields(logrus.Fields{
		"url":   cfg.Discovery.BaseURL,
		"path":  cfg.Discovery.SubPath,
		"local": cfg.Discovery.Local,
	}).Debug("Discovery client configured")

	return app, nil
}

// Close flushes telemetry
func (a *App) Close(ctx context.Context) error {
	return a.shutdown.Shutdown(ctx)
}

// writeMetrics dumps the collected metrics to stderr in the text exposition format
func (a *App) writeMetrics(context.Context) error {
	families, err := a.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(a.Stderr, mf); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

// checkCountry warns about country codes the public deployment does not
// serve. The request is sent regardless.
func (a *App) checkCountry(code string) {
	if code != "" && !ssr.IsSupportedCountry(code) {
		a.Logger.WithField("country", code).Warn("Country is not served by the public deployment")
	}
}

// printJSON writes v to stdout as indented JSON
func (a *App) printJSON(v interface{}) error {
	enc := json.NewEncoder(a.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// printEvent writes v to stdout as a single JSON line
func (a *App) printEvent(v interface{}) error {
	if err := json.NewEncoder(a.Stdout).Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
