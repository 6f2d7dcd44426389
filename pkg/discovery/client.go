package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/openarcloud/ssd/pkg/observability"
	"github.com/openarcloud/ssd/pkg/ssr"
	"github.com/openarcloud/ssd/pkg/validation"
)

const tracerName = "github.com/openarcloud/ssd/pkg/discovery"

// MinIDLength is the shortest record id the client accepts
const MinIDLength = 16

// Client queries and edits spatial service records on a discovery server.
// A Client is safe for concurrent use; its base URL and sub-path may be
// changed at any time and apply to operations started afterwards.
type Client struct {
	mu      sync.RWMutex
	baseURL string
	subPath string

	local     bool
	transport Transport
	validator *validation.Validator
	logger    *logrus.Logger
	metrics   *observability.ClientMetrics
	tracer    trace.Tracer
}

// Option configures a Client
type Option func(*clientConfig)

type clientConfig struct {
	baseURL    string
	subPath    string
	local      bool
	httpClient *http.Client
	logger     *logrus.Logger
	metrics    *observability.ClientMetrics
	tracing    bool
	transport  Transport
	mediaType  string
	validator  *validation.Validator
}

// WithBaseURL sets the initial base URL (default DefaultBaseURL)
func WithBaseURL(baseURL string) Option {
	return func(c *clientConfig) {
		c.baseURL = baseURL
	}
}

// WithSubPath sets the initial sub-path (default DefaultSubPath)
func WithSubPath(subPath string) Option {
	return func(c *clientConfig) {
		c.subPath = subPath
	}
}

// WithLocal serves fixture data instead of contacting a server
func WithLocal(local bool) Option {
	return func(c *clientConfig) {
		c.local = local
	}
}

// WithHTTPClient sets the HTTP client used by the HTTP transport
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithLogger sets the logger (default logrus.New())
func WithLogger(logger *logrus.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithMetrics records request and validation metrics
func WithMetrics(metrics *observability.ClientMetrics) Option {
	return func(c *clientConfig) {
		c.metrics = metrics
	}
}

// WithTracing opens a span per operation and instruments outgoing requests
func WithTracing(enabled bool) Option {
	return func(c *clientConfig) {
		c.tracing = enabled
	}
}

// WithTransport replaces the transport selected by WithLocal
func WithTransport(transport Transport) Option {
	return func(c *clientConfig) {
		c.transport = transport
	}
}

// WithMediaType overrides the media type sent by the HTTP transport
func WithMediaType(mediaType string) Option {
	return func(c *clientConfig) {
		c.mediaType = mediaType
	}
}

// WithValidator sets the validator used for SSR text (default strictness
// from validation.DefaultValidationConfig)
func WithValidator(validator *validation.Validator) Option {
	return func(c *clientConfig) {
		c.validator = validator
	}
}

// New creates a new discovery client
func New(opts ...Option) *Client {
	cfg := &clientConfig{
		baseURL: DefaultBaseURL,
		subPath: DefaultSubPath,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.logger == nil {
		cfg.logger = logrus.New()
	}
	if cfg.validator == nil {
		cfg.validator = validation.NewValidator(nil)
	}

	c := &Client{
		baseURL:   cfg.baseURL,
		subPath:   cfg.subPath,
		local:     cfg.local,
		transport: cfg.transport,
		validator: cfg.validator,
		logger:    cfg.logger,
		metrics:   cfg.metrics,
		tracer:    noop.NewTracerProvider().Tracer(tracerName),
	}
	if cfg.tracing {
		c.tracer = otel.Tracer(tracerName)
	}

	if c.transport == nil {
		if cfg.local {
			c.transport = NewFixtureTransport()
		} else {
			httpClient := cfg.httpClient
			if httpClient == nil {
				httpClient = &http.Client{}
			}
			if cfg.tracing {
				instrumented := *httpClient
				base := instrumented.Transport
				if base == nil {
					base = http.DefaultTransport
				}
				instrumented.Transport = otelhttp.NewTransport(base)
				httpClient = &instrumented
			}
			t := NewHTTPTransport(httpClient, cfg.logger, cfg.metrics)
			if cfg.mediaType != "" {
				t.SetMediaType(cfg.mediaType)
			}
			c.transport = t
		}
	}

	return c
}

// SetBaseURL changes the discovery server base URL
func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = baseURL
}

// SetSubPath changes the SSR collection path segment
func (c *Client) SetSubPath(subPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subPath = subPath
}

// BaseURL returns the current base URL
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SubPath returns the current sub-path
func (c *Client) SubPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subPath
}

// Local reports whether the client serves fixture data
func (c *Client) Local() bool {
	return c.local
}

func (c *Client) endpoint() Endpoint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Endpoint{BaseURL: c.baseURL, SubPath: c.subPath}
}

// ServicesAtLocation lists the records covering an H3 cell in a country
func (c *Client) ServicesAtLocation(ctx context.Context, countryCode, h3Index string) ([]ssr.SSR, error) {
	ctx, span := c.start(ctx, OpServicesAtLocation, countryCode)
	defer span.End()

	records, err := c.transport.ServicesAtLocation(ctx, c.endpoint(), countryCode, h3Index)
	return records, c.finish(span, err)
}

// ServiceWithID fetches one record. The id must be at least MinIDLength
// characters long whichever transport is in use.
func (c *Client) ServiceWithID(ctx context.Context, countryCode, id string) (ssr.SSR, error) {
	if utf8.RuneCountInString(id) < MinIDLength {
		return ssr.SSR{}, invalidParams(OpServiceWithID, id)
	}

	ctx, span := c.start(ctx, OpServiceWithID, countryCode)
	defer span.End()

	record, err := c.transport.ServiceWithID(ctx, c.endpoint(), countryCode, id)
	return record, c.finish(span, err)
}

// ServicesForProducer lists the records published by the token's owner
func (c *Client) ServicesForProducer(ctx context.Context, countryCode, token string) ([]ssr.SSR, error) {
	ctx, span := c.start(ctx, OpServicesForProducer, countryCode)
	defer span.End()

	records, err := c.transport.ServicesForProducer(ctx, c.endpoint(), countryCode, token)
	return records, c.finish(span, err)
}

// PostService submits a serialized SSR and returns the server's response
// text, typically the assigned id
func (c *Client) PostService(ctx context.Context, countryCode, ssrJSON, token string) (string, error) {
	ctx, span := c.start(ctx, OpPostService, countryCode)
	defer span.End()

	resp, err := c.transport.PostService(ctx, c.endpoint(), countryCode, ssrJSON, token)
	return resp, c.finish(span, err)
}

// PostSSRFile reads, validates and submits the SSR stored at path
func (c *Client) PostSSRFile(ctx context.Context, countryCode, path, token string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open SSR file: %w", err)
	}
	defer f.Close()

	return c.PostSSR(ctx, countryCode, filepath.Base(path), f, token)
}

// PostSSR reads an SSR from r, validates it and submits it. name identifies
// the content in validation errors.
func (c *Client) PostSSR(ctx context.Context, countryCode, name string, r io.Reader, token string) (string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}

	text := string(content)
	if err := c.ValidateSSR(text, name); err != nil {
		return "", err
	}
	return c.PostService(ctx, countryCode, text, token)
}

// PutService replaces the record with the given id and returns the server's
// response text
func (c *Client) PutService(ctx context.Context, countryCode, ssrJSON, id, token string) (string, error) {
	ctx, span := c.start(ctx, OpPutService, countryCode)
	defer span.End()

	resp, err := c.transport.PutService(ctx, c.endpoint(), countryCode, ssrJSON, id, token)
	return resp, c.finish(span, err)
}

// DeleteWithID deletes the record with the given id and returns the
// server's response text
func (c *Client) DeleteWithID(ctx context.Context, countryCode, id, token string) (string, error) {
	ctx, span := c.start(ctx, OpDeleteWithID, countryCode)
	defer span.End()

	resp, err := c.transport.DeleteWithID(ctx, c.endpoint(), countryCode, id, token)
	return resp, c.finish(span, err)
}

// ValidateSSR checks that text is a JSON SSR conforming to the schema. A
// nil error means the text is valid.
func (c *Client) ValidateSSR(text, fileName string) error {
	err := c.validator.ValidateText(text, fileName)
	c.metrics.RecordValidation(err)
	if err != nil {
		c.logger.WithError(err).WithField("file", fileName).Debug("SSR validation failed")
	}
	return err
}

func (c *Client) start(ctx context.Context, op, countryCode string) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "discovery."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("ssd.country", countryCode),
			attribute.Bool("ssd.local", c.local),
		),
	)
}

func (c *Client) finish(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
