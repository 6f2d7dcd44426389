package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/openarcloud/ssd/pkg/observability"
	"github.com/openarcloud/ssd/pkg/ssr"
)

// Operation names used in errors, logs and metrics
const (
	OpServicesAtLocation  = "get_services_at_location"
	OpServiceWithID       = "get_service_with_id"
	OpServicesForProducer = "search_services_for_producer"
	OpPostService         = "post_service"
	OpPutService          = "put_service"
	OpDeleteWithID        = "delete_with_id"
)

// HTTPTransport talks to a discovery server over HTTP
type HTTPTransport struct {
	client    *http.Client
	logger    *logrus.Logger
	metrics   *observability.ClientMetrics
	mediaType string
}

// NewHTTPTransport creates a new HTTP transport. A nil client uses a client
// with a 30 second timeout; a nil logger uses logrus.New().
func NewHTTPTransport(client *http.Client, logger *logrus.Logger, metrics *observability.ClientMetrics) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &HTTPTransport{
		client:    client,
		logger:    logger,
		metrics:   metrics,
		mediaType: MediaType,
	}
}

// SetMediaType overrides the Accept and Content-Type header value
func (t *HTTPTransport) SetMediaType(mediaType string) {
	t.mediaType = mediaType
}

func (t *HTTPTransport) ServicesAtLocation(ctx context.Context, ep Endpoint, countryCode, h3Index string) ([]ssr.SSR, error) {
	if countryCode == "" || h3Index == "" {
		return nil, invalidParams(OpServicesAtLocation, countryCode, h3Index)
	}

	var records []ssr.SSR
	if err := t.getJSON(ctx, OpServicesAtLocation, ep.Location(countryCode, h3Index), "", &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (t *HTTPTransport) ServiceWithID(ctx context.Context, ep Endpoint, countryCode, id string) (ssr.SSR, error) {
	var record ssr.SSR
	if err := t.getJSON(ctx, OpServiceWithID, ep.Record(countryCode, id), "", &record); err != nil {
		return ssr.SSR{}, err
	}
	return record, nil
}

func (t *HTTPTransport) ServicesForProducer(ctx context.Context, ep Endpoint, countryCode, token string) ([]ssr.SSR, error) {
	var records []ssr.SSR
	if err := t.getJSON(ctx, OpServicesForProducer, ep.Provider(countryCode), token, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (t *HTTPTransport) PostService(ctx context.Context, ep Endpoint, countryCode, ssrJSON, token string) (string, error) {
	if ssrJSON == "" || token == "" {
		return "", invalidParams(OpPostService, ssrJSON, redact(token))
	}

	body, err := t.do(ctx, OpPostService, http.MethodPost, ep.Collection(countryCode), ssrJSON, token)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (t *HTTPTransport) PutService(ctx context.Context, ep Endpoint, countryCode, ssrJSON, id, token string) (string, error) {
	if ssrJSON == "" || id == "" || token == "" {
		return "", invalidParams(OpPutService, ssrJSON, id, redact(token))
	}

	body, err := t.do(ctx, OpPutService, http.MethodPut, ep.Record(countryCode, id), ssrJSON, token)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (t *HTTPTransport) DeleteWithID(ctx context.Context, ep Endpoint, countryCode, id, token string) (string, error) {
	if countryCode == "" || id == "" {
		return "", invalidParams(OpDeleteWithID, countryCode, id, redact(token))
	}

	body, err := t.do(ctx, OpDeleteWithID, http.MethodDelete, ep.Record(countryCode, id), "", token)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (t *HTTPTransport) getJSON(ctx context.Context, op, url, token string, v interface{}) error {
	body, err := t.do(ctx, op, http.MethodGet, url, "", token)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}

// do sends one request and returns the response body of a 2xx answer. The
// body is only sent for POST and PUT; the bearer header only with a token.
func (t *HTTPTransport) do(ctx context.Context, op, method, url, payload, token string) ([]byte, error) {
	var reqBody io.Reader
	if method == http.MethodPost || method == http.MethodPut {
		reqBody = strings.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", t.mediaType)
	req.Header.Set("Content-Type", t.mediaType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		t.metrics.RecordTransportError(op)
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	duration := time.Since(start)
	if err != nil {
		t.metrics.RecordTransportError(op)
		return nil, fmt.Errorf("failed to read response from %s: %w", url, err)
	}

	t.metrics.RecordRequest(op, method, resp.StatusCode, duration, len(body))
	observability.FromContext(observability.WithLogger(ctx, t.logger)).WithFields(logrus.Fields{
		"operation": op,
		"method":    method,
		"url":       url,
		"status":    resp.StatusCode,
		"duration":  duration,
	}).Debug("Discovery request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
			Body:       string(body),
			Method:     method,
			URL:        url,
		}
	}

	return body, nil
}

// statusText strips the numeric code from resp.Status
func statusText(resp *http.Response) string {
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprintf("%d", resp.StatusCode))); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

// redact keeps tokens out of error messages while showing whether one was given
func redact(token string) string {
	if token == "" {
		return ""
	}
	return "<redacted>"
}
