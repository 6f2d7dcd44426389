package discovery

import (
	"context"
	"net/url"
	"strings"

	"github.com/openarcloud/ssd/pkg/ssr"
)

const (
	// DefaultBaseURL is the discovery server queried when no other is set
	DefaultBaseURL = "https://dev1.ssd.oscp.cloudpose.io:7000"
	// DefaultSubPath is the path segment of the SSR collection
	DefaultSubPath = "ssrs"
	// MediaType is sent as both Accept and Content-Type
	MediaType = "application/vnd.oscp+json; version=1.0"
	// ProviderSegment prefixes the sub-path for producer searches
	ProviderSegment = "provider"
)

// Endpoint is a snapshot of the server location an operation targets
type Endpoint struct {
	BaseURL string
	SubPath string
}

// Collection returns {base}/{countryCode}/{subPath}
func (e Endpoint) Collection(countryCode string) string {
	return e.join(url.PathEscape(countryCode), e.subPath())
}

// Record returns {base}/{countryCode}/{subPath}/{id}
func (e Endpoint) Record(countryCode, id string) string {
	return e.join(url.PathEscape(countryCode), e.subPath(), url.PathEscape(id))
}

// Provider returns {base}/{countryCode}/provider/{subPath}
func (e Endpoint) Provider(countryCode string) string {
	return e.join(url.PathEscape(countryCode), ProviderSegment, e.subPath())
}

// Location returns the collection URL filtered by H3 cell index
func (e Endpoint) Location(countryCode, h3Index string) string {
	q := url.Values{}
	q.Set("h3Index", h3Index)
	return e.Collection(countryCode) + "?" + q.Encode()
}

func (e Endpoint) subPath() string {
	return strings.Trim(e.SubPath, "/")
}

func (e Endpoint) join(segments ...string) string {
	return strings.TrimRight(e.BaseURL, "/") + "/" + strings.Join(segments, "/")
}

// Transport carries out discovery operations against an Endpoint. The
// client selects an HTTPTransport or a FixtureTransport at construction.
type Transport interface {
	ServicesAtLocation(ctx context.Context, ep Endpoint, countryCode, h3Index string) ([]ssr.SSR, error)
	ServiceWithID(ctx context.Context, ep Endpoint, countryCode, id string) (ssr.SSR, error)
	ServicesForProducer(ctx context.Context, ep Endpoint, countryCode, token string) ([]ssr.SSR, error)
	PostService(ctx context.Context, ep Endpoint, countryCode, ssrJSON, token string) (string, error)
	PutService(ctx context.Context, ep Endpoint, countryCode, ssrJSON, id, token string) (string, error)
	DeleteWithID(ctx context.Context, ep Endpoint, countryCode, id, token string) (string, error)
}
