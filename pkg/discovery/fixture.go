package discovery

import (
	"context"

	"github.com/openarcloud/ssd/pkg/ssr"
)

// Acknowledgement is the response of every write in local mode
const Acknowledgement = "OK"

// FixtureTransport serves the built-in fixture records without touching the
// network. Reads ignore their arguments; writes are acknowledged with "OK".
type FixtureTransport struct{}

// NewFixtureTransport creates a new fixture transport
func NewFixtureTransport() *FixtureTransport {
	return &FixtureTransport{}
}

func (FixtureTransport) ServicesAtLocation(ctx context.Context, _ Endpoint, _, _ string) ([]ssr.SSR, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ssr.LocalServices(), nil
}

func (FixtureTransport) ServiceWithID(ctx context.Context, _ Endpoint, _, _ string) (ssr.SSR, error) {
	if err := ctx.Err(); err != nil {
		return ssr.SSR{}, err
	}
	return ssr.LocalService(), nil
}

func (FixtureTransport) ServicesForProducer(ctx context.Context, _ Endpoint, _, _ string) ([]ssr.SSR, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ssr.LocalServices(), nil
}

func (FixtureTransport) PostService(ctx context.Context, _ Endpoint, _, _, _ string) (string, error) {
	return ack(ctx)
}

func (FixtureTransport) PutService(ctx context.Context, _ Endpoint, _, _, _, _ string) (string, error) {
	return ack(ctx)
}

func (FixtureTransport) DeleteWithID(ctx context.Context, _ Endpoint, _, _, _ string) (string, error) {
	return ack(ctx)
}

func ack(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return Acknowledgement, nil
}
