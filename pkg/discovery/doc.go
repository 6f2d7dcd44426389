// Package discovery is a client for the Spatial Service Discovery API.
//
// # Overview
//
// A Client lists, fetches, creates, replaces and deletes spatial service
// records (SSRs) on a discovery server. Requests go to
//
//	{baseURL}/{countryCode}/{subPath}[/{id}]
//
// with Accept and Content-Type set to MediaType and a bearer token when one
// is given. A non-2xx answer is returned as an *HTTPError carrying the
// response body and status text. Missing arguments are rejected with a
// *ParameterError before any request is sent.
//
// In local mode the client never contacts a server: reads return the
// fixtures of pkg/ssr and writes are acknowledged with "OK".
//
// # Usage Example
//
//	client := discovery.New(
//		discovery.WithLogger(logger),
//		discovery.WithMetrics(metrics),
//	)
//	client.SetBaseURL("https://ssd.example.com")
//
//	records, err := client.ServicesAtLocation(ctx, "fi", "8a1126d9b4fffff")
//	if err != nil {
//		return err
//	}
//
//	id, err := client.PostSSRFile(ctx, "fi", "record.json", token)
//
// Offline:
//
//	client := discovery.New(discovery.WithLocal(true))
//	record, _ := client.ServiceWithID(ctx, "us", "e32ca955c776ecec")
//
// # Related Packages
//
//   - pkg/ssr: Record types and fixtures
//   - pkg/validation: SSR schema validation
//   - pkg/discovery/discoverytest: In-memory server for tests
package discovery
