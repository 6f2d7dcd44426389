// Package ssr defines Spatial Service Records, the geofenced service descriptors
// exchanged with the Spatial Service Discovery API.
//
// # Overview
//
// An SSR groups one or more services (GeoPose, content discovery, ...) under a
// GeoJSON polygon and a provider name. Records start as local drafts with an
// empty ID; the server assigns the ID on creation and it is used for every
// later read, update, or delete.
//
// # Usage Example
//
//	draft := ssr.NewDraft("my-provider")
//	draft.Services = append(draft.Services, ssr.Service{
//		ID:    "geopose-1",
//		Type:  ssr.ServiceTypeGeoPose,
//		Title: "City GeoPose",
//		URL:   "https://geopose.example.com",
//	})
//	body, err := draft.Marshal()
//
// # Fixtures
//
// LocalServices and LocalService return the records served by a discovery
// client running in local mode.
//
// # Related Packages
//
//   - pkg/validation: Schema validation of SSR JSON
//   - pkg/discovery: Discovery API client
package ssr
