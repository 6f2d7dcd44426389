// Package cli provides the ssd command-line interface for Spatial Service
// Discovery.
//
// # Overview
//
// This package implements the `ssd` CLI tool for providers and developers to
// query, publish, validate and remove Spatial Service Records (SSRs) from the
// terminal. Every command writes JSON to stdout; logs go to stderr.
//
// # Commands
//
// locate: List the services covering an H3 cell
//
//	ssd locate --country fi --h3 8a1f05a6b6fffff
//
// get: Fetch one record
//
//	ssd get --country fi --id e32ca955c776ecec
//
// mine: List the records published with the current token
//
//	ssd --token "$TOKEN" mine --country fi
//
// post: Validate and submit SSR files, several at a time
//
//	ssd post --country fi --parallel 4 a.json b.json
//
// put: Replace a record
//
//	ssd put --country fi --id e32ca955c776ecec updated.json
//
// delete: Remove a record
//
//	ssd delete --country fi --id e32ca955c776ecec
//
// validate: Check SSR files against the schema without contacting a server
//
//	ssd validate ./records/*.json
//
// watch: Validate files as they change, optionally posting them
//
//	ssd watch --dir ./records --post --country fi
//
// login: Sign in through the browser and print an access token
//
//	export SSD_TOKEN=$(ssd login | jq -r .access_token)
//
// normalize: Print SSR files in canonical form
//
//	ssd normalize --bbox ./records/a.json
//
// draft, countries, service-types: Print a record template and the known
// country codes and service types
//
// # Configuration
//
// Global flags override the configuration file and SSD_ environment
// variables (see pkg/config):
//
//	--config FILE      YAML configuration file
//	--url URL          Discovery server base URL
//	--path SEGMENT     SSR collection path segment
//	--local            Serve fixture data, no network access
//	--token TOKEN      Bearer token (default $SSD_TOKEN)
//	--log-level LEVEL  debug, info, warn or error
//
// With SSD_METRICS_ENABLED=true the client metrics are written to stderr
// when the command exits.
//
// # Related Packages
//
//   - pkg/discovery: Makes the calls to the discovery server
//   - pkg/session: Drives the login command
//   - pkg/config: Resolves the configuration
package cli
