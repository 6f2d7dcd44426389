// Package config loads discovery client configuration from defaults, an
// optional YAML file, and environment variables.
//
// # Overview
//
// Values are layered: Default, then the YAML file passed to Load, then any
// SSD_ environment variable that is set. The result is validated before it
// is returned. Nothing is written back.
//
// # Configuration Structure
//
// Discovery settings:
//
//	SSD_URL="https://dev1.ssd.oscp.cloudpose.io:7000"
//	SSD_SSRS_PATH="ssrs"
//	SSD_LOCAL="false"
//	SSD_TIMEOUT="30s"
//
// Auth settings (all or none of domain, client ID, audience and scope):
//
//	SSD_AUTH_DOMAIN="example.eu.auth0.com"
//	SSD_AUTH_CLIENT_ID="abc123"
//	SSD_AUTH_AUDIENCE="https://ssd.example.com"
//	SSD_AUTH_SCOPE="openid profile email"
//	SSD_AUTH_REDIRECT_PATH="/ssd/"
//	SSD_AUTH_CALLBACK_ADDR="127.0.0.1:8085"
//
// Observability settings:
//
//	SSD_LOG_LEVEL="info"  # debug, info, warn, error
//	SSD_LOG_FORMAT="text" # text, json
//	SSD_METRICS_ENABLED="false"
//	SSD_OTEL_ENABLED="true"
//	SSD_OTEL_ENDPOINT="otel-collector:4317"
//
// The same settings in YAML:
//
//	discovery:
//	  url: https://dev1.ssd.oscp.cloudpose.io:7000
//	  ssrs_path: ssrs
//	auth:
//	  domain: example.eu.auth0.com
//	  client_id: abc123
//	  audience: https://ssd.example.com
//	  scope: openid profile email
//	observability:
//	  log_level: debug
//
// # Usage Example
//
//	cfg, err := config.Load("ssd.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client := discovery.New()
//	client.SetBaseURL(cfg.Discovery.BaseURL)
//
// # Related Packages
//
//   - pkg/discovery: Uses discovery configuration
//   - pkg/session: Uses auth configuration
//   - pkg/observability: Uses observability configuration
package config
