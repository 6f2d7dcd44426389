package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ssd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.Discovery.BaseURL)
	assert.Equal(t, DefaultSubPath, cfg.Discovery.SubPath)
	assert.False(t, cfg.Discovery.Local)
	assert.Equal(t, 30*time.Second, cfg.Discovery.Timeout)
	assert.Equal(t, DefaultRedirectPath, cfg.Auth.RedirectPath)
	assert.False(t, cfg.Auth.Enabled())
	assert.Equal(t, "info", cfg.Observability.LogLevel)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
discovery:
  url: https://ssd.example.com
  ssrs_path: records
  timeout: 5s
auth:
  domain: example.auth0.com
  client_id: client
  audience: https://api.example.com
  scope: openid
observability:
  log_level: debug
`)

	t.Setenv("SSD_SSRS_PATH", "ssrs-v2")
	t.Setenv("SSD_LOCAL", "true")
	t.Setenv("SSD_AUTH_CLIENT_ID", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://ssd.example.com", cfg.Discovery.BaseURL)
	assert.Equal(t, "ssrs-v2", cfg.Discovery.SubPath)
	assert.True(t, cfg.Discovery.Local)
	assert.Equal(t, 5*time.Second, cfg.Discovery.Timeout)
	assert.Equal(t, "example.auth0.com", cfg.Auth.Domain)
	assert.Equal(t, "from-env", cfg.Auth.ClientID)
	assert.Equal(t, DefaultRedirectPath, cfg.Auth.RedirectPath)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorContains(t, err, "read config file")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeFile(t, "discovery: [unterminated"))
		assert.ErrorContains(t, err, "parse config file")
	})

	t.Run("malformed env", func(t *testing.T) {
		t.Setenv("SSD_LOCAL", "perhaps")
		_, err := Load("")
		assert.ErrorContains(t, err, "parse env")
	})

	t.Run("invalid result", func(t *testing.T) {
		t.Setenv("SSD_URL", "not a url")
		_, err := Load("")
		assert.ErrorContains(t, err, "configuration validation failed")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults",
			modify: func(*Config) {},
		},
		{
			name:    "relative url",
			modify:  func(c *Config) { c.Discovery.BaseURL = "/ssd" },
			wantErr: "absolute URL",
		},
		{
			name:    "empty sub path",
			modify:  func(c *Config) { c.Discovery.SubPath = "/" },
			wantErr: "SSRs path is required",
		},
		{
			name:    "negative timeout",
			modify:  func(c *Config) { c.Discovery.Timeout = -time.Second },
			wantErr: "timeout",
		},
		{
			name: "partial auth",
			modify: func(c *Config) {
				c.Auth.Domain = "example.auth0.com"
				c.Auth.Scope = "openid"
			},
			wantErr: "missing: audience, client_id",
		},
		{
			name: "complete auth",
			modify: func(c *Config) {
				c.Auth = AuthConfig{Domain: "d", ClientID: "c", Audience: "a", Scope: "s", RedirectPath: "/ssd/"}
			},
		},
		{
			name: "redirect path without slash",
			modify: func(c *Config) {
				c.Auth = AuthConfig{Domain: "d", ClientID: "c", Audience: "a", Scope: "s", RedirectPath: "ssd"}
			},
			wantErr: "redirect path",
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { c.Observability.LogLevel = "chatty" },
			wantErr: "unknown log level",
		},
		{
			name:    "unknown log format",
			modify:  func(c *Config) { c.Observability.LogFormat = "xml" },
			wantErr: "unknown log format",
		},
		{
			name: "otel without endpoint",
			modify: func(c *Config) {
				c.Observability.OTelEnabled = true
				c.Observability.OTelEndpoint = ""
			},
			wantErr: "endpoint is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestOTel(t *testing.T) {
	cfg := Default()
	cfg.Observability.OTelEnabled = true

	otelCfg := cfg.OTel()
	assert.True(t, otelCfg.Enabled)
	assert.Equal(t, "localhost:4317", otelCfg.Endpoint)
	assert.Equal(t, "ssd-client", otelCfg.ServiceName)
	assert.True(t, otelCfg.Insecure)
}
