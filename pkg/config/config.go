package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/openarcloud/ssd/pkg/observability"
)

const (
	// DefaultBaseURL is the discovery server used when none is configured
	DefaultBaseURL = "https://dev1.ssd.oscp.cloudpose.io:7000"
	// DefaultSubPath is the SSR collection path segment
	DefaultSubPath = "ssrs"
	// DefaultRedirectPath is appended to the origin to form the login return URI
	DefaultRedirectPath = "/ssd/"
	// DefaultCallbackAddr is the loopback address the CLI login listens on
	DefaultCallbackAddr = "127.0.0.1:8085"

	// EnvPrefix prefixes every environment variable read by Load
	EnvPrefix = "SSD_"
)

// Config holds all client configuration
type Config struct {
	// Discovery server configuration
	Discovery DiscoveryConfig `yaml:"discovery"`

	// Identity provider configuration
	Auth AuthConfig `yaml:"auth" envPrefix:"AUTH_"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`
}

// DiscoveryConfig holds discovery client settings
type DiscoveryConfig struct {
	BaseURL string        `yaml:"url" env:"URL"`
	SubPath string        `yaml:"ssrs_path" env:"SSRS_PATH"`
	Local   bool          `yaml:"local" env:"LOCAL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// AuthConfig holds the identity provider settings of the session manager
type AuthConfig struct {
	Domain       string `yaml:"domain" env:"DOMAIN"`
	ClientID     string `yaml:"client_id" env:"CLIENT_ID"`
	Audience     string `yaml:"audience" env:"AUDIENCE"`
	Scope        string `yaml:"scope" env:"SCOPE"`
	ClientSecret string `yaml:"client_secret" env:"CLIENT_SECRET"`
	RedirectPath string `yaml:"redirect_path" env:"REDIRECT_PATH"`
	CallbackAddr string `yaml:"callback_addr" env:"CALLBACK_ADDR"`
}

// Enabled reports whether any identity provider setting is present
func (a AuthConfig) Enabled() bool {
	return a.Domain != "" || a.ClientID != "" || a.Audience != "" || a.Scope != ""
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT"`

	// Metrics
	MetricsEnabled bool `yaml:"metrics_enabled" env:"METRICS_ENABLED"`

	// OpenTelemetry
	OTelEnabled        bool   `yaml:"otel_enabled" env:"OTEL_ENABLED"`
	OTelEndpoint       string `yaml:"otel_endpoint" env:"OTEL_ENDPOINT"`
	OTelServiceName    string `yaml:"otel_service_name" env:"OTEL_SERVICE_NAME"`
	OTelServiceVersion string `yaml:"otel_service_version" env:"OTEL_SERVICE_VERSION"`
	OTelInsecure       bool   `yaml:"otel_insecure" env:"OTEL_INSECURE"`
}

// Default returns the configuration used when nothing else is set
func Default() *Config {
	return &Config{
		Discovery: DiscoveryConfig{
			BaseURL: DefaultBaseURL,
			SubPath: DefaultSubPath,
			Timeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			RedirectPath: DefaultRedirectPath,
			CallbackAddr: DefaultCallbackAddr,
		},
		Observability: ObservabilityConfig{
			LogLevel:           "info",
			LogFormat:          "text",
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "ssd-client",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, and SSD_ environment variables, in that order
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate discovery config
	u, err := url.Parse(c.Discovery.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("discovery URL must be an absolute URL: %q", c.Discovery.BaseURL)
	}
	if strings.Trim(c.Discovery.SubPath, "/") == "" {
		return errors.New("discovery SSRs path is required")
	}
	if c.Discovery.Timeout < 0 {
		return errors.New("discovery timeout must not be negative")
	}

	// Auth settings are all or nothing
	if c.Auth.Enabled() {
		var missing []string
		for name, value := range map[string]string{
			"domain":    c.Auth.Domain,
			"client_id": c.Auth.ClientID,
			"audience":  c.Auth.Audience,
			"scope":     c.Auth.Scope,
		} {
			if value == "" {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			slices.Sort(missing)
			return fmt.Errorf("incomplete auth configuration, missing: %s", strings.Join(missing, ", "))
		}
		if !strings.HasPrefix(c.Auth.RedirectPath, "/") {
			return fmt.Errorf("auth redirect path must start with '/': %q", c.Auth.RedirectPath)
		}
	}

	// Validate observability config
	if _, err := observability.ParseLogLevel(c.Observability.LogLevel); err != nil {
		return err
	}
	if _, err := observability.ParseLogFormat(c.Observability.LogFormat); err != nil {
		return err
	}
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return errors.New("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return errors.New("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// OTel returns the OpenTelemetry settings in the form InitOTel expects
func (c *Config) OTel() observability.OTelConfig {
	return observability.OTelConfig{
		Enabled:        c.Observability.OTelEnabled,
		Endpoint:       c.Observability.OTelEndpoint,
		ServiceName:    c.Observability.OTelServiceName,
		ServiceVersion: c.Observability.OTelServiceVersion,
		Insecure:       c.Observability.OTelInsecure,
	}
}
