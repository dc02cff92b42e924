package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration structure
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	ContentAPI ContentAPIConfig `yaml:"content_api"`
	Storage    StorageConfig    `yaml:"storage"`
	Reports    ReportsConfig    `yaml:"reports"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	ListenAddr   string        `yaml:"listen_addr"`
	TLS          TLSConfig     `yaml:"tls"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// TLSConfig contains manual certificate settings
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// ContentAPIConfig contains content API client settings
type ContentAPIConfig struct {
	BaseURL    string          `yaml:"base_url"`
	APIToken   string          `yaml:"api_token"`   // Replaces the user token for admin fleet reads
	AdminRoles []string        `yaml:"admin_roles"` // Session roles allowed to read the fleet view
	Timeout    time.Duration   `yaml:"timeout"`     // 0 = no client-side timeout
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
	Breaker    BreakerConfig   `yaml:"breaker"`
}

// IsAdminRole reports whether role is one of the configured admin roles
func (c ContentAPIConfig) IsAdminRole(role string) bool {
	for _, r := range c.AdminRoles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// RateLimitConfig limits outgoing content API requests
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 = unlimited
	Burst             int     `yaml:"burst"`
}

// BreakerConfig contains circuit breaker settings
type BreakerConfig struct {
	FailureThreshold uint32        `yaml:"failure_threshold"` // Consecutive failures before opening
	Timeout          time.Duration `yaml:"timeout"`           // Time spent open before retrying
	MaxRequests      uint32        `yaml:"max_requests"`      // Trial requests allowed while half-open
}

// StorageConfig contains local store settings
type StorageConfig struct {
	Path string `yaml:"path"`
}

// ReportsConfig contains PDF output settings
type ReportsConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// MetricsConfig contains Prometheus metrics settings
type MetricsConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Path       string   `yaml:"path"`        // Default: /metrics
	AllowedIPs []string `yaml:"allowed_ips"` // IP addresses/CIDRs allowed to access metrics
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults sets default values for configuration
func (c *Config) setDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8088"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}

	if len(c.ContentAPI.AdminRoles) == 0 {
		c.ContentAPI.AdminRoles = []string{"admin"}
	}
	if c.ContentAPI.Breaker.FailureThreshold == 0 {
		c.ContentAPI.Breaker.FailureThreshold = 5
	}
	if c.ContentAPI.Breaker.Timeout == 0 {
		c.ContentAPI.Breaker.Timeout = 30 * time.Second
	}
	if c.ContentAPI.Breaker.MaxRequests == 0 {
		c.ContentAPI.Breaker.MaxRequests = 1
	}

	if c.Storage.Path == "" {
		c.Storage.Path = "/var/lib/mailpanel/mailpanel.db"
	}
	if c.Reports.OutputDir == "" {
		c.Reports.OutputDir = "/var/lib/mailpanel/reports"
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.ContentAPI.BaseURL == "" {
		return fmt.Errorf("content_api.base_url is required")
	}
	u, err := url.Parse(c.ContentAPI.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("content_api.base_url must be an absolute http(s) URL: %q", c.ContentAPI.BaseURL)
	}
	if c.ContentAPI.Timeout < 0 {
		return fmt.Errorf("content_api.timeout must not be negative")
	}
	if c.ContentAPI.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("content_api.rate_limit.requests_per_second must not be negative")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid logging.format: %s (must be json or text)", c.Logging.Format)
	}

	if c.Server.TLS.Enabled {
		if c.Server.TLS.CertFile == "" {
			return fmt.Errorf("server.tls.cert_file is required when TLS is enabled")
		}
		if c.Server.TLS.KeyFile == "" {
			return fmt.Errorf("server.tls.key_file is required when TLS is enabled")
		}
	}

	return nil
}
