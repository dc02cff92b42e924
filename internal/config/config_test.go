package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return cfgPath
}

func TestLoad(t *testing.T) {
	content := `
server:
  listen_addr: ":9000"

content_api:
  base_url: "https://cms.example.com"
  api_token: "admin-token"
  timeout: 15s
  rate_limit:
    requests_per_second: 5
    burst: 10
  breaker:
    failure_threshold: 3
    timeout: 1m

storage:
  path: "/tmp/mailpanel.db"

reports:
  output_dir: "/tmp/reports"

metrics:
  enabled: true
  allowed_ips:
    - "127.0.0.1"

logging:
  level: "debug"
  format: "text"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.ListenAddr != ":9000" {
		t.Errorf("Server.ListenAddr = %v, want :9000", cfg.Server.ListenAddr)
	}
	if cfg.ContentAPI.BaseURL != "https://cms.example.com" {
		t.Errorf("ContentAPI.BaseURL = %v", cfg.ContentAPI.BaseURL)
	}
	if cfg.ContentAPI.APIToken != "admin-token" {
		t.Errorf("ContentAPI.APIToken = %v", cfg.ContentAPI.APIToken)
	}
	if cfg.ContentAPI.Timeout != 15*time.Second {
		t.Errorf("ContentAPI.Timeout = %v, want 15s", cfg.ContentAPI.Timeout)
	}
	if cfg.ContentAPI.RateLimit.RequestsPerSecond != 5 || cfg.ContentAPI.RateLimit.Burst != 10 {
		t.Errorf("ContentAPI.RateLimit = %+v", cfg.ContentAPI.RateLimit)
	}
	if cfg.ContentAPI.Breaker.FailureThreshold != 3 || cfg.ContentAPI.Breaker.Timeout != time.Minute {
		t.Errorf("ContentAPI.Breaker = %+v", cfg.ContentAPI.Breaker)
	}
	if cfg.Storage.Path != "/tmp/mailpanel.db" {
		t.Errorf("Storage.Path = %v", cfg.Storage.Path)
	}
	if cfg.Reports.OutputDir != "/tmp/reports" {
		t.Errorf("Reports.OutputDir = %v", cfg.Reports.OutputDir)
	}
	if !cfg.Metrics.Enabled || len(cfg.Metrics.AllowedIPs) != 1 {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
content_api:
  base_url: "http://localhost:1337"
`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.ListenAddr != ":8088" {
		t.Errorf("Server.ListenAddr = %v, want :8088", cfg.Server.ListenAddr)
	}
	if cfg.ContentAPI.Timeout != 0 {
		t.Errorf("ContentAPI.Timeout = %v, want 0", cfg.ContentAPI.Timeout)
	}
	if !cfg.ContentAPI.IsAdminRole("Admin") || cfg.ContentAPI.IsAdminRole("authenticated") {
		t.Errorf("ContentAPI.AdminRoles = %v, want [admin]", cfg.ContentAPI.AdminRoles)
	}
	if cfg.ContentAPI.Breaker.FailureThreshold != 5 {
		t.Errorf("Breaker.FailureThreshold = %v, want 5", cfg.ContentAPI.Breaker.FailureThreshold)
	}
	if cfg.Storage.Path != "/var/lib/mailpanel/mailpanel.db" {
		t.Errorf("Storage.Path = %v", cfg.Storage.Path)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %v, want /metrics", cfg.Metrics.Path)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %v, want info", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %v, want json", cfg.Logging.Format)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			ContentAPI: ContentAPIConfig{BaseURL: "https://cms.example.com"},
			Logging:    LoggingConfig{Level: "info", Format: "json"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(*Config) {}, false},
		{"missing base url", func(c *Config) { c.ContentAPI.BaseURL = "" }, true},
		{"relative base url", func(c *Config) { c.ContentAPI.BaseURL = "/api" }, true},
		{"unsupported scheme", func(c *Config) { c.ContentAPI.BaseURL = "ftp://cms.example.com" }, true},
		{"negative timeout", func(c *Config) { c.ContentAPI.Timeout = -time.Second }, true},
		{"negative rate", func(c *Config) { c.ContentAPI.RateLimit.RequestsPerSecond = -1 }, true},
		{"invalid log level", func(c *Config) { c.Logging.Level = "invalid" }, true},
		{"invalid log format", func(c *Config) { c.Logging.Format = "invalid" }, true},
		{"tls without cert", func(c *Config) { c.Server.TLS = TLSConfig{Enabled: true, KeyFile: "k"} }, true},
		{"tls without key", func(c *Config) { c.Server.TLS = TLSConfig{Enabled: true, CertFile: "c"} }, true},
		{"tls complete", func(c *Config) { c.Server.TLS = TLSConfig{Enabled: true, CertFile: "c", KeyFile: "k"} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() expected error for nonexistent file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, `invalid: yaml: content: [`))
	if err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}
