package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func validDevConfig() *Config {
	cfg := DefaultConfig()
	cfg.App.Environment = "dev"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()

	if cfg.HTTP.Port != 3000 {
		t.Errorf("port: got %d, want 3000", cfg.HTTP.Port)
	}
	if cfg.HTTP.Timeouts.Read != 5*time.Second {
		t.Errorf("read timeout: got %s", cfg.HTTP.Timeouts.Read)
	}
	if cfg.Logger.Level != slog.LevelInfo {
		t.Errorf("log level: got %s", cfg.Logger.Level)
	}
	if cfg.Storage.Driver != "local" || cfg.Storage.LocalURL != "/uploads" {
		t.Errorf("storage: got %+v", cfg.Storage)
	}
	if err := validDevConfig().Validate(); err != nil {
		t.Errorf("default dev config should be valid: %v", err)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "8081")
	t.Setenv("HTTP_WRITE_TIMEOUT", "45s")
	t.Setenv("LOGGER_LEVEL", "debug")
	t.Setenv("APP_ENV", "DEV")
	t.Setenv("STORAGE_DRIVER", "s3")
	t.Setenv("STORAGE_S3_ENDPOINT", "http://localhost:3900")
	t.Setenv("STORAGE_S3_BUCKET", "uploads")
	t.Setenv("ERROR_WEBHOOK_URL", "https://hooks.example.com/errors")
	t.Setenv("ENABLE_TELEMETRY", "true")
	t.Setenv("CSP_IMAGE_SOURCES", "https://cdn.studio.example.com,https://img.studio.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTP.Port != 8081 {
		t.Errorf("port: got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.Timeouts.Write != 45*time.Second {
		t.Errorf("write timeout: got %s", cfg.HTTP.Timeouts.Write)
	}
	if cfg.Logger.Level != slog.LevelDebug {
		t.Errorf("log level: got %s", cfg.Logger.Level)
	}
	if !cfg.IsDev() {
		t.Errorf("environment should be normalized to dev, got %q", cfg.App.Environment)
	}
	if cfg.Storage.S3.Bucket != "uploads" || cfg.Storage.S3.Region != "garage" {
		t.Errorf("s3 config: got %+v", cfg.Storage.S3)
	}
	if cfg.Errors.WebhookURL != "https://hooks.example.com/errors" {
		t.Errorf("webhook: got %q", cfg.Errors.WebhookURL)
	}
	if !cfg.Metrics.EnableTelemetry {
		t.Error("telemetry should be enabled")
	}
	if got := cfg.CSP.ImageSources; len(got) != 2 || got[1] != "https://img.studio.example.com" {
		t.Errorf("csp image sources: got %v", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("config should be valid: %v", err)
	}
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-port")

	if _, err := Load(); err == nil {
		t.Error("expected an error for a non numeric port")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "well-known port", mutate: func(c *Config) { c.HTTP.Port = 80 }, wantErr: "HTTP_PORT"},
		{name: "port too high", mutate: func(c *Config) { c.HTTP.Port = 70000 }, wantErr: "HTTP_PORT"},
		{name: "zero read timeout", mutate: func(c *Config) { c.HTTP.Timeouts.Read = 0 }, wantErr: "HTTP_READ_TIMEOUT"},
		{name: "negative shutdown", mutate: func(c *Config) { c.HTTP.Timeouts.Shutdown = -time.Second }, wantErr: "HTTP_SHUTDOWN_DELAY"},
		{name: "unknown env", mutate: func(c *Config) { c.App.Environment = "staging" }, wantErr: "APP_ENV"},
		{name: "empty db path", mutate: func(c *Config) { c.DB.Path = "" }, wantErr: "DB_PATH"},
		{name: "zero rps", mutate: func(c *Config) { c.Limiter.RPS = 0 }, wantErr: "LIMITER_RPS"},
		{name: "unknown storage driver", mutate: func(c *Config) { c.Storage.Driver = "ftp" }, wantErr: "STORAGE_DRIVER"},
		{name: "s3 without bucket", mutate: func(c *Config) { c.Storage.Driver = "s3"; c.Storage.S3.Endpoint = "http://x" }, wantErr: "STORAGE_S3"},
		{name: "token without webhook", mutate: func(c *Config) { c.Errors.WebhookToken = "secret" }, wantErr: "ERROR_WEBHOOK_URL"},
		{name: "plain http image source", mutate: func(c *Config) { c.CSP.ImageSources = []string{"http://cdn.example.com"} }, wantErr: "CSP_IMAGE_SOURCES"},
		{name: "bad namespace", mutate: func(c *Config) { c.App.AssetNamespace = "nope" }, wantErr: "APP_ASSET_NAMESPACE"},
		{
			name:    "default hash key in prod",
			mutate:  func(c *Config) { c.App.Environment = "prod" },
			wantErr: "changed from default",
		},
		{
			name:    "short hash key in prod",
			mutate:  func(c *Config) { c.App.Environment = "prod"; c.Errors.IPHashKey = "short" },
			wantErr: "at least 16 bytes",
		},
		{
			name:   "custom hash key in prod",
			mutate: func(c *Config) { c.App.Environment = "prod"; c.Errors.IPHashKey = "a-long-random-ip-hash-key" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validDevConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
