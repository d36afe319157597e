package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gofrs/uuid/v5"
)

type HTTPTimeoutsConfig struct {
	Read     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	Idle     time.Duration `env:"IDLE_TIMEOUT" envDefault:"10m"`
	Write    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	Shutdown time.Duration `env:"SHUTDOWN_DELAY" envDefault:"10s"` // how long we give the shutdown process to gracefully terminate
}

type HTTPConfig struct {
	Port     int `env:"PORT" envDefault:"3000"`
	Timeouts HTTPTimeoutsConfig
}

type RateLimiterConfig struct {
	RPS   int `env:"RPS" envDefault:"20"`
	Burst int `env:"BURST" envDefault:"50"`
}

type LoggerConfig struct {
	Level slog.Level `env:"LEVEL" envDefault:"info"`
}

type AppConfig struct {
	Name           string `env:"NAME" envDefault:"Studio"`
	Environment    string `env:"ENV" envDefault:"prod"` // 'dev' | 'prod'
	ContentDir     string `env:"CONTENT_DIR" envDefault:"./content"`
	PublicDir      string `env:"PUBLIC_DIR" envDefault:"./public"` // static files served from the site root
	AssetNamespace string `env:"ASSET_NAMESPACE" envDefault:"570e8400-c29b-45d4-a716-446655440700"`
}

type DBConfig struct {
	Path           string `env:"PATH" envDefault:"studiosite.db"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"./migrations"`
}

type ProxyConfig struct {
	Trusted bool `env:"TRUSTED" envDefault:"true"`
}

type S3Config struct {
	Endpoint  string `env:"ENDPOINT"`
	Region    string `env:"REGION" envDefault:"garage"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET"`
	PublicURL string `env:"PUBLIC_URL"`
}

type StorageConfig struct {
	Driver   string   `env:"DRIVER" envDefault:"local"` // 'local' | 's3'
	LocalDir string   `env:"LOCAL_DIR" envDefault:"./uploads"`
	LocalURL string   `env:"LOCAL_URL" envDefault:"/uploads"`
	S3       S3Config `envPrefix:"S3_"`
}

type AssetsConfig struct {
	SourceDir      string `env:"SOURCE_DIR" envDefault:"./content"`
	CacheDir       string `env:"CACHE_DIR" envDefault:"./cache/assets"`
	Workers        int    `env:"WORKERS" envDefault:"2"`
	Watch          bool   `env:"WATCH" envDefault:"false"`
	ResyncSchedule string `env:"RESYNC_SCHEDULE" envDefault:"@every 1h"`
}

type CSPConfig struct {
	ImageSources []string `env:"IMAGE_SOURCES" envSeparator:","` // extra img-src origins, e.g. a CDN
}

type TelemetryConfig struct {
	EnableTelemetry bool   `env:"ENABLE_TELEMETRY" envDefault:"false"`
	OtelEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
}

type ErrorsConfig struct {
	WebhookURL   string `env:"WEBHOOK_URL"`
	WebhookToken string `env:"WEBHOOK_TOKEN"`
	IPHashKey    string `env:"IP_HASH_KEY" envDefault:"change-me-ip-hash-key"`
}

type Config struct {
	App     AppConfig         `envPrefix:"APP_"`
	DB      DBConfig          `envPrefix:"DB_"`
	Proxy   ProxyConfig       `envPrefix:"PROXY_"`
	HTTP    HTTPConfig        `envPrefix:"HTTP_"`
	Limiter RateLimiterConfig `envPrefix:"LIMITER_"`
	Logger  LoggerConfig      `envPrefix:"LOGGER_"`
	Storage StorageConfig     `envPrefix:"STORAGE_"`
	Assets  AssetsConfig      `envPrefix:"ASSETS_"`
	CSP     CSPConfig         `envPrefix:"CSP_"`
	Metrics TelemetryConfig
	Errors  ErrorsConfig `envPrefix:"ERROR_"`
}

const defaultIPHashKey = "change-me-ip-hash-key"

// DefaultConfig is the configuration obtained from an empty environment.
func DefaultConfig() *Config {
	cfg, err := parse(map[string]string{})
	if err != nil {
		// defaults are static, a failure here is a programming error
		panic(err)
	}
	return cfg
}

// Load reads the configuration from the process environment. Unset
// variables keep their defaults.
func Load() (*Config, error) {
	return parse(nil)
}

func parse(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	opts := env.Options{Environment: environ}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.App.Environment = strings.ToLower(cfg.App.Environment)
	cfg.Storage.Driver = strings.ToLower(cfg.Storage.Driver)
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.App.Environment == "dev"
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTP.Port)
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("APP_NAME must not be empty")
	}
	if s := c.App.Environment; s != "dev" && s != "prod" {
		return fmt.Errorf(`APP_ENV must be "dev" or "prod"`)
	}
	if c.App.ContentDir == "" {
		return fmt.Errorf("APP_CONTENT_DIR must not be empty")
	}
	if c.DB.Path == "" {
		return fmt.Errorf("DB_PATH must not be empty")
	}
	if c.DB.MigrationsPath == "" {
		return fmt.Errorf("DB_MIGRATIONS_PATH must not be empty")
	}
	// stay away from well-known ports
	if p := c.HTTP.Port; p < 1024 || p > 65535 {
		return fmt.Errorf("HTTP_PORT must be a positive int between 1024 and 65535, got %d", p)
	}
	if c.HTTP.Timeouts.Read <= 0 {
		return fmt.Errorf("HTTP_READ_TIMEOUT must be positive (e.g., 5s), got %s", c.HTTP.Timeouts.Read)
	}
	if c.HTTP.Timeouts.Write <= 0 {
		return fmt.Errorf("HTTP_WRITE_TIMEOUT must be positive (e.g., 10s), got %s", c.HTTP.Timeouts.Write)
	}
	if c.HTTP.Timeouts.Idle <= 0 {
		return fmt.Errorf("HTTP_IDLE_TIMEOUT must be positive (e.g., 2m), got %s", c.HTTP.Timeouts.Idle)
	}
	if c.HTTP.Timeouts.Shutdown <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_DELAY must be positive (e.g., 10s), got %s", c.HTTP.Timeouts.Shutdown)
	}
	if c.Limiter.RPS <= 0 {
		return fmt.Errorf("LIMITER_RPS must be positive, got %d", c.Limiter.RPS)
	}
	if c.Limiter.Burst <= 0 {
		return fmt.Errorf("LIMITER_BURST must be positive, got %d", c.Limiter.Burst)
	}
	switch c.Storage.Driver {
	case "local":
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("STORAGE_LOCAL_DIR must not be empty")
		}
	case "s3":
		if c.Storage.S3.Endpoint == "" || c.Storage.S3.Bucket == "" {
			return fmt.Errorf("STORAGE_S3_ENDPOINT and STORAGE_S3_BUCKET are required for the s3 driver")
		}
	default:
		return fmt.Errorf(`STORAGE_DRIVER must be "local" or "s3", got %q`, c.Storage.Driver)
	}
	if c.Assets.Workers <= 0 {
		return fmt.Errorf("ASSETS_WORKERS must be positive, got %d", c.Assets.Workers)
	}
	if c.Errors.WebhookToken != "" && c.Errors.WebhookURL == "" {
		return fmt.Errorf("ERROR_WEBHOOK_TOKEN is set but ERROR_WEBHOOK_URL is empty")
	}
	if c.App.Environment == "prod" {
		if len(c.Errors.IPHashKey) < 16 {
			return fmt.Errorf("ERROR_IP_HASH_KEY must be at least 16 bytes in production")
		}
		if c.Errors.IPHashKey == defaultIPHashKey {
			return fmt.Errorf("ERROR_IP_HASH_KEY must be changed from default value for production")
		}
	}
	for _, src := range c.CSP.ImageSources {
		if src = strings.TrimSpace(src); src != "" && !strings.HasPrefix(src, "https://") {
			return fmt.Errorf("CSP_IMAGE_SOURCES entries must be https origins, got %q", src)
		}
	}
	if _, err := uuid.FromString(c.App.AssetNamespace); err != nil {
		return fmt.Errorf("APP_ASSET_NAMESPACE must be a valid UUID")
	}

	return nil
}
