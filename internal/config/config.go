package config

import (
	"fmt"
	"time"

	"github.com/utafrali/catalog-admin/internal/service/provider"
	pkgconfig "github.com/utafrali/catalog-admin/pkg/config"
	"github.com/utafrali/catalog-admin/pkg/logger"
)

// Local store drivers.
const (
	StoreBolt   = "bolt"
	StoreRedis  = "redis"
	StoreMemory = "memory"
	StoreNone   = "none"
)

// Config holds all configuration for the catalog console.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"3000"`

	// Product backend; empty selects the build-time default.
	ProductBackend string `env:"PRODUCT_BACKEND"`

	// Remote catalog API
	CatalogAPIURL     string `env:"CATALOG_API_URL"`
	APITimeoutSeconds int    `env:"API_TIMEOUT_SECONDS" envDefault:"10"`
	APIMaxRetries     int    `env:"API_MAX_RETRIES" envDefault:"2"`

	// Durable local store
	LocalStoreDriver string `env:"LOCAL_STORE_DRIVER" envDefault:"bolt"`
	LocalStorePath   string `env:"LOCAL_STORE_PATH" envDefault:"data/catalog.db"`

	// Redis
	RedisAddr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"catalog-admin:"`

	// Multiplier for the simulated latency of the local and dummy backends.
	SimulatedLatencyScale float64 `env:"SIMULATED_LATENCY_SCALE" envDefault:"1.0"`

	// Kafka; no brokers disables change events.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// CORS for the JSON API
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Slow storage operation logging
	SlowOpThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load catalog-admin config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromMap reads configuration from vars instead of the environment.
func LoadFromMap(vars map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadFromMap(cfg, vars); err != nil {
		return nil, fmt.Errorf("load catalog-admin config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.LogFormat != logger.FormatJSON && c.LogFormat != logger.FormatText {
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	if c.ProductBackend != "" {
		if _, err := provider.ParseKind(c.ProductBackend); err != nil {
			return fmt.Errorf("PRODUCT_BACKEND: %w", err)
		}
	}
	switch c.LocalStoreDriver {
	case StoreBolt:
		if c.LocalStorePath == "" {
			return fmt.Errorf("LOCAL_STORE_PATH is required for the bolt store")
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis store")
		}
	case StoreMemory, StoreNone:
	default:
		return fmt.Errorf("LOCAL_STORE_DRIVER must be one of bolt, redis, memory, none, got %q", c.LocalStoreDriver)
	}
	if c.APITimeoutSeconds < 1 {
		return fmt.Errorf("API_TIMEOUT_SECONDS must be positive, got %d", c.APITimeoutSeconds)
	}
	if c.APIMaxRetries < 0 {
		return fmt.Errorf("API_MAX_RETRIES must not be negative, got %d", c.APIMaxRetries)
	}
	if c.SimulatedLatencyScale < 0 {
		return fmt.Errorf("SIMULATED_LATENCY_SCALE must not be negative, got %f", c.SimulatedLatencyScale)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// Provider returns the backend selection settings.
func (c *Config) Provider(userAgent string) provider.Config {
	return provider.Config{
		Backend:       c.ProductBackend,
		APIBaseURL:    c.CatalogAPIURL,
		APITimeout:    time.Duration(c.APITimeoutSeconds) * time.Second,
		APIMaxRetries: c.APIMaxRetries,
		UserAgent:     userAgent,
		LatencyScale:  c.SimulatedLatencyScale,
	}
}

// SlowOpThreshold returns the slow storage operation threshold.
func (c *Config) SlowOpThreshold() time.Duration {
	return time.Duration(c.SlowOpThresholdMs) * time.Millisecond
}
