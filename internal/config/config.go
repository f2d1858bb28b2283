package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// NWS API configuration.
	NWSBaseURL   string
	NWSUserAgent string
	NWSTimeout   time.Duration

	// Circuit breaker around the NWS client.
	BreakerInterval time.Duration
	BreakerTimeout  time.Duration
	BreakerFailures uint32

	// Location dataset and presentation.
	ZipDataPath     string
	SuggestionLimit int
	DisplayLocation *time.Location

	// Mapbox geocoding fallback.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
	MapboxCacheTTL  time.Duration

	// Kafka result publishing.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// env mirrors the environment variables; Load validates and derives Config from it.
type env struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	NWSBaseURL   string        `envconfig:"NWS_BASE_URL" default:"https://api.weather.gov"`
	NWSUserAgent string        `envconfig:"NWS_USER_AGENT" default:"forecast-service (github.com/couchcryptid/forecast-service)"`
	NWSTimeout   time.Duration `envconfig:"NWS_TIMEOUT" default:"10s"`

	BreakerInterval time.Duration `envconfig:"BREAKER_INTERVAL" default:"30s"`
	BreakerTimeout  time.Duration `envconfig:"BREAKER_TIMEOUT" default:"10s"`
	BreakerFailures uint32        `envconfig:"BREAKER_FAILURES" default:"5"`

	ZipDataPath     string `envconfig:"ZIP_DATA_PATH"`
	SuggestionLimit int    `envconfig:"SUGGESTION_LIMIT" default:"15"`
	DisplayTimezone string `envconfig:"DISPLAY_TIMEZONE" default:"Local"`

	MapboxToken     string        `envconfig:"MAPBOX_TOKEN"`
	MapboxEnabled   string        `envconfig:"MAPBOX_ENABLED"`
	MapboxTimeout   time.Duration `envconfig:"MAPBOX_TIMEOUT" default:"5s"`
	MapboxCacheSize int           `envconfig:"MAPBOX_CACHE_SIZE" default:"1000"`
	MapboxCacheTTL  time.Duration `envconfig:"MAPBOX_CACHE_TTL" default:"24h"`

	KafkaEnabled bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"forecast-results"`
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	var e env
	if err := envconfig.Process("", &e); err != nil {
		return nil, err
	}

	if err := positive("SHUTDOWN_TIMEOUT", e.ShutdownTimeout); err != nil {
		return nil, err
	}
	if err := positive("NWS_TIMEOUT", e.NWSTimeout); err != nil {
		return nil, err
	}
	if err := positive("BREAKER_INTERVAL", e.BreakerInterval); err != nil {
		return nil, err
	}
	if err := positive("BREAKER_TIMEOUT", e.BreakerTimeout); err != nil {
		return nil, err
	}
	if err := positive("MAPBOX_TIMEOUT", e.MapboxTimeout); err != nil {
		return nil, err
	}
	if err := positive("MAPBOX_CACHE_TTL", e.MapboxCacheTTL); err != nil {
		return nil, err
	}
	if e.BreakerFailures == 0 {
		return nil, errors.New("BREAKER_FAILURES must be at least 1")
	}
	if e.SuggestionLimit <= 0 {
		return nil, errors.New("SUGGESTION_LIMIT must be positive")
	}
	if e.MapboxCacheSize <= 0 {
		return nil, errors.New("MAPBOX_CACHE_SIZE must be positive")
	}
	if u, err := url.Parse(e.NWSBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid NWS_BASE_URL %q", e.NWSBaseURL)
	}
	if strings.TrimSpace(e.NWSUserAgent) == "" {
		return nil, errors.New("NWS_USER_AGENT is required")
	}

	loc, err := time.LoadLocation(e.DisplayTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE: %w", err)
	}

	mapboxEnabled := e.MapboxToken != ""
	if e.MapboxEnabled != "" {
		mapboxEnabled = e.MapboxEnabled == "true"
	}

	cfg := &Config{
		HTTPAddr:        e.HTTPAddr,
		LogLevel:        e.LogLevel,
		LogFormat:       e.LogFormat,
		ShutdownTimeout: e.ShutdownTimeout,

		NWSBaseURL:   strings.TrimRight(e.NWSBaseURL, "/"),
		NWSUserAgent: e.NWSUserAgent,
		NWSTimeout:   e.NWSTimeout,

		BreakerInterval: e.BreakerInterval,
		BreakerTimeout:  e.BreakerTimeout,
		BreakerFailures: e.BreakerFailures,

		ZipDataPath:     e.ZipDataPath,
		SuggestionLimit: e.SuggestionLimit,
		DisplayLocation: loc,

		MapboxToken:     e.MapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   e.MapboxTimeout,
		MapboxCacheSize: e.MapboxCacheSize,
		MapboxCacheTTL:  e.MapboxCacheTTL,

		KafkaEnabled: e.KafkaEnabled,
		KafkaBrokers: compact(e.KafkaBrokers),
		KafkaTopic:   e.KafkaTopic,
	}

	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func positive(name string, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%s must be a positive duration, got %s", name, d)
	}
	return nil
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
