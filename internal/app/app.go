// Package app wires the forecast pipeline from configuration.
package app

import (
	"fmt"
	"log/slog"

	kafkaadapter "github.com/couchcryptid/forecast-service/internal/adapter/kafka"
	"github.com/couchcryptid/forecast-service/internal/adapter/mapbox"
	"github.com/couchcryptid/forecast-service/internal/adapter/nws"
	"github.com/couchcryptid/forecast-service/internal/config"
	"github.com/couchcryptid/forecast-service/internal/domain"
	"github.com/couchcryptid/forecast-service/internal/location"
	"github.com/couchcryptid/forecast-service/internal/observability"
	"github.com/couchcryptid/forecast-service/internal/pipeline"
)

// App holds the assembled pipeline and the resources it owns.
type App struct {
	Pipeline *pipeline.Pipeline
	Resolver *location.Resolver

	writer *kafkaadapter.Writer
	logger *slog.Logger
}

// New loads the location dataset and builds the pipeline with the adapters
// enabled in cfg.
func New(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*App, error) {
	places, err := location.LoadDataset(cfg.ZipDataPath)
	if err != nil {
		return nil, fmt.Errorf("load location dataset: %w", err)
	}
	logger.Info("location dataset loaded", "places", len(places), "path", cfg.ZipDataPath)

	// Geocoder is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, cfg.MapboxCacheTTL, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "cache_ttl", cfg.MapboxCacheTTL, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}
	resolver := location.NewResolver(places, geocoder, cfg.SuggestionLimit, logger)

	client := nws.NewClient(cfg.NWSBaseURL, cfg.NWSUserAgent, cfg.NWSTimeout, metrics, logger)
	api := nws.NewBreakerClient("nws", nws.BreakerConfig{
		Interval:            cfg.BreakerInterval,
		Timeout:             cfg.BreakerTimeout,
		ConsecutiveFailures: cfg.BreakerFailures,
	}, client, metrics, logger)
	current := pipeline.NewCurrentResolver(api, client.BaseURL(), cfg.DisplayLocation, logger, metrics)

	a := &App{Resolver: resolver, logger: logger}

	var publisher pipeline.Publisher
	if cfg.KafkaEnabled {
		a.writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = a.writer
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	a.Pipeline = pipeline.New(resolver, api, current, publisher, logger, metrics)
	return a, nil
}

// Close releases the Kafka writer when publishing is enabled.
func (a *App) Close() error {
	if a.writer == nil {
		return nil
	}
	if err := a.writer.Close(); err != nil {
		return fmt.Errorf("close kafka writer: %w", err)
	}
	return nil
}
