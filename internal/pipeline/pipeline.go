package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/forecast-service/internal/domain"
	"github.com/couchcryptid/forecast-service/internal/observability"
)

// User-facing messages for hard step failures.
const (
	MsgInvalidLocation = "Invalid ZIP code"
	MsgPoints          = "Error fetching weather data"
	MsgDailyForecast   = "Error fetching daily forecast"
	MsgHourlyForecast  = "Error fetching hourly forecast"
)

// LocationResolver maps a user query to a place.
type LocationResolver interface {
	Resolve(ctx context.Context, query string) (domain.PlaceRecord, error)
	Len() int
}

// WeatherAPI is the subset of the NWS API the pipeline depends on.
type WeatherAPI interface {
	Points(ctx context.Context, lat, lon float64) (domain.GridReference, error)
	Forecast(ctx context.Context, grid domain.GridReference) ([]domain.ForecastPeriod, error)
	HourlyForecast(ctx context.Context, grid domain.GridReference) ([]domain.ForecastPeriod, error)
	Stations(ctx context.Context, grid domain.GridReference) ([]domain.StationFeature, error)
}

// Publisher receives every assembled forecast result.
type Publisher interface {
	Publish(ctx context.Context, result domain.ForecastResult) error
}

// Pipeline runs one forecast query end to end: location, grid, daily
// forecast, current conditions, hourly forecast.
type Pipeline struct {
	resolver  LocationResolver
	api       WeatherAPI
	current   *CurrentResolver
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Pipeline. publisher may be nil.
func New(resolver LocationResolver, api WeatherAPI, current *CurrentResolver, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		resolver:  resolver,
		api:       api,
		current:   current,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once the location dataset holds at least one place.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.resolver.Len() == 0 {
		return errors.New("location dataset is empty")
	}
	return nil
}

// FetchForecast answers a location query. It returns either a complete result
// or a single *domain.ForecastError, never both.
func (p *Pipeline) FetchForecast(ctx context.Context, query string) (domain.ForecastResult, error) {
	start := time.Now()
	result, err := p.fetch(ctx, query)
	p.metrics.ForecastDuration.Observe(time.Since(start).Seconds())
	p.metrics.ForecastRequests.WithLabelValues(outcome(ctx, err)).Inc()

	if err != nil {
		p.logger.Warn("forecast query failed", "query", query, "error", err, "cause", errors.Unwrap(err))
		return domain.ForecastResult{}, err
	}

	p.logger.Info("forecast query completed",
		"query", query,
		"location", result.Location,
		"days", len(result.Daily),
		"hours", len(result.Hourly),
		"current", result.Current.TextDescription,
		"duration", time.Since(start),
	)
	p.publish(ctx, result)
	return result, nil
}

func (p *Pipeline) fetch(ctx context.Context, query string) (domain.ForecastResult, error) {
	place, err := p.resolver.Resolve(ctx, query)
	if err != nil {
		return domain.ForecastResult{}, domain.NewForecastError(domain.ErrInvalidLocation, MsgInvalidLocation, err)
	}
	p.logger.Debug("location resolved", "query", query, "place", place.DisplayName(), "lat", place.Lat, "lon", place.Lon)

	grid, err := p.api.Points(ctx, place.Lat, place.Lon)
	if err != nil {
		return domain.ForecastResult{}, stepError(MsgPoints, err)
	}

	periods, err := p.api.Forecast(ctx, grid)
	if err != nil {
		return domain.ForecastResult{}, stepError(MsgDailyForecast, err)
	}
	daily := domain.AggregateDaily(periods)

	current := p.resolveCurrent(ctx, grid)

	hourly, err := p.api.HourlyForecast(ctx, grid)
	if err != nil {
		return domain.ForecastResult{}, stepError(MsgHourlyForecast, err)
	}

	return domain.ForecastResult{
		Location:    place.DisplayName(),
		Place:       place,
		Daily:       daily,
		Hourly:      hourly,
		Current:     current,
		RetrievedAt: domain.Now(),
	}, nil
}

// resolveCurrent never fails: station list problems degrade to the default record.
func (p *Pipeline) resolveCurrent(ctx context.Context, grid domain.GridReference) domain.CurrentConditions {
	stations, err := p.api.Stations(ctx, grid)
	if err != nil {
		p.logger.Warn("station list unavailable", "grid", grid.GridID, "error", err)
		p.metrics.CurrentConditions.WithLabelValues(resultNoObservations).Inc()
		return domain.NoObservationConditions()
	}
	return p.current.Resolve(ctx, stations)
}

func (p *Pipeline) publish(ctx context.Context, result domain.ForecastResult) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, result); err != nil {
		p.metrics.PublishErrors.Inc()
		p.logger.Error("publish forecast result failed", "location", result.Location, "error", err)
		return
	}
	p.metrics.ResultsPublished.Inc()
}

// stepError classifies a hard step failure as malformed or upstream.
func stepError(message string, err error) *domain.ForecastError {
	kind := domain.ErrUpstream
	if errors.Is(err, domain.ErrMalformedResponse) {
		kind = domain.ErrMalformedResponse
	}
	return domain.NewForecastError(kind, message, err)
}

func outcome(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return "success"
	case ctx.Err() != nil:
		return "canceled"
	}
	switch domain.ErrorKind(err) {
	case domain.ErrInvalidLocation:
		return "invalid_location"
	case domain.ErrMalformedResponse:
		return "malformed_response"
	default:
		return "upstream_error"
	}
}
