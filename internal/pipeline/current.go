package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/forecast-service/internal/domain"
	"github.com/couchcryptid/forecast-service/internal/observability"
)

const (
	resultObserved       = "observed"
	resultUnavailable    = "unavailable"
	resultNoObservations = "no_observations"
)

// ObservationFetcher fetches recent observations for a station code.
type ObservationFetcher interface {
	Observations(ctx context.Context, stationID string) ([]domain.Observation, error)
}

// CurrentResolver turns a station list into current conditions. It never
// returns an error; every failure yields a default record.
type CurrentResolver struct {
	api        ObservationFetcher
	extractors []domain.StationIDExtractor
	loc        *time.Location
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewCurrentResolver creates a resolver. baseURL is the NWS API root used to
// strip station URLs; loc is the display timezone for observation times.
func NewCurrentResolver(api ObservationFetcher, baseURL string, loc *time.Location, logger *slog.Logger, metrics *observability.Metrics) *CurrentResolver {
	if loc == nil {
		loc = time.Local
	}
	return &CurrentResolver{
		api:        api,
		extractors: domain.StationIDExtractors(baseURL),
		loc:        loc,
		logger:     logger,
		metrics:    metrics,
	}
}

// Resolve reports conditions from the first station's latest observation.
func (r *CurrentResolver) Resolve(ctx context.Context, stations []domain.StationFeature) domain.CurrentConditions {
	if len(stations) == 0 {
		return r.degraded(resultNoObservations, domain.NoObservationConditions(), "no stations near grid", nil)
	}

	stationID, err := domain.ExtractStationID(stations[0], r.extractors)
	if err != nil {
		return r.degraded(resultUnavailable, domain.UnavailableConditions(), "station id not usable", err)
	}

	observations, err := r.api.Observations(ctx, stationID)
	if err != nil {
		return r.degraded(resultUnavailable, domain.UnavailableConditions(), "observations fetch failed", err,
			"station", stationID)
	}

	latest, ok := domain.LatestObservation(observations)
	if !ok {
		return r.degraded(resultNoObservations, domain.NoObservationConditions(), "station reported no observations", nil,
			"station", stationID)
	}

	r.metrics.CurrentConditions.WithLabelValues(resultObserved).Inc()
	return domain.ConvertObservation(latest, r.loc)
}

func (r *CurrentResolver) degraded(result string, c domain.CurrentConditions, msg string, err error, attrs ...any) domain.CurrentConditions {
	r.metrics.CurrentConditions.WithLabelValues(result).Inc()
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Warn(msg, attrs...)
	} else {
		r.logger.Debug(msg, attrs...)
	}
	return c
}
