package nws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/forecast-service/internal/domain"
	"github.com/couchcryptid/forecast-service/internal/observability"
	"github.com/sony/gobreaker"
)

// BreakerConfig tunes the circuit breaker around the NWS client.
type BreakerConfig struct {
	Interval            time.Duration // closed-state window after which failure counts reset
	Timeout             time.Duration // how long the breaker stays open before probing
	ConsecutiveFailures uint32
}

// BreakerClient wraps an API with a circuit breaker. An open breaker fails
// calls immediately with domain.ErrUpstream; nothing is retried.
type BreakerClient struct {
	name    string
	cb      *gobreaker.CircuitBreaker
	wrapped API
}

// NewBreakerClient decorates wrapped with a circuit breaker.
func NewBreakerClient(name string, cfg BreakerConfig, wrapped API, metrics *observability.Metrics, logger *slog.Logger) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		// Cancelled callers and bad payloads say nothing about upstream availability.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrMalformedResponse)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.Set(stateValue(to))
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return &BreakerClient{
		name:    name,
		cb:      gobreaker.NewCircuitBreaker(settings),
		wrapped: wrapped,
	}
}

func (b *BreakerClient) Points(ctx context.Context, lat, lon float64) (domain.GridReference, error) {
	return execute(b, func() (domain.GridReference, error) {
		return b.wrapped.Points(ctx, lat, lon)
	})
}

func (b *BreakerClient) Forecast(ctx context.Context, grid domain.GridReference) ([]domain.ForecastPeriod, error) {
	return execute(b, func() ([]domain.ForecastPeriod, error) {
		return b.wrapped.Forecast(ctx, grid)
	})
}

func (b *BreakerClient) HourlyForecast(ctx context.Context, grid domain.GridReference) ([]domain.ForecastPeriod, error) {
	return execute(b, func() ([]domain.ForecastPeriod, error) {
		return b.wrapped.HourlyForecast(ctx, grid)
	})
}

func (b *BreakerClient) Stations(ctx context.Context, grid domain.GridReference) ([]domain.StationFeature, error) {
	return execute(b, func() ([]domain.StationFeature, error) {
		return b.wrapped.Stations(ctx, grid)
	})
}

func (b *BreakerClient) Observations(ctx context.Context, stationID string) ([]domain.Observation, error) {
	return execute(b, func() ([]domain.Observation, error) {
		return b.wrapped.Observations(ctx, stationID)
	})
}

// State reports the current breaker state.
func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}

func execute[T any](b *BreakerClient, fn func() (T, error)) (T, error) {
	var zero T
	result, err := b.cb.Execute(func() (interface{}, error) {
		v, err := fn()
		return v, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%s unavailable: %w: %w", b.name, domain.ErrUpstream, err)
		}
		return zero, err
	}
	res, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("%s returned unexpected result: %w", b.name, domain.ErrMalformedResponse)
	}
	return res, nil
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
