package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/forecast-service/internal/domain"
	"github.com/couchcryptid/forecast-service/internal/observability"
	"github.com/couchcryptid/forecast-service/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSuggester struct{}

func (stubSuggester) Suggest(q string) []domain.Suggestion {
	if q != "spri" {
		return nil
	}
	return []domain.Suggestion{{City: "Springfield", State: "MA", Zip: "01103"}}
}

func ptr[T any](v T) *T { return &v }

func cambridge() domain.ForecastResult {
	return domain.ForecastResult{
		Location: "Cambridge, MA",
		Daily:    []domain.DailySummary{{Date: "2024-05-01", High: 70, Low: 51, Description: "Sunny"}},
		Hourly: []domain.ForecastPeriod{{
			StartTime:     "2024-05-01T14:00:00-04:00",
			Temperature:   68,
			ShortForecast: "Sunny",
			WindSpeed:     "8 mph",
			WindDirection: "W",
			Dewpoint:      &domain.QuantitativeValue{Value: ptr(10.0)},
		}},
		Current: domain.CurrentConditions{
			Temperature:     ptr(68.0),
			TextDescription: "Partly Cloudy",
			WindSpeed:       ptr("11.4"),
			WindDirection:   ptr("SW"),
			ObservationTime: ptr("02:54 PM"),
		},
	}
}

func newTestSession(t *testing.T, fetch pipeline.FetchFunc) (*session, *bytes.Buffer, string) {
	t.Helper()
	var out bytes.Buffer
	state := filepath.Join(t.TempDir(), "state", "last_query")
	latest := pipeline.NewLatest(fetch, observability.NewMetricsForTesting())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newSession(latest, stubSuggester{}, state, &out, logger), &out, state
}

func TestSession_QueryRendersAndPersists(t *testing.T) {
	s, out, state := newTestSession(t, func(_ context.Context, q string) (domain.ForecastResult, error) {
		return cambridge(), nil
	})

	require.True(t, s.handle(context.Background(), " 02139 "))
	s.wait()

	assert.Contains(t, out.String(), "Cambridge, MA")
	assert.Contains(t, out.String(), "Partly Cloudy, 68°F, wind 11.4 mph SW")
	assert.Contains(t, out.String(), "70°F")
	assert.Equal(t, "02139", loadState(state))
}

func TestSession_ErrorMessage(t *testing.T) {
	s, out, _ := newTestSession(t, func(context.Context, string) (domain.ForecastResult, error) {
		return domain.ForecastResult{}, domain.NewForecastError(domain.ErrInvalidLocation, pipeline.MsgInvalidLocation, nil)
	})

	s.handle(context.Background(), "00000")
	s.wait()
	assert.Equal(t, "00000: Invalid ZIP code\n", out.String())
}

func TestSession_SupersededQueryIsNotShown(t *testing.T) {
	release := make(chan struct{})
	s, out, state := newTestSession(t, func(ctx context.Context, q string) (domain.ForecastResult, error) {
		if q == "slow" {
			<-release
			return domain.ForecastResult{Location: "Slow Town"}, nil
		}
		return cambridge(), nil
	})

	s.handle(context.Background(), "slow")
	require.Eventually(t, func() bool { return s.latest.Generation() == 1 }, time.Second, time.Millisecond)
	s.handle(context.Background(), "02139")
	require.Eventually(t, func() bool { return s.latest.Generation() == 2 }, time.Second, time.Millisecond)
	close(release)
	s.wait()

	assert.NotContains(t, out.String(), "Slow Town")
	assert.Contains(t, out.String(), "Cambridge, MA")
	assert.Equal(t, "02139", loadState(state))
}

func TestSession_OlderResultWaitingForOutputIsDropped(t *testing.T) {
	release := make(chan struct{})
	s, out, _ := newTestSession(t, func(_ context.Context, q string) (domain.ForecastResult, error) {
		if q == "new" {
			<-release
			return domain.ForecastResult{Location: "NEWER"}, nil
		}
		return domain.ForecastResult{Location: "OLDER"}, nil
	})

	// Hold the output lock so the older result finishes fetching but cannot
	// be applied until after the newer query has been issued.
	s.mu.Lock()
	s.handle(context.Background(), "old")
	s.handle(context.Background(), "new")
	assert.Equal(t, uint64(2), s.latest.Generation())
	s.mu.Unlock()

	close(release)
	s.wait()

	assert.NotContains(t, out.String(), "OLDER")
	assert.Contains(t, out.String(), "NEWER")
	require.NotNil(t, s.last)
	assert.Equal(t, "NEWER", s.last.Location)
}

func TestSession_Suggestions(t *testing.T) {
	s, out, _ := newTestSession(t, nil)

	s.handle(context.Background(), "?spri")
	assert.Equal(t, "  Springfield, MA  01103\n", out.String())

	out.Reset()
	s.handle(context.Background(), "?sp")
	assert.Contains(t, out.String(), "No suggestions")
}

func TestSession_DayDetails(t *testing.T) {
	s, out, _ := newTestSession(t, func(context.Context, string) (domain.ForecastResult, error) {
		return cambridge(), nil
	})

	s.handle(context.Background(), ":day 2024-05-01")
	assert.Equal(t, "No forecast loaded yet\n", out.String())

	s.handle(context.Background(), "02139")
	s.wait()
	out.Reset()

	s.handle(context.Background(), ":day 2024-05-01")
	assert.Contains(t, out.String(), "Hourly forecast for 2024-05-01")
	assert.Contains(t, out.String(), "02 PM")
	assert.Contains(t, out.String(), "8 mph W")
	assert.Contains(t, out.String(), "50°F")

	out.Reset()
	s.handle(context.Background(), ":day 2024-06-01")
	assert.Equal(t, "No hourly forecast for 2024-06-01\n", out.String())
}

func TestSession_Commands(t *testing.T) {
	s, out, _ := newTestSession(t, nil)

	assert.True(t, s.handle(context.Background(), ""))
	assert.True(t, s.handle(context.Background(), ":bogus"))
	assert.Contains(t, out.String(), "unknown command")
	assert.False(t, s.handle(context.Background(), ":quit"))
}

func TestSession_ReplayLastQuery(t *testing.T) {
	s, out, state := newTestSession(t, func(_ context.Context, q string) (domain.ForecastResult, error) {
		r := cambridge()
		r.Location = q
		return r, nil
	})
	require.NoError(t, saveState(state, "01103"))

	s.replay(context.Background())
	s.wait()
	assert.Contains(t, out.String(), `Restoring last location "01103"`)
}

func TestLoadState_Missing(t *testing.T) {
	assert.Empty(t, loadState(filepath.Join(t.TempDir(), "nope")))
	assert.Empty(t, loadState(""))
	assert.NoError(t, saveState("", "02139"))
}
