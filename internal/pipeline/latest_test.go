package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/forecast-service/internal/adapter/nws/nwstest"
	"github.com/couchcryptid/forecast-service/internal/domain"
	"github.com/couchcryptid/forecast-service/internal/observability"
	"github.com/couchcryptid/forecast-service/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatest_SingleQuery(t *testing.T) {
	latest := pipeline.NewLatest(func(_ context.Context, query string) (domain.ForecastResult, error) {
		return domain.ForecastResult{Location: query}, nil
	}, observability.NewMetricsForTesting())

	result, err := latest.Submit(context.Background(), "02139")
	require.NoError(t, err)
	assert.Equal(t, "02139", result.Location)
	assert.Equal(t, uint64(1), latest.Generation())
}

func TestLatest_PassesErrorsThrough(t *testing.T) {
	want := domain.NewForecastError(domain.ErrInvalidLocation, pipeline.MsgInvalidLocation, nil)
	latest := pipeline.NewLatest(func(context.Context, string) (domain.ForecastResult, error) {
		return domain.ForecastResult{}, want
	}, observability.NewMetricsForTesting())

	_, err := latest.Submit(context.Background(), "00000")
	require.ErrorIs(t, err, domain.ErrInvalidLocation)
	assert.NotErrorIs(t, err, pipeline.ErrSuperseded)
}

func TestLatest_NewerQuerySupersedesOlder(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	sawCancel := make(chan bool, 1)

	fetch := func(ctx context.Context, query string) (domain.ForecastResult, error) {
		if query == "old" {
			close(started)
			<-release
			sawCancel <- ctx.Err() != nil
		}
		return domain.ForecastResult{Location: query}, nil
	}
	metrics := observability.NewMetricsForTesting()
	latest := pipeline.NewLatest(fetch, metrics)

	type outcome struct {
		result domain.ForecastResult
		err    error
	}
	oldDone := make(chan outcome, 1)
	go func() {
		r, err := latest.Submit(context.Background(), "old")
		oldDone <- outcome{r, err}
	}()

	<-started
	newer, err := latest.Submit(context.Background(), "new")
	require.NoError(t, err)
	assert.Equal(t, "new", newer.Location)

	close(release)
	old := <-oldDone
	require.ErrorIs(t, old.err, pipeline.ErrSuperseded)
	assert.Empty(t, old.result.Location, "superseded result must not surface")
	assert.True(t, <-sawCancel, "older query's context is canceled")
	assert.Equal(t, uint64(2), latest.Generation())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SupersededQueries))
}

func TestLatest_IssueOrderAndCurrent(t *testing.T) {
	latest := pipeline.NewLatest(func(ctx context.Context, query string) (domain.ForecastResult, error) {
		if err := ctx.Err(); err != nil {
			return domain.ForecastResult{}, err
		}
		return domain.ForecastResult{Location: query}, nil
	}, observability.NewMetricsForTesting())

	first := latest.Issue(context.Background())
	second := latest.Issue(context.Background())
	assert.Equal(t, uint64(1), first.Generation())
	assert.Equal(t, uint64(2), second.Generation())
	assert.False(t, latest.Current(first.Generation()))
	assert.True(t, latest.Current(second.Generation()))

	_, err := first.Run("old")
	require.ErrorIs(t, err, pipeline.ErrSuperseded)

	result, err := second.Run("new")
	require.NoError(t, err)
	assert.Equal(t, "new", result.Location)
	assert.True(t, latest.Current(second.Generation()))
}

func TestLatest_SupersededPipelineQuery(t *testing.T) {
	h := newHarness(t, 5*time.Second)
	h.srv.Delay(nwstest.Forecast, 2*time.Second)
	latest := pipeline.NewLatest(h.pipeline.FetchForecast, h.metrics)

	oldErr := make(chan error, 1)
	go func() {
		_, err := latest.Submit(context.Background(), "01103")
		oldErr <- err
	}()

	require.Eventually(t, func() bool { return h.srv.Hits(nwstest.Forecast) == 1 }, time.Second, 5*time.Millisecond)
	h.srv.Delay(nwstest.Forecast, 0)

	result, err := latest.Submit(context.Background(), "02139")
	require.NoError(t, err)
	assert.Equal(t, "Cambridge, MA", result.Location)

	select {
	case err := <-oldErr:
		require.ErrorIs(t, err, pipeline.ErrSuperseded)
		assert.False(t, errors.Is(err, domain.ErrUpstream))
	case <-time.After(time.Second):
		t.Fatal("superseded query did not return after cancellation")
	}
}
