package mapbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/forecast-service/internal/domain"
	"github.com/couchcryptid/forecast-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingGeocoder struct {
	calls  int
	result domain.GeocodingResult
	err    error
}

func (m *countingGeocoder) ForwardGeocode(_ context.Context, _, _ string) (domain.GeocodingResult, error) {
	m.calls++
	return m.result, m.err
}

var springfield = domain.GeocodingResult{Lat: 39.78, Lon: -89.65, PlaceName: "Springfield", FormattedAddress: "Springfield, IL"}

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{result: springfield}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedGeocoder(inner, 10, time.Hour, metrics)

	r1, err := cached.ForwardGeocode(context.Background(), "Springfield", "IL")
	require.NoError(t, err)
	r2, err := cached.ForwardGeocode(context.Background(), "Springfield", "IL")
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues(methodForward, "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues(methodForward, "miss")))
}

func TestCachedGeocoder_KeyIsNormalized(t *testing.T) {
	inner := &countingGeocoder{result: springfield}
	cached := NewCachedGeocoder(inner, 10, time.Hour, observability.NewMetricsForTesting())

	_, err := cached.ForwardGeocode(context.Background(), "SPRINGFIELD", "il")
	require.NoError(t, err)
	_, err = cached.ForwardGeocode(context.Background(), " springfield ", "IL")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
}

func TestCachedGeocoder_DifferentStates(t *testing.T) {
	inner := &countingGeocoder{result: springfield}
	cached := NewCachedGeocoder(inner, 10, time.Hour, observability.NewMetricsForTesting())

	_, _ = cached.ForwardGeocode(context.Background(), "Springfield", "IL")
	_, _ = cached.ForwardGeocode(context.Background(), "Springfield", "MO")

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 2, cached.Len())
}

func TestCachedGeocoder_EmptyResultNotCached(t *testing.T) {
	inner := &countingGeocoder{}
	cached := NewCachedGeocoder(inner, 10, time.Hour, observability.NewMetricsForTesting())

	_, _ = cached.ForwardGeocode(context.Background(), "NOWHERE", "XX")
	_, _ = cached.ForwardGeocode(context.Background(), "NOWHERE", "XX")

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 0, cached.Len())
}

func TestCachedGeocoder_ErrorNotCached(t *testing.T) {
	inner := &countingGeocoder{result: springfield, err: errors.New("boom")}
	cached := NewCachedGeocoder(inner, 10, time.Hour, observability.NewMetricsForTesting())

	_, err := cached.ForwardGeocode(context.Background(), "Springfield", "IL")
	require.Error(t, err)

	inner.err = nil
	_, err = cached.ForwardGeocode(context.Background(), "Springfield", "IL")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_EntriesExpire(t *testing.T) {
	inner := &countingGeocoder{result: springfield}
	cached := NewCachedGeocoder(inner, 10, 20*time.Millisecond, observability.NewMetricsForTesting())

	_, _ = cached.ForwardGeocode(context.Background(), "Springfield", "IL")
	time.Sleep(40 * time.Millisecond)
	_, _ = cached.ForwardGeocode(context.Background(), "Springfield", "IL")

	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_SizeBound(t *testing.T) {
	inner := &countingGeocoder{result: springfield}
	cached := NewCachedGeocoder(inner, 2, time.Hour, observability.NewMetricsForTesting())

	for _, state := range []string{"IL", "MO", "MA", "OR"} {
		_, err := cached.ForwardGeocode(context.Background(), "Springfield", state)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, cached.Len())

	// Entries admitted before the cache filled are still served.
	_, _ = cached.ForwardGeocode(context.Background(), "Springfield", "IL")
	assert.Equal(t, 4, inner.calls)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "springfield|IL", cacheKey(" Springfield ", "il"))
	assert.Equal(t, "bangor|", cacheKey("BANGOR", ""))
}
