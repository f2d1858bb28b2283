package mapbox

import (
	"context"
	"strings"
	"time"

	"github.com/couchcryptid/forecast-service/internal/domain"
	"github.com/couchcryptid/forecast-service/internal/observability"
	"github.com/patrickmn/go-cache"
)

// CachedGeocoder wraps a Geocoder with an in-memory expiring cache keyed by
// the normalized query. At most maxEntries results are held.
type CachedGeocoder struct {
	inner      domain.Geocoder
	cache      *cache.Cache
	maxEntries int
	metrics    *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder. Entries expire after ttl.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, ttl time.Duration, metrics *observability.Metrics) *CachedGeocoder {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &CachedGeocoder{
		inner:      inner,
		cache:      cache.New(ttl, 2*ttl),
		maxEntries: maxEntries,
		metrics:    metrics,
	}
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, name, state string) (domain.GeocodingResult, error) {
	key := cacheKey(name, state)
	if cached, found := c.cache.Get(key); found {
		c.metrics.GeocodeCache.WithLabelValues(methodForward, "hit").Inc()
		return cached.(domain.GeocodingResult), nil
	}
	c.metrics.GeocodeCache.WithLabelValues(methodForward, "miss").Inc()

	result, err := c.inner.ForwardGeocode(ctx, name, state)
	if err != nil {
		return result, err
	}
	// Only cache matches so "not found" answers can be retried.
	if result.Found() && c.hasRoom() {
		c.cache.Set(key, result, cache.DefaultExpiration)
	}
	return result, nil
}

// Len returns the number of cached results, including expired ones not yet evicted.
func (c *CachedGeocoder) Len() int {
	return c.cache.ItemCount()
}

func (c *CachedGeocoder) hasRoom() bool {
	if c.cache.ItemCount() < c.maxEntries {
		return true
	}
	c.cache.DeleteExpired()
	return c.cache.ItemCount() < c.maxEntries
}

func cacheKey(name, state string) string {
	return strings.ToLower(strings.TrimSpace(name)) + "|" + strings.ToUpper(strings.TrimSpace(state))
}
