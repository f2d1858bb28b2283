// Package location resolves user location queries against a static postal dataset.
package location

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/couchcryptid/forecast-service/internal/domain"
)

const (
	// DefaultSuggestionLimit caps suggestion lists when no limit is given.
	DefaultSuggestionLimit = 15

	// minSuggestionQuery is the shortest query that triggers suggestions.
	minSuggestionQuery = 4
)

// Resolver answers ZIP lookups and city-prefix suggestions. It is read-only
// after construction and safe for concurrent use.
type Resolver struct {
	places   []domain.PlaceRecord
	byZip    map[string]domain.PlaceRecord
	geocoder domain.Geocoder
	limit    int
	logger   *slog.Logger
}

// NewResolver indexes places. geocoder may be nil, in which case only dataset
// entries resolve. A non-positive limit uses DefaultSuggestionLimit.
func NewResolver(places []domain.PlaceRecord, geocoder domain.Geocoder, limit int, logger *slog.Logger) *Resolver {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	byZip := make(map[string]domain.PlaceRecord, len(places))
	for _, p := range places {
		// First occurrence wins for duplicate ZIPs.
		if _, ok := byZip[p.Zip]; !ok {
			byZip[p.Zip] = p
		}
	}
	return &Resolver{
		places:   places,
		byZip:    byZip,
		geocoder: geocoder,
		limit:    limit,
		logger:   logger,
	}
}

// Len returns the number of dataset records.
func (r *Resolver) Len() int {
	return len(r.places)
}

// ResolveByZip looks up a ZIP by exact string match. No normalization is
// applied, so "2139" does not match "02139".
func (r *Resolver) ResolveByZip(zip string) (domain.PlaceRecord, error) {
	p, ok := r.byZip[zip]
	if !ok {
		return domain.PlaceRecord{}, fmt.Errorf("zip %q: %w", zip, domain.ErrLocationNotFound)
	}
	return p, nil
}

// SuggestByCityPrefix returns unique (city, state) pairs whose city starts with
// prefix, ignoring case. The first dataset row of each pair supplies the ZIP.
// Results are sorted by city then state, case-insensitively, and truncated to limit.
func (r *Resolver) SuggestByCityPrefix(prefix string, limit int) []domain.Suggestion {
	if limit <= 0 {
		limit = r.limit
	}
	lowerPrefix := strings.ToLower(prefix)

	seen := make(map[string]struct{})
	var matches []domain.Suggestion
	for _, p := range r.places {
		if !strings.HasPrefix(strings.ToLower(p.City), lowerPrefix) {
			continue
		}
		key := p.City + "," + p.State
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		matches = append(matches, domain.Suggestion{City: p.City, State: p.State, Zip: p.Zip})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		ci, cj := strings.ToLower(matches[i].City), strings.ToLower(matches[j].City)
		if ci != cj {
			return ci < cj
		}
		return strings.ToLower(matches[i].State) < strings.ToLower(matches[j].State)
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Suggest returns city suggestions for free-text input. Numeric input and
// input shorter than four characters get no suggestions.
func (r *Resolver) Suggest(query string) []domain.Suggestion {
	return r.SuggestLimit(query, 0)
}

// SuggestLimit is Suggest with an explicit cap. A non-positive limit uses the
// resolver's configured limit.
func (r *Resolver) SuggestLimit(query string, limit int) []domain.Suggestion {
	if len(query) < minSuggestionQuery || isNumeric(query) {
		return nil
	}
	if limit <= 0 {
		limit = r.limit
	}
	return r.SuggestByCityPrefix(query, limit)
}

// Resolve maps a query to a place: exact ZIP first, then a dataset city
// ("City" or "City, ST"), then the optional geocoder for non-numeric input.
func (r *Resolver) Resolve(ctx context.Context, query string) (domain.PlaceRecord, error) {
	if p, err := r.ResolveByZip(query); err == nil {
		return p, nil
	}

	name, state := splitCityState(query)
	if name == "" {
		return domain.PlaceRecord{}, fmt.Errorf("empty query: %w", domain.ErrLocationNotFound)
	}
	if p, ok := r.lookupCity(name, state); ok {
		return p, nil
	}

	if r.geocoder == nil || isNumeric(name) {
		return domain.PlaceRecord{}, fmt.Errorf("query %q: %w", query, domain.ErrLocationNotFound)
	}

	result, err := r.geocoder.ForwardGeocode(ctx, name, state)
	if err != nil {
		r.logger.Warn("geocoding failed", "query", query, "error", err)
		return domain.PlaceRecord{}, fmt.Errorf("geocode %q: %w", query, domain.ErrLocationNotFound)
	}
	if !result.Found() {
		return domain.PlaceRecord{}, fmt.Errorf("geocode %q: %w", query, domain.ErrLocationNotFound)
	}

	r.logger.Debug("resolved location by geocoding",
		"query", query,
		"place", result.FormattedAddress,
		"confidence", result.Confidence,
	)
	city := result.PlaceName
	if city == "" {
		city = name
	}
	if state == "" {
		state = result.State
	}
	return domain.PlaceRecord{City: city, State: state, Lat: result.Lat, Lon: result.Lon}, nil
}

func (r *Resolver) lookupCity(name, state string) (domain.PlaceRecord, bool) {
	for _, p := range r.places {
		if !strings.EqualFold(p.City, name) {
			continue
		}
		if state != "" && !strings.EqualFold(p.State, state) {
			continue
		}
		return p, true
	}
	return domain.PlaceRecord{}, false
}

// splitCityState parses "City, ST" into its parts; without a comma the whole
// query is the city.
func splitCityState(query string) (name, state string) {
	name = query
	if i := strings.LastIndex(query, ","); i >= 0 {
		name, state = query[:i], query[i+1:]
	}
	return strings.TrimSpace(name), strings.ToUpper(strings.TrimSpace(state))
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}
