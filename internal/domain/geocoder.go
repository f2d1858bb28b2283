package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	State            string  // two-letter code when the provider reports one
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Found reports whether the provider returned a usable coordinate.
func (r GeocodingResult) Found() bool {
	return r.Lat != 0 || r.Lon != 0
}

// Geocoder resolves free-text place names that are not in the postal dataset.
type Geocoder interface {
	// ForwardGeocode converts a place name and optional state to coordinates.
	ForwardGeocode(ctx context.Context, name, state string) (GeocodingResult, error)
}
