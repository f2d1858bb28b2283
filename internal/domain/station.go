package domain

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNoStationID is returned when no extractor can recover a station code.
var ErrNoStationID = errors.New("no station identifier")

// StationFeature is one entry of an NWS observation station list.
type StationFeature struct {
	ID         string `json:"id"`
	Properties struct {
		StationIdentifier string `json:"stationIdentifier"`
		Name              string `json:"name,omitempty"`
	} `json:"properties"`
}

// StationIDExtractor recovers a station code from a feature, reporting false
// when it does not apply.
type StationIDExtractor func(StationFeature) (string, bool)

var stationURLPattern = regexp.MustCompile(`^https?://[^/]+/stations/([^/]+)(?:/|$)`)

// StationIDExtractors returns the extraction chain in priority order. baseURL
// is the NWS API root used for prefix stripping.
func StationIDExtractors(baseURL string) []StationIDExtractor {
	return []StationIDExtractor{
		stationIDFromURL,
		stationIDFromIdentifier,
		stationIDFromPrefix(strings.TrimRight(baseURL, "/") + "/stations/"),
		stationIDRaw,
	}
}

// ExtractStationID runs the extractors in order and returns the first code found.
func ExtractStationID(f StationFeature, extractors []StationIDExtractor) (string, error) {
	for _, extract := range extractors {
		if id, ok := extract(f); ok {
			return id, nil
		}
	}
	return "", ErrNoStationID
}

func stationIDFromURL(f StationFeature) (string, bool) {
	m := stationURLPattern.FindStringSubmatch(f.ID)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func stationIDFromIdentifier(f StationFeature) (string, bool) {
	id := strings.TrimSpace(f.Properties.StationIdentifier)
	return id, id != ""
}

func stationIDFromPrefix(prefix string) StationIDExtractor {
	return func(f StationFeature) (string, bool) {
		rest, found := strings.CutPrefix(f.ID, prefix)
		if !found {
			return "", false
		}
		code, _, _ := strings.Cut(rest, "/")
		return code, code != ""
	}
}

// stationIDRaw is the last resort: the id is used as-is even if it is a URL.
func stationIDRaw(f StationFeature) (string, bool) {
	return f.ID, f.ID != ""
}
