// Package nwstest provides an in-process fake of the NWS API for tests.
package nwstest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// Endpoint names accepted by Respond, Delay and Hits.
const (
	Points         = "points"
	Forecast       = "forecast"
	ForecastHourly = "forecast_hourly"
	Stations       = "stations"
	Observations   = "observations"
)

// Fixture facts exposed for assertions.
const (
	GridID      = "BOX"
	GridX       = 71
	GridY       = 90
	StationID   = "KBOS"
	FirstDate   = "2024-05-01"
	HourlyCount = 48
	DailyCount  = 14
)

type override struct {
	status int
	body   string
}

// Server is a fake NWS API backed by httptest. By default every endpoint
// returns a consistent fixture for grid BOX/71,90 and station KBOS.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	overrides  map[string]override
	delays     map[string]time.Duration
	hits       map[string]int
	userAgents []string
}

// NewServer starts a fake NWS API that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		overrides: make(map[string]override),
		delays:    make(map[string]time.Duration),
		hits:      make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /points/{coords}", s.handle(Points, s.points))
	mux.HandleFunc("GET /gridpoints/{grid}/{xy}/forecast", s.handle(Forecast, dailyForecast))
	mux.HandleFunc("GET /gridpoints/{grid}/{xy}/forecast/hourly", s.handle(ForecastHourly, hourlyForecast))
	mux.HandleFunc("GET /gridpoints/{grid}/{xy}/stations", s.handle(Stations, s.stations))
	mux.HandleFunc("GET /stations/{id}/observations", s.handle(Observations, observations))

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Respond replaces an endpoint's fixture with a fixed status and body.
func (s *Server) Respond(endpoint string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[endpoint] = override{status: status, body: body}
}

// Fail makes an endpoint answer with the given status.
func (s *Server) Fail(endpoint string, status int) {
	s.Respond(endpoint, status, fmt.Sprintf(`{"status":%d,"detail":"fake failure"}`, status))
}

// Delay holds every response of an endpoint for d, or until the client goes away.
func (s *Server) Delay(endpoint string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[endpoint] = d
}

// Hits returns how many requests reached an endpoint.
func (s *Server) Hits(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[endpoint]
}

// UserAgents returns the User-Agent header of every request, in arrival order.
func (s *Server) UserAgents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.userAgents...)
}

func (s *Server) handle(endpoint string, fixture func(r *http.Request) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[endpoint]++
		s.userAgents = append(s.userAgents, r.UserAgent())
		o, overridden := s.overrides[endpoint]
		delay := s.delays[endpoint]
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}

		w.Header().Set("Content-Type", "application/geo+json")
		if overridden {
			w.WriteHeader(o.status)
			_, _ = w.Write([]byte(o.body))
			return
		}
		_ = json.NewEncoder(w).Encode(fixture(r))
	}
}

func (s *Server) points(_ *http.Request) any {
	return map[string]any{
		"properties": map[string]any{
			"gridId":              GridID,
			"gridX":               GridX,
			"gridY":               GridY,
			"forecast":            fmt.Sprintf("%s/gridpoints/%s/%d,%d/forecast", s.URL, GridID, GridX, GridY),
			"forecastHourly":      fmt.Sprintf("%s/gridpoints/%s/%d,%d/forecast/hourly", s.URL, GridID, GridX, GridY),
			"observationStations": fmt.Sprintf("%s/gridpoints/%s/%d,%d/stations", s.URL, GridID, GridX, GridY),
		},
	}
}

func (s *Server) stations(_ *http.Request) any {
	return map[string]any{
		"features": []any{
			map[string]any{
				"id":         s.URL + "/stations/" + StationID,
				"properties": map[string]any{"stationIdentifier": StationID, "name": "Boston, Logan International Airport"},
			},
			map[string]any{
				"id":         s.URL + "/stations/KCQX",
				"properties": map[string]any{"stationIdentifier": "KCQX", "name": "Chatham Municipal Airport"},
			},
		},
	}
}

func quantity(unit string, v any) map[string]any {
	return map[string]any{"unitCode": unit, "value": v}
}

func dailyForecast(_ *http.Request) any {
	start := time.Date(2024, time.May, 1, 6, 0, 0, 0, time.FixedZone("EDT", -4*3600))
	periods := make([]any, 0, DailyCount)
	for i := range DailyCount {
		daytime := i%2 == 0
		t := start.Add(time.Duration(i) * 12 * time.Hour)
		temp, forecast, icon := 50+i, "Mostly Clear", "https://api.weather.gov/icons/land/night/few?size=medium"
		if daytime {
			temp, forecast, icon = 70+i, "Sunny", "https://api.weather.gov/icons/land/day/skc?size=medium"
		}
		periods = append(periods, map[string]any{
			"number":                     i + 1,
			"startTime":                  t.Format(time.RFC3339),
			"endTime":                    t.Add(12 * time.Hour).Format(time.RFC3339),
			"isDaytime":                  daytime,
			"temperature":                temp,
			"temperatureUnit":            "F",
			"windSpeed":                  "5 to 10 mph",
			"windDirection":              "SW",
			"shortForecast":              forecast,
			"icon":                       icon,
			"probabilityOfPrecipitation": quantity("wmoUnit:percent", nil),
		})
	}
	return map[string]any{"properties": map[string]any{"periods": periods}}
}

func hourlyForecast(_ *http.Request) any {
	start := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.FixedZone("EDT", -4*3600))
	periods := make([]any, 0, HourlyCount)
	for i := range HourlyCount {
		t := start.Add(time.Duration(i) * time.Hour)
		var precip any
		if i%3 == 0 {
			precip = 10 * (i % 5)
		}
		periods = append(periods, map[string]any{
			"number":                     i + 1,
			"startTime":                  t.Format(time.RFC3339),
			"endTime":                    t.Add(time.Hour).Format(time.RFC3339),
			"isDaytime":                  t.Hour() >= 6 && t.Hour() < 18,
			"temperature":                55 + i%12,
			"temperatureUnit":            "F",
			"windSpeed":                  "8 mph",
			"windDirection":              "W",
			"shortForecast":              "Partly Cloudy",
			"icon":                       "https://api.weather.gov/icons/land/day/sct?size=small",
			"probabilityOfPrecipitation": quantity("wmoUnit:percent", precip),
			"dewpoint":                   quantity("wmoUnit:degC", 10.0),
			"relativeHumidity":           quantity("wmoUnit:percent", 60),
		})
	}
	return map[string]any{"properties": map[string]any{"periods": periods}}
}

func observations(_ *http.Request) any {
	feature := func(ts, text string, tempC any) map[string]any {
		return map[string]any{
			"properties": map[string]any{
				"timestamp":          ts,
				"textDescription":    text,
				"temperature":        quantity("wmoUnit:degC", tempC),
				"windDirection":      quantity("wmoUnit:degree_(angle)", 230),
				"windSpeed":          quantity("wmoUnit:km_h-1", 18.36),
				"relativeHumidity":   quantity("wmoUnit:percent", 55.4),
				"heatIndex":          quantity("wmoUnit:degC", nil),
				"dewpoint":           quantity("wmoUnit:degC", 10.6),
				"barometricPressure": quantity("wmoUnit:Pa", 101325),
			},
		}
	}
	return map[string]any{
		"features": []any{
			feature("2024-05-01T16:54:00+00:00", "Cloudy", 17.2),
			feature("2024-05-01T18:54:00+00:00", "Partly Cloudy", 20.0),
			feature("2024-05-01T17:54:00+00:00", "Mostly Cloudy", 18.9),
		},
	}
}
