// Package nws is the National Weather Service API adapter.
package nws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/forecast-service/internal/domain"
	"github.com/couchcryptid/forecast-service/internal/observability"
)

// Endpoint labels used in logs and metrics.
const (
	EndpointPoints         = "points"
	EndpointForecast       = "forecast"
	EndpointForecastHourly = "forecast_hourly"
	EndpointStations       = "stations"
	EndpointObservations   = "observations"
)

// maxErrorBody caps how much of a non-2xx body is kept in the error message.
const maxErrorBody = 512

// API is the set of NWS calls the forecast pipeline makes.
type API interface {
	Points(ctx context.Context, lat, lon float64) (domain.GridReference, error)
	Forecast(ctx context.Context, grid domain.GridReference) ([]domain.ForecastPeriod, error)
	HourlyForecast(ctx context.Context, grid domain.GridReference) ([]domain.ForecastPeriod, error)
	Stations(ctx context.Context, grid domain.GridReference) ([]domain.StationFeature, error)
	Observations(ctx context.Context, stationID string) ([]domain.Observation, error)
}

// Client calls the NWS API. Every call is bounded by the client timeout.
// Transport failures, timeouts and non-2xx responses wrap domain.ErrUpstream;
// undecodable or incomplete bodies wrap domain.ErrMalformedResponse.
type Client struct {
	baseURL    string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an NWS client. NWS requires a descriptive User-Agent.
func NewClient(baseURL, userAgent string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		timeout:   timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// BaseURL returns the API root, used for station-ID prefix stripping.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Points resolves a coordinate to its forecast grid.
func (c *Client) Points(ctx context.Context, lat, lon float64) (domain.GridReference, error) {
	// NWS redirects requests with more than four decimal places.
	u := fmt.Sprintf("%s/points/%.4f,%.4f", c.baseURL, lat, lon)

	var resp pointsResponse
	if err := c.get(ctx, EndpointPoints, u, &resp); err != nil {
		return domain.GridReference{}, err
	}

	p := resp.Properties
	if p.GridID == "" || p.GridX == nil || p.GridY == nil {
		return domain.GridReference{}, fmt.Errorf("points %.4f,%.4f: missing grid fields: %w", lat, lon, domain.ErrMalformedResponse)
	}
	return domain.GridReference{
		GridID:                 p.GridID,
		GridX:                  *p.GridX,
		GridY:                  *p.GridY,
		ObservationStationsURL: p.ObservationStations,
	}, nil
}

// Forecast fetches the day/night forecast periods for a grid.
func (c *Client) Forecast(ctx context.Context, grid domain.GridReference) ([]domain.ForecastPeriod, error) {
	return c.periods(ctx, EndpointForecast, c.gridURL(grid)+"/forecast")
}

// HourlyForecast fetches the hourly forecast periods for a grid.
func (c *Client) HourlyForecast(ctx context.Context, grid domain.GridReference) ([]domain.ForecastPeriod, error) {
	return c.periods(ctx, EndpointForecastHourly, c.gridURL(grid)+"/forecast/hourly")
}

// Stations fetches the observation stations near a grid, nearest first.
func (c *Client) Stations(ctx context.Context, grid domain.GridReference) ([]domain.StationFeature, error) {
	u := grid.ObservationStationsURL
	if u == "" {
		u = c.gridURL(grid) + "/stations"
	}

	var resp stationsResponse
	if err := c.get(ctx, EndpointStations, u, &resp); err != nil {
		return nil, err
	}
	if resp.Features == nil {
		return nil, fmt.Errorf("stations: missing features: %w", domain.ErrMalformedResponse)
	}
	return *resp.Features, nil
}

// Observations fetches recent observations for a station. An empty slice means
// the station reported nothing; a missing feature list is malformed.
func (c *Client) Observations(ctx context.Context, stationID string) ([]domain.Observation, error) {
	u := fmt.Sprintf("%s/stations/%s/observations", c.baseURL, url.PathEscape(stationID))

	var resp observationsResponse
	if err := c.get(ctx, EndpointObservations, u, &resp); err != nil {
		return nil, err
	}
	if resp.Features == nil {
		return nil, fmt.Errorf("observations %s: missing features: %w", stationID, domain.ErrMalformedResponse)
	}

	observations := make([]domain.Observation, 0, len(*resp.Features))
	for _, f := range *resp.Features {
		observations = append(observations, f.Properties)
	}
	return observations, nil
}

func (c *Client) gridURL(grid domain.GridReference) string {
	return fmt.Sprintf("%s/gridpoints/%s/%d,%d", c.baseURL, url.PathEscape(grid.GridID), grid.GridX, grid.GridY)
}

func (c *Client) periods(ctx context.Context, endpoint, u string) ([]domain.ForecastPeriod, error) {
	var resp forecastResponse
	if err := c.get(ctx, endpoint, u, &resp); err != nil {
		return nil, err
	}
	if resp.Properties.Periods == nil {
		return nil, fmt.Errorf("%s: missing periods: %w", endpoint, domain.ErrMalformedResponse)
	}
	return *resp.Properties.Periods, nil
}

// get performs one bounded GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, endpoint, fullURL string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w: %w", endpoint, domain.ErrUpstream, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/geo+json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		c.logger.Warn("nws request failed", "endpoint", endpoint, "url", fullURL, "error", err)
		return fmt.Errorf("%s request: %w: %w", endpoint, domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.UpstreamRequests.WithLabelValues(endpoint, "status").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("nws request returned error status",
			"endpoint", endpoint,
			"url", fullURL,
			"status", resp.StatusCode,
		)
		return fmt.Errorf("nws API error: %s: status %d: %s: %w", endpoint, resp.StatusCode, body, domain.ErrUpstream)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			c.metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
			return fmt.Errorf("read %s response: %w: %w", endpoint, domain.ErrUpstream, err)
		}
		c.metrics.UpstreamRequests.WithLabelValues(endpoint, "malformed").Inc()
		return fmt.Errorf("decode %s response: %w: %w", endpoint, domain.ErrMalformedResponse, err)
	}

	c.metrics.UpstreamRequests.WithLabelValues(endpoint, "success").Inc()
	c.logger.Debug("nws request complete", "endpoint", endpoint, "duration", time.Since(start))
	return nil
}

// NWS API response types.

type pointsResponse struct {
	Properties struct {
		GridID              string `json:"gridId"`
		GridX               *int   `json:"gridX"`
		GridY               *int   `json:"gridY"`
		Forecast            string `json:"forecast"`
		ForecastHourly      string `json:"forecastHourly"`
		ObservationStations string `json:"observationStations"`
	} `json:"properties"`
}

type forecastResponse struct {
	Properties struct {
		Periods *[]domain.ForecastPeriod `json:"periods"`
	} `json:"properties"`
}

type stationsResponse struct {
	Features *[]domain.StationFeature `json:"features"`
}

type observationsResponse struct {
	Features *[]observationFeature `json:"features"`
}

type observationFeature struct {
	Properties domain.Observation `json:"properties"`
}
