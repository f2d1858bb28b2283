// Package http exposes the forecast pipeline over a JSON HTTP API.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/forecast-service/internal/domain"
	"github.com/couchcryptid/forecast-service/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const requestTimeout = 30 * time.Second

var validate = validator.New()

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ForecastService answers location queries.
type ForecastService interface {
	FetchForecast(ctx context.Context, query string) (domain.ForecastResult, error)
}

// Suggester offers city completions for partial input.
type Suggester interface {
	// SuggestLimit returns at most limit suggestions; limit <= 0 means the default.
	SuggestLimit(query string, limit int) []domain.Suggestion
}

// Server exposes the forecast API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	forecasts  ForecastService
	suggester  Suggester
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /api/v1 routes, /healthz, /readyz, and /metrics.
func NewServer(addr string, forecasts ForecastService, suggester Suggester, ready ReadinessChecker, metrics *observability.Metrics, logger *slog.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger), instrument(metrics))

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: requestTimeout + 5*time.Second,
			IdleTimeout:  60 * time.Second,
		},
		forecasts: forecasts,
		suggester: suggester,
		logger:    logger,
	}

	router.GET("/healthz", s.handleHealth)
	router.GET("/readyz", handleReady(ready))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.GET("/forecast", s.handleForecast)
	api.GET("/suggestions", s.handleSuggestions)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type forecastRequest struct {
	Location string `form:"location" validate:"required,max=100"`
	Date     string `form:"date" validate:"omitempty,datetime=2006-01-02"`
}

// forecastResponse adds the hourly breakdown of one day when a date is requested.
type forecastResponse struct {
	domain.ForecastResult
	Details []domain.HourlyDetail `json:"details,omitempty"`
}

func (s *Server) handleForecast(c *gin.Context) {
	var req forecastRequest
	if !bindQuery(c, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	result, err := s.forecasts.FetchForecast(ctx, req.Location)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	resp := forecastResponse{ForecastResult: result}
	if req.Date != "" {
		resp.Details = domain.HourlyDetails(result.Hourly, req.Date)
	}
	c.JSON(http.StatusOK, resp)
}

type suggestionsRequest struct {
	Query string `form:"q" validate:"required,max=100"`
	Limit int    `form:"limit" validate:"omitempty,min=1,max=50"`
}

func (s *Server) handleSuggestions(c *gin.Context) {
	var req suggestionsRequest
	if !bindQuery(c, &req) {
		return
	}

	suggestions := s.suggester.SuggestLimit(req.Query, req.Limit)
	if suggestions == nil {
		suggestions = []domain.Suggestion{}
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

// bindQuery decodes and validates query parameters, answering 400 on failure.
func bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return false
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid query parameters"
	}
	fe := verrs[0]
	field := fieldName(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "datetime":
		return field + " must be a date in YYYY-MM-DD format"
	default:
		return field + " is invalid"
	}
}

func fieldName(structField string) string {
	switch structField {
	case "Query":
		return "q"
	case "Location":
		return "location"
	case "Date":
		return "date"
	case "Limit":
		return "limit"
	}
	return structField
}

// statusFor maps pipeline error kinds to HTTP status codes.
func statusFor(err error) int {
	switch domain.ErrorKind(err) {
	case domain.ErrInvalidLocation:
		return http.StatusNotFound
	case domain.ErrUpstream, domain.ErrMalformedResponse:
		return http.StatusBadGateway
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func instrument(metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
