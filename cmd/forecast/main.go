// Command forecast is an interactive terminal client for the forecast pipeline.
// Each input line is a location query; a new query replaces one still loading.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	_ "time/tzdata"

	"github.com/couchcryptid/forecast-service/internal/app"
	"github.com/couchcryptid/forecast-service/internal/config"
	"github.com/couchcryptid/forecast-service/internal/observability"
	"github.com/couchcryptid/forecast-service/internal/pipeline"
	"github.com/joho/godotenv"
)

func main() {
	stateFile := flag.String("state", defaultStateFile(), "file that remembers the last location query")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLoggerTo(os.Stderr, cfg)
	metrics := observability.NewMetrics()

	a, err := app.New(cfg, logger, metrics)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	latest := pipeline.NewLatest(a.Pipeline.FetchForecast, metrics)
	s := newSession(latest, a.Resolver, *stateFile, os.Stdout, logger)

	fmt.Print(helpText)
	s.replay(ctx)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for running := true; running; {
		select {
		case <-ctx.Done():
			running = false
		case line, ok := <-lines:
			running = ok && s.handle(ctx, line)
		}
	}
	s.wait()
}

func defaultStateFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "forecast-service", "last_query")
}
