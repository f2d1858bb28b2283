package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/couchcryptid/forecast-service/internal/domain"
	"github.com/couchcryptid/forecast-service/internal/pipeline"
)

const placeholder = "--"

type suggester interface {
	Suggest(query string) []domain.Suggestion
}

// session holds the terminal client's UI state: the last shown forecast and
// the persisted last query. Queries run in the background; a newer query
// supersedes one still in flight.
type session struct {
	latest    *pipeline.Latest
	suggester suggester
	stateFile string
	logger    *slog.Logger

	mu   sync.Mutex // guards out and last
	out  io.Writer
	last *domain.ForecastResult

	wg sync.WaitGroup
}

func newSession(latest *pipeline.Latest, s suggester, stateFile string, out io.Writer, logger *slog.Logger) *session {
	return &session{latest: latest, suggester: s, stateFile: stateFile, out: out, logger: logger}
}

// handle processes one input line. It returns false when the user asks to quit.
func (s *session) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
	case line == ":quit" || line == ":q":
		return false
	case line == ":help":
		s.printf("%s", helpText)
	case strings.HasPrefix(line, "?"):
		s.printSuggestions(strings.TrimSpace(line[1:]))
	case strings.HasPrefix(line, ":day"):
		s.printDay(strings.TrimSpace(strings.TrimPrefix(line, ":day")))
	case strings.HasPrefix(line, ":"):
		s.printf("unknown command %q, try :help\n", line)
	default:
		s.submit(ctx, line)
	}
	return true
}

// replay submits the persisted last query, if any.
func (s *session) replay(ctx context.Context) {
	if q := loadState(s.stateFile); q != "" {
		s.printf("Restoring last location %q\n", q)
		s.submit(ctx, q)
	}
}

// wait blocks until every submitted query has finished.
func (s *session) wait() {
	s.wg.Wait()
}

func (s *session) submit(ctx context.Context, query string) {
	if err := saveState(s.stateFile, query); err != nil {
		s.logger.Warn("could not save last query", "path", s.stateFile, "error", err)
	}

	ticket := s.latest.Issue(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		result, err := ticket.Run(query)
		if errors.Is(err, pipeline.ErrSuperseded) {
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		// A newer query may have been issued while waiting for the lock.
		if !s.latest.Current(ticket.Generation()) {
			return
		}
		if err != nil {
			fmt.Fprintf(s.out, "%s: %s\n", query, err)
			return
		}
		s.last = &result
		renderForecast(s.out, result)
	}()
}

func (s *session) printSuggestions(prefix string) {
	suggestions := s.suggester.Suggest(prefix)
	if len(suggestions) == 0 {
		s.printf("No suggestions for %q (enter at least 4 letters)\n", prefix)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sg := range suggestions {
		fmt.Fprintf(s.out, "  %s, %s  %s\n", sg.City, sg.State, sg.Zip)
	}
}

func (s *session) printDay(date string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil {
		fmt.Fprintln(s.out, "No forecast loaded yet")
		return
	}
	if date == "" {
		fmt.Fprintln(s.out, "Usage: :day YYYY-MM-DD")
		return
	}
	details := domain.HourlyDetails(s.last.Hourly, date)
	if len(details) == 0 {
		fmt.Fprintf(s.out, "No hourly forecast for %s\n", date)
		return
	}
	renderHours(s.out, date, details)
}

func (s *session) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func renderForecast(w io.Writer, r domain.ForecastResult) {
	fmt.Fprintf(w, "\n%s\n", r.Location)
	fmt.Fprintf(w, "Now: %s\n", describeCurrent(r.Current))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tHIGH\tLOW\tFORECAST")
	for _, d := range r.Daily {
		fmt.Fprintf(tw, "%s\t%.0f°F\t%.0f°F\t%s\n", d.Date, d.High, d.Low, d.Description)
	}
	_ = tw.Flush()
}

func describeCurrent(c domain.CurrentConditions) string {
	if !c.Observed() && c.WindSpeed == nil && c.ObservationTime == nil {
		return c.TextDescription
	}
	return fmt.Sprintf("%s, %s, wind %s mph %s, humidity %s%%, pressure %s inHg, dew point %s (observed %s)",
		c.TextDescription,
		degrees(c.Temperature),
		text(c.WindSpeed),
		text(c.WindDirection),
		text(c.Humidity),
		text(c.BarometricPressure),
		degrees(c.DewPoint),
		text(c.ObservationTime),
	)
}

func renderHours(w io.Writer, date string, details []domain.HourlyDetail) {
	fmt.Fprintf(w, "\nHourly forecast for %s\n", date)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tTEMP\tFORECAST\tWIND\tPRECIP\tHUMIDITY\tDEW POINT")
	for _, h := range details {
		fmt.Fprintf(tw, "%s\t%.0f°F\t%s\t%s\t%s\t%s\t%s\n",
			hourLabel(h.StartTime), h.Temperature, h.ShortForecast, h.Wind,
			percent(h.PrecipitationChance), percent(h.Humidity), degrees(h.DewPoint))
	}
	_ = tw.Flush()
}

// hourLabel shows the period's local clock hour, or the raw start time if unparsable.
func hourLabel(start string) string {
	t, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return start
	}
	return t.Format("03 PM")
}

func degrees(v *float64) string {
	if v == nil {
		return placeholder
	}
	return fmt.Sprintf("%.0f°F", *v)
}

func percent(v *float64) string {
	if v == nil {
		return placeholder
	}
	return fmt.Sprintf("%.0f%%", *v)
}

func text(v *string) string {
	if v == nil {
		return placeholder
	}
	return *v
}

func loadState(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func saveState(path, query string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(query+"\n"), 0o600)
}

const helpText = `Enter a ZIP code or "City, ST" to load a forecast.
  ?<prefix>          city suggestions (at least 4 letters)
  :day YYYY-MM-DD    hourly breakdown for a day of the last forecast
  :quit              exit
`
