package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/couchcryptid/forecast-service/internal/domain"
	"github.com/couchcryptid/forecast-service/internal/observability"
)

// ErrSuperseded is returned for a query whose result was discarded because a
// newer query was submitted before it completed.
var ErrSuperseded = errors.New("query superseded")

// FetchFunc runs one forecast query.
type FetchFunc func(ctx context.Context, query string) (domain.ForecastResult, error)

// Latest serializes a stream of queries so that only the newest one is ever
// surfaced. Each issued Ticket takes a new generation and cancels the
// previous in-flight query.
type Latest struct {
	fetch   FetchFunc
	metrics *observability.Metrics

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// NewLatest wraps fetch with generation tracking.
func NewLatest(fetch FetchFunc, metrics *observability.Metrics) *Latest {
	return &Latest{fetch: fetch, metrics: metrics}
}

// Ticket is one issued generation. Run it exactly once.
type Ticket struct {
	latest *Latest
	ctx    context.Context
	cancel context.CancelFunc
	gen    uint64
}

// Issue takes the next generation and cancels the query running under the
// previous one. Generations follow call order.
func (l *Latest) Issue(ctx context.Context) *Ticket {
	ctx, cancel := context.WithCancel(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
	l.generation++
	l.cancel = cancel
	return &Ticket{latest: l, ctx: ctx, cancel: cancel, gen: l.generation}
}

// Generation returns the ticket's generation number.
func (t *Ticket) Generation() uint64 {
	return t.gen
}

// Run fetches query under the ticket's generation. If a newer ticket was
// issued before the fetch finished, the result is dropped and ErrSuperseded
// is returned.
func (t *Ticket) Run(query string) (domain.ForecastResult, error) {
	defer t.cancel()
	l := t.latest

	result, err := l.fetch(t.ctx, query)

	l.mu.Lock()
	current := t.gen == l.generation
	if current {
		l.cancel = nil
	}
	l.mu.Unlock()

	if !current {
		l.metrics.SupersededQueries.Inc()
		return domain.ForecastResult{}, fmt.Errorf("query %q generation %d: %w", query, t.gen, ErrSuperseded)
	}
	return result, err
}

// Submit issues a ticket and runs query under it.
func (l *Latest) Submit(ctx context.Context, query string) (domain.ForecastResult, error) {
	return l.Issue(ctx).Run(query)
}

// Current reports whether gen is still the most recently issued generation.
// Callers applying a result check this at the point of use.
func (l *Latest) Current(gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return gen == l.generation
}

// Generation returns the most recently issued generation number.
func (l *Latest) Generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.generation
}
