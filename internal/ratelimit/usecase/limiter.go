package usecase

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sackofdump/pcompass/internal/database"
	"github.com/sackofdump/pcompass/internal/ratelimit/domain"
)

// LimiterConfig tunes the sliding-window limiter.
type LimiterConfig struct {
	// Limit is the maximum number of requests allowed inside one window,
	// counting the request being decided.
	Limit int
	// Window is the sliding-window length.
	Window time.Duration
	// Retention bounds how long pruned-out events stay in storage.
	Retention time.Duration
	// PruneProbability is the chance that a single decision schedules a
	// background prune of events older than Retention.
	PruneProbability float64
	// QueryTimeout bounds each storage round trip.
	QueryTimeout time.Duration
}

// Limiter decides requests against a shared SQL-backed sliding window. Every
// decision writes its own event, so all instances that share the database
// share one budget per client key and endpoint.
type Limiter struct {
	repo   EventRepository
	clock  Clock
	config LimiterConfig
	logger *slog.Logger

	// roll is swappable so tests can force or suppress pruning.
	roll func() float64
	wg   sync.WaitGroup
}

// NewLimiter creates a new Limiter.
func NewLimiter(repo EventRepository, clock Clock, config LimiterConfig, logger *slog.Logger) *Limiter {
	return &Limiter{
		repo:   repo,
		clock:  clock,
		config: config,
		logger: logger,
		roll:   rand.Float64,
	}
}

// Allow records the request under the client key and endpoint and reports
// whether it fits the window budget. Storage failures deny the request, so a
// broken database can never be a way around the limit. A small fraction of
// calls also schedules an asynchronous prune of expired events; prune
// failures only log, they never affect the decision.
func (l *Limiter) Allow(ctx context.Context, clientKey, endpoint string) (bool, error) {
	now := l.clock.Now()
	windowStart := now.Add(-l.config.Window)

	queryCtx, cancel := database.WithTimeout(ctx, l.config.QueryTimeout)
	defer cancel()

	event := domain.Event{ClientKey: clientKey, Endpoint: endpoint, InsertedAt: now}

	count, err := l.repo.RecordAndCount(queryCtx, event, windowStart)
	if err != nil {
		l.logger.ErrorContext(ctx, "rate limit check failed",
			slog.String("endpoint", endpoint),
			slog.Any("error", err),
		)
		return false, err
	}

	if l.roll() < l.config.PruneProbability {
		l.pruneAsync(now)
	}

	return count <= l.config.Limit, nil
}

// pruneAsync removes events older than the retention cutoff in the
// background, detached from the request context so a finished request does
// not cancel it.
func (l *Limiter) pruneAsync(now time.Time) {
	cutoff := now.Add(-l.config.Retention)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), l.config.QueryTimeout)
		defer cancel()

		rows, err := l.repo.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			l.logger.WarnContext(ctx, "rate limit prune failed", slog.Any("error", err))
			return
		}
		if rows > 0 {
			l.logger.DebugContext(ctx, "rate limit events pruned", slog.Int64("rows", rows))
		}
	}()
}

// Wait blocks until every scheduled prune has finished. Used on shutdown and
// in tests.
func (l *Limiter) Wait() {
	l.wg.Wait()
}
