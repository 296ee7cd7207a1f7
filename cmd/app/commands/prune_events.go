package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sackofdump/pcompass/internal/app"
	"github.com/sackofdump/pcompass/internal/config"
)

// RunPruneRateLimitEvents removes rate-limit events older than the given
// number of hours. The request path already prunes probabilistically; this
// command exists for one-off cleanups and scheduled jobs.
func RunPruneRateLimitEvents(ctx context.Context, hours int) error {
	if hours <= 0 {
		return fmt.Errorf("hours must be positive, got %d", hours)
	}

	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	repo, err := container.RateLimitRepository()
	if err != nil {
		return fmt.Errorf("failed to initialize rate limit repository: %w", err)
	}

	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)
	rows, err := repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune rate limit events: %w", err)
	}

	logger.Info("rate limit events pruned",
		slog.Int64("rows", rows),
		slog.Time("cutoff", cutoff),
	)
	return nil
}
