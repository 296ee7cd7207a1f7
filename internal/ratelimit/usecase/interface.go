// Package usecase contains the sliding-window rate limiting logic.
package usecase

import (
	"context"
	"time"

	"github.com/sackofdump/pcompass/internal/ratelimit/domain"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// NewSystemClock returns a Clock backed by time.Now.
func NewSystemClock() Clock { return systemClock{} }

// EventRepository defines persistence operations for rate-limit events.
type EventRepository interface {
	RecordAndCount(ctx context.Context, event domain.Event, windowStart time.Time) (int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
