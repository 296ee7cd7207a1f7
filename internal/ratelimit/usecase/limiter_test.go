package usecase

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sackofdump/pcompass/internal/ratelimit/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct {
	now time.Time
}

func (c fakeClock) Now() time.Time { return c.now }

type mockEventRepository struct {
	mock.Mock
}

func (m *mockEventRepository) RecordAndCount(ctx context.Context, event domain.Event, windowStart time.Time) (int, error) {
	args := m.Called(ctx, event, windowStart)
	return args.Int(0), args.Error(1)
}

func testEvent(clientKey string, now time.Time) domain.Event {
	return domain.Event{ClientKey: clientKey, Endpoint: "/api/v1/verify", InsertedAt: now}
}

func (m *mockEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func testConfig() LimiterConfig {
	return LimiterConfig{
		Limit:            5,
		Window:           time.Minute,
		Retention:        48 * time.Hour,
		PruneProbability: 0.02,
		QueryTimeout:     time.Second,
	}
}

func newTestLimiter(repo EventRepository, clock Clock) *Limiter {
	l := NewLimiter(repo, clock, testConfig(), slog.New(slog.DiscardHandler))
	l.roll = func() float64 { return 1 } // never prune unless a test opts in
	return l
}

func TestLimiter_Allow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := fakeClock{now: now}
	windowStart := now.Add(-time.Minute)

	t.Run("Success_UnderLimit", func(t *testing.T) {
		repo := &mockEventRepository{}
		repo.On("RecordAndCount", mock.Anything, testEvent("email:user@example.com", now), windowStart).
			Return(3, nil)

		limiter := newTestLimiter(repo, clock)

		allowed, err := limiter.Allow(context.Background(), "email:user@example.com", "/api/v1/verify")
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("Success_AtLimit", func(t *testing.T) {
		repo := &mockEventRepository{}
		repo.On("RecordAndCount", mock.Anything, testEvent("email:user@example.com", now), windowStart).
			Return(5, nil)

		limiter := newTestLimiter(repo, clock)

		allowed, err := limiter.Allow(context.Background(), "email:user@example.com", "/api/v1/verify")
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("Success_OverLimit", func(t *testing.T) {
		repo := &mockEventRepository{}
		repo.On("RecordAndCount", mock.Anything, testEvent("email:user@example.com", now), windowStart).
			Return(6, nil)

		limiter := newTestLimiter(repo, clock)

		allowed, err := limiter.Allow(context.Background(), "email:user@example.com", "/api/v1/verify")
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("Error_StorageDenies", func(t *testing.T) {
		repo := &mockEventRepository{}
		repo.On("RecordAndCount", mock.Anything, testEvent("ip:203.0.113.9", now), windowStart).
			Return(0, errors.New("connection refused"))

		limiter := newTestLimiter(repo, clock)

		allowed, err := limiter.Allow(context.Background(), "ip:203.0.113.9", "/api/v1/verify")
		assert.Error(t, err)
		assert.False(t, allowed)
	})
}

func TestLimiter_Prune(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := fakeClock{now: now}
	windowStart := now.Add(-time.Minute)
	cutoff := now.Add(-48 * time.Hour)

	t.Run("Success_PruneScheduled", func(t *testing.T) {
		repo := &mockEventRepository{}
		repo.On("RecordAndCount", mock.Anything, testEvent("email:user@example.com", now), windowStart).
			Return(1, nil)
		repo.On("DeleteOlderThan", mock.Anything, cutoff).Return(int64(42), nil)

		limiter := newTestLimiter(repo, clock)
		limiter.roll = func() float64 { return 0 } // always prune

		allowed, err := limiter.Allow(context.Background(), "email:user@example.com", "/api/v1/verify")
		require.NoError(t, err)
		assert.True(t, allowed)

		limiter.Wait()
		repo.AssertCalled(t, "DeleteOlderThan", mock.Anything, cutoff)
	})

	t.Run("Success_PruneFailureDoesNotAffectDecision", func(t *testing.T) {
		repo := &mockEventRepository{}
		repo.On("RecordAndCount", mock.Anything, testEvent("email:user@example.com", now), windowStart).
			Return(1, nil)
		repo.On("DeleteOlderThan", mock.Anything, cutoff).Return(int64(0), errors.New("connection refused"))

		limiter := newTestLimiter(repo, clock)
		limiter.roll = func() float64 { return 0 }

		allowed, err := limiter.Allow(context.Background(), "email:user@example.com", "/api/v1/verify")
		require.NoError(t, err)
		assert.True(t, allowed)

		limiter.Wait()
	})

	t.Run("Success_NoPruneWhenRollMisses", func(t *testing.T) {
		repo := &mockEventRepository{}
		repo.On("RecordAndCount", mock.Anything, testEvent("email:user@example.com", now), windowStart).
			Return(1, nil)

		limiter := newTestLimiter(repo, clock)

		_, err := limiter.Allow(context.Background(), "email:user@example.com", "/api/v1/verify")
		require.NoError(t, err)

		limiter.Wait()
		repo.AssertNotCalled(t, "DeleteOlderThan", mock.Anything, mock.Anything)
	})
}
