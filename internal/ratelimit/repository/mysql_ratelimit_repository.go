package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sackofdump/pcompass/internal/database"
	"github.com/sackofdump/pcompass/internal/ratelimit/domain"

	apperrors "github.com/sackofdump/pcompass/internal/errors"
)

// MySQLRateLimitRepository handles rate-limit event persistence for MySQL.
type MySQLRateLimitRepository struct {
	db        *sql.DB
	txManager database.TxManager
}

// NewMySQLRateLimitRepository creates a new MySQLRateLimitRepository.
func NewMySQLRateLimitRepository(db *sql.DB, txManager database.TxManager) *MySQLRateLimitRepository {
	return &MySQLRateLimitRepository{db: db, txManager: txManager}
}

// RecordAndCount inserts the event and returns the number of events inside
// the window, including the one just inserted.
//
// The count is a locking read and runs before the insert: the FOR UPDATE
// range scan reads the latest committed rows and its next-key locks make
// concurrent transactions on the same (client key, endpoint) range wait for
// each other. Counting first keeps the lock acquisition order identical
// across callers, so two transactions never hold half the range each.
func (r *MySQLRateLimitRepository) RecordAndCount(ctx context.Context, event domain.Event, windowStart time.Time) (int, error) {
	var count int

	err := r.txManager.WithTx(ctx, func(ctx context.Context) error {
		querier := database.GetTx(ctx, r.db)

		query := `SELECT COUNT(*) FROM rate_limit_events
				  WHERE client_key = ? AND endpoint = ? AND inserted_at >= ?
				  FOR UPDATE`
		var prior int
		if err := querier.QueryRowContext(ctx, query, event.ClientKey, event.Endpoint, windowStart).Scan(&prior); err != nil {
			return apperrors.Wrap(err, "failed to count rate limit events")
		}

		insert := `INSERT INTO rate_limit_events (client_key, endpoint, inserted_at) VALUES (?, ?, ?)`
		if _, err := querier.ExecContext(ctx, insert, event.ClientKey, event.Endpoint, event.InsertedAt); err != nil {
			return apperrors.Wrap(err, "failed to record rate limit event")
		}

		count = prior + 1

		return nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

// DeleteOlderThan removes events inserted before the cutoff and returns the
// number of rows removed.
func (r *MySQLRateLimitRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM rate_limit_events WHERE inserted_at < ?`, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to prune rate limit events")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to check prune result")
	}

	return rows, nil
}

// DeleteByClientKey removes every event recorded under the client key.
func (r *MySQLRateLimitRepository) DeleteByClientKey(ctx context.Context, clientKey string) error {
	querier := database.GetTx(ctx, r.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM rate_limit_events WHERE client_key = ?`, clientKey); err != nil {
		return apperrors.Wrap(err, "failed to delete rate limit events")
	}

	return nil
}
