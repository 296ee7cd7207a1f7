// Package repository provides data persistence implementations for rate-limit events.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sackofdump/pcompass/internal/database"
	"github.com/sackofdump/pcompass/internal/ratelimit/domain"

	apperrors "github.com/sackofdump/pcompass/internal/errors"
)

// PostgreSQLRateLimitRepository handles rate-limit event persistence for PostgreSQL.
type PostgreSQLRateLimitRepository struct {
	db        *sql.DB
	txManager database.TxManager
}

// NewPostgreSQLRateLimitRepository creates a new PostgreSQLRateLimitRepository.
func NewPostgreSQLRateLimitRepository(db *sql.DB, txManager database.TxManager) *PostgreSQLRateLimitRepository {
	return &PostgreSQLRateLimitRepository{db: db, txManager: txManager}
}

// RecordAndCount inserts the event and returns the number of events inside
// the window, including the one just inserted.
//
// The transaction takes a per-key advisory lock before touching the table:
// concurrent callers on the same (client key, endpoint) pair must each see
// the others' inserts, and under READ COMMITTED an unlocked count only sees
// rows committed before its own snapshot. The lock is released at commit,
// after the insert is visible to the next holder.
func (r *PostgreSQLRateLimitRepository) RecordAndCount(ctx context.Context, event domain.Event, windowStart time.Time) (int, error) {
	var count int

	err := r.txManager.WithTx(ctx, func(ctx context.Context) error {
		querier := database.GetTx(ctx, r.db)

		lock := `SELECT pg_advisory_xact_lock(hashtext($1 || '|' || $2))`
		if _, err := querier.ExecContext(ctx, lock, event.ClientKey, event.Endpoint); err != nil {
			return apperrors.Wrap(err, "failed to lock rate limit key")
		}

		insert := `INSERT INTO rate_limit_events (client_key, endpoint, inserted_at) VALUES ($1, $2, $3)`
		if _, err := querier.ExecContext(ctx, insert, event.ClientKey, event.Endpoint, event.InsertedAt); err != nil {
			return apperrors.Wrap(err, "failed to record rate limit event")
		}

		query := `SELECT COUNT(*) FROM rate_limit_events
				  WHERE client_key = $1 AND endpoint = $2 AND inserted_at >= $3`
		if err := querier.QueryRowContext(ctx, query, event.ClientKey, event.Endpoint, windowStart).Scan(&count); err != nil {
			return apperrors.Wrap(err, "failed to count rate limit events")
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

// DeleteOlderThan removes events inserted before the cutoff and returns the
// number of rows removed.
func (r *PostgreSQLRateLimitRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM rate_limit_events WHERE inserted_at < $1`, cutoff)
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
func (r *PostgreSQLRateLimitRepository) DeleteByClientKey(ctx context.Context, clientKey string) error {
	querier := database.GetTx(ctx, r.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM rate_limit_events WHERE client_key = $1`, clientKey); err != nil {
		return apperrors.Wrap(err, "failed to delete rate limit events")
	}

	return nil
}
