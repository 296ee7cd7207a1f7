// Package repository provides data persistence implementations for licenses.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sackofdump/pcompass/internal/database"
	"github.com/sackofdump/pcompass/internal/license/domain"

	apperrors "github.com/sackofdump/pcompass/internal/errors"
)

// PostgreSQLLicenseRepository handles license persistence for PostgreSQL.
type PostgreSQLLicenseRepository struct {
	db *sql.DB
}

// NewPostgreSQLLicenseRepository creates a new PostgreSQLLicenseRepository.
func NewPostgreSQLLicenseRepository(db *sql.DB) *PostgreSQLLicenseRepository {
	return &PostgreSQLLicenseRepository{db: db}
}

// GetByEmail returns the newest license for the normalized email. Active
// rows win over inactive ones so a re-purchase is never shadowed by an old
// cancellation. Returns domain.ErrLicenseNotFound when no row exists.
func (r *PostgreSQLLicenseRepository) GetByEmail(ctx context.Context, email string) (*domain.License, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, email, is_active, created_at, updated_at FROM pro_licenses
			  WHERE email = $1
			  ORDER BY is_active DESC, created_at DESC
			  LIMIT 1`

	var license domain.License
	err := querier.QueryRowContext(ctx, query, email).Scan(
		&license.ID, &license.Email, &license.IsActive, &license.CreatedAt, &license.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLicenseNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get license")
	}

	return &license, nil
}

// DeleteByEmail removes every license row attached to the email.
func (r *PostgreSQLLicenseRepository) DeleteByEmail(ctx context.Context, email string) error {
	querier := database.GetTx(ctx, r.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM pro_licenses WHERE email = $1`, email); err != nil {
		return apperrors.Wrap(err, "failed to delete licenses")
	}

	return nil
}
