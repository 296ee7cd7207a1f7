package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sackofdump/pcompass/internal/database"
	"github.com/sackofdump/pcompass/internal/license/domain"

	apperrors "github.com/sackofdump/pcompass/internal/errors"
)

// MySQLLicenseRepository handles license persistence for MySQL.
type MySQLLicenseRepository struct {
	db *sql.DB
}

// NewMySQLLicenseRepository creates a new MySQLLicenseRepository.
func NewMySQLLicenseRepository(db *sql.DB) *MySQLLicenseRepository {
	return &MySQLLicenseRepository{db: db}
}

// GetByEmail returns the newest license for the normalized email. Active
// rows win over inactive ones so a re-purchase is never shadowed by an old
// cancellation. Returns domain.ErrLicenseNotFound when no row exists.
func (r *MySQLLicenseRepository) GetByEmail(ctx context.Context, email string) (*domain.License, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, email, is_active, created_at, updated_at FROM pro_licenses
			  WHERE email = ?
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
func (r *MySQLLicenseRepository) DeleteByEmail(ctx context.Context, email string) error {
	querier := database.GetTx(ctx, r.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM pro_licenses WHERE email = ?`, email); err != nil {
		return apperrors.Wrap(err, "failed to delete licenses")
	}

	return nil
}
