package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sackofdump/pcompass/internal/license/domain"
	"github.com/sackofdump/pcompass/internal/testutil"
)

func TestPostgreSQLLicenseRepository_GetByEmail(t *testing.T) {
	columns := []string{"id", "email", "is_active", "created_at", "updated_at"}

	t.Run("Success_Active", func(t *testing.T) {
		db, mock := testutil.NewSQLMock(t)
		repo := NewPostgreSQLLicenseRepository(db)

		id := uuid.New()
		now := time.Now().UTC()
		mock.ExpectQuery("SELECT id, email, is_active").
			WithArgs("pro@example.com").
			WillReturnRows(sqlmock.NewRows(columns).AddRow(id, "pro@example.com", true, now, now))

		license, err := repo.GetByEmail(context.Background(), "pro@example.com")
		require.NoError(t, err)
		assert.Equal(t, id, license.ID)
		assert.Equal(t, "pro@example.com", license.Email)
		assert.True(t, license.IsActive)
	})

	t.Run("Success_Inactive", func(t *testing.T) {
		db, mock := testutil.NewSQLMock(t)
		repo := NewPostgreSQLLicenseRepository(db)

		now := time.Now().UTC()
		mock.ExpectQuery("SELECT id, email, is_active").
			WithArgs("expired@example.com").
			WillReturnRows(sqlmock.NewRows(columns).AddRow(uuid.New(), "expired@example.com", false, now, now))

		license, err := repo.GetByEmail(context.Background(), "expired@example.com")
		require.NoError(t, err)
		assert.False(t, license.IsActive)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := testutil.NewSQLMock(t)
		repo := NewPostgreSQLLicenseRepository(db)

		mock.ExpectQuery("SELECT id, email, is_active").
			WithArgs("nobody@example.com").
			WillReturnRows(sqlmock.NewRows(columns))

		license, err := repo.GetByEmail(context.Background(), "nobody@example.com")
		assert.ErrorIs(t, err, domain.ErrLicenseNotFound)
		assert.Nil(t, license)
	})

	t.Run("Error_Database", func(t *testing.T) {
		db, mock := testutil.NewSQLMock(t)
		repo := NewPostgreSQLLicenseRepository(db)

		mock.ExpectQuery("SELECT id, email, is_active").
			WithArgs("pro@example.com").
			WillReturnError(errors.New("connection refused"))

		license, err := repo.GetByEmail(context.Background(), "pro@example.com")
		assert.Error(t, err)
		assert.Nil(t, license)
	})
}

func TestPostgreSQLLicenseRepository_DeleteByEmail(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := testutil.NewSQLMock(t)
		repo := NewPostgreSQLLicenseRepository(db)

		mock.ExpectExec("DELETE FROM pro_licenses").
			WithArgs("pro@example.com").
			WillReturnResult(sqlmock.NewResult(0, 2))

		assert.NoError(t, repo.DeleteByEmail(context.Background(), "pro@example.com"))
	})
}
