// Package usecase contains the application logic for user accounts.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/sackofdump/pcompass/internal/user/domain"
)

// UserRepository defines persistence operations for user entities.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetSessionVersion(ctx context.Context, userID string) (int, error)
	BumpSessionVersion(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

// LicensePurger removes license records that belong to an account being
// deleted.
type LicensePurger interface {
	DeleteByEmail(ctx context.Context, email string) error
}

// RateLimitPurger removes rate-limit events recorded under a client key.
type RateLimitPurger interface {
	DeleteByClientKey(ctx context.Context, clientKey string) error
}

// PasswordHasher hashes plaintext passwords for storage.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

// TxManager coordinates multi-repository writes in a single transaction.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
