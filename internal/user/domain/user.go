// Package domain defines the core user entity and its session-version counter.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/sackofdump/pcompass/internal/errors"
)

// DefaultSessionVersion is the counter value for a user who has never signed
// out. Tokens embed this value at issuance; bumping the counter invalidates
// every outstanding current-format auth token for the user.
const DefaultSessionVersion = 1

// User represents an account in the system.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	// SessionVersion is the per-user monotonic revocation counter.
	SessionVersion int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Domain-specific errors for user operations.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrUserAlreadyExists indicates a user with the same email already exists.
	ErrUserAlreadyExists = errors.Wrap(errors.ErrConflict, "user already exists")
)
