// Package domain defines the license entities for entitlement checks.
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrLicenseNotFound indicates no license row exists for the email.
var ErrLicenseNotFound = errors.New("license not found")

// License represents a purchased entitlement tied to an account email.
// Entitlement checks key on the normalized email rather than the user ID so
// that licenses sold before an account existed still attach to it.
type License struct {
	ID        uuid.UUID
	Email     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
