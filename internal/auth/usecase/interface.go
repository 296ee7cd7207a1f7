// Package usecase implements token verification and authorization for
// protected operations.
package usecase

import (
	"context"
	"time"

	"github.com/sackofdump/pcompass/internal/auth/domain"

	licenseDomain "github.com/sackofdump/pcompass/internal/license/domain"
)

// Clock supplies the current time. Injected so that freshness-window boundary
// conditions are deterministically testable.
type Clock interface {
	Now() time.Time
}

// systemClock implements Clock with the real system time.
type systemClock struct{}

// NewSystemClock creates a Clock backed by time.Now.
func NewSystemClock() Clock {
	return &systemClock{}
}

func (c *systemClock) Now() time.Time {
	return time.Now().UTC()
}

// SessionVersionRepository is the narrow datastore dependency of the token
// verifier: the live per-user session-version counter. Availability of this
// lookup is a hard precondition for trusting a current-format auth token.
type SessionVersionRepository interface {
	// GetSessionVersion returns the live session version for the user.
	// Returns an error when the user does not exist or the datastore fails;
	// the verifier treats both identically (fail closed).
	GetSessionVersion(ctx context.Context, userID string) (int, error)
}

// LicenseRepository resolves the pro license attached to an email address.
// Consulted by the guard on every pro-gated request because a pro token can
// outlive a cancelled subscription by up to its full lifetime.
type LicenseRepository interface {
	// GetByEmail returns the license for the lower-cased email, or
	// licenseDomain.ErrLicenseNotFound when none exists.
	GetByEmail(ctx context.Context, email string) (*licenseDomain.License, error)
}

// TokenVerifier validates decoded tokens: freshness window, signature, and
// (for current-format auth tokens) the live session version.
type TokenVerifier interface {
	// VerifyAuth reports whether the auth token is valid right now.
	VerifyAuth(ctx context.Context, token domain.AuthToken) bool

	// VerifyPro reports whether the pro token signature and freshness are
	// valid. Entitlement itself is decided one layer up by the guard.
	VerifyPro(ctx context.Context, token domain.ProToken) bool
}

// Credentials carries the decoded tokens extracted from a request.
// A nil pointer means the corresponding token was absent or malformed.
type Credentials struct {
	AuthToken *domain.AuthToken
	ProToken  *domain.ProToken
}

// Identity is the authorization outcome for a request. Downstream logic gates
// pro behavior on the Pro flag only, never on the raw pro token.
type Identity struct {
	// UserID is empty for identities established from legacy-format tokens.
	UserID string
	Email  string
	Pro    bool
}

// Guard composes auth verification, pro verification, anti-escalation rules
// and the live license check for a protected operation.
type Guard interface {
	// Authorize returns the caller's identity, or ErrInvalidCredentials when
	// no valid auth token is presented. Pro evaluation failures never fail the
	// request; they only force Identity.Pro to false.
	Authorize(ctx context.Context, creds Credentials) (*Identity, error)
}
