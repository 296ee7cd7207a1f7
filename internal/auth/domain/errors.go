package domain

import (
	"github.com/sackofdump/pcompass/internal/errors"
)

// Domain-specific errors for authentication operations.
var (
	// ErrInvalidCredentials covers every authentication failure: missing token,
	// bad signature, expired or future-skewed timestamp, stale session version.
	// A single error prevents leaking which check failed.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")

	// ErrSecretNotConfigured indicates a signing secret is absent at startup.
	// This is the only condition allowed to abort the process.
	ErrSecretNotConfigured = errors.New("token signing secret is not configured")
)
