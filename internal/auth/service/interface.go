// Package service provides the cryptographic and wire-format services behind
// token authentication: HMAC signing, cookie/header codec and signing-secret
// resolution.
package service

import (
	"context"

	"github.com/sackofdump/pcompass/internal/auth/domain"
)

// Signer computes and validates symmetric message authentication codes over
// canonical token strings.
type Signer interface {
	// Sign returns the hex-encoded HMAC-SHA-256 of message under secret.
	// Returns an error if the secret is empty.
	Sign(secret, message string) (string, error)

	// Verify reports whether signature matches message under secret.
	// The comparison runs in constant time and malformed input never panics;
	// an empty secret always yields false.
	Verify(signature, secret, message string) bool
}

// TokenCodec encodes and decodes the two token families to and from their
// pipe-delimited cookie wire format, and assembles tokens from the discrete
// fallback header fields used by non-browser clients.
type TokenCodec interface {
	// DecodeAuthCookie parses a raw auth cookie value. Returns false for any
	// shape other than the 5-part current or 3-part legacy format.
	DecodeAuthCookie(raw string) (domain.AuthToken, bool)

	// DecodeProCookie parses a raw pro cookie value. Returns false for any
	// shape other than the 4-part current or 3-part legacy format.
	DecodeProCookie(raw string) (domain.ProToken, bool)

	// AuthTokenFromFields assembles an auth token from discrete header fields.
	// Both userID and sessionVersion present selects the current format;
	// otherwise the legacy format. Missing required fields return false.
	AuthTokenFromFields(userID, email, sessionVersion, issuedAt, signature string) (domain.AuthToken, bool)

	// ProTokenFromFields assembles a pro token from discrete header fields.
	ProTokenFromFields(userID, email, issuedAt, signature string) (domain.ProToken, bool)

	// EncodeAuthCookie serializes a current-format auth token for the Set-Cookie
	// path. Legacy tokens are decode-only backward compatibility.
	EncodeAuthCookie(token domain.AuthToken) string

	// EncodeProCookie serializes a current-format pro token.
	EncodeProCookie(token domain.ProToken) string
}

// SecretSource resolves the two independent token signing secrets from process
// configuration, optionally unwrapping KMS-encrypted values or deriving them
// from a master secret.
type SecretSource interface {
	// Resolve returns the auth and pro signing secrets. An unresolvable secret
	// returns domain.ErrSecretNotConfigured; callers must treat that as fatal
	// at startup.
	Resolve(ctx context.Context) (authSecret string, proSecret string, err error)
}
