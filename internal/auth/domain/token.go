// Package domain defines the bearer token types used for identity and
// entitlement assertions.
package domain

import (
	"strconv"
	"strings"
)

// TokenFormat distinguishes the two wire formats of each token family.
// The format is resolved once at decode time; downstream logic switches on it
// instead of re-inspecting field counts.
type TokenFormat int

const (
	// FormatLegacy is the original email-only format. It carries no user ID and
	// no session version, so it cannot be revoked before its own expiry.
	FormatLegacy TokenFormat = iota + 1
	// FormatCurrent binds the token to a user ID and a session version,
	// enabling instant revocation via the session-version counter.
	FormatCurrent
)

// AuthToken is a bearer credential asserting a verified user identity for a
// bounded time window. It is client-held and never persisted server-side.
type AuthToken struct {
	Format         TokenFormat
	UserID         string
	Email          string
	SessionVersion string
	IssuedAt       string
	Signature      string
}

// CanonicalString returns the exact string the auth signature covers.
func (t AuthToken) CanonicalString() string {
	if t.Format == FormatCurrent {
		return "auth:" + t.UserID + ":" + t.Email + ":" + t.SessionVersion + ":" + t.IssuedAt
	}
	return "auth:" + t.Email + ":" + t.IssuedAt
}

// IssuedAtUnix parses the issued-at field as unix seconds.
// Returns false for empty or non-integer values.
func (t AuthToken) IssuedAtUnix() (int64, bool) {
	return parseUnix(t.IssuedAt)
}

// ProToken is a bearer credential asserting paid-entitlement status. It is
// signed with a secret independent from the auth secret and is necessary but
// not sufficient for pro access: the guard still cross-checks it against the
// authenticated identity and the live license record.
type ProToken struct {
	Format    TokenFormat
	UserID    string
	Email     string
	IssuedAt  string
	Signature string
}

// CanonicalString returns the exact string the pro signature covers.
func (t ProToken) CanonicalString() string {
	if t.Format == FormatCurrent {
		return t.UserID + ":" + t.Email + ":" + t.IssuedAt
	}
	return t.Email + ":" + t.IssuedAt
}

// IssuedAtUnix parses the issued-at field as unix seconds.
// Returns false for empty or non-integer values.
func (t ProToken) IssuedAtUnix() (int64, bool) {
	return parseUnix(t.IssuedAt)
}

// NormalizeEmail lower-cases and trims an email address. Every email that
// enters a canonical string or a datastore lookup goes through this first.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func parseUnix(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
