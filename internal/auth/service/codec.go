package service

import (
	"strings"

	"github.com/sackofdump/pcompass/internal/auth/domain"
)

// tokenCodec implements TokenCodec for the pipe-delimited cookie format.
//
// Decoding is deliberately forgiving in shape handling and strict in shape
// acceptance: any value that is not exactly one of the known formats yields
// "no token" rather than an error, so callers treat missing and malformed
// input identically.
type tokenCodec struct{}

// NewTokenCodec creates a new pipe-delimited token codec.
func NewTokenCodec() TokenCodec {
	return &tokenCodec{}
}

// DecodeAuthCookie parses a raw auth cookie value.
// 5 non-empty parts: userId|email|sessionVersion|issuedAt|signature (current).
// 3 non-empty parts: email|issuedAt|signature (legacy).
func (c *tokenCodec) DecodeAuthCookie(raw string) (domain.AuthToken, bool) {
	parts, ok := splitCookie(raw)
	if !ok {
		return domain.AuthToken{}, false
	}

	switch len(parts) {
	case 5:
		return domain.AuthToken{
			Format:         domain.FormatCurrent,
			UserID:         parts[0],
			Email:          domain.NormalizeEmail(parts[1]),
			SessionVersion: parts[2],
			IssuedAt:       parts[3],
			Signature:      parts[4],
		}, true
	case 3:
		return domain.AuthToken{
			Format:    domain.FormatLegacy,
			Email:     domain.NormalizeEmail(parts[0]),
			IssuedAt:  parts[1],
			Signature: parts[2],
		}, true
	default:
		return domain.AuthToken{}, false
	}
}

// DecodeProCookie parses a raw pro cookie value.
// 4 non-empty parts: userId|email|issuedAt|signature (current).
// 3 non-empty parts: email|issuedAt|signature (legacy).
func (c *tokenCodec) DecodeProCookie(raw string) (domain.ProToken, bool) {
	parts, ok := splitCookie(raw)
	if !ok {
		return domain.ProToken{}, false
	}

	switch len(parts) {
	case 4:
		return domain.ProToken{
			Format:    domain.FormatCurrent,
			UserID:    parts[0],
			Email:     domain.NormalizeEmail(parts[1]),
			IssuedAt:  parts[2],
			Signature: parts[3],
		}, true
	case 3:
		return domain.ProToken{
			Format:    domain.FormatLegacy,
			Email:     domain.NormalizeEmail(parts[0]),
			IssuedAt:  parts[1],
			Signature: parts[2],
		}, true
	default:
		return domain.ProToken{}, false
	}
}

// AuthTokenFromFields assembles an auth token from the discrete fallback
// headers. The header path carries no cryptographic binding between fields;
// the verifier re-derives the canonical string from these parsed fields
// exactly as it would from a cookie, so a forged combination still fails the
// signature check.
func (c *tokenCodec) AuthTokenFromFields(
	userID, email, sessionVersion, issuedAt, signature string,
) (domain.AuthToken, bool) {
	email = domain.NormalizeEmail(email)
	if email == "" || issuedAt == "" || signature == "" {
		return domain.AuthToken{}, false
	}

	if userID != "" && sessionVersion != "" {
		return domain.AuthToken{
			Format:         domain.FormatCurrent,
			UserID:         userID,
			Email:          email,
			SessionVersion: sessionVersion,
			IssuedAt:       issuedAt,
			Signature:      signature,
		}, true
	}

	return domain.AuthToken{
		Format:    domain.FormatLegacy,
		Email:     email,
		IssuedAt:  issuedAt,
		Signature: signature,
	}, true
}

// ProTokenFromFields assembles a pro token from the discrete fallback headers.
func (c *tokenCodec) ProTokenFromFields(
	userID, email, issuedAt, signature string,
) (domain.ProToken, bool) {
	email = domain.NormalizeEmail(email)
	if email == "" || issuedAt == "" || signature == "" {
		return domain.ProToken{}, false
	}

	format := domain.FormatLegacy
	if userID != "" {
		format = domain.FormatCurrent
	}

	return domain.ProToken{
		Format:    format,
		UserID:    userID,
		Email:     email,
		IssuedAt:  issuedAt,
		Signature: signature,
	}, true
}

// EncodeAuthCookie serializes a current-format auth token.
func (c *tokenCodec) EncodeAuthCookie(token domain.AuthToken) string {
	return strings.Join([]string{
		token.UserID,
		token.Email,
		token.SessionVersion,
		token.IssuedAt,
		token.Signature,
	}, "|")
}

// EncodeProCookie serializes a current-format pro token.
func (c *tokenCodec) EncodeProCookie(token domain.ProToken) string {
	return strings.Join([]string{
		token.UserID,
		token.Email,
		token.IssuedAt,
		token.Signature,
	}, "|")
}

// splitCookie splits a raw cookie value on "|" and rejects values containing
// any empty part. Returns false for empty input.
func splitCookie(raw string) ([]string, bool) {
	if raw == "" {
		return nil, false
	}

	parts := strings.Split(raw, "|")
	for _, part := range parts {
		if part == "" {
			return nil, false
		}
	}
	return parts, true
}
