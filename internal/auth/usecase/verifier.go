package usecase

import (
	"context"
	"strconv"
	"time"

	"github.com/sackofdump/pcompass/internal/auth/domain"
	authService "github.com/sackofdump/pcompass/internal/auth/service"
	"github.com/sackofdump/pcompass/internal/database"
)

// tokenVerifier implements TokenVerifier.
//
// Verification is a pure function of the token, the clock and at most one
// point-in-time datastore read (the session version). Every failure path
// returns plain false; callers surface a uniform "authentication required"
// regardless of which check failed.
type tokenVerifier struct {
	signer       authService.Signer
	authSecret   string
	proSecret    string
	clock        Clock
	sessionRepo  SessionVersionRepository
	maxAge       time.Duration
	clockSkew    time.Duration
	queryTimeout time.Duration
}

// NewTokenVerifier creates a TokenVerifier with explicit dependencies.
// Secrets are resolved once at startup; an empty secret makes every
// verification depending on it fail.
func NewTokenVerifier(
	signer authService.Signer,
	authSecret string,
	proSecret string,
	clock Clock,
	sessionRepo SessionVersionRepository,
	maxAge time.Duration,
	clockSkew time.Duration,
	queryTimeout time.Duration,
) TokenVerifier {
	return &tokenVerifier{
		signer:       signer,
		authSecret:   authSecret,
		proSecret:    proSecret,
		clock:        clock,
		sessionRepo:  sessionRepo,
		maxAge:       maxAge,
		clockSkew:    clockSkew,
		queryTimeout: queryTimeout,
	}
}

// VerifyAuth reports whether the auth token is valid right now.
//
// Current-format tokens additionally require the embedded session version to
// equal the live counter. A failed or timed-out lookup rejects the token: the
// revocation check is a precondition for trust, not an optimization.
func (v *tokenVerifier) VerifyAuth(ctx context.Context, token domain.AuthToken) bool {
	if token.Email == "" || token.Signature == "" {
		return false
	}

	issuedAt, ok := token.IssuedAtUnix()
	if !ok {
		return false
	}

	if !v.fresh(issuedAt) {
		return false
	}

	if !v.signer.Verify(token.Signature, v.authSecret, token.CanonicalString()) {
		return false
	}

	if token.Format != domain.FormatCurrent {
		// Legacy tokens carry no revocation hook; they rely on the short
		// expiry alone.
		return true
	}

	tokenVersion, err := strconv.Atoi(token.SessionVersion)
	if err != nil {
		return false
	}

	lookupCtx, cancel := database.WithTimeout(ctx, v.queryTimeout)
	defer cancel()

	liveVersion, err := v.sessionRepo.GetSessionVersion(lookupCtx, token.UserID)
	if err != nil {
		return false
	}

	return liveVersion == tokenVersion
}

// VerifyPro reports whether the pro token signature and freshness are valid.
// No datastore check here: license freshness is the guard's concern.
func (v *tokenVerifier) VerifyPro(ctx context.Context, token domain.ProToken) bool {
	if token.Email == "" || token.Signature == "" {
		return false
	}

	issuedAt, ok := token.IssuedAtUnix()
	if !ok {
		return false
	}

	if !v.fresh(issuedAt) {
		return false
	}

	return v.signer.Verify(token.Signature, v.proSecret, token.CanonicalString())
}

// fresh reports whether issuedAt (unix seconds) is inside the validity window:
// at most maxAge in the past and at most clockSkew in the future.
func (v *tokenVerifier) fresh(issuedAt int64) bool {
	now := v.clock.Now().Unix()

	if now-issuedAt > int64(v.maxAge.Seconds()) {
		return false
	}
	if issuedAt-now > int64(v.clockSkew.Seconds()) {
		return false
	}
	return true
}
