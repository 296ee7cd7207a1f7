package usecase

import (
	"context"
	"time"

	"github.com/sackofdump/pcompass/internal/auth/domain"
	"github.com/sackofdump/pcompass/internal/database"
)

// guard implements Guard.
type guard struct {
	verifier     TokenVerifier
	licenseRepo  LicenseRepository
	queryTimeout time.Duration
}

// NewGuard creates the authorization guard for protected operations.
func NewGuard(
	verifier TokenVerifier,
	licenseRepo LicenseRepository,
	queryTimeout time.Duration,
) Guard {
	return &guard{
		verifier:     verifier,
		licenseRepo:  licenseRepo,
		queryTimeout: queryTimeout,
	}
}

// Authorize establishes the caller's identity and pro entitlement.
//
// The auth token is mandatory: absence or failed verification rejects the
// whole request. The pro token is optional and can only ever widen access to
// pro features, never affect authentication; any doubt about it (verification
// failure, cross-identity mismatch, license lookup failure, inactive license)
// resolves to Pro=false.
func (g *guard) Authorize(ctx context.Context, creds Credentials) (*Identity, error) {
	if creds.AuthToken == nil || !g.verifier.VerifyAuth(ctx, *creds.AuthToken) {
		return nil, domain.ErrInvalidCredentials
	}

	identity := &Identity{
		UserID: creds.AuthToken.UserID,
		Email:  creds.AuthToken.Email,
	}

	if creds.ProToken == nil {
		return identity, nil
	}

	identity.Pro = g.evaluatePro(ctx, *creds.AuthToken, *creds.ProToken)
	return identity, nil
}

// evaluatePro runs pro verification plus the anti-escalation rules and the
// live license check.
func (g *guard) evaluatePro(ctx context.Context, authToken domain.AuthToken, proToken domain.ProToken) bool {
	if !g.verifier.VerifyPro(ctx, proToken) {
		return false
	}

	// Anti-escalation: a pro token bound to another identity grants nothing,
	// however valid its signature. Emails are normalized at decode; normalize
	// again here so header-sourced fields cannot bypass the rule.
	if domain.NormalizeEmail(proToken.Email) != domain.NormalizeEmail(authToken.Email) {
		return false
	}
	if proToken.UserID != "" && proToken.UserID != authToken.UserID {
		return false
	}

	// A pro token stays valid for up to its full lifetime after a subscription
	// is cancelled; the live license read closes that window.
	lookupCtx, cancel := database.WithTimeout(ctx, g.queryTimeout)
	defer cancel()

	license, err := g.licenseRepo.GetByEmail(lookupCtx, domain.NormalizeEmail(authToken.Email))
	if err != nil {
		return false
	}

	return license.IsActive
}
