// Package http provides HTTP middleware and handlers for authentication.
package http

import (
	"context"

	authUseCase "github.com/sackofdump/pcompass/internal/auth/usecase"
)

// identityKey is a context key type for storing the authenticated identity.
type identityKey struct{}

// WithIdentity stores an authenticated identity in the context.
// Called by the authentication middleware after the guard admits the request.
func WithIdentity(ctx context.Context, identity *authUseCase.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// GetIdentity retrieves the authenticated identity from the context.
// Returns (identity, true) when set, or (nil, false) on unauthenticated paths.
func GetIdentity(ctx context.Context) (*authUseCase.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(*authUseCase.Identity)
	return identity, ok
}
