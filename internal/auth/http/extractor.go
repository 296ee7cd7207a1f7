package http

import (
	"github.com/gin-gonic/gin"

	authService "github.com/sackofdump/pcompass/internal/auth/service"
	authUseCase "github.com/sackofdump/pcompass/internal/auth/usecase"
)

// Cookie names carrying the pipe-delimited token values. The cookie jar is the
// preferred transport; the X-Auth-*/X-Pro-* headers exist for non-browser
// clients and carry exactly the same fields.
const (
	AuthCookieName = "auth_token"
	ProCookieName  = "pro_token"
)

// Fallback header names, one per token field.
const (
	HeaderAuthUserID         = "X-Auth-User-Id"
	HeaderAuthEmail          = "X-Auth-Email"
	HeaderAuthSessionVersion = "X-Auth-Session-Version"
	HeaderAuthIssuedAt       = "X-Auth-Issued-At"
	HeaderAuthSignature      = "X-Auth-Signature"

	HeaderProUserID    = "X-Pro-User-Id"
	HeaderProEmail     = "X-Pro-Email"
	HeaderProIssuedAt  = "X-Pro-Issued-At"
	HeaderProSignature = "X-Pro-Signature"
)

// extractCredentials reads both token families from the request, cookie first
// with header fallback per family. Gin's cookie accessor URL-decodes the
// value, so the codec sees the raw pipe-delimited form. Absent or malformed
// tokens come back as nil pointers; the guard decides what that means.
func extractCredentials(c *gin.Context, codec authService.TokenCodec) authUseCase.Credentials {
	var creds authUseCase.Credentials

	if raw, err := c.Cookie(AuthCookieName); err == nil && raw != "" {
		if token, ok := codec.DecodeAuthCookie(raw); ok {
			creds.AuthToken = &token
		}
	} else if token, ok := codec.AuthTokenFromFields(
		c.GetHeader(HeaderAuthUserID),
		c.GetHeader(HeaderAuthEmail),
		c.GetHeader(HeaderAuthSessionVersion),
		c.GetHeader(HeaderAuthIssuedAt),
		c.GetHeader(HeaderAuthSignature),
	); ok {
		creds.AuthToken = &token
	}

	if raw, err := c.Cookie(ProCookieName); err == nil && raw != "" {
		if token, ok := codec.DecodeProCookie(raw); ok {
			creds.ProToken = &token
		}
	} else if token, ok := codec.ProTokenFromFields(
		c.GetHeader(HeaderProUserID),
		c.GetHeader(HeaderProEmail),
		c.GetHeader(HeaderProIssuedAt),
		c.GetHeader(HeaderProSignature),
	); ok {
		creds.ProToken = &token
	}

	return creds
}
