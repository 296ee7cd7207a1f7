package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	authDomain "github.com/sackofdump/pcompass/internal/auth/domain"
	authService "github.com/sackofdump/pcompass/internal/auth/service"
	authUseCase "github.com/sackofdump/pcompass/internal/auth/usecase"
	"github.com/sackofdump/pcompass/internal/httputil"
	"github.com/sackofdump/pcompass/internal/metrics"

	apperrors "github.com/sackofdump/pcompass/internal/errors"
)

// AuthenticationMiddleware extracts the token credentials from the request,
// asks the guard to authorize them, and stores the resulting identity in the
// request context for downstream handlers.
//
// The error body is identical for every rejection reason. Failure details go
// to the debug log only, so a probing client learns nothing from the response.
func AuthenticationMiddleware(
	guard authUseCase.Guard,
	codec authService.TokenCodec,
	authMetrics metrics.AuthMetrics,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		creds := extractCredentials(c, codec)

		identity, err := guard.Authorize(c.Request.Context(), creds)
		if err != nil {
			logger.DebugContext(c.Request.Context(), "authentication failed",
				slog.String("path", c.FullPath()),
				slog.Any("error", err),
			)
			if authMetrics != nil {
				authMetrics.RecordAuthDecision(c.Request.Context(), tokenFormat(creds), "failure")
			}
			httputil.HandleErrorGin(c, err, nil)
			c.Abort()
			return
		}

		if authMetrics != nil {
			authMetrics.RecordAuthDecision(c.Request.Context(), tokenFormat(creds), "success")
			if identity.Pro {
				authMetrics.RecordProDecision(c.Request.Context(), "granted")
			} else if creds.ProToken != nil {
				authMetrics.RecordProDecision(c.Request.Context(), "denied")
			}
		}

		ctx := WithIdentity(c.Request.Context(), identity)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequirePro rejects authenticated requests whose identity lacks the pro
// entitlement. Must run after AuthenticationMiddleware.
func RequirePro(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c.Request.Context())
		if !ok {
			// Route wired without the authentication middleware.
			logger.ErrorContext(c.Request.Context(), "pro gate reached without identity in context")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, nil)
			c.Abort()
			return
		}

		if !identity.Pro {
			httputil.HandleErrorGin(c, apperrors.ErrForbidden, nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// tokenFormat labels the request's auth token format for metrics.
func tokenFormat(creds authUseCase.Credentials) string {
	if creds.AuthToken == nil {
		return "none"
	}
	if creds.AuthToken.Format == authDomain.FormatLegacy {
		return "legacy"
	}
	return "current"
}
