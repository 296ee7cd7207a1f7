// Package http provides the Gin middleware applying the shared sliding-window limiter.
package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	authHTTP "github.com/sackofdump/pcompass/internal/auth/http"
	"github.com/sackofdump/pcompass/internal/httputil"
	"github.com/sackofdump/pcompass/internal/metrics"
	"github.com/sackofdump/pcompass/internal/ratelimit/domain"
	"github.com/sackofdump/pcompass/internal/ratelimit/usecase"

	apperrors "github.com/sackofdump/pcompass/internal/errors"
)

// RateLimitMiddleware applies the SQL-backed sliding window to the route
// group it is mounted on. The budget is shared across every process that
// shares the database.
//
// Requests from an authenticated identity are keyed by email; anonymous
// requests fall back to the client IP. A storage failure denies the request
// the same way an exhausted budget does.
func RateLimitMiddleware(
	limiter *usecase.Limiter,
	authMetrics metrics.AuthMetrics,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientKey := clientKeyFor(c)
		endpoint := c.FullPath()

		allowed, err := limiter.Allow(c.Request.Context(), clientKey, endpoint)
		if err != nil {
			if authMetrics != nil {
				authMetrics.RecordRateLimitDecision(c.Request.Context(), endpoint, "error")
			}
			httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrRateLimited, "rate limit check failed"), nil)
			c.Abort()
			return
		}

		if !allowed {
			logger.DebugContext(c.Request.Context(), "rate limit exceeded",
				slog.String("endpoint", endpoint))
			if authMetrics != nil {
				authMetrics.RecordRateLimitDecision(c.Request.Context(), endpoint, "denied")
			}
			httputil.HandleErrorGin(c, apperrors.ErrRateLimited, nil)
			c.Abort()
			return
		}

		if authMetrics != nil {
			authMetrics.RecordRateLimitDecision(c.Request.Context(), endpoint, "allowed")
		}

		c.Next()
	}
}

// clientKeyFor prefers the authenticated email over the source address, so a
// user's budget follows them across networks and an anonymous NAT shares one
// bucket.
func clientKeyFor(c *gin.Context) string {
	if identity, ok := authHTTP.GetIdentity(c.Request.Context()); ok && identity.Email != "" {
		return domain.EmailKey(identity.Email)
	}
	return domain.IPKey(c.ClientIP())
}
