package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sackofdump/pcompass/internal/auth/http/dto"
	authUseCase "github.com/sackofdump/pcompass/internal/auth/usecase"
	"github.com/sackofdump/pcompass/internal/httputil"
	userDomain "github.com/sackofdump/pcompass/internal/user/domain"
	userUseCase "github.com/sackofdump/pcompass/internal/user/usecase"

	apperrors "github.com/sackofdump/pcompass/internal/errors"
)

// AccountManager is the slice of the user use case the session handler needs.
type AccountManager interface {
	SignUp(ctx context.Context, input userUseCase.SignUpInput) (*userDomain.User, error)
	RevokeSessions(ctx context.Context, userID uuid.UUID) error
	DeleteAccount(ctx context.Context, userID uuid.UUID, email string) error
}

// SessionHandler handles sign-in, sign-up, sign-out, identity and account
// deletion requests.
type SessionHandler struct {
	sessionUseCase authUseCase.SessionUseCase
	userUseCase    AccountManager
	cookieMaxAge   time.Duration
	cookieSecure   bool
	logger         *slog.Logger
}

// NewSessionHandler creates a new SessionHandler. cookieMaxAge should match
// the token freshness window so cookies and signatures expire together.
func NewSessionHandler(
	sessionUseCase authUseCase.SessionUseCase,
	userUC AccountManager,
	cookieMaxAge time.Duration,
	cookieSecure bool,
	logger *slog.Logger,
) *SessionHandler {
	return &SessionHandler{
		sessionUseCase: sessionUseCase,
		userUseCase:    userUC,
		cookieMaxAge:   cookieMaxAge,
		cookieSecure:   cookieSecure,
		logger:         logger,
	}
}

// SignIn handles POST /api/v1/auth/sign-in.
func (h *SessionHandler) SignIn(c *gin.Context) {
	var req dto.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrInvalidInput, err.Error()), h.logger)
		return
	}

	output, err := h.sessionUseCase.SignIn(c.Request.Context(), dto.ToSignInInput(req))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.setCookie(c, AuthCookieName, output.AuthCookie)
	if output.ProCookie != "" {
		h.setCookie(c, ProCookieName, output.ProCookie)
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(output.User))
}

// SignUp handles POST /api/v1/auth/sign-up.
func (h *SessionHandler) SignUp(c *gin.Context) {
	var req dto.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrInvalidInput, err.Error()), h.logger)
		return
	}

	user, err := h.userUseCase.SignUp(c.Request.Context(), dto.ToSignUpInput(req))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserResponse(user))
}

// SignOut handles POST /api/v1/auth/sign-out. Requires authentication.
// Bumps the session version so every outstanding current-format token dies,
// then clears both cookies. Identities from legacy tokens carry no user ID,
// so for them only the cookies are cleared and the tokens age out on their
// own within the freshness window.
func (h *SessionHandler) SignOut(c *gin.Context) {
	identity, ok := GetIdentity(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	if identity.UserID != "" {
		userID, err := uuid.Parse(identity.UserID)
		if err == nil {
			if err := h.userUseCase.RevokeSessions(c.Request.Context(), userID); err != nil {
				httputil.HandleErrorGin(c, err, h.logger)
				return
			}
		}
	}

	h.clearCookie(c, AuthCookieName)
	h.clearCookie(c, ProCookieName)

	c.Status(http.StatusNoContent)
}

// Me handles GET /api/v1/me. Requires authentication.
func (h *SessionHandler) Me(c *gin.Context) {
	identity, ok := GetIdentity(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToMeResponse(identity))
}

// DeleteAccount handles DELETE /api/v1/account. Requires authentication with
// a current-format token; a legacy identity carries no user ID to delete by.
func (h *SessionHandler) DeleteAccount(c *gin.Context) {
	identity, ok := GetIdentity(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	if identity.UserID == "" {
		httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrForbidden, "account deletion requires a current session"), h.logger)
		return
	}

	userID, err := uuid.Parse(identity.UserID)
	if err != nil {
		httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrForbidden, "account deletion requires a current session"), h.logger)
		return
	}

	if err := h.userUseCase.DeleteAccount(c.Request.Context(), userID, identity.Email); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.clearCookie(c, AuthCookieName)
	h.clearCookie(c, ProCookieName)

	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) setCookie(c *gin.Context, name, value string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, int(h.cookieMaxAge.Seconds()), "/", "", h.cookieSecure, true)
}

func (h *SessionHandler) clearCookie(c *gin.Context, name string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", "", h.cookieSecure, true)
}
