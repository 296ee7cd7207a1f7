package usecase

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/sackofdump/pcompass/internal/auth/domain"
	authService "github.com/sackofdump/pcompass/internal/auth/service"
	"github.com/sackofdump/pcompass/internal/database"
	userDomain "github.com/sackofdump/pcompass/internal/user/domain"
)

// UserReader is the user lookup needed by the sign-in flow.
type UserReader interface {
	// GetByEmail retrieves a user by normalized email.
	// Returns userDomain.ErrUserNotFound when absent.
	GetByEmail(ctx context.Context, email string) (*userDomain.User, error)
}

// SignInInput carries the credentials presented to the sign-in endpoint.
type SignInInput struct {
	Email    string
	Password string
}

// SignInOutput carries the issued cookies and the authenticated user.
type SignInOutput struct {
	User *userDomain.User
	// AuthCookie is the encoded current-format auth cookie value.
	AuthCookie string
	// ProCookie is the encoded current-format pro cookie value, or empty when
	// the user has no active license.
	ProCookie string
}

// SessionUseCase issues tokens on successful authentication.
type SessionUseCase interface {
	// SignIn verifies email+password and issues a fresh auth cookie, plus a
	// pro cookie when an active license exists. Returns ErrInvalidCredentials
	// for unknown users and wrong passwords alike.
	SignIn(ctx context.Context, input SignInInput) (*SignInOutput, error)
}

// sessionUseCase implements SessionUseCase.
type sessionUseCase struct {
	userReader      UserReader
	licenseRepo     LicenseRepository
	passwordService authService.PasswordService
	signer          authService.Signer
	codec           authService.TokenCodec
	clock           Clock
	authSecret      string
	proSecret       string
	queryTimeout    time.Duration
}

// NewSessionUseCase creates the sign-in use case.
func NewSessionUseCase(
	userReader UserReader,
	licenseRepo LicenseRepository,
	passwordService authService.PasswordService,
	signer authService.Signer,
	codec authService.TokenCodec,
	clock Clock,
	authSecret string,
	proSecret string,
	queryTimeout time.Duration,
) SessionUseCase {
	return &sessionUseCase{
		userReader:      userReader,
		licenseRepo:     licenseRepo,
		passwordService: passwordService,
		signer:          signer,
		codec:           codec,
		clock:           clock,
		authSecret:      authSecret,
		proSecret:       proSecret,
		queryTimeout:    queryTimeout,
	}
}

// SignIn verifies the credentials and issues tokens.
//
// Tokens embed the live session version at issuance, so a token issued after a
// sign-out is valid while all earlier ones are not. The pro cookie is only a
// hint that must still pass the guard's live license check on each request;
// issuing it here merely saves pro users a round trip.
func (s *sessionUseCase) SignIn(ctx context.Context, input SignInInput) (*SignInOutput, error) {
	email := domain.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.userReader.GetByEmail(ctx, email)
	if err != nil {
		// Unknown user and wrong password are indistinguishable to the caller.
		if errors.Is(err, userDomain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.passwordService.ComparePassword(input.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	issuedAt := strconv.FormatInt(s.clock.Now().Unix(), 10)

	authToken := domain.AuthToken{
		Format:         domain.FormatCurrent,
		UserID:         user.ID.String(),
		Email:          email,
		SessionVersion: strconv.Itoa(user.SessionVersion),
		IssuedAt:       issuedAt,
	}
	authToken.Signature, err = s.signer.Sign(s.authSecret, authToken.CanonicalString())
	if err != nil {
		return nil, err
	}

	output := &SignInOutput{
		User:       user,
		AuthCookie: s.codec.EncodeAuthCookie(authToken),
	}

	lookupCtx, cancel := database.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	// A license lookup failure only suppresses the pro cookie; sign-in itself
	// still succeeds.
	license, err := s.licenseRepo.GetByEmail(lookupCtx, email)
	if err != nil || !license.IsActive {
		return output, nil
	}

	proToken := domain.ProToken{
		Format:   domain.FormatCurrent,
		UserID:   user.ID.String(),
		Email:    email,
		IssuedAt: issuedAt,
	}
	proToken.Signature, err = s.signer.Sign(s.proSecret, proToken.CanonicalString())
	if err != nil {
		return nil, err
	}
	output.ProCookie = s.codec.EncodeProCookie(proToken)

	return output, nil
}
