package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	v "github.com/jellydator/validation"

	"github.com/sackofdump/pcompass/internal/auth/domain"
	rldomain "github.com/sackofdump/pcompass/internal/ratelimit/domain"
	userdomain "github.com/sackofdump/pcompass/internal/user/domain"
	"github.com/sackofdump/pcompass/internal/validation"

	apperrors "github.com/sackofdump/pcompass/internal/errors"
)

// SignUpInput carries the fields required to register a new account.
type SignUpInput struct {
	Email    string
	Password string
}

// Validate checks the sign-up input against the shared field rules.
func (i SignUpInput) Validate() error {
	return v.ValidateStruct(&i,
		v.Field(&i.Email, validation.EmailRules()...),
		v.Field(&i.Password, validation.PasswordRules()...),
	)
}

// UserUseCase implements account registration, session revocation and
// account deletion.
type UserUseCase struct {
	userRepo      UserRepository
	licensePurger LicensePurger
	limitPurger   RateLimitPurger
	hasher        PasswordHasher
	txManager     TxManager
	logger        *slog.Logger
}

// NewUserUseCase creates a new UserUseCase.
func NewUserUseCase(
	userRepo UserRepository,
	licensePurger LicensePurger,
	limitPurger RateLimitPurger,
	hasher PasswordHasher,
	txManager TxManager,
	logger *slog.Logger,
) *UserUseCase {
	return &UserUseCase{
		userRepo:      userRepo,
		licensePurger: licensePurger,
		limitPurger:   limitPurger,
		hasher:        hasher,
		txManager:     txManager,
		logger:        logger,
	}
}

// SignUp registers a new account. The email is normalized before storage so
// that token email comparisons and license lookups operate on one canonical
// form.
func (u *UserUseCase) SignUp(ctx context.Context, input SignUpInput) (*userdomain.User, error) {
	input.Email = domain.NormalizeEmail(input.Email)

	if err := input.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
	}

	hash, err := u.hasher.HashPassword(input.Password)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to hash password")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to generate user id")
	}

	now := time.Now()
	user := &userdomain.User{
		ID:             id,
		Email:          input.Email,
		PasswordHash:   hash,
		SessionVersion: userdomain.DefaultSessionVersion,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := u.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	u.logger.InfoContext(ctx, "user signed up", slog.String("user_id", user.ID.String()))

	return user, nil
}

// RevokeSessions bumps the user's session version, invalidating every
// previously issued current-format auth token. Legacy tokens do not carry a
// session version and are unaffected until they expire.
func (u *UserUseCase) RevokeSessions(ctx context.Context, userID uuid.UUID) error {
	if err := u.userRepo.BumpSessionVersion(ctx, userID); err != nil {
		return err
	}

	u.logger.InfoContext(ctx, "sessions revoked", slog.String("user_id", userID.String()))

	return nil
}

// DeleteAccount removes the user together with its license records and
// rate-limit history in one transaction.
func (u *UserUseCase) DeleteAccount(ctx context.Context, userID uuid.UUID, email string) error {
	email = domain.NormalizeEmail(email)

	err := u.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := u.licensePurger.DeleteByEmail(ctx, email); err != nil {
			return err
		}
		if err := u.limitPurger.DeleteByClientKey(ctx, rldomain.EmailKey(email)); err != nil {
			return err
		}
		return u.userRepo.Delete(ctx, userID)
	})
	if err != nil {
		return err
	}

	u.logger.InfoContext(ctx, "account deleted", slog.String("user_id", userID.String()))

	return nil
}
