package dto

import (
	authUseCase "github.com/sackofdump/pcompass/internal/auth/usecase"
	userDomain "github.com/sackofdump/pcompass/internal/user/domain"
	userUseCase "github.com/sackofdump/pcompass/internal/user/usecase"
)

// ToSignInInput converts a SignInRequest to the use case input.
func ToSignInInput(req SignInRequest) authUseCase.SignInInput {
	return authUseCase.SignInInput{
		Email:    req.Email,
		Password: req.Password,
	}
}

// ToSignUpInput converts a SignUpRequest to the use case input.
func ToSignUpInput(req SignUpRequest) userUseCase.SignUpInput {
	return userUseCase.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
	}
}

// ToUserResponse converts a domain user to its API representation.
func ToUserResponse(user *userDomain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

// ToMeResponse converts an authorization identity to its API representation.
func ToMeResponse(identity *authUseCase.Identity) MeResponse {
	return MeResponse{
		UserID: identity.UserID,
		Email:  identity.Email,
		Pro:    identity.Pro,
	}
}
