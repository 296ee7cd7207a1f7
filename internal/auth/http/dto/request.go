// Package dto provides data transfer objects for the auth HTTP layer.
package dto

import (
	v "github.com/jellydator/validation"

	"github.com/sackofdump/pcompass/internal/validation"
)

// SignInRequest represents the API request for signing in.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the sign-in request fields.
func (r *SignInRequest) Validate() error {
	return v.ValidateStruct(r,
		v.Field(&r.Email, validation.EmailRules()...),
		v.Field(&r.Password, v.Required),
	)
}

// SignUpRequest represents the API request for registering an account.
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the sign-up request fields.
func (r *SignUpRequest) Validate() error {
	return v.ValidateStruct(r,
		v.Field(&r.Email, validation.EmailRules()...),
		v.Field(&r.Password, validation.PasswordRules()...),
	)
}
