package dto

import (
	"time"

	"github.com/google/uuid"
)

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// MeResponse represents the authenticated caller's identity.
type MeResponse struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email"`
	Pro    bool   `json:"pro"`
}
