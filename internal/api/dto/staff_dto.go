package dto

import (
	"time"

	"github.com/spec-kit/itdesk/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Email     string        `json:"email"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Branch    domain.Branch `json:"branch"`
}

// VerifyOTPRequest payload. Purpose defaults to REGISTRATION.
type VerifyOTPRequest struct {
	Email   string                 `json:"email"`
	Code    string                 `json:"code"`
	Purpose domain.PasscodePurpose `json:"purpose"`
}

// LoginRequest payload for requesting a login passcode.
type LoginRequest struct {
	Email string `json:"email"`
}

// LoginVerifyRequest payload.
type LoginVerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ResendOTPRequest payload.
type ResendOTPRequest struct {
	Email   string                 `json:"email"`
	Purpose domain.PasscodePurpose `json:"purpose"`
}

// RefreshRequest payload for refresh and logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ProfileUpdateRequest payload for self-service updates.
type ProfileUpdateRequest struct {
	FirstName *string        `json:"first_name"`
	LastName  *string        `json:"last_name"`
	Branch    *domain.Branch `json:"branch"`
	Email     *string        `json:"email"`
}

// AccountAdminUpdateRequest payload for admin updates.
type AccountAdminUpdateRequest struct {
	Role   *domain.StaffRole `json:"role"`
	Active *bool             `json:"active"`
}

// StaffResponse represents an account.
type StaffResponse struct {
	ID        string           `json:"id"`
	FirstName string           `json:"first_name"`
	LastName  string           `json:"last_name"`
	Email     string           `json:"email"`
	Role      domain.StaffRole `json:"role"`
	Branch    domain.Branch    `json:"branch"`
	Verified  bool             `json:"verified"`
	Active    bool             `json:"active"`
	CreatedAt time.Time        `json:"created_at"`
}

// AuthResponse carries the session credential pair.
type AuthResponse struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}
