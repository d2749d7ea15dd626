package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SignupRequest represents the request to register a new company or applicant account.
type SignupRequest struct {
	FullName string `json:"full_name" validate:"required,max=100,fullname"`
	Email    string `json:"email" validate:"required,max=255,email"`
	Password string `json:"password" validate:"required,strongpassword"`
	Role     Role   `json:"role" validate:"required,oneof=company applicant"`
}

// Normalize trims surrounding whitespace and lower-cases the email.
func (r *SignupRequest) Normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = NormalizeEmail(r.Email)
}

// Validate validates the SignupRequest.
func (r *SignupRequest) Validate() error {
	return Validator().Struct(r)
}

// LoginRequest represents the login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Normalize lower-cases the email.
func (r *LoginRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

// Validate validates the LoginRequest.
func (r *LoginRequest) Validate() error {
	return Validator().Struct(r)
}

// RefreshRequest exchanges a refresh token for a new token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Validate validates the RefreshRequest.
func (r *RefreshRequest) Validate() error {
	return Validator().Struct(r)
}

// ResendVerificationRequest asks for a fresh email verification token.
type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Normalize lower-cases the email.
func (r *ResendVerificationRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

// Validate validates the ResendVerificationRequest.
func (r *ResendVerificationRequest) Validate() error {
	return Validator().Struct(r)
}

// UpdateUserRequest carries the mutable profile fields. Nil fields are left unchanged.
type UpdateUserRequest struct {
	FullName *string `json:"full_name,omitempty" validate:"omitempty,max=100,fullname"`
	Email    *string `json:"email,omitempty" validate:"omitempty,max=255,email"`
}

// Normalize trims the provided fields.
func (r *UpdateUserRequest) Normalize() {
	if r.FullName != nil {
		v := strings.TrimSpace(*r.FullName)
		r.FullName = &v
	}
	if r.Email != nil {
		v := NormalizeEmail(*r.Email)
		r.Email = &v
	}
}

// Validate validates the UpdateUserRequest.
func (r *UpdateUserRequest) Validate() error {
	return Validator().Struct(r)
}

// ChangePasswordRequest represents a password change request.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,strongpassword"`
}

// Validate validates the ChangePasswordRequest.
func (r *ChangePasswordRequest) Validate() error {
	return Validator().Struct(r)
}

// User represents a user profile for API responses. It never carries the password hash.
type User struct {
	ID         uuid.UUID `json:"id"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	IsActive   bool      `json:"is_active"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SignupResponse is returned after registration. VerificationToken is only populated
// when the server runs in debug mode.
type SignupResponse struct {
	User              *User  `json:"user"`
	VerificationToken string `json:"verification_token,omitempty"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	User         *User  `json:"user"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message           string `json:"message"`
	VerificationToken string `json:"verification_token,omitempty"`
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
