package auth

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User represents a user in the system.
// ResetTokenHash and ResetExpiry are either both set or both nil.
type User struct {
	ID             bson.ObjectID `bson:"_id,omitempty" json:"id,omitempty" example:"683cdb8aa96ad71e8e075bd1"`
	FullName       string        `bson:"full_name" json:"fullName" example:"Jane Doe"`
	Email          string        `bson:"email" json:"email" example:"jane@example.com"`
	PasswordHash   string        `bson:"password_hash" json:"-"`
	ResetTokenHash *string       `bson:"reset_token,omitempty" json:"-"`
	ResetExpiry    *time.Time    `bson:"reset_expiry,omitempty" json:"-"`
	CreatedAt      time.Time     `bson:"created_at" json:"created_at" example:"2025-06-01T23:00:26.005703677Z"`
	UpdatedAt      time.Time     `bson:"updated_at" json:"updated_at" example:"2025-06-01T23:00:26.005703677Z"`
}

// HasPendingReset reports whether a reset token is outstanding and not yet expired at now.
func (u *User) HasPendingReset(now time.Time) bool {
	return u.ResetTokenHash != nil && u.ResetExpiry != nil && now.Before(*u.ResetExpiry)
}

// Public is the only user view that leaves the service.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID.Hex(), Email: u.Email}
}

// PublicUser is the user payload returned by register and login.
type PublicUser struct {
	ID    string `json:"id" example:"683cdb8aa96ad71e8e075bd1"`
	Email string `json:"email" example:"jane@example.com"`
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	FullName string `json:"fullName" validate:"required,min=2" example:"Jane Doe"`
	Email    string `json:"email" validate:"required,email" example:"jane@example.com"`
	Password string `json:"password" validate:"required,password" example:"Str0ng!Pass"`
}

// LoginRequest represents a user login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required" example:"jane@example.com"`
	Password string `json:"password" validate:"required" example:"Str0ng!Pass"`
}

// ForgotPasswordRequest starts the reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email" example:"jane@example.com"`
}

// ResetPasswordRequest carries the new password; the token comes from the path.
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,password" example:"NewStr0ng!1"`
}

// TrimInput strips surrounding whitespace from the email so the format
// check sees the address the service will store.
func (r *RegisterRequest) TrimInput() { r.Email = strings.TrimSpace(r.Email) }

// TrimInput strips surrounding whitespace from the email.
func (r *LoginRequest) TrimInput() { r.Email = strings.TrimSpace(r.Email) }

// TrimInput strips surrounding whitespace from the email.
func (r *ForgotPasswordRequest) TrimInput() { r.Email = strings.TrimSpace(r.Email) }

// AuthResponse represents the response for successful registration or login
type AuthResponse struct {
	Success bool       `json:"success" example:"true"`
	Message string     `json:"message" example:"Login successful"`
	User    PublicUser `json:"user"`
}

// MessageResponse is returned by the password reset endpoints.
type MessageResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Password has been reset successfully"`
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
