package auth

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// UsersRepo defines the interface for user repository operations.
// Emails passed in are already normalized. Lookups that match nothing
// return ErrUserNotFound.
type UsersRepo interface {
	// Create inserts user; ErrDuplicate when the email is taken.
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	// FindByValidResetToken matches the stored token hash exactly and requires reset_expiry > now.
	FindByValidResetToken(ctx context.Context, tokenHash string, now time.Time) (*User, error)
	// SetResetToken stores hash and expiry together, replacing any previous token.
	SetResetToken(ctx context.Context, id bson.ObjectID, tokenHash string, expiry time.Time) error
	// ResetPassword swaps the password hash and removes the reset fields in
	// one write, provided the token is still the current, unexpired one.
	ResetPassword(ctx context.Context, id bson.ObjectID, tokenHash, passwordHash string, now time.Time) (*User, error)
	// Save persists full name, email and password hash.
	Save(ctx context.Context, user *User) error
}

// ResetMailer delivers the reset link out of band.
type ResetMailer interface {
	SendResetEmail(ctx context.Context, email, token string) error
}
