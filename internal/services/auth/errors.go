package auth

import "errors"

// ErrValidation is matched (errors.Is) by every ValidationError.
var ErrValidation = errors.New("validation failed")

// ErrDuplicate is returned when trying to create a user with an email that already exists
var ErrDuplicate = errors.New("user with this email already exists")

// ErrUserNotFound is returned by repositories when no document matches.
var ErrUserNotFound = errors.New("user not found")

// ErrInvalidCredentials covers both unknown email and wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrInvalidResetToken covers unknown, expired and already used reset tokens.
var ErrInvalidResetToken = errors.New("password reset token is invalid or has expired")

// ValidationError describes malformed or missing input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Is makes errors.Is(err, ErrValidation) true for any ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError builds a ValidationError with the given message.
func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}
