package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/samber/oops"
)

// Reset token configuration.
const (
	ResetTokenBytes      = 32        // 256 bits, 64 hex chars
	DefaultResetTokenTTL = time.Hour // 1 hour expiry
)

// ResetTokens issues, validates and consumes password reset tokens.
// Only the SHA-256 of a token is persisted; the plaintext goes to the mailer.
type ResetTokens struct {
	repo UsersRepo
	ttl  time.Duration
	now  func() time.Time
}

// NewResetTokens creates a token manager. A non-positive ttl falls back to DefaultResetTokenTTL.
func NewResetTokens(repo UsersRepo, ttl time.Duration) *ResetTokens {
	if ttl <= 0 {
		ttl = DefaultResetTokenTTL
	}
	return &ResetTokens{
		repo: repo,
		ttl:  ttl,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// GenerateResetToken returns a fresh hex-encoded random token.
func GenerateResetToken() (string, error) {
	b := make([]byte, ResetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", oops.In("auth").Code("RESET_TOKEN_GENERATE_FAILED").Wrap(err)
	}
	return hex.EncodeToString(b), nil
}

// HashResetToken is the form a token is stored and looked up in.
func HashResetToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// Issue generates a token for user and persists its hash with the expiry.
// A previous outstanding token is overwritten. Nothing is returned unless
// the write succeeded.
func (m *ResetTokens) Issue(ctx context.Context, user *User) (string, time.Time, error) {
	token, err := GenerateResetToken()
	if err != nil {
		return "", time.Time{}, err
	}

	hash := HashResetToken(token)
	expiry := m.now().Add(m.ttl)

	if err := m.repo.SetResetToken(ctx, user.ID, hash, expiry); err != nil {
		return "", time.Time{}, oops.In("auth").
			Code("RESET_ISSUE_FAILED").
			With("operation", "SetResetToken").
			With("user_id", user.ID.Hex()).
			Wrap(err)
	}

	user.ResetTokenHash = &hash
	user.ResetExpiry = &expiry

	return token, expiry, nil
}

// Validate returns the user owning token if it is current and unexpired.
// Unknown and expired tokens both yield ErrInvalidResetToken.
func (m *ResetTokens) Validate(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrInvalidResetToken
	}

	user, err := m.repo.FindByValidResetToken(ctx, HashResetToken(token), m.now())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidResetToken
		}
		return nil, oops.In("auth").
			Code("RESET_VALIDATE_FAILED").
			With("operation", "FindByValidResetToken").
			Wrap(err)
	}

	return user, nil
}

// Consume stores passwordHash and clears the reset fields in a single write.
// The write only matches while token is still current, so a token can be
// consumed at most once even under concurrent requests.
func (m *ResetTokens) Consume(ctx context.Context, user *User, token, passwordHash string) error {
	updated, err := m.repo.ResetPassword(ctx, user.ID, HashResetToken(token), passwordHash, m.now())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidResetToken
		}
		return oops.In("auth").
			Code("RESET_CONSUME_FAILED").
			With("operation", "ResetPassword").
			With("user_id", user.ID.Hex()).
			Wrap(err)
	}

	*user = *updated
	return nil
}
