package crypto

import (
	"errors"
	"regexp"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password the policy accepts.
const MinPasswordLength = 8

// Pre-compiled regexes for password strength validation
var (
	reUpper   = regexp.MustCompile(`[A-Z]`)
	reLower   = regexp.MustCompile(`[a-z]`)
	reDigit   = regexp.MustCompile(`[0-9]`)
	reSpecial = regexp.MustCompile(`[^A-Za-z0-9]`)

	ErrPasswordStrength = errors.New("password must be at least 8 characters long and contain at least one uppercase letter, one lowercase letter, one digit, and one special character")
)

// Hasher derives and checks password digests. The digest carries its own salt
// and cost, so Verify needs nothing else.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
	// NeedsRehash reports whether hash was produced with weaker settings than the hasher's own.
	NeedsRehash(hash string) bool
}

// BcryptHasher implements Hasher with bcrypt at a fixed cost.
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher returns a hasher using the given bcrypt cost.
func NewBcryptHasher(cost int) *BcryptHasher {
	return &BcryptHasher{Cost: cost}
}

// Hash hashes a password with a fresh random salt.
func (h *BcryptHasher) Hash(password string) (string, error) {
	return HashPassword(password, h.Cost)
}

// Verify reports whether password matches hash. A malformed hash is a mismatch.
func (h *BcryptHasher) Verify(password, hash string) bool {
	return CheckPassword(password, hash) == nil
}

// NeedsRehash is true when hash is unreadable or uses a lower cost than h.Cost.
func (h *BcryptHasher) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	return err != nil || cost < h.Cost
}

// HashPassword hashes a password using bcrypt with the given cost
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword verifies a password against its hash
func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// IsStrong checks if a password meets minimum strength requirements
// Requirements: ≥8 chars, 1 upper, 1 lower, 1 digit, 1 char outside [A-Za-z0-9]
func IsStrong(password string) bool {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return false
	}

	return reUpper.MatchString(password) &&
		reLower.MatchString(password) &&
		reDigit.MatchString(password) &&
		reSpecial.MatchString(password)
}

// ValidatePassword returns ErrPasswordStrength when IsStrong fails.
func ValidatePassword(password string) error {
	if !IsStrong(password) {
		return ErrPasswordStrength
	}
	return nil
}
