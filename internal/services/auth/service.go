package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"password-reset/internal/config"
	"password-reset/internal/utils/crypto"
	"password-reset/internal/utils/sanitize"

	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// MinFullNameLength is the shortest display name accepted at registration.
const MinFullNameLength = 2

// Response messages.
const (
	MsgRegistered     = "User registered successfully"
	MsgLoggedIn       = "Login successful"
	MsgResetRequested = "If an account with that email exists, a password reset link has been sent"
	MsgTokenValid     = "Password reset token is valid"
	MsgPasswordReset  = "Password has been reset successfully"
)

// Service handles authentication business logic
type Service struct {
	repo    UsersRepo
	tokens  *ResetTokens
	hasher  crypto.Hasher
	mailer  ResetMailer
	metrics *Metrics
	log     *slog.Logger

	// dummyHash is verified against when the email is unknown so that
	// login takes comparable time either way.
	dummyHash string
}

// Option customizes a Service.
type Option func(*Service)

// WithMetrics records auth outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithHasher replaces the bcrypt hasher built from config.
func WithHasher(h crypto.Hasher) Option {
	return func(s *Service) { s.hasher = h }
}

// NewService creates a new auth service
func NewService(repo UsersRepo, mailer ResetMailer, cfg config.Config, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		tokens: NewResetTokens(repo, cfg.ResetTokenTTL()),
		hasher: crypto.NewBcryptHasher(cfg.BcryptCost),
		mailer: mailer,
		log:    log,
	}
	for _, opt := range opts {
		opt(s)
	}

	if h, err := s.hasher.Hash("timing-equalizer"); err == nil {
		s.dummyHash = h
	} else {
		log.Warn("failed to prepare dummy password hash", "error", err)
	}

	return s
}

// Register creates a user from a validated request.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	fullName := sanitize.Line(req.FullName)
	email := NormalizeEmail(req.Email)

	if utf8.RuneCountInString(fullName) < MinFullNameLength {
		return nil, NewValidationError("full name must be at least 2 characters")
	}
	if email == "" {
		return nil, NewValidationError("email is required")
	}
	if err := crypto.ValidatePassword(req.Password); err != nil {
		return nil, NewValidationError(err.Error())
	}

	// Fast path only; the unique index is what actually guarantees uniqueness.
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, ErrDuplicate
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, oops.In("auth").Code("REGISTER_FAILED").With("operation", "FindByEmail").Wrap(err)
	}

	hashedPassword, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, oops.In("auth").Code("REGISTER_FAILED").With("operation", "Hash").Wrap(err)
	}

	now := time.Now().UTC()
	user := &User{
		ID:           bson.NewObjectID(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: hashedPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, ErrDuplicate
		}
		return nil, oops.In("auth").Code("REGISTER_FAILED").With("operation", "Create").Wrap(err)
	}

	s.metrics.registered()
	s.log.InfoContext(ctx, "user registered", "user_id", user.ID.Hex())

	return &AuthResponse{
		Success: true,
		Message: MsgRegistered,
		User:    user.Public(),
	}, nil
}

// Login authenticates a user. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email := NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, NewValidationError("email and password are required")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return nil, oops.In("auth").Code("LOGIN_FAILED").With("operation", "FindByEmail").Wrap(err)
		}
		s.hasher.Verify(req.Password, s.dummyHash)
		s.metrics.login(false)
		s.log.DebugContext(ctx, "login failed", "reason", "unknown email")
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		s.metrics.login(false)
		s.log.DebugContext(ctx, "login failed", "reason", "password mismatch", "user_id", user.ID.Hex())
		return nil, ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.upgradeHash(ctx, user, req.Password)
	}

	s.metrics.login(true)

	return &AuthResponse{
		Success: true,
		Message: MsgLoggedIn,
		User:    user.Public(),
	}, nil
}

// upgradeHash re-hashes with the current cost. Failures are logged only;
// the login itself already succeeded.
func (s *Service) upgradeHash(ctx context.Context, user *User, password string) {
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		s.log.WarnContext(ctx, "failed to rehash password", "user_id", user.ID.Hex(), "error", err)
		return
	}
	previous := user.PasswordHash
	user.PasswordHash = hashed
	if err := s.repo.Save(ctx, user); err != nil {
		user.PasswordHash = previous
		s.log.WarnContext(ctx, "failed to save rehashed password", "user_id", user.ID.Hex(), "error", err)
	}
}

// ForgotPassword issues a reset token and mails it. The response is the same
// whether or not the email belongs to an account.
func (s *Service) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (*MessageResponse, error) {
	email := NormalizeEmail(req.Email)
	if email == "" {
		return nil, NewValidationError("email is required")
	}

	s.metrics.reset("requested")
	generic := &MessageResponse{Success: true, Message: MsgResetRequested}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.log.DebugContext(ctx, "password reset requested for unknown email")
			return generic, nil
		}
		return nil, oops.In("auth").Code("FORGOT_PASSWORD_FAILED").With("operation", "FindByEmail").Wrap(err)
	}

	if user.HasPendingReset(s.tokens.now()) {
		s.metrics.reset("replaced")
		s.log.DebugContext(ctx, "replacing outstanding reset token", "user_id", user.ID.Hex())
	}

	token, expiry, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, err
	}
	s.metrics.reset("issued")

	if err := s.mailer.SendResetEmail(ctx, user.Email, token); err != nil {
		s.metrics.mailFailed()
		return nil, oops.In("auth").
			Code("RESET_MAIL_FAILED").
			With("operation", "SendResetEmail").
			With("user_id", user.ID.Hex()).
			Wrap(err)
	}

	s.log.InfoContext(ctx, "password reset email sent", "user_id", user.ID.Hex(), "expires_at", expiry)

	return generic, nil
}

// ValidateResetToken reports whether token can still be used. It never writes.
func (s *Service) ValidateResetToken(ctx context.Context, token string) (*MessageResponse, error) {
	if _, err := s.tokens.Validate(ctx, token); err != nil {
		return nil, err
	}
	return &MessageResponse{Success: true, Message: MsgTokenValid}, nil
}

// ResetPassword sets a new password using a reset token and burns the token.
func (s *Service) ResetPassword(ctx context.Context, token string, req ResetPasswordRequest) (*MessageResponse, error) {
	if err := crypto.ValidatePassword(req.Password); err != nil {
		return nil, NewValidationError(err.Error())
	}

	user, err := s.tokens.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	hashedPassword, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, oops.In("auth").Code("RESET_PASSWORD_FAILED").With("operation", "Hash").Wrap(err)
	}

	if err := s.tokens.Consume(ctx, user, token, hashedPassword); err != nil {
		return nil, err
	}

	s.metrics.reset("completed")
	s.log.InfoContext(ctx, "password reset completed", "user_id", user.ID.Hex())

	return &MessageResponse{Success: true, Message: MsgPasswordReset}, nil
}
