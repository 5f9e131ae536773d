package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"password-reset/internal/config"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"
)

var silentLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testConfig() config.Config {
	return config.Config{
		BcryptCost:           bcrypt.MinCost,
		ResetTokenTTLMinutes: 60,
	}
}

// memRepo is an in-memory UsersRepo with the same matching rules as the mongo one.
type memRepo struct {
	mu    sync.Mutex
	users map[bson.ObjectID]User
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[bson.ObjectID]User{}}
}

func (r *memRepo) Create(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *memRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memRepo) FindByValidResetToken(_ context.Context, tokenHash string, now time.Time) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.HasPendingReset(now) && *u.ResetTokenHash == tokenHash {
			found := u
			return &found, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memRepo) SetResetToken(_ context.Context, id bson.ObjectID, tokenHash string, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.ResetTokenHash = &tokenHash
	u.ResetExpiry = &expiry
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u
	return nil
}

func (r *memRepo) ResetPassword(_ context.Context, id bson.ObjectID, tokenHash, passwordHash string, now time.Time) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || !u.HasPendingReset(now) || *u.ResetTokenHash != tokenHash {
		return nil, ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetTokenHash = nil
	u.ResetExpiry = nil
	u.UpdatedAt = now
	r.users[id] = u
	updated := u
	return &updated, nil
}

func (r *memRepo) Save(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[user.ID]
	if !ok {
		return ErrUserNotFound
	}
	u.FullName = user.FullName
	u.Email = user.Email
	u.PasswordHash = user.PasswordHash
	u.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = u
	return nil
}

func (r *memRepo) byEmail(email string) User {
	u, err := r.FindByEmail(context.Background(), email)
	if err != nil {
		panic(err)
	}
	return *u
}

// captureMailer remembers every token it was asked to deliver.
type captureMailer struct {
	mu   sync.Mutex
	sent map[string][]string
	err  error
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{sent: map[string][]string{}}
}

func (m *captureMailer) SendResetEmail(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent[email] = append(m.sent[email], token)
	return nil
}

func (m *captureMailer) last(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	tokens := m.sent[email]
	if len(tokens) == 0 {
		return ""
	}
	return tokens[len(tokens)-1]
}

func (m *captureMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, tokens := range m.sent {
		n += len(tokens)
	}
	return n
}

// MockUsersRepo is a mock implementation of UsersRepo
type MockUsersRepo struct {
	mock.Mock
}

func (m *MockUsersRepo) Create(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUsersRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUsersRepo) FindByValidResetToken(ctx context.Context, tokenHash string, now time.Time) (*User, error) {
	args := m.Called(ctx, tokenHash, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUsersRepo) SetResetToken(ctx context.Context, id bson.ObjectID, tokenHash string, expiry time.Time) error {
	args := m.Called(ctx, id, tokenHash, expiry)
	return args.Error(0)
}

func (m *MockUsersRepo) ResetPassword(ctx context.Context, id bson.ObjectID, tokenHash, passwordHash string, now time.Time) (*User, error) {
	args := m.Called(ctx, id, tokenHash, passwordHash, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUsersRepo) Save(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockMailer is a mock implementation of ResetMailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendResetEmail(ctx context.Context, email, token string) error {
	args := m.Called(ctx, email, token)
	return args.Error(0)
}

var errStorage = errors.New("connection reset by peer")
