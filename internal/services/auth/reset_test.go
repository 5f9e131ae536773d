package auth

import (
	"context"
	"encoding/hex"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestGenerateResetToken(t *testing.T) {
	seen := map[string]bool{}
	for range 50 {
		token, err := GenerateResetToken()
		require.NoError(t, err)

		raw, err := hex.DecodeString(token)
		require.NoError(t, err, "token is hex encoded")
		assert.Len(t, raw, ResetTokenBytes)

		assert.False(t, seen[token], "tokens must not repeat")
		seen[token] = true
	}
}

func TestHashResetToken(t *testing.T) {
	assert.Equal(t, HashResetToken("abc"), HashResetToken("abc"))
	assert.NotEqual(t, HashResetToken("abc"), HashResetToken("abd"))
	assert.Len(t, HashResetToken("abc"), 64)
}

func TestNewResetTokens_DefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultResetTokenTTL, NewResetTokens(newMemRepo(), 0).ttl)
	assert.Equal(t, 5*time.Minute, NewResetTokens(newMemRepo(), 5*time.Minute).ttl)
}

func TestResetTokens_IssueSetsBothFields(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	user := &User{ID: bson.NewObjectID()}

	repo := new(MockUsersRepo)
	repo.On("SetResetToken", mock.Anything, user.ID, mock.AnythingOfType("string"), now.Add(time.Hour)).Return(nil)

	m := NewResetTokens(repo, time.Hour)
	m.now = func() time.Time { return now }

	token, expiry, err := m.Issue(context.Background(), user)
	require.NoError(t, err)

	assert.Equal(t, now.Add(time.Hour), expiry)
	require.NotNil(t, user.ResetTokenHash)
	require.NotNil(t, user.ResetExpiry)
	assert.Equal(t, HashResetToken(token), *user.ResetTokenHash)
	assert.Equal(t, expiry, *user.ResetExpiry)

	repo.AssertCalled(t, "SetResetToken", mock.Anything, user.ID, HashResetToken(token), expiry)
}

func TestResetTokens_IssueFailureLeavesUserUntouched(t *testing.T) {
	user := &User{ID: bson.NewObjectID()}

	repo := new(MockUsersRepo)
	repo.On("SetResetToken", mock.Anything, user.ID, mock.Anything, mock.Anything).Return(errStorage)

	token, expiry, err := NewResetTokens(repo, time.Hour).Issue(context.Background(), user)

	assert.ErrorIs(t, err, errStorage)
	assert.Empty(t, token)
	assert.True(t, expiry.IsZero())
	assert.Nil(t, user.ResetTokenHash)
	assert.Nil(t, user.ResetExpiry)
}

func TestResetTokens_ValidateStorageError(t *testing.T) {
	repo := new(MockUsersRepo)
	repo.On("FindByValidResetToken", mock.Anything, HashResetToken("tok"), mock.Anything).Return(nil, errStorage)

	_, err := NewResetTokens(repo, time.Hour).Validate(context.Background(), "tok")
	assert.ErrorIs(t, err, errStorage)
	assert.NotErrorIs(t, err, ErrInvalidResetToken)
}

func TestResetTokens_ConcurrentConsumeSucceedsOnce(t *testing.T) {
	repo := newMemRepo()
	ctx := context.Background()
	user := &User{ID: bson.NewObjectID(), Email: janeEmail, PasswordHash: "old"}
	require.NoError(t, repo.Create(ctx, user))

	m := NewResetTokens(repo, time.Hour)
	token, _, err := m.Issue(ctx, user)
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	var wins atomic.Int32

	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			target, err := m.Validate(ctx, token)
			if err != nil {
				return
			}
			if m.Consume(ctx, target, token, "hash-"+string(rune('a'+i))) == nil {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())

	stored := repo.byEmail(janeEmail)
	assert.Nil(t, stored.ResetTokenHash)
	assert.Nil(t, stored.ResetExpiry)
	assert.NotEqual(t, "old", stored.PasswordHash)
}
