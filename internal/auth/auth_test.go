package auth

import (
	"context"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPassword_RoundTrip(t *testing.T) {
	hash, err := hashPassword("secret1", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	assert.NoError(t, CheckPassword(hash, "secret1"))
	assert.ErrorIs(t, CheckPassword(hash, "secret2"), ErrInvalidCredentials)
	assert.ErrorIs(t, CheckPassword("not-a-hash", "secret1"), ErrInvalidCredentials)
}

func TestTokens_IssueAndVerify(t *testing.T) {
	tokens := NewTokens("test-secret", "event-admission", time.Hour)
	p := model.Participant{ID: "p-1", Role: model.RoleAdmin}

	raw, exp, err := tokens.Issue(p)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	id, err := tokens.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "p-1", id.ParticipantID)
	assert.True(t, id.IsAdmin())
}

func TestTokens_Rejects(t *testing.T) {
	tokens := NewTokens("test-secret", "event-admission", time.Hour)
	raw, _, err := tokens.Issue(model.Participant{ID: "p-1", Role: model.RoleUser})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokens("other-secret", "event-admission", time.Hour)
		_, err := other.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewTokens("test-secret", "someone-else", time.Hour)
		_, err := other.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewTokens("test-secret", "event-admission", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.Verify("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestIdentityContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{ParticipantID: "p-1", Role: model.RoleUser})
	id, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "p-1", id.ParticipantID)
	assert.False(t, id.IsAdmin())
}
