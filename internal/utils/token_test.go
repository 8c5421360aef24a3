package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_IssueAndValidate(t *testing.T) {
	tokens := NewTokenService("secret", time.Hour)

	token, expiresAt, err := tokens.Issue(42)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	userID, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), userID)
}

func TestTokenService_RejectsExpiredAndForeignTokens(t *testing.T) {
	expired, _, err := NewTokenService("secret", -time.Minute).Issue(1)
	require.NoError(t, err)
	_, err = NewTokenService("secret", time.Hour).Validate(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign, _, err := NewTokenService("other", time.Hour).Issue(1)
	require.NoError(t, err)
	_, err = NewTokenService("secret", time.Hour).Validate(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewTokenService("secret", time.Hour).Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
