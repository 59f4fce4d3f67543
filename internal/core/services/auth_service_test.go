package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
)

func newTestAuth() AuthService {
	return NewAuthService("test-secret", 15*time.Minute, 7*24*time.Hour)
}

func TestTokenRoundTrip(t *testing.T) {
	auth := newTestAuth()

	token, err := auth.GenerateToken("u1", "host")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := auth.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, domain.UserID("u1"), claims.UserID)
	assert.Equal(t, "host", claims.Username)
}

func TestExpiredTokenRejected(t *testing.T) {
	auth := NewAuthService("test-secret", -time.Minute, time.Hour)

	token, err := auth.GenerateToken("u1", "host")
	assert.NoError(t, err)

	_, err = auth.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenWithWrongSecretRejected(t *testing.T) {
	token, err := newTestAuth().GenerateToken("u1", "host")
	assert.NoError(t, err)

	other := NewAuthService("different-secret", 15*time.Minute, time.Hour)
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGarbageTokenRejected(t *testing.T) {
	_, err := newTestAuth().ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	auth := newTestAuth()

	token, err := auth.GenerateRefreshToken("u1")
	assert.NoError(t, err)

	claims, err := auth.ValidateRefreshToken(token)
	assert.NoError(t, err)
	assert.Equal(t, domain.UserID("u1"), claims.UserID)
}

func TestUserFromContext(t *testing.T) {
	userID, err := UserFromContext(testContext("u1"))
	assert.NoError(t, err)
	assert.Equal(t, domain.UserID("u1"), userID)

	_, err = UserFromContext(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoCurrentUser)

	_, err = UserFromContext(testContext(""))
	assert.ErrorIs(t, err, domain.ErrNoCurrentUser)
}
