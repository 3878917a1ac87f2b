package auth

import (
	"testing"
	"time"

	"github.com/ch1tg/GameTrackr-api/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.GenerateToken(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := issuer.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	_, err := issuer.ParseToken("not-a-token")
	require.Error(t, err)
	assert.True(t, apperror.IsType(err, apperror.AuthError))
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	other := NewTokenIssuer("different-secret", time.Hour)

	token, err := issuer.GenerateToken(7)
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	require.Error(t, err)
	assert.True(t, apperror.IsType(err, apperror.AuthError))
}

func TestParseTokenRejectsExpired(t *testing.T) {
	// Built directly because the constructor replaces a non-positive
	// lifetime with the default.
	issuer := &TokenIssuer{secret: []byte("test-secret"), lifetime: -time.Minute}

	token, err := issuer.GenerateToken(7)
	require.NoError(t, err)

	_, err = issuer.ParseToken(token)
	require.Error(t, err)
	assert.True(t, apperror.IsType(err, apperror.AuthError))
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("Pass_w0rd")
	require.NoError(t, err)
	assert.NotEqual(t, "Pass_w0rd", hash)

	assert.True(t, VerifyPassword("Pass_w0rd", hash))
	assert.False(t, VerifyPassword("wrong", hash))
}

func TestNewCSRFTokenIsUnique(t *testing.T) {
	a := NewCSRFToken()
	b := NewCSRFToken()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
