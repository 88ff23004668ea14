package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthenticator() *JWTAuthenticator {
	return NewJWTAuthenticator("access-secret", "refresh-secret", "welp", "welp", time.Hour, 24*time.Hour)
}

func TestGenerateAndValidateTokens(t *testing.T) {
	a := newTestAuthenticator()

	access, refresh, err := a.GenerateTokens(42, "customer")
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	parsed, err := a.ValidateAccessToken(access)
	require.NoError(t, err)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, float64(42), claims["sub"])
	assert.Equal(t, "customer", claims["role"])
	assert.Equal(t, "welp", claims["iss"])

	_, err = a.ValidateRefreshToken(refresh)
	assert.NoError(t, err)
}

func TestAccessTokenRejectedByRefreshValidator(t *testing.T) {
	a := newTestAuthenticator()

	access, _, err := a.GenerateTokens(7, "business")
	require.NoError(t, err)

	// Signed with a different secret, so it must not validate as a refresh token.
	_, err = a.ValidateRefreshToken(access)
	assert.Error(t, err)
}

func TestValidateAccessToken_Garbage(t *testing.T) {
	a := newTestAuthenticator()

	_, err := a.ValidateAccessToken("not-a-token")
	assert.Error(t, err)
}

func TestExpiredAccessTokenRejected(t *testing.T) {
	a := NewJWTAuthenticator("access-secret", "refresh-secret", "welp", "welp", -time.Minute, 24*time.Hour)

	access, _, err := a.GenerateTokens(7, "business")
	require.NoError(t, err)

	_, err = a.ValidateAccessToken(access)
	assert.Error(t, err)
}
