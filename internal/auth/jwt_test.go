package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	a := NewJWTAuthenticator("test-secret", "critiq", "critiq", time.Hour)

	tokenString, err := a.GenerateToken(42, "moderator")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	token, err := a.ValidateToken(tokenString)
	require.NoError(t, err)
	assert.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, float64(42), claims["sub"])
	assert.Equal(t, "moderator", claims["role"])
}

func TestValidateTokenWrongSecret(t *testing.T) {
	a := NewJWTAuthenticator("test-secret", "critiq", "critiq", time.Hour)
	b := NewJWTAuthenticator("other-secret", "critiq", "critiq", time.Hour)

	tokenString, err := a.GenerateToken(1, "user")
	require.NoError(t, err)

	_, err = b.ValidateToken(tokenString)
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	a := NewJWTAuthenticator("test-secret", "critiq", "critiq", -time.Minute)

	tokenString, err := a.GenerateToken(1, "user")
	require.NoError(t, err)

	_, err = a.ValidateToken(tokenString)
	assert.Error(t, err)
}

func TestValidateTokenWrongIssuer(t *testing.T) {
	a := NewJWTAuthenticator("test-secret", "critiq", "someone-else", time.Hour)
	b := NewJWTAuthenticator("test-secret", "critiq", "critiq", time.Hour)

	tokenString, err := a.GenerateToken(1, "user")
	require.NoError(t, err)

	_, err = b.ValidateToken(tokenString)
	assert.Error(t, err)
}
