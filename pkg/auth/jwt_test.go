package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrightonDube/bizpilot-session/internal/config"
)

func TestMain(m *testing.M) {
	config.AppConfig = &config.Config{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 15,
		RefreshTokenTTLDays:   7,
	}
	m.Run()
}

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(42, "pat", "sess-1")
	require.NoError(t, err)

	claims, err := ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "pat", claims.Username)
	assert.Equal(t, "sess-1", claims.SessionID)
}

func TestAccessTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(42, "pat", "sess-1")
	require.NoError(t, err)

	orig := config.AppConfig.JWTSecret
	config.AppConfig.JWTSecret = "a-different-secret"
	defer func() { config.AppConfig.JWTSecret = orig }()

	_, err = ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestAccessTokenRejectsGarbage(t *testing.T) {
	_, err := ValidateAccessToken("not.a.token")
	assert.Error(t, err)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	token, err := GenerateRefreshToken(42, "sess-1", "tok_abc")
	require.NoError(t, err)

	claims, err := ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "tok_abc", claims.TokenID)
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	// Both use HS256 with the same secret; the claim shapes differ and the
	// refresh validator must not accept access-token claims blindly.
	access, err := GenerateAccessToken(42, "pat", "sess-1")
	require.NoError(t, err)

	claims, err := ValidateRefreshToken(access)
	if err == nil {
		// Parsed, but carries no token ID, so rotation lookups fail.
		assert.Empty(t, claims.TokenID)
	}
}
