package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabigab117/platforum/config"
)

func init() {
	config.SetForTesting(config.AppConfig{JWTSecret: "test-secret"})
}

func TestSessionTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(42, "gab", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "gab", claims.Username)
}

func TestActivationTokenRoundTrip(t *testing.T) {
	token, err := GenerateActivationToken(42, "gab")
	require.NoError(t, err)

	claims, err := ParseActivationToken(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
}

func TestTokenPurposesAreNotInterchangeable(t *testing.T) {
	session, err := GenerateToken(42, "gab", time.Hour)
	require.NoError(t, err)
	activation, err := GenerateActivationToken(42, "gab")
	require.NoError(t, err)

	_, err = ParseActivationToken(session)
	assert.ErrorIs(t, err, ErrWrongTokenPurpose)

	_, err = ParseToken(activation)
	assert.ErrorIs(t, err, ErrWrongTokenPurpose)
}

func TestTamperedActivationTokenRejected(t *testing.T) {
	token, err := GenerateActivationToken(42, "gab")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	// Flip the payload; the signature no longer matches.
	tampered := parts[0] + "." + parts[1][:len(parts[1])-2] + "xx." + parts[2]

	_, err = ParseActivationToken(tampered)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := GenerateToken(42, "gab", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token)
	assert.Error(t, err)
}
