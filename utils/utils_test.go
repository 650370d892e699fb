package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gerritbandison/Trackr-sub004/config"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("correct horse battery staple", hash))
	assert.False(t, CheckPasswordHash("wrong password", hash))
}

func TestJWTRoundTrip(t *testing.T) {
	config.LoadConfig()

	token, err := GenerateJWT("64f1a2b3c4d5e6f7a8b9c0d1", "Ada Admin", "admin")
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "64f1a2b3c4d5e6f7a8b9c0d1", claims.UserID)
	assert.Equal(t, "Ada Admin", claims.Name)
	assert.Equal(t, "admin", claims.Role)
}

func TestValidateJWTRejectsGarbage(t *testing.T) {
	config.LoadConfig()

	_, err := ValidateJWT("not.a.token")
	assert.Error(t, err)
}

func TestGenerateRandomPasswordLength(t *testing.T) {
	p := GenerateRandomPassword(12)
	assert.Len(t, p, 12)
	assert.NotEqual(t, p, GenerateRandomPassword(12))
}
