package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTService(accessExp time.Duration) *JWTService {
	return NewJWTService(JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  accessExp,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "test",
	})
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "wrong-pass"))
}

func TestTokenPairRoundTrip(t *testing.T) {
	svc := testJWTService(time.Hour)

	access, refresh, expiresIn, err := svc.GenerateTokenPair(1001, "xavier")
	require.NoError(t, err)
	assert.NotEmpty(t, refresh)
	assert.Equal(t, 3600, expiresIn)

	claims, err := svc.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, int64(1001), claims.StudentID)
	assert.Equal(t, "xavier", claims.Username)
	assert.Equal(t, "test", claims.Issuer)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := testJWTService(-time.Minute)

	access, _, _, err := svc.GenerateTokenPair(1001, "xavier")
	require.NoError(t, err)

	_, err = svc.ValidateToken(access)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	access, _, _, err := testJWTService(time.Hour).GenerateTokenPair(1001, "xavier")
	require.NoError(t, err)

	other := NewJWTService(JWTConfig{SecretKey: "other-secret", AccessTokenExp: time.Hour})
	_, err = other.ValidateToken(access)
	assert.Error(t, err)
}

func TestExtractBearerToken(t *testing.T) {
	token, err := ExtractBearerToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	_, err = ExtractBearerToken("")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}
