package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-chat/parley/pkg/errcode"
)

const testSecret = "test-secret"

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("u1", testSecret, 1)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserId)
	assert.Equal(t, "parley", claims.Issuer)
}

func TestParseTokenRejectsBadSecret(t *testing.T) {
	token, err := GenerateToken("u1", testSecret, 1)
	require.NoError(t, err)

	_, err = ParseToken(token, "wrong-secret")
	assert.ErrorIs(t, err, errcode.ErrTokenInvalid)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken("not-a-token", testSecret)
	assert.ErrorIs(t, err, errcode.ErrTokenInvalid)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken("u1", testSecret, -1)
	require.NoError(t, err)

	_, err = ParseToken(token, testSecret)
	assert.ErrorIs(t, err, errcode.ErrTokenInvalid)
}

func TestValidateTokenUserBinding(t *testing.T) {
	token, err := GenerateToken("u1", testSecret, 1)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserId)

	_, err = ValidateToken(token, testSecret, "u2")
	assert.ErrorIs(t, err, errcode.ErrTokenMismatch)
}
