package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerifyJWT(t *testing.T) {
	SetSecret("test-secret")

	tokenString, err := GenerateJWT(7, 3)
	require.NoError(t, err)

	token, err := VerifyJWT(tokenString)
	require.NoError(t, err)

	userID, version, err := GetDataFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), userID)
	assert.Equal(t, uint64(3), version)
}

func TestVerifyJWTRejectsTampering(t *testing.T) {
	SetSecret("test-secret")

	tokenString, err := GenerateJWT(7, 0)
	require.NoError(t, err)

	_, err = VerifyJWT(tokenString + "x")
	assert.Error(t, err)
}

func TestVerifyJWTRejectsWrongSecret(t *testing.T) {
	SetSecret("test-secret")
	tokenString, err := GenerateJWT(7, 0)
	require.NoError(t, err)

	SetSecret("other-secret")
	_, err = VerifyJWT(tokenString)
	assert.Error(t, err)
}
