package membership

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, salt, err := hashPassword("SecurePass123!")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	require.NotEmpty(t, salt)

	ok, err := verifyPassword("SecurePass123!", salt, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = verifyPassword("WrongPass123!", salt, hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordSaltsAreUnique(t *testing.T) {
	hash1, salt1, err := hashPassword("SecurePass123!")
	require.NoError(t, err)
	hash2, salt2, err := hashPassword("SecurePass123!")
	require.NoError(t, err)

	assert.NotEqual(t, salt1, salt2)
	assert.NotEqual(t, hash1, hash2, "same password must not hash identically")
}

func TestVerifyPasswordRejectsBadEncoding(t *testing.T) {
	_, err := verifyPassword("pw", "not-base64!!", "also-not-base64!!")
	assert.Error(t, err)
}
