package helpers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	secrets := []string{"secret1", "p@ss w0rd", "", "ünïcødé"}
	for _, s := range secrets {
		hash, err := h.Hash(s)
		require.NoError(t, err)
		assert.NotEqual(t, s, hash)

		ok, err := h.Verify(s, hash)
		require.NoError(t, err)
		assert.True(t, ok, "secret %q should verify", s)
	}
}

func TestPasswordHasher_SaltsEachCall(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	a, err := h.Hash("secret1")
	require.NoError(t, err)
	b, err := h.Hash("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestPasswordHasher_VerifyMismatch(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	hash, err := h.Hash("other")
	require.NoError(t, err)

	ok, err := h.Verify("secret1", hash)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_VerifyMalformedHash(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	ok, err := h.Verify("secret1", "not-a-hash")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrMalformedHash)
}

func TestNewPasswordHasher_ClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(0).Cost)
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(99).Cost)
	assert.Equal(t, 12, NewPasswordHasher(12).Cost)
}

func TestPasswordHasher_LongSecrets(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	long := strings.Repeat("p", 80)

	hash, err := h.Hash(long)
	require.NoError(t, err)

	ok, err := h.Verify(long, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	// differs only after byte 72
	ok, err = h.Verify(strings.Repeat("p", 79)+"q", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}
