package totp_test

import (
	"bytes"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/totpauth/pkg/totp"
)

func TestGenerateSecretKey(t *testing.T) {
	t.Parallel()

	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ1234567890"

	for _, length := range []int{1, 16, 20, 32, 64} {
		secret, err := totp.GenerateSecretKey(rand.Reader, length)
		require.NoError(t, err)
		assert.Len(t, secret, length)
		for _, c := range secret {
			assert.True(t, strings.ContainsRune(alphabet, c), "unexpected character %q", c)
		}
	}

	a, err := totp.GenerateSecretKey(rand.Reader, 32)
	require.NoError(t, err)
	b, err := totp.GenerateSecretKey(rand.Reader, 32)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestGenerateSecretKey_Deterministic(t *testing.T) {
	t.Parallel()

	// Little-endian 32-bit draws 0, 1, 61 and 62 map to 'a', 'b', '0' and 'a'.
	src := bytes.NewReader([]byte{
		0, 0, 0, 0,
		1, 0, 0, 0,
		61, 0, 0, 0,
		62, 0, 0, 0,
	})
	secret, err := totp.GenerateSecretKey(src, 4)
	require.NoError(t, err)
	assert.Equal(t, "ab0a", secret)
}

func TestGenerateSecretKey_Errors(t *testing.T) {
	t.Parallel()

	_, err := totp.GenerateSecretKey(rand.Reader, 0)
	assert.ErrorIs(t, err, totp.ErrInvalidSecretLength)

	boom := errors.New("entropy exhausted")
	_, err = totp.GenerateSecretKey(iotest.ErrReader(boom), 16)
	assert.ErrorIs(t, err, totp.ErrFailedToGenerateSecretKey)
	assert.ErrorIs(t, err, boom)

	_, err = totp.GenerateSecretKey(bytes.NewReader([]byte{1, 2, 3, 4, 5}), 2)
	assert.ErrorIs(t, err, totp.ErrFailedToGenerateSecretKey)
}
