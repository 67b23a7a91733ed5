package totp_test

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/totpauth/pkg/totp"
)

func TestEncryptDecryptSecret(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		plainText string
		key       []byte
		wantErr   error
	}{
		{
			name:      "Valid encryption and decryption",
			plainText: "MYSECRETKEY123",
			key:       make([]byte, 32),
			wantErr:   nil,
		},
		{
			name:      "Empty plaintext",
			plainText: "",
			key:       make([]byte, 32),
			wantErr:   nil,
		},
		{
			name:      "Invalid key size",
			plainText: "MYSECRETKEY123",
			key:       make([]byte, 16),
			wantErr:   totp.ErrInvalidEncryptionKeyLength,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			// Encrypt
			encrypted, err := totp.EncryptSecret(tt.plainText, tt.key)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, encrypted)

			// Decrypt
			decrypted, err := totp.DecryptSecret(encrypted, tt.key)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.plainText, decrypted)
		})
	}
}

func TestDecryptSecret_Invalid(t *testing.T) {
	t.Parallel()
	key := make([]byte, 32)
	tests := []struct {
		name             string
		cipherTextBase64 string
	}{
		{
			name:             "Invalid base64",
			cipherTextBase64: "invalid-base64!@#$",
		},
		{
			name:             "Too short ciphertext",
			cipherTextBase64: base64.StdEncoding.EncodeToString([]byte("short")),
		},
		{
			name:             "Tampered ciphertext",
			cipherTextBase64: base64.StdEncoding.EncodeToString(make([]byte, 40)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := totp.DecryptSecret(tt.cipherTextBase64, key)
			assert.Error(t, err)
		})
	}
}

func TestGenerateEncryptionKey(t *testing.T) {
	t.Parallel()
	key, err := totp.GenerateEncryptionKey()
	require.NoError(t, err)
	assert.Len(t, key, 32)
}

func TestGenerateEncodedEncryptionKey(t *testing.T) {
	t.Parallel()
	key, err := totp.GenerateEncodedEncryptionKey()
	require.NoError(t, err)
	require.NotEmpty(t, key)

	decoded, err := base64.StdEncoding.DecodeString(key)
	require.NoError(t, err)
	require.Len(t, decoded, 32)
}

func TestParseEncryptionKey(t *testing.T) {
	t.Parallel()

	encoded, err := totp.GenerateEncodedEncryptionKey()
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "valid", input: encoded},
		{name: "empty", input: "", wantErr: totp.ErrEncryptionKeyNotSet},
		{name: "not base64", input: "***", wantErr: totp.ErrFailedToLoadEncryptionKey},
		{name: "short key", input: base64.StdEncoding.EncodeToString(make([]byte, 16)), wantErr: totp.ErrInvalidEncryptionKeyLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			key, err := totp.ParseEncryptionKey(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, totp.ErrFailedToLoadEncryptionKey)
				return
			}
			require.NoError(t, err)
			assert.Len(t, key, totp.AESKeySize)
		})
	}
}

func TestEncryptedStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	key, err := totp.GenerateEncryptionKey()
	require.NoError(t, err)

	inner := totp.NewMemoryStore()
	store, err := totp.NewEncryptedStore(inner, key)
	require.NoError(t, err)

	require.NoError(t, store.CreateSecret(ctx, "alice", "plainSecret1234567890"))
	assert.ErrorIs(t, store.CreateSecret(ctx, "alice", "other"), totp.ErrAlreadyEnrolled)

	raw, found, err := inner.TryGetSecret(ctx, "alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.NotEqual(t, "plainSecret1234567890", raw.SecretKey, "secret must be stored encrypted")

	state, found, err := store.TryGetSecret(ctx, "alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "plainSecret1234567890", state.SecretKey)

	n, err := store.IncrementAttempts(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, store.LockAccount(ctx, "alice", time.Unix(100, 0)))
	require.NoError(t, store.AddUsedCode(ctx, "alice", 7))
	used, err := store.CodeWasUsed(ctx, "alice", 7)
	require.NoError(t, err)
	assert.True(t, used)
	require.NoError(t, store.CleanupUsedCodes(ctx, "alice", 8))
	require.NoError(t, store.ResetAttempts(ctx, "alice"))

	_, found, err = store.TryGetSecret(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, found)

	t.Run("wrong key", func(t *testing.T) {
		t.Parallel()
		other, err := totp.GenerateEncryptionKey()
		require.NoError(t, err)
		wrong, err := totp.NewEncryptedStore(inner, other)
		require.NoError(t, err)
		_, _, err = wrong.TryGetSecret(ctx, "alice")
		assert.ErrorIs(t, err, totp.ErrFailedToDecryptSecret)
	})
}

func TestEncryptedStore_CiphertextBoundToUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	key, err := totp.GenerateEncryptionKey()
	require.NoError(t, err)

	inner := totp.NewMemoryStore()
	store, err := totp.NewEncryptedStore(inner, key)
	require.NoError(t, err)

	require.NoError(t, store.CreateSecret(ctx, "alice", "aliceSecret123456789"))
	raw, _, err := inner.TryGetSecret(ctx, "alice")
	require.NoError(t, err)

	// Same master key, different user: the copied ciphertext must not open.
	require.NoError(t, inner.CreateSecret(ctx, "mallory", raw.SecretKey))
	_, _, err = store.TryGetSecret(ctx, "mallory")
	assert.ErrorIs(t, err, totp.ErrFailedToDecryptSecret)

	// The master key alone does not decrypt a stored secret either.
	_, err = totp.DecryptSecret(raw.SecretKey, key)
	assert.ErrorIs(t, err, totp.ErrFailedToDecryptSecret)
}

func TestNewEncryptedStore_Invalid(t *testing.T) {
	t.Parallel()

	_, err := totp.NewEncryptedStore(nil, make([]byte, totp.AESKeySize))
	assert.ErrorIs(t, err, totp.ErrStoreNotConfigured)

	_, err = totp.NewEncryptedStore(totp.NewMemoryStore(), make([]byte, 8))
	assert.ErrorIs(t, err, totp.ErrInvalidEncryptionKeyLength)
}
