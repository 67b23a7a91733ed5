package totp

import (
	"context"
	"crypto/sha256"
	"errors"
	"io"
	"time"

	"golang.org/x/crypto/hkdf"
)

// hkdfInfo separates secret keys from other keys derived from the same master key.
const hkdfInfo = "totpauth-secret-v1"

// EncryptedStore wraps a Store and keeps secrets AES-256-GCM encrypted at rest.
// Each user's secret is sealed under a key derived with HKDF-SHA256 from the
// master key and the user identity, so a ciphertext copied to another user
// does not decrypt. Attempts, locks and used intervals pass through unchanged.
type EncryptedStore struct {
	next Store
	key  []byte
}

// NewEncryptedStore wraps next. key must be AESKeySize bytes.
func NewEncryptedStore(next Store, key []byte) (*EncryptedStore, error) {
	if next == nil {
		return nil, ErrStoreNotConfigured
	}
	if len(key) != AESKeySize {
		return nil, ErrInvalidEncryptionKeyLength
	}
	return &EncryptedStore{next: next, key: append([]byte(nil), key...)}, nil
}

// userKey derives the AES key for user. The caller clears it after use.
func (s *EncryptedStore) userKey(user string) ([]byte, error) {
	key := make([]byte, AESKeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, s.key, []byte(user), []byte(hkdfInfo)), key); err != nil {
		return nil, errors.Join(ErrKeyDerivationFailed, err)
	}
	return key, nil
}

func (s *EncryptedStore) TryGetSecret(ctx context.Context, user string) (UserState, bool, error) {
	state, found, err := s.next.TryGetSecret(ctx, user)
	if err != nil || !found {
		return state, found, err
	}
	key, err := s.userKey(user)
	if err != nil {
		return UserState{}, false, err
	}
	defer clear(key)

	secret, err := DecryptSecret(state.SecretKey, key)
	if err != nil {
		return UserState{}, false, err
	}
	state.SecretKey = secret
	return state, true, nil
}

func (s *EncryptedStore) CreateSecret(ctx context.Context, user, secret string) error {
	key, err := s.userKey(user)
	if err != nil {
		return err
	}
	defer clear(key)

	sealed, err := EncryptSecret(secret, key)
	if err != nil {
		return err
	}
	return s.next.CreateSecret(ctx, user, sealed)
}

func (s *EncryptedStore) CodeWasUsed(ctx context.Context, user string, interval int64) (bool, error) {
	return s.next.CodeWasUsed(ctx, user, interval)
}

func (s *EncryptedStore) AddUsedCode(ctx context.Context, user string, interval int64) error {
	return s.next.AddUsedCode(ctx, user, interval)
}

func (s *EncryptedStore) CleanupUsedCodes(ctx context.Context, user string, before int64) error {
	return s.next.CleanupUsedCodes(ctx, user, before)
}

func (s *EncryptedStore) IncrementAttempts(ctx context.Context, user string) (int, error) {
	return s.next.IncrementAttempts(ctx, user)
}

func (s *EncryptedStore) ResetAttempts(ctx context.Context, user string) error {
	return s.next.ResetAttempts(ctx, user)
}

func (s *EncryptedStore) LockAccount(ctx context.Context, user string, until time.Time) error {
	return s.next.LockAccount(ctx, user, until)
}
