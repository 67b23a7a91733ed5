package totp

import "errors"

var (
	ErrInvalidConfig             = errors.New("invalid TOTP configuration")
	ErrStoreNotConfigured        = errors.New("TOTP store not configured")
	ErrStoreUnavailable          = errors.New("TOTP store unavailable")
	ErrAlreadyEnrolled           = errors.New("user already has a TOTP secret")
	ErrCodeAlreadyUsed           = errors.New("TOTP code interval already used")
	ErrNotEnrolled               = errors.New("user has no TOTP secret")
	ErrUnsupportedAlgorithm      = errors.New("unsupported TOTP algorithm")
	ErrInvalidCharacter          = errors.New("invalid base32 character")
	ErrInvalidSecretLength       = errors.New("invalid secret key length")
	ErrFailedToGenerateSecretKey = errors.New("failed to generate TOTP secret key")
	ErrMissingUser               = errors.New("missing user identity")
	ErrMissingSecret             = errors.New("missing secret")
	ErrMissingAccountName        = errors.New("missing account name")
	ErrMissingIssuer             = errors.New("missing issuer")
	ErrFailedToGenerateQRCode    = errors.New("failed to generate enrollment QR code")

	ErrFailedToEncryptSecret         = errors.New("failed to encrypt TOTP secret")
	ErrFailedToDecryptSecret         = errors.New("failed to decrypt TOTP secret")
	ErrInvalidCipherTooShort         = errors.New("cipher text too short")
	ErrFailedToGenerateEncryptionKey = errors.New("failed to generate encryption key")
	ErrFailedToLoadEncryptionKey     = errors.New("failed to load encryption key")
	ErrInvalidEncryptionKeyLength    = errors.New("invalid encryption key length")
	ErrEncryptionKeyNotSet           = errors.New("TOTP encryption key not set")
	ErrKeyDerivationFailed           = errors.New("failed to derive TOTP secret key")
)

// storeError marks err as a store failure unless it already is one.
func storeError(err error) error {
	if err == nil || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return errors.Join(ErrStoreUnavailable, err)
}
