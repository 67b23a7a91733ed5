package totp

import (
	"encoding/binary"
	"errors"
	"io"
	"strings"
)

// secretKeyAlphabet is the character set of generated secret keys. Secrets are
// never typed by users, the authenticator receives them base32 encoded.
const secretKeyAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ1234567890"

// GenerateSecretKey returns length characters drawn from secretKeyAlphabet
// using r, which must be a cryptographically secure source (crypto/rand.Reader).
//
// Each character is a 32-bit random value reduced modulo 62. Since 62 does not
// divide 2^32 the first 2^32 mod 62 = 4 characters are very slightly more
// likely (by about 1 in 2^26).
func GenerateSecretKey(r io.Reader, length int) (string, error) {
	if length < 1 {
		return "", ErrInvalidSecretLength
	}

	var (
		sb  strings.Builder
		buf [4]byte
	)
	sb.Grow(length)
	for range length {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return "", errors.Join(ErrFailedToGenerateSecretKey, err)
		}
		n := binary.LittleEndian.Uint32(buf[:])
		sb.WriteByte(secretKeyAlphabet[n%uint32(len(secretKeyAlphabet))])
	}
	return sb.String(), nil
}
