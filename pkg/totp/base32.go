package totp

import (
	"encoding/base32"
	"fmt"
	"strings"
)

const base32Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// EncodeBase32 encodes b with the RFC 4648 alphabet. A trailing partial group
// is zero-padded on the right; with padding the output is '=' padded to a
// multiple of 8 characters.
func EncodeBase32(b []byte, padding bool) string {
	if len(b) == 0 {
		return ""
	}
	if padding {
		return base32.StdEncoding.EncodeToString(b)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b)
}

// DecodeBase32 is the lenient inverse of EncodeBase32: trailing '=' are
// stripped, the input is upper-cased and any bits that do not fill a whole
// byte are discarded. Characters outside the alphabet yield ErrInvalidCharacter.
//
// encoding/base32 rejects inputs whose length is not a valid quantum, which
// authenticator exports and hand-typed secrets regularly violate.
func DecodeBase32(s string) ([]byte, error) {
	s = strings.ToUpper(strings.TrimRight(s, "="))
	if s == "" {
		return []byte{}, nil
	}

	out := make([]byte, 0, len(s)*5/8)
	var (
		buf  uint32
		bits uint
	)
	for i := 0; i < len(s); i++ {
		v := strings.IndexByte(base32Alphabet, s[i])
		if v < 0 {
			return nil, fmt.Errorf("%w: %q at position %d", ErrInvalidCharacter, s[i], i)
		}
		buf = buf<<5 | uint32(v)
		bits += 5
		if bits >= 8 {
			bits -= 8
			out = append(out, byte(buf>>bits))
			buf &= 1<<bits - 1
		}
	}
	return out, nil
}

// EncodeBase32String encodes the UTF-8 bytes of s.
func EncodeBase32String(s string, padding bool) string {
	return EncodeBase32([]byte(s), padding)
}

// DecodeBase32String decodes s and returns the result as a string.
func DecodeBase32String(s string) (string, error) {
	b, err := DecodeBase32(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
