package totp

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"strings"
)

// Algorithm is the HMAC hash function used to derive codes.
type Algorithm string

const (
	AlgorithmSHA1   Algorithm = "HmacSHA1"
	AlgorithmSHA256 Algorithm = "HmacSHA256"
	AlgorithmSHA512 Algorithm = "HmacSHA512"
)

// ParseAlgorithm accepts both the configuration names (HmacSHA256) and the
// Key URI names (SHA256), case-insensitively.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HMACSHA1", "SHA1":
		return AlgorithmSHA1, nil
	case "HMACSHA256", "SHA256":
		return AlgorithmSHA256, nil
	case "HMACSHA512", "SHA512":
		return AlgorithmSHA512, nil
	}
	return "", ErrUnsupportedAlgorithm
}

// Valid reports whether a is one of the supported algorithms.
func (a Algorithm) Valid() bool {
	switch a {
	case AlgorithmSHA1, AlgorithmSHA256, AlgorithmSHA512:
		return true
	}
	return false
}

// URIName returns the name authenticator apps expect in the otpauth URI.
func (a Algorithm) URIName() string {
	switch a {
	case AlgorithmSHA256:
		return "SHA256"
	case AlgorithmSHA512:
		return "SHA512"
	default:
		return "SHA1"
	}
}

// KeyLength is the secret length used when the configured length is 0.
// It matches the HMAC block output size of the hash.
func (a Algorithm) KeyLength() int {
	switch a {
	case AlgorithmSHA256:
		return 32
	case AlgorithmSHA512:
		return 64
	default:
		return 20
	}
}

func (a Algorithm) hash() func() hash.Hash {
	switch a {
	case AlgorithmSHA256:
		return sha256.New
	case AlgorithmSHA512:
		return sha512.New
	default:
		return sha1.New
	}
}

func (a Algorithm) String() string {
	return string(a)
}
