package totp

import (
	"crypto/hmac"
	"encoding/binary"
	"fmt"
	"time"
)

var pow10 = [...]uint32{1, 10, 100, 1000, 10000, 100000, 1000000, 10000000, 100000000, 1000000000}

// Interval returns the time step containing t for the given period in seconds.
// The division truncates toward zero, so for times before the Unix epoch the
// result is one step above the floor (Interval(time.Unix(-1, 0), 30) is 0).
func Interval(t time.Time, period int) int64 {
	return t.Unix() / int64(period)
}

// ComputeCode implements RFC 4226 HOTP over the given interval, which is the
// RFC 6238 TOTP value when interval is a time step.
// Digits outside 1..9 are clamped to that range.
func ComputeCode(key []byte, interval int64, alg Algorithm, digits int) string {
	digits = min(max(digits, 1), len(pow10)-1)

	var counter [8]byte
	binary.BigEndian.PutUint64(counter[:], uint64(interval))

	mac := hmac.New(alg.hash(), key)
	mac.Write(counter[:])
	sum := mac.Sum(nil)

	// Dynamic truncation: the low nibble of the last byte selects four bytes,
	// the top bit is masked off to keep the value a positive 31-bit integer.
	offset := sum[len(sum)-1] & 0x0f
	code := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	return fmt.Sprintf("%0*d", digits, code%pow10[digits])
}

// constantTimeEqual compares two codes touching every byte of the shorter
// input, so the running time does not depend on where they differ.
func constantTimeEqual(a, b string) bool {
	diff := uint32(len(a) ^ len(b))
	for i := 0; i < len(a) && i < len(b); i++ {
		diff |= uint32(a[i] ^ b[i])
	}
	return diff == 0
}
