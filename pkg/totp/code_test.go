package totp_test

import (
	"testing"
	"time"

	"github.com/pquerna/otp"
	potp "github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/totpauth/pkg/totp"
)

const (
	rfcKeySHA1   = "12345678901234567890"
	rfcKeySHA256 = "12345678901234567890123456789012"
	rfcKeySHA512 = "1234567890123456789012345678901234567890123456789012345678901234"
)

var rfcIntervals = []int64{0x1, 0x23523EC, 0x23523ED, 0x273EF07, 0x3F940AA, 0x27BC86AA}

func TestComputeCode_RFC6238(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  string
		alg  totp.Algorithm
		want []string
	}{
		{
			name: "sha1",
			key:  rfcKeySHA1,
			alg:  totp.AlgorithmSHA1,
			want: []string{"94287082", "07081804", "14050471", "89005924", "69279037", "65353130"},
		},
		{
			name: "sha256",
			key:  rfcKeySHA256,
			alg:  totp.AlgorithmSHA256,
			want: []string{"46119246", "68084774", "67062674", "91819424", "90698825", "77737706"},
		},
		{
			name: "sha512",
			key:  rfcKeySHA512,
			alg:  totp.AlgorithmSHA512,
			want: []string{"90693936", "25091201", "99943326", "93441116", "38618901", "47863826"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			for i, interval := range rfcIntervals {
				assert.Equal(t, tt.want[i], totp.ComputeCode([]byte(tt.key), interval, tt.alg, 8), "interval %#x", interval)
			}
		})
	}
}

func TestComputeCode_Digits(t *testing.T) {
	t.Parallel()

	key := []byte(rfcKeySHA1)
	// 07081804 at 8 digits keeps its leading zero, shorter codes are suffixes.
	assert.Equal(t, "07081804", totp.ComputeCode(key, 0x23523EC, totp.AlgorithmSHA1, 8))
	assert.Equal(t, "7081804", totp.ComputeCode(key, 0x23523EC, totp.AlgorithmSHA1, 7))
	assert.Equal(t, "081804", totp.ComputeCode(key, 0x23523EC, totp.AlgorithmSHA1, 6))
	assert.Len(t, totp.ComputeCode(key, 1, totp.AlgorithmSHA1, 0), 1)
	assert.Len(t, totp.ComputeCode(key, 1, totp.AlgorithmSHA1, 12), 9)
}

func TestComputeCode_MatchesPquernaOTP(t *testing.T) {
	t.Parallel()

	algs := map[totp.Algorithm]otp.Algorithm{
		totp.AlgorithmSHA1:   otp.AlgorithmSHA1,
		totp.AlgorithmSHA256: otp.AlgorithmSHA256,
		totp.AlgorithmSHA512: otp.AlgorithmSHA512,
	}
	secret := "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"
	key, err := totp.DecodeBase32(secret)
	require.NoError(t, err)

	for alg, palg := range algs {
		for _, digits := range []int{6, 8} {
			for _, period := range []int{30, 60} {
				for _, ts := range []int64{0, 59, 1111111109, 1234567890, 2000000000} {
					at := time.Unix(ts, 0).UTC()
					want, err := potp.GenerateCodeCustom(secret, at, potp.ValidateOpts{
						Period:    uint(period),
						Digits:    otp.Digits(digits),
						Algorithm: palg,
					})
					require.NoError(t, err)
					got := totp.ComputeCode(key, totp.Interval(at, period), alg, digits)
					assert.Equal(t, want, got, "%s digits=%d period=%d t=%d", alg, digits, period, ts)
				}
			}
		}
	}
}

func TestInterval(t *testing.T) {
	t.Parallel()

	tests := []struct {
		at   time.Time
		want int64
	}{
		{at: time.Unix(59, 0), want: 0x1},
		{at: time.Date(2005, 3, 18, 1, 58, 29, 0, time.UTC), want: 0x23523EC},
		{at: time.Date(2005, 3, 18, 1, 58, 31, 0, time.UTC), want: 0x23523ED},
		{at: time.Date(2009, 2, 13, 23, 31, 30, 0, time.UTC), want: 0x273EF07},
		{at: time.Date(2033, 5, 18, 3, 33, 20, 0, time.UTC), want: 0x3F940AA},
		{at: time.Date(2603, 10, 11, 11, 33, 20, 0, time.UTC), want: 0x27BC86AA},
		// Truncation toward zero before the epoch.
		{at: time.Unix(-1, 0), want: 0},
		{at: time.Unix(-31, 0), want: -1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, totp.Interval(tt.at, 30), tt.at.String())
	}
	assert.Equal(t, int64(0), totp.Interval(time.Unix(59, 0), 60))
}
