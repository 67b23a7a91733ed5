package totp_test

import (
	"net/url"
	"testing"

	"github.com/pquerna/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/totpauth/pkg/totp"
)

func TestEnrollmentURI(t *testing.T) {
	t.Parallel()

	uri, err := totp.EnrollmentURI(totp.URIParams{
		Secret:      "foobar",
		AccountName: "alice@example.com",
		Issuer:      "Acme",
	})
	require.NoError(t, err)
	assert.Equal(t,
		"otpauth://totp/Acme:alice@example.com?secret=MZXW6YTBOI&issuer=Acme&algorithm=SHA1&digits=6&period=30",
		uri,
	)
}

func TestEnrollmentURI_Escaping(t *testing.T) {
	t.Parallel()

	uri, err := totp.EnrollmentURI(totp.URIParams{
		Secret:      "abcdefghijklmnopqrst",
		AccountName: "bob smith",
		Issuer:      "Acme & Co",
		Algorithm:   totp.AlgorithmSHA256,
		Digits:      8,
		Period:      60,
	})
	require.NoError(t, err)

	u, err := url.Parse(uri)
	require.NoError(t, err)
	assert.Equal(t, "otpauth", u.Scheme)
	assert.Equal(t, "totp", u.Host)
	assert.Equal(t, "/Acme & Co:bob smith", u.Path)
	q := u.Query()
	assert.Equal(t, "Acme & Co", q.Get("issuer"))
	assert.Equal(t, "SHA256", q.Get("algorithm"))
	assert.Equal(t, "8", q.Get("digits"))
	assert.Equal(t, "60", q.Get("period"))

	secret, err := totp.DecodeBase32String(q.Get("secret"))
	require.NoError(t, err)
	assert.Equal(t, "abcdefghijklmnopqrst", secret)
}

func TestEnrollmentURI_ParsesAsKey(t *testing.T) {
	t.Parallel()

	uri, err := totp.EnrollmentURI(totp.URIParams{
		Secret:      "12345678901234567890",
		AccountName: "alice",
		Issuer:      "Acme",
		Algorithm:   totp.AlgorithmSHA512,
		Digits:      8,
	})
	require.NoError(t, err)

	key, err := otp.NewKeyFromURL(uri)
	require.NoError(t, err)
	assert.Equal(t, "totp", key.Type())
	assert.Equal(t, "Acme", key.Issuer())
	assert.Equal(t, "alice", key.AccountName())
	assert.Equal(t, otp.AlgorithmSHA512, key.Algorithm())
	assert.Equal(t, otp.DigitsEight, key.Digits())
	assert.Equal(t, uint64(30), key.Period())
}

func TestEnrollmentURI_Validation(t *testing.T) {
	t.Parallel()

	base := totp.URIParams{Secret: "s", AccountName: "a", Issuer: "i"}
	tests := []struct {
		name    string
		mutate  func(*totp.URIParams)
		wantErr error
	}{
		{name: "missing secret", mutate: func(p *totp.URIParams) { p.Secret = "" }, wantErr: totp.ErrMissingSecret},
		{name: "missing account", mutate: func(p *totp.URIParams) { p.AccountName = "" }, wantErr: totp.ErrMissingAccountName},
		{name: "missing issuer", mutate: func(p *totp.URIParams) { p.Issuer = "" }, wantErr: totp.ErrMissingIssuer},
		{name: "bad algorithm", mutate: func(p *totp.URIParams) { p.Algorithm = "MD5" }, wantErr: totp.ErrUnsupportedAlgorithm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := base
			tt.mutate(&p)
			_, err := totp.EnrollmentURI(p)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
