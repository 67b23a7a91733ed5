package totp

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// URIParams describes an enrollment for authenticator apps.
type URIParams struct {
	Secret      string    // Raw secret key, base32 encoded into the URI (required)
	AccountName string    // User identity shown in the app (required)
	Issuer      string    // Service name shown in the app (required)
	Algorithm   Algorithm // Defaults to HmacSHA1
	Digits      int       // Defaults to 6
	Period      int       // Seconds, defaults to 30
}

// Validate checks the required fields and the algorithm. Zero Algorithm,
// Digits and Period are allowed and replaced by defaults.
func (p URIParams) Validate() error {
	if p.Secret == "" {
		return ErrMissingSecret
	}
	if p.AccountName == "" {
		return ErrMissingAccountName
	}
	if p.Issuer == "" {
		return ErrMissingIssuer
	}
	if p.Algorithm != "" && !p.Algorithm.Valid() {
		return ErrUnsupportedAlgorithm
	}
	return nil
}

func (p URIParams) withDefaults() URIParams {
	if p.Algorithm == "" {
		p.Algorithm = AlgorithmSHA1
	}
	if p.Digits == 0 {
		p.Digits = DefaultDigits
	}
	if p.Period == 0 {
		p.Period = DefaultPeriodSeconds
	}
	return p
}

// EnrollmentURI builds an otpauth:// URI following the Key Uri Format:
// https://github.com/google/google-authenticator/wiki/Key-Uri-Format
//
// Query parameters are emitted in a fixed order (secret, issuer, algorithm,
// digits, period) rather than url.Values' sorted order.
func EnrollmentURI(params URIParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}
	params = params.withDefaults()

	label := fmt.Sprintf("%s:%s",
		url.PathEscape(params.Issuer),
		url.PathEscape(params.AccountName),
	)

	var query strings.Builder
	query.WriteString("secret=")
	query.WriteString(EncodeBase32String(params.Secret, false))
	query.WriteString("&issuer=")
	query.WriteString(url.QueryEscape(params.Issuer))
	query.WriteString("&algorithm=")
	query.WriteString(params.Algorithm.URIName())
	query.WriteString("&digits=")
	query.WriteString(strconv.Itoa(params.Digits))
	query.WriteString("&period=")
	query.WriteString(strconv.Itoa(params.Period))

	return fmt.Sprintf("otpauth://totp/%s?%s", label, query.String()), nil
}
