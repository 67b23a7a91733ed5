// Package qrcode renders otpauth enrollment URIs as QR codes using
// github.com/skip2/go-qrcode.
//
// Generate returns PNG bytes, DataURI wraps them for an HTML <img> tag and
// Terminal returns a Unicode rendering for command line tools. Empty content
// fails with ErrEmptyContent; encoder failures are joined with
// ErrFailedToGenerateQRCode.
package qrcode
