package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	ErrEmptyContent           = errors.New("content cannot be empty")
	ErrFailedToGenerateQRCode = errors.New("failed to generate QR code")
)

// DefaultSize is used when size is not positive.
const DefaultSize = 256

// Generate renders content as a PNG QR code of size x size pixels with medium
// error correction.
func Generate(content string, size int) ([]byte, error) {
	q, err := newCode(content)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = DefaultSize
	}
	png, err := q.PNG(size)
	if err != nil {
		return nil, errors.Join(ErrFailedToGenerateQRCode, err)
	}
	return png, nil
}

// DataURI returns Generate's PNG as a data:image/png;base64 URI, ready for an
// <img src> attribute.
func DataURI(content string, size int) (string, error) {
	png, err := Generate(content, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// Terminal renders content with Unicode half blocks for printing to a
// terminal. inverse swaps dark and light modules for dark backgrounds.
func Terminal(content string, inverse bool) (string, error) {
	q, err := newCode(content)
	if err != nil {
		return "", err
	}
	return q.ToSmallString(inverse), nil
}

func newCode(content string) (*skipqrcode.QRCode, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	q, err := skipqrcode.New(content, skipqrcode.Medium)
	if err != nil {
		return nil, errors.Join(ErrFailedToGenerateQRCode, err)
	}
	return q, nil
}
