package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"flag"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/totpauth/pkg/config"
	"github.com/dmitrymomot/totpauth/pkg/logger"
	"github.com/dmitrymomot/totpauth/pkg/totp"
)

func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestKeygen(t *testing.T) {
	out, _, err := runCmd(t, "keygen")
	require.NoError(t, err)

	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Len(t, key, totp.AESKeySize)
}

func TestSecret(t *testing.T) {
	out, _, err := runCmd(t, "secret", "-length", "32")
	require.NoError(t, err)
	assert.Len(t, strings.TrimSpace(out), 32)

	_, _, err = runCmd(t, "secret", "-length", "0")
	assert.ErrorIs(t, err, totp.ErrInvalidSecretLength)
}

func TestCode(t *testing.T) {
	t.Setenv("TOTP_DIGITS", "8")

	out, _, err := runCmd(t, "code", "-secret", "12345678901234567890", "-at", "1970-01-01T00:00:59Z")
	require.NoError(t, err)
	assert.Equal(t, "94287082\n", out)

	b32 := totp.EncodeBase32String("12345678901234567890", false)
	out, _, err = runCmd(t, "code", "-secret", b32, "-base32", "-at", "2005-03-18T01:58:29Z")
	require.NoError(t, err)
	assert.Equal(t, "07081804\n", out)

	_, _, err = runCmd(t, "code")
	assert.ErrorIs(t, err, totp.ErrMissingSecret)

	_, _, err = runCmd(t, "code", "-secret", "x", "-at", "yesterday")
	assert.Error(t, err)
}

func TestEnrollStatusVerify_MemoryStore(t *testing.T) {
	t.Setenv("TOTP_STORE", "memory")
	t.Setenv("APP_ENV", "development")
	t.Setenv("LOG_FORMAT", "text")

	out, logs, err := runCmd(t, "enroll", "-user", "alice", "-qr")
	require.NoError(t, err)
	assert.Contains(t, out, "uri:    otpauth://totp/totpauth:alice?secret=")
	assert.Greater(t, strings.Count(out, "\n"), 10)
	assert.Contains(t, logs, "msg=\"secret created\"")
	assert.Contains(t, logs, "event=enroll")

	// Every invocation opens a fresh memory store.
	out, _, err = runCmd(t, "status", "-user", "alice")
	require.NoError(t, err)
	assert.Equal(t, "enrolled=false attempts=0 locked=false\n", out)

	out, _, err = runCmd(t, "verify", "-user", "alice", "-code", "123456")
	assert.ErrorIs(t, err, errVerificationFailed)
	assert.Equal(t, "success=false attempts=0 locked=false\n", out)

	_, _, err = runCmd(t, "enroll")
	assert.ErrorIs(t, err, totp.ErrMissingUser)
}

func TestUsage(t *testing.T) {
	_, stderr, err := runCmd(t)
	assert.ErrorIs(t, err, flag.ErrHelp)
	assert.Contains(t, stderr, "usage: totpctl")

	_, stderr, err = runCmd(t, "frobnicate")
	assert.ErrorIs(t, err, flag.ErrHelp)
	assert.Contains(t, stderr, `unknown command "frobnicate"`)

	out, _, err := runCmd(t, "help")
	require.NoError(t, err)
	assert.Contains(t, out, "commands:")
}

func TestInvalidLoggerConfig(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{name: "level", key: "LOG_LEVEL", value: "verbose"},
		{name: "format", key: "LOG_FORMAT", value: "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TOTP_STORE", "memory")
			t.Setenv(tt.key, tt.value)

			var err error
			require.NotPanics(t, func() {
				_, _, err = runCmd(t, "status", "-user", "alice")
			})
			assert.ErrorIs(t, err, config.ErrParsingConfig)
			assert.ErrorIs(t, err, logger.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.value)
		})
	}
}

func TestInvalidStore(t *testing.T) {
	t.Setenv("TOTP_STORE", "etcd")

	_, _, err := runCmd(t, "status", "-user", "alice")
	assert.Error(t, err)
}
