// Package storetest checks a totp.Store implementation against the contract
// the Authenticator relies on.
package storetest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/totpauth/pkg/totp"
)

// IntegrationEnv enables tests that start database containers.
const IntegrationEnv = "TOTP_INTEGRATION"

// RequireIntegration skips t unless IntegrationEnv is set to 1.
func RequireIntegration(t *testing.T) {
	t.Helper()
	if testing.Short() || os.Getenv(IntegrationEnv) != "1" {
		t.Skipf("set %s=1 to run tests against real databases", IntegrationEnv)
	}
}

// Run executes the contract tests. Every subtest uses its own user identities,
// so newStore may return stores sharing one database.
func Run(t *testing.T, newStore func(t *testing.T) totp.Store) {
	t.Helper()

	t.Run("secrets", func(t *testing.T) { testSecrets(t, newStore(t)) })
	t.Run("attempts and locks", func(t *testing.T) { testAttempts(t, newStore(t)) })
	t.Run("used codes", func(t *testing.T) { testUsedCodes(t, newStore(t)) })
	t.Run("unknown user", func(t *testing.T) { testUnknownUser(t, newStore(t)) })
	t.Run("concurrent increments", func(t *testing.T) { testConcurrentIncrements(t, newStore(t)) })
	t.Run("concurrent used code", func(t *testing.T) { testConcurrentUsedCode(t, newStore(t)) })
	t.Run("authenticator", func(t *testing.T) { testAuthenticator(t, newStore(t)) })
}

func user(t *testing.T, name string) string {
	return strings.ReplaceAll(t.Name(), "/", ".") + "." + name + "." + fmt.Sprint(time.Now().UnixNano())
}

func testSecrets(t *testing.T, s totp.Store) {
	ctx := context.Background()
	alice := user(t, "alice")

	_, found, err := s.TryGetSecret(ctx, alice)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.CreateSecret(ctx, alice, "s3cr3t"))
	assert.ErrorIs(t, s.CreateSecret(ctx, alice, "other"), totp.ErrAlreadyEnrolled)

	state, found, err := s.TryGetSecret(ctx, alice)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "s3cr3t", state.SecretKey)
	assert.Zero(t, state.Attempts)
	assert.True(t, state.LockedUntil.IsZero())
}

func testAttempts(t *testing.T, s totp.Store) {
	ctx := context.Background()
	alice := user(t, "alice")
	require.NoError(t, s.CreateSecret(ctx, alice, "s3cr3t"))

	for want := 1; want <= 3; want++ {
		n, err := s.IncrementAttempts(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	until := time.Now().Add(time.Hour).Truncate(time.Millisecond)
	require.NoError(t, s.LockAccount(ctx, alice, until))

	state, _, err := s.TryGetSecret(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 3, state.Attempts)
	assert.True(t, until.Equal(state.LockedUntil), "locked until %s, got %s", until, state.LockedUntil)

	require.NoError(t, s.ResetAttempts(ctx, alice))
	state, _, err = s.TryGetSecret(ctx, alice)
	require.NoError(t, err)
	assert.Zero(t, state.Attempts)
	assert.True(t, state.LockedUntil.IsZero())
}

func testUsedCodes(t *testing.T, s totp.Store) {
	ctx := context.Background()
	alice, bob := user(t, "alice"), user(t, "bob")
	require.NoError(t, s.CreateSecret(ctx, alice, "s3cr3t"))
	require.NoError(t, s.CreateSecret(ctx, bob, "s3cr3t"))

	for _, interval := range []int64{56666666, 56666667, 56666668} {
		require.NoError(t, s.AddUsedCode(ctx, alice, interval))
	}
	assert.ErrorIs(t, s.AddUsedCode(ctx, alice, 56666667), totp.ErrCodeAlreadyUsed)

	used, err := s.CodeWasUsed(ctx, bob, 56666667)
	require.NoError(t, err)
	assert.False(t, used)
	require.NoError(t, s.AddUsedCode(ctx, bob, 56666667))

	require.NoError(t, s.CleanupUsedCodes(ctx, alice, 56666668))
	for interval, want := range map[int64]bool{56666666: false, 56666667: false, 56666668: true} {
		used, err := s.CodeWasUsed(ctx, alice, interval)
		require.NoError(t, err)
		assert.Equal(t, want, used, "interval %d", interval)
	}

	used, err = s.CodeWasUsed(ctx, bob, 56666667)
	require.NoError(t, err)
	assert.True(t, used, "cleanup is per user")
}

func testUnknownUser(t *testing.T, s totp.Store) {
	ctx := context.Background()
	ghost := user(t, "ghost")

	_, err := s.IncrementAttempts(ctx, ghost)
	assert.ErrorIs(t, err, totp.ErrNotEnrolled)
	assert.ErrorIs(t, s.ResetAttempts(ctx, ghost), totp.ErrNotEnrolled)
	assert.ErrorIs(t, s.LockAccount(ctx, ghost, time.Now()), totp.ErrNotEnrolled)
}

func testConcurrentIncrements(t *testing.T, s totp.Store) {
	ctx := context.Background()
	alice := user(t, "alice")
	require.NoError(t, s.CreateSecret(ctx, alice, "s3cr3t"))

	const workers = 20
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.IncrementAttempts(ctx, alice)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	state, _, err := s.TryGetSecret(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, workers, state.Attempts)
}

func testConcurrentUsedCode(t *testing.T, s totp.Store) {
	ctx := context.Background()
	alice := user(t, "alice")
	require.NoError(t, s.CreateSecret(ctx, alice, "s3cr3t"))

	const workers = 10
	var (
		wg       sync.WaitGroup
		accepted atomic.Int32
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.AddUsedCode(ctx, alice, 42)
			if err == nil {
				accepted.Add(1)
				return
			}
			assert.ErrorIs(t, err, totp.ErrCodeAlreadyUsed)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), accepted.Load())
}

func testAuthenticator(t *testing.T, s totp.Store) {
	ctx := context.Background()
	alice := user(t, "alice")

	cfg := totp.DefaultConfig()
	cfg.MaxAttempts = 3
	cfg.LockoutDurationSeconds = 60
	now := time.Now()
	auth, err := totp.New(cfg, s, totp.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	secret, err := auth.CreateSecret(ctx, alice)
	require.NoError(t, err)

	code := auth.Code(secret, now)
	res, err := auth.Verify(ctx, alice, code)
	require.NoError(t, err)
	assert.True(t, res.Success)

	res, err = auth.Verify(ctx, alice, code)
	require.NoError(t, err)
	assert.Equal(t, totp.Result{Attempts: 1}, res)

	for range 2 {
		res, err = auth.Verify(ctx, alice, "bad")
		require.NoError(t, err)
	}
	assert.Equal(t, totp.Result{Attempts: 3, Locked: true}, res)
}
