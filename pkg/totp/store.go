package totp

import (
	"context"
	"time"
)

// UserState is the persisted TOTP record of one user identity.
type UserState struct {
	SecretKey   string
	Attempts    int
	LockedUntil time.Time // zero when the account is not locked
}

// LockedAt reports whether the lock is still in force at now. A lock whose
// LockedUntil is at or before now has expired.
func (s UserState) LockedAt(now time.Time) bool {
	return !s.LockedUntil.IsZero() && s.LockedUntil.After(now)
}

// Store persists secrets, failed attempts, locks and consumed code intervals.
//
// It is the single source of truth for attempt counters and locks, so several
// Authenticator instances may share one store. Implementations must make
// IncrementAttempts atomic and AddUsedCode unique per (user, interval).
type Store interface {
	// TryGetSecret returns the user's state and false when the user has no secret.
	TryGetSecret(ctx context.Context, user string) (UserState, bool, error)

	// CreateSecret stores the secret with zero attempts. It returns
	// ErrAlreadyEnrolled when the user already has one.
	CreateSecret(ctx context.Context, user, secret string) error

	// CodeWasUsed reports whether interval was already consumed by the user.
	CodeWasUsed(ctx context.Context, user string, interval int64) (bool, error)

	// AddUsedCode records interval as consumed. It returns ErrCodeAlreadyUsed
	// when the pair is already recorded.
	AddUsedCode(ctx context.Context, user string, interval int64) error

	// CleanupUsedCodes removes the user's records with interval < before.
	CleanupUsedCodes(ctx context.Context, user string, before int64) error

	// IncrementAttempts adds one failed attempt and returns the new count.
	IncrementAttempts(ctx context.Context, user string) (int, error)

	// ResetAttempts sets attempts to zero and clears any lock.
	ResetAttempts(ctx context.Context, user string) error

	// LockAccount locks the user until the given time.
	LockAccount(ctx context.Context, user string, until time.Time) error
}
