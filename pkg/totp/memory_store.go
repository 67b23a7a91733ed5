package totp

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store in process memory.
// State is lost on restart and not shared between processes; use it for tests,
// tooling and single-instance deployments.
type MemoryStore struct {
	mu    sync.Mutex
	users map[string]*UserState
	used  map[string]map[int64]struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*UserState),
		used:  make(map[string]map[int64]struct{}),
	}
}

// TryGetSecret returns a copy of the user's state.
func (m *MemoryStore) TryGetSecret(_ context.Context, user string) (UserState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.users[user]
	if !ok {
		return UserState{}, false, nil
	}
	return *state, true, nil
}

// CreateSecret stores secret, or returns ErrAlreadyEnrolled.
func (m *MemoryStore) CreateSecret(_ context.Context, user, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user]; ok {
		return ErrAlreadyEnrolled
	}
	m.users[user] = &UserState{SecretKey: secret}
	return nil
}

// CodeWasUsed reports whether interval is recorded for user.
func (m *MemoryStore) CodeWasUsed(_ context.Context, user string, interval int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user]; !ok {
		return false, ErrNotEnrolled
	}
	_, used := m.used[user][interval]
	return used, nil
}

// AddUsedCode records interval, or returns ErrCodeAlreadyUsed.
func (m *MemoryStore) AddUsedCode(_ context.Context, user string, interval int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user]; !ok {
		return ErrNotEnrolled
	}
	intervals, ok := m.used[user]
	if !ok {
		intervals = make(map[int64]struct{})
		m.used[user] = intervals
	}
	if _, dup := intervals[interval]; dup {
		return ErrCodeAlreadyUsed
	}
	intervals[interval] = struct{}{}
	return nil
}

// CleanupUsedCodes drops the user's intervals below before.
func (m *MemoryStore) CleanupUsedCodes(_ context.Context, user string, before int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user]; !ok {
		return ErrNotEnrolled
	}
	for interval := range m.used[user] {
		if interval < before {
			delete(m.used[user], interval)
		}
	}
	return nil
}

// IncrementAttempts adds a failed attempt and returns the new count.
func (m *MemoryStore) IncrementAttempts(_ context.Context, user string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.users[user]
	if !ok {
		return 0, ErrNotEnrolled
	}
	state.Attempts++
	return state.Attempts, nil
}

// ResetAttempts zeroes the counter and clears the lock.
func (m *MemoryStore) ResetAttempts(_ context.Context, user string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.users[user]
	if !ok {
		return ErrNotEnrolled
	}
	state.Attempts = 0
	state.LockedUntil = time.Time{}
	return nil
}

// LockAccount sets LockedUntil; the counter is left as is.
func (m *MemoryStore) LockAccount(_ context.Context, user string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.users[user]
	if !ok {
		return ErrNotEnrolled
	}
	state.LockedUntil = until
	return nil
}

// UsedIntervals returns the number of consumed intervals recorded for user.
func (m *MemoryStore) UsedIntervals(user string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.used[user])
}
