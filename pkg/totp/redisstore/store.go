// Package redisstore implements totp.Store on Redis with go-redis/v9.
//
// Each user has a hash {prefix}user:{id} with the fields secret, attempts and
// locked_until (Unix nanoseconds) and a sorted set {prefix}used:{id} whose
// members are consumed time steps scored by themselves. HSETNX makes
// enrollment unique, ZADD NX makes a time step single use and the counter
// updates run as Lua scripts so they only touch enrolled users.
package redisstore

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/totpauth/pkg/totp"
)

const (
	fieldSecret      = "secret"
	fieldAttempts    = "attempts"
	fieldLockedUntil = "locked_until"

	DefaultKeyPrefix = "totp:"
)

var (
	incrementScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], 'secret') == 0 then
	return -1
end
return redis.call('HINCRBY', KEYS[1], 'attempts', 1)
`)

	resetScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], 'secret') == 0 then
	return 0
end
redis.call('HSET', KEYS[1], 'attempts', 0)
redis.call('HDEL', KEYS[1], 'locked_until')
return 1
`)

	lockScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], 'secret') == 0 then
	return 0
end
redis.call('HSET', KEYS[1], 'locked_until', ARGV[1])
return 1
`)
)

// Store is a totp.Store backed by a Redis client, a cluster client or a ring.
type Store struct {
	client redis.UniversalClient
	prefix string
}

var _ totp.Store = (*Store)(nil)

// New returns a store writing keys under prefix; an empty prefix uses
// DefaultKeyPrefix.
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) userKey(user string) string { return s.prefix + "user:" + user }
func (s *Store) usedKey(user string) string { return s.prefix + "used:" + user }

func (s *Store) TryGetSecret(ctx context.Context, user string) (totp.UserState, bool, error) {
	fields, err := s.client.HGetAll(ctx, s.userKey(user)).Result()
	if err != nil {
		return totp.UserState{}, false, errors.Join(totp.ErrStoreUnavailable, err)
	}
	secret, ok := fields[fieldSecret]
	if !ok {
		return totp.UserState{}, false, nil
	}

	state := totp.UserState{SecretKey: secret}
	if v, ok := fields[fieldAttempts]; ok {
		if state.Attempts, err = strconv.Atoi(v); err != nil {
			return totp.UserState{}, false, errors.Join(totp.ErrStoreUnavailable, err)
		}
	}
	if v, ok := fields[fieldLockedUntil]; ok {
		nanos, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return totp.UserState{}, false, errors.Join(totp.ErrStoreUnavailable, err)
		}
		state.LockedUntil = time.Unix(0, nanos)
	}
	return state, true, nil
}

func (s *Store) CreateSecret(ctx context.Context, user, secret string) error {
	created, err := s.client.HSetNX(ctx, s.userKey(user), fieldSecret, secret).Result()
	if err != nil {
		return errors.Join(totp.ErrStoreUnavailable, err)
	}
	if !created {
		return totp.ErrAlreadyEnrolled
	}
	return nil
}

func (s *Store) CodeWasUsed(ctx context.Context, user string, interval int64) (bool, error) {
	err := s.client.ZScore(ctx, s.usedKey(user), strconv.FormatInt(interval, 10)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, errors.Join(totp.ErrStoreUnavailable, err)
	}
	return true, nil
}

func (s *Store) AddUsedCode(ctx context.Context, user string, interval int64) error {
	added, err := s.client.ZAddNX(ctx, s.usedKey(user), redis.Z{
		Score:  float64(interval),
		Member: strconv.FormatInt(interval, 10),
	}).Result()
	if err != nil {
		return errors.Join(totp.ErrStoreUnavailable, err)
	}
	if added == 0 {
		return totp.ErrCodeAlreadyUsed
	}
	return nil
}

func (s *Store) CleanupUsedCodes(ctx context.Context, user string, before int64) error {
	err := s.client.ZRemRangeByScore(ctx, s.usedKey(user), "-inf", "("+strconv.FormatInt(before, 10)).Err()
	if err != nil {
		return errors.Join(totp.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) IncrementAttempts(ctx context.Context, user string) (int, error) {
	n, err := incrementScript.Run(ctx, s.client, []string{s.userKey(user)}).Int()
	if err != nil {
		return 0, errors.Join(totp.ErrStoreUnavailable, err)
	}
	if n < 0 {
		return 0, totp.ErrNotEnrolled
	}
	return n, nil
}

func (s *Store) ResetAttempts(ctx context.Context, user string) error {
	return s.run(ctx, resetScript, user)
}

func (s *Store) LockAccount(ctx context.Context, user string, until time.Time) error {
	return s.run(ctx, lockScript, user, until.UnixNano())
}

func (s *Store) run(ctx context.Context, script *redis.Script, user string, args ...any) error {
	ok, err := script.Run(ctx, s.client, []string{s.userKey(user)}, args...).Int()
	if err != nil {
		return errors.Join(totp.ErrStoreUnavailable, err)
	}
	if ok == 0 {
		return totp.ErrNotEnrolled
	}
	return nil
}
