// Package pgstore implements totp.Store on PostgreSQL with pgx/v5.
//
// Secrets, attempt counters and locks live in totp_secrets; consumed time
// steps live in totp_used_codes whose primary key enforces one record per
// (user, step). Attempts are incremented with a single UPDATE ... RETURNING so
// concurrent failures never lose a count.
package pgstore

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/totpauth/pkg/pg"
	"github.com/dmitrymomot/totpauth/pkg/totp"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the goose migrations creating the store's tables.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// DB is the subset of *pgxpool.Pool the store uses. A pgx.Tx satisfies it too.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ DB = (*pgxpool.Pool)(nil)

// Store is a totp.Store backed by the tables created by Migrations.
type Store struct {
	db DB
}

var _ totp.Store = (*Store)(nil)

// New returns a store using db. The schema must already be migrated, see
// pg.Migrate and Migrations.
func New(db DB) *Store {
	return &Store{db: db}
}

const (
	selectSecretQuery = `SELECT secret, attempts, locked_until FROM totp_secrets WHERE user_identity = $1`
	insertSecretQuery = `INSERT INTO totp_secrets (user_identity, secret) VALUES ($1, $2)`
	codeUsedQuery     = `SELECT EXISTS (SELECT 1 FROM totp_used_codes WHERE user_identity = $1 AND time_step = $2)`
	insertUsedQuery   = `INSERT INTO totp_used_codes (user_identity, time_step) VALUES ($1, $2)`
	cleanupUsedQuery  = `DELETE FROM totp_used_codes WHERE user_identity = $1 AND time_step < $2`
	incrementQuery    = `UPDATE totp_secrets SET attempts = attempts + 1 WHERE user_identity = $1 RETURNING attempts`
	resetQuery        = `UPDATE totp_secrets SET attempts = 0, locked_until = NULL WHERE user_identity = $1`
	lockQuery         = `UPDATE totp_secrets SET locked_until = $2 WHERE user_identity = $1`
)

func (s *Store) TryGetSecret(ctx context.Context, user string) (totp.UserState, bool, error) {
	var (
		state       totp.UserState
		lockedUntil *time.Time
	)
	err := s.db.QueryRow(ctx, selectSecretQuery, user).Scan(&state.SecretKey, &state.Attempts, &lockedUntil)
	if pg.IsNotFoundError(err) {
		return totp.UserState{}, false, nil
	}
	if err != nil {
		return totp.UserState{}, false, errors.Join(totp.ErrStoreUnavailable, err)
	}
	if lockedUntil != nil {
		state.LockedUntil = *lockedUntil
	}
	return state, true, nil
}

func (s *Store) CreateSecret(ctx context.Context, user, secret string) error {
	if _, err := s.db.Exec(ctx, insertSecretQuery, user, secret); err != nil {
		if pg.IsDuplicateKeyError(err) {
			return totp.ErrAlreadyEnrolled
		}
		return errors.Join(totp.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) CodeWasUsed(ctx context.Context, user string, interval int64) (bool, error) {
	var used bool
	if err := s.db.QueryRow(ctx, codeUsedQuery, user, interval).Scan(&used); err != nil {
		return false, errors.Join(totp.ErrStoreUnavailable, err)
	}
	return used, nil
}

func (s *Store) AddUsedCode(ctx context.Context, user string, interval int64) error {
	if _, err := s.db.Exec(ctx, insertUsedQuery, user, interval); err != nil {
		if pg.IsDuplicateKeyError(err) {
			return totp.ErrCodeAlreadyUsed
		}
		if pg.IsForeignKeyViolationError(err) {
			return totp.ErrNotEnrolled
		}
		return errors.Join(totp.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) CleanupUsedCodes(ctx context.Context, user string, before int64) error {
	if _, err := s.db.Exec(ctx, cleanupUsedQuery, user, before); err != nil {
		return errors.Join(totp.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) IncrementAttempts(ctx context.Context, user string) (int, error) {
	var attempts int
	err := s.db.QueryRow(ctx, incrementQuery, user).Scan(&attempts)
	if pg.IsNotFoundError(err) {
		return 0, totp.ErrNotEnrolled
	}
	if err != nil {
		return 0, errors.Join(totp.ErrStoreUnavailable, err)
	}
	return attempts, nil
}

func (s *Store) ResetAttempts(ctx context.Context, user string) error {
	return s.update(ctx, resetQuery, user)
}

func (s *Store) LockAccount(ctx context.Context, user string, until time.Time) error {
	return s.update(ctx, lockQuery, user, until)
}

func (s *Store) update(ctx context.Context, query string, args ...any) error {
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return errors.Join(totp.ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return totp.ErrNotEnrolled
	}
	return nil
}

