package totp

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/totpauth/pkg/logger"
	"github.com/dmitrymomot/totpauth/pkg/qrcode"
)

// Result is the outcome of a verification. It never says why a code failed.
type Result struct {
	Success  bool
	Attempts int
	Locked   bool
}

// Status describes the enrollment and lockout state of a user.
type Status struct {
	Enrolled bool
	Attempts int
	Locked   bool
}

// Enrollment is returned when a secret is created for a user.
type Enrollment struct {
	Secret string
	URI    string
	QRCode string // PNG data URI of URI
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithRandom replaces crypto/rand.Reader as the source for secret keys.
func WithRandom(r io.Reader) Option {
	return func(a *Authenticator) {
		if r != nil {
			a.random = r
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(a *Authenticator) {
		if l != nil {
			a.log = l
		}
	}
}

// WithQRCodeSize sets the enrollment QR image size in pixels.
func WithQRCodeSize(size int) Option {
	return func(a *Authenticator) {
		a.qrSize = size
	}
}

// Authenticator verifies TOTP codes against secrets, replay records and
// lockout state kept in a Store. It holds no per-user state and is safe for
// concurrent use.
type Authenticator struct {
	cfg    Config
	store  Store
	now    func() time.Time
	random io.Reader
	log    *slog.Logger
	qrSize int
}

// New validates cfg and returns an Authenticator backed by store.
func New(cfg Config, store Store, opts ...Option) (*Authenticator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, ErrStoreNotConfigured
	}

	a := &Authenticator{
		cfg:    cfg,
		store:  store,
		now:    time.Now,
		random: rand.Reader,
		log:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.With(logger.Component("totp"))
	return a, nil
}

// Config returns a copy of the configuration the Authenticator was built with.
func (a *Authenticator) Config() Config {
	return a.cfg
}

// Verify checks code for user.
//
// A user without a secret gets a zero Result and a nil error. A locked user is
// rejected without examining the code. Otherwise the intervals from
// c-PastIntervals to c+FutureIntervals are scanned in ascending order and the
// scan stops at the first interval that is either already used (failure) or
// whose code matches (success). Failures count towards the lockout.
//
// Any store error is returned joined with ErrStoreUnavailable and the Result
// is never successful.
func (a *Authenticator) Verify(ctx context.Context, user, code string) (Result, error) {
	if user == "" {
		return Result{}, ErrMissingUser
	}

	now := a.now()
	state, found, err := a.state(ctx, user, now)
	if err != nil {
		return Result{}, err
	}
	if !found {
		a.log.DebugContext(ctx, "verification for unenrolled user", logger.UserIdentity(user))
		return Result{}, nil
	}

	if state.LockedAt(now) {
		a.log.DebugContext(ctx, "verification rejected, account locked",
			logger.UserIdentity(user),
			logger.Attempts(state.Attempts),
		)
		return Result{Attempts: state.Attempts, Locked: true}, nil
	}

	matched, err := a.scan(ctx, user, []byte(state.SecretKey), strings.TrimSpace(code), now)
	if err != nil {
		return Result{}, err
	}
	if matched {
		return Result{Success: true}, nil
	}
	return a.fail(ctx, user, now)
}

// state loads the user and lazily clears an expired lock.
func (a *Authenticator) state(ctx context.Context, user string, now time.Time) (UserState, bool, error) {
	state, found, err := a.store.TryGetSecret(ctx, user)
	if err != nil {
		return UserState{}, false, storeError(err)
	}
	if !found {
		return UserState{}, false, nil
	}

	if !state.LockedUntil.IsZero() && !state.LockedAt(now) {
		if err := a.store.ResetAttempts(ctx, user); err != nil {
			return UserState{}, false, storeError(err)
		}
		a.log.InfoContext(ctx, "account lock expired", logger.UserIdentity(user))
		state.Attempts = 0
		state.LockedUntil = time.Time{}
	}
	return state, true, nil
}

func (a *Authenticator) scan(ctx context.Context, user string, key []byte, code string, now time.Time) (bool, error) {
	current := Interval(now, a.cfg.PeriodSeconds)
	from := current - int64(a.cfg.PastIntervals)
	to := current + int64(a.cfg.FutureIntervals)

	for interval := from; interval <= to; interval++ {
		used, err := a.store.CodeWasUsed(ctx, user, interval)
		if err != nil {
			return false, storeError(err)
		}
		if used {
			a.log.DebugContext(ctx, "code interval already used", logger.UserIdentity(user), logger.Interval(interval))
			return false, nil
		}

		if !constantTimeEqual(ComputeCode(key, interval, a.cfg.Algorithm, a.cfg.Digits), code) {
			continue
		}

		if err := a.store.AddUsedCode(ctx, user, interval); err != nil {
			if errors.Is(err, ErrCodeAlreadyUsed) {
				a.log.DebugContext(ctx, "code interval consumed concurrently", logger.UserIdentity(user), logger.Interval(interval))
				return false, nil
			}
			return false, storeError(err)
		}
		if err := a.store.CleanupUsedCodes(ctx, user, from-1); err != nil {
			return false, storeError(err)
		}
		if err := a.store.ResetAttempts(ctx, user); err != nil {
			return false, storeError(err)
		}
		a.log.InfoContext(ctx, "code verified", logger.UserIdentity(user), logger.Interval(interval))
		return true, nil
	}
	return false, nil
}

func (a *Authenticator) fail(ctx context.Context, user string, now time.Time) (Result, error) {
	attempts, err := a.store.IncrementAttempts(ctx, user)
	if err != nil {
		return Result{}, storeError(err)
	}

	if !a.cfg.LockoutEnabled() || attempts < a.cfg.MaxAttempts {
		a.log.DebugContext(ctx, "code rejected", logger.UserIdentity(user), logger.Attempts(attempts))
		return Result{Attempts: attempts}, nil
	}

	until := now.Add(a.cfg.LockoutDuration())
	if err := a.store.LockAccount(ctx, user, until); err != nil {
		return Result{}, storeError(err)
	}
	a.log.WarnContext(ctx, "account locked",
		logger.UserIdentity(user),
		logger.Attempts(attempts),
		slog.Time("locked_until", until),
	)
	return Result{Attempts: attempts, Locked: true}, nil
}

// Status reports whether user is enrolled and locked. Reading the status
// clears an expired lock the same way Verify does.
func (a *Authenticator) Status(ctx context.Context, user string) (Status, error) {
	if user == "" {
		return Status{}, ErrMissingUser
	}
	now := a.now()
	state, found, err := a.state(ctx, user, now)
	if err != nil || !found {
		return Status{}, err
	}
	return Status{
		Enrolled: true,
		Attempts: state.Attempts,
		Locked:   state.LockedAt(now),
	}, nil
}

// IsAvailable reports whether TOTP can be offered to user right now: either
// the user is not enrolled yet, or enrolled and not locked.
func (a *Authenticator) IsAvailable(ctx context.Context, user string) (bool, error) {
	st, err := a.Status(ctx, user)
	if err != nil {
		return false, err
	}
	return !st.Locked, nil
}

// CreateSecret generates a secret of the configured length and stores it for
// user. It returns ErrAlreadyEnrolled if the user already has one.
func (a *Authenticator) CreateSecret(ctx context.Context, user string) (string, error) {
	if user == "" {
		return "", ErrMissingUser
	}
	secret, err := GenerateSecretKey(a.random, a.cfg.EffectiveSecretKeyLength())
	if err != nil {
		return "", err
	}
	if err := a.store.CreateSecret(ctx, user, secret); err != nil {
		if errors.Is(err, ErrAlreadyEnrolled) {
			return "", ErrAlreadyEnrolled
		}
		return "", storeError(err)
	}
	a.log.InfoContext(ctx, "secret created", logger.UserIdentity(user))
	return secret, nil
}

// Enroll creates a secret for user and returns it with the otpauth URI and a
// QR code image of that URI.
func (a *Authenticator) Enroll(ctx context.Context, user string) (Enrollment, error) {
	secret, err := a.CreateSecret(ctx, user)
	if err != nil {
		return Enrollment{}, err
	}
	return a.enrollment(user, secret)
}

func (a *Authenticator) enrollment(user, secret string) (Enrollment, error) {
	uri, err := EnrollmentURI(URIParams{
		Secret:      secret,
		AccountName: user,
		Issuer:      a.cfg.Issuer,
		Algorithm:   a.cfg.Algorithm,
		Digits:      a.cfg.Digits,
		Period:      a.cfg.PeriodSeconds,
	})
	if err != nil {
		return Enrollment{}, err
	}
	img, err := qrcode.DataURI(uri, a.qrSize)
	if err != nil {
		return Enrollment{}, errors.Join(ErrFailedToGenerateQRCode, err)
	}
	return Enrollment{Secret: secret, URI: uri, QRCode: img}, nil
}

// Begin starts an authentication for user. An enrolled user gets its status
// and a nil Enrollment. A user without a secret is enrolled on the spot, so the
// caller can show the QR code before asking for the first code.
func (a *Authenticator) Begin(ctx context.Context, user string) (Status, *Enrollment, error) {
	st, err := a.Status(ctx, user)
	if err != nil {
		return Status{}, nil, err
	}
	if st.Enrolled {
		return st, nil, nil
	}

	enrollment, err := a.Enroll(ctx, user)
	if errors.Is(err, ErrAlreadyEnrolled) {
		// Lost a race with a concurrent enrollment.
		st, err = a.Status(ctx, user)
		return st, nil, err
	}
	if err != nil {
		return Status{}, nil, err
	}
	return Status{Enrolled: true}, &enrollment, nil
}

// Code returns the code for secret at t using the configured algorithm,
// digits and period.
func (a *Authenticator) Code(secret string, t time.Time) string {
	return ComputeCode([]byte(secret), Interval(t, a.cfg.PeriodSeconds), a.cfg.Algorithm, a.cfg.Digits)
}
