package totp

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrymomot/totpauth/pkg/config"
)

const (
	DefaultDigits          = 6
	DefaultPeriodSeconds   = 30
	DefaultLockoutDuration = 30 * time.Minute
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config holds the engine settings. It is a plain value: New copies it, so a
// running Authenticator never observes later changes made by the caller.
type Config struct {
	Issuer                 string    `env:"TOTP_ISSUER" envDefault:"totpauth" validate:"required"`                                // Issuer shown by authenticator apps.
	Algorithm              Algorithm `env:"TOTP_ALGORITHM" envDefault:"HmacSHA1" validate:"oneof=HmacSHA1 HmacSHA256 HmacSHA512"` // HMAC hash.
	Digits                 int       `env:"TOTP_DIGITS" envDefault:"6" validate:"gte=6,lte=8"`                                   // Code length.
	PeriodSeconds          int       `env:"TOTP_PERIOD_SECONDS" envDefault:"30" validate:"gte=30"`                               // Validity period of one code.
	FutureIntervals        int       `env:"TOTP_FUTURE_INTERVALS" envDefault:"1" validate:"gte=0"`                               // Intervals a client clock may run ahead.
	PastIntervals          int       `env:"TOTP_PAST_INTERVALS" envDefault:"1" validate:"gte=0"`                                 // Intervals a client clock may lag behind.
	SecretKeyLength        int       `env:"TOTP_SECRET_KEY_LENGTH" envDefault:"0" validate:"eq=0|gte=16"`                        // 0 derives the length from Algorithm.
	MaxAttempts            int       `env:"TOTP_MAX_ATTEMPTS" envDefault:"0" validate:"gte=0"`                                   // 0 disables lockout.
	LockoutDurationSeconds int       `env:"TOTP_LOCKOUT_DURATION_SECONDS" envDefault:"1800" validate:"required_unless=MaxAttempts 0,gte=0"`
}

// DefaultConfig returns RFC 6238 defaults: SHA1, 6 digits, 30 seconds, one
// interval of skew each way, lockout disabled.
func DefaultConfig() Config {
	return Config{
		Issuer:                 "totpauth",
		Algorithm:              AlgorithmSHA1,
		Digits:                 DefaultDigits,
		PeriodSeconds:          DefaultPeriodSeconds,
		FutureIntervals:        1,
		PastIntervals:          1,
		LockoutDurationSeconds: int(DefaultLockoutDuration / time.Second),
	}
}

// LoadConfig reads Config from the environment (and .env) and validates it.
func LoadConfig() (Config, error) {
	cfg, err := config.Load[Config]()
	if err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every out-of-range field joined with ErrInvalidConfig.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}
	return nil
}

// LockoutEnabled reports whether failed attempts can lock an account.
func (c Config) LockoutEnabled() bool {
	return c.MaxAttempts > 0
}

// LockoutDuration is LockoutDurationSeconds as a time.Duration.
func (c Config) LockoutDuration() time.Duration {
	return time.Duration(c.LockoutDurationSeconds) * time.Second
}

// Period is the validity of one code as a time.Duration.
func (c Config) Period() time.Duration {
	return time.Duration(c.PeriodSeconds) * time.Second
}

// EffectiveSecretKeyLength is SecretKeyLength, or the algorithm's natural key
// length when SecretKeyLength is 0.
func (c Config) EffectiveSecretKeyLength() int {
	if c.SecretKeyLength == 0 {
		return c.Algorithm.KeyLength()
	}
	return c.SecretKeyLength
}
