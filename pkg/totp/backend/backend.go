// Package backend opens the totp.Store selected by configuration.
//
// TOTP_STORE names one of the registered backends: memory, postgres, redis or
// mongo. Selection is a map lookup on that name; additional backends can be
// added with Register. When TOTP_ENCRYPTION_KEY is set the opened store is
// wrapped in a totp.EncryptedStore.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrymomot/totpauth/pkg/config"
	"github.com/dmitrymomot/totpauth/pkg/logger"
	"github.com/dmitrymomot/totpauth/pkg/mongo"
	"github.com/dmitrymomot/totpauth/pkg/pg"
	"github.com/dmitrymomot/totpauth/pkg/redis"
	"github.com/dmitrymomot/totpauth/pkg/totp"
)

const (
	Memory   = "memory"
	Postgres = "postgres"
	Redis    = "redis"
	Mongo    = "mongo"
)

var (
	ErrUnknownStore  = errors.New("unknown TOTP store")
	ErrInvalidConfig = errors.New("invalid TOTP store configuration")
)

type Config struct {
	Store string `env:"TOTP_STORE" envDefault:"memory" validate:"required"`
	// EncryptionKey is a base64 AES-256 key. Empty stores secrets as is.
	EncryptionKey string `env:"TOTP_ENCRYPTION_KEY"`
	// Migrate applies postgres migrations and mongo indexes on open.
	Migrate bool `env:"TOTP_MIGRATE" envDefault:"true"`

	Postgres pg.Config
	Redis    redis.Config
	Mongo    mongo.Config
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	cfg, err := config.Load[Config]()
	if err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Backend is an opened store together with its connection lifecycle.
type Backend struct {
	Name  string
	Store totp.Store

	healthcheck func(context.Context) error
	close       func() error
}

// Healthcheck pings the underlying database. The memory backend is always healthy.
func (b *Backend) Healthcheck(ctx context.Context) error {
	if b.healthcheck == nil {
		return nil
	}
	return b.healthcheck(ctx)
}

// Close releases the connection. It is safe to call on a nil Backend.
func (b *Backend) Close() error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close()
}

// Opener connects one kind of backend.
type Opener func(ctx context.Context, cfg Config, log *slog.Logger) (*Backend, error)

var (
	mu       sync.RWMutex
	registry = map[string]Opener{
		Memory:   openMemory,
		Postgres: openPostgres,
		Redis:    openRedis,
		Mongo:    openMongo,
	}
)

// Register adds or replaces the opener for name.
func Register(name string, open Opener) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = open
}

// Names lists the registered backends in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Open connects the backend named by cfg.Store.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (*Backend, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	mu.RLock()
	open, ok := registry[cfg.Store]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownStore, cfg.Store, Names())
	}

	log = log.With(logger.Component("totp_backend"), logger.Backend(cfg.Store))
	b, err := open(ctx, cfg, log)
	if err != nil {
		log.ErrorContext(ctx, "failed to open store", logger.Error(err))
		return nil, errors.Join(totp.ErrStoreUnavailable, err)
	}
	b.Name = cfg.Store

	if cfg.EncryptionKey != "" {
		key, err := totp.ParseEncryptionKey(cfg.EncryptionKey)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		if b.Store, err = totp.NewEncryptedStore(b.Store, key); err != nil {
			_ = b.Close()
			return nil, err
		}
	}

	log.InfoContext(ctx, "store opened", slog.Bool("encrypted", cfg.EncryptionKey != ""))
	return b, nil
}
