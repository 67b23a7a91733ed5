package backend_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/totpauth/pkg/pg"
	"github.com/dmitrymomot/totpauth/pkg/totp"
	"github.com/dmitrymomot/totpauth/pkg/totp/backend"
)

func TestOpen_Memory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b, err := backend.Open(ctx, backend.Config{Store: backend.Memory}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	assert.Equal(t, backend.Memory, b.Name)
	assert.IsType(t, &totp.MemoryStore{}, b.Store)
	assert.NoError(t, b.Healthcheck(ctx))

	auth, err := totp.New(totp.DefaultConfig(), b.Store)
	require.NoError(t, err)
	_, err = auth.CreateSecret(ctx, "alice")
	require.NoError(t, err)
}

func TestOpen_Encrypted(t *testing.T) {
	t.Parallel()

	key, err := totp.GenerateEncodedEncryptionKey()
	require.NoError(t, err)

	b, err := backend.Open(context.Background(), backend.Config{Store: backend.Memory, EncryptionKey: key}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.IsType(t, &totp.EncryptedStore{}, b.Store)

	_, err = backend.Open(context.Background(), backend.Config{Store: backend.Memory, EncryptionKey: "short"}, nil)
	assert.ErrorIs(t, err, totp.ErrFailedToLoadEncryptionKey)
}

func TestOpen_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := backend.Open(ctx, backend.Config{Store: "etcd"}, nil)
	assert.ErrorIs(t, err, backend.ErrUnknownStore)

	_, err = backend.Open(ctx, backend.Config{Store: backend.Postgres}, nil)
	assert.ErrorIs(t, err, totp.ErrStoreUnavailable)
	assert.ErrorIs(t, err, pg.ErrEmptyConnectionString)
}

func TestNames(t *testing.T) {
	t.Parallel()
	names := backend.Names()
	for _, want := range []string{backend.Memory, backend.Mongo, backend.Postgres, backend.Redis} {
		assert.Contains(t, names, want)
	}
	assert.IsIncreasing(t, names)
}

func TestRegister(t *testing.T) {
	t.Parallel()

	shared := totp.NewMemoryStore()
	backend.Register("shared-memory", func(context.Context, backend.Config, *slog.Logger) (*backend.Backend, error) {
		return &backend.Backend{Store: shared}, nil
	})

	b, err := backend.Open(context.Background(), backend.Config{Store: "shared-memory"}, nil)
	require.NoError(t, err)
	assert.Same(t, shared, b.Store)
	assert.Contains(t, backend.Names(), "shared-memory")
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("TOTP_STORE", "redis")
	t.Setenv("REDIS_URL", "redis://cache:6379/2")
	t.Setenv("PG_CONN_URL", "postgres://totp@db/totp")

	cfg, err := backend.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, backend.Redis, cfg.Store)
	assert.True(t, cfg.Migrate)
	assert.Equal(t, "redis://cache:6379/2", cfg.Redis.ConnectionURL)
	assert.Equal(t, "totp:", cfg.Redis.KeyPrefix)
	assert.Equal(t, "postgres://totp@db/totp", cfg.Postgres.ConnectionString)
	assert.Equal(t, "totpauth", cfg.Mongo.Database)
}
