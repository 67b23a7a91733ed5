package backend

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/totpauth/pkg/mongo"
	"github.com/dmitrymomot/totpauth/pkg/pg"
	"github.com/dmitrymomot/totpauth/pkg/redis"
	"github.com/dmitrymomot/totpauth/pkg/totp"
	"github.com/dmitrymomot/totpauth/pkg/totp/mongostore"
	"github.com/dmitrymomot/totpauth/pkg/totp/pgstore"
	"github.com/dmitrymomot/totpauth/pkg/totp/redisstore"
)

func openMemory(context.Context, Config, *slog.Logger) (*Backend, error) {
	return &Backend{Store: totp.NewMemoryStore()}, nil
}

func openPostgres(ctx context.Context, cfg Config, log *slog.Logger) (*Backend, error) {
	pool, err := pg.Connect(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	if cfg.Migrate {
		if err := pg.Migrate(ctx, pool, pgstore.Migrations(), cfg.Postgres, log); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &Backend{
		Store:       pgstore.New(pool),
		healthcheck: pg.Healthcheck(pool),
		close: func() error {
			pool.Close()
			return nil
		},
	}, nil
}

func openRedis(ctx context.Context, cfg Config, _ *slog.Logger) (*Backend, error) {
	client, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	return &Backend{
		Store:       redisstore.New(client, cfg.Redis.KeyPrefix),
		healthcheck: redis.Healthcheck(client),
		close:       client.Close,
	}, nil
}

func openMongo(ctx context.Context, cfg Config, _ *slog.Logger) (*Backend, error) {
	db, err := mongo.NewWithDatabase(ctx, cfg.Mongo)
	if err != nil {
		return nil, err
	}
	disconnect := func() error { return db.Client().Disconnect(context.Background()) }

	store := mongostore.New(db)
	if cfg.Migrate {
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = disconnect()
			return nil, err
		}
	}
	return &Backend{
		Store:       store,
		healthcheck: mongo.Healthcheck(db.Client()),
		close:       disconnect,
	}, nil
}
