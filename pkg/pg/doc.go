// Package pg provides helpers for PostgreSQL: pgx/v5 connection pools, goose
// migrations and driver error classification for the PostgreSQL TOTP store.
//
// The package adds:
//
//   - Connect, which parses Config into a pgxpool.Config, opens the pool and
//     pings it, retrying with a capped Fibonacci backoff from
//     github.com/sethvargo/go-retry.
//   - Migrate, which runs goose against an fs.FS, usually an embedded
//     migrations directory, through database/sql opened on the same pool.
//     goose output is routed to the supplied logger.
//   - Healthcheck, a probe for readiness checks and backend.Backend.
//   - IsDuplicateKeyError, IsForeignKeyViolationError and IsNotFoundError.
//
// Config is populated from PG_* environment variables via
// github.com/caarlos0/env.
//
// # Usage
//
//	cfg, err := config.Load[pg.Config]()
//	if err != nil {
//	    return err
//	}
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, pgstore.Migrations(), cfg, log); err != nil {
//	    return err
//	}
//
//	store := pgstore.New(pool)
//
// Migration versions are tracked in cfg.MigrationsTable, so the TOTP schema
// can share a database with other goose-managed schemas. goose keeps its
// settings in package globals; do not run Migrate concurrently.
//
// Stores map driver errors to their own sentinels:
//
//	if pg.IsDuplicateKeyError(err) {
//	    return totp.ErrAlreadyEnrolled
//	}
//
// # Errors
//
// ErrEmptyConnectionString is returned before anything is dialed. Failures are
// joined with ErrFailedToParseDBConfig, ErrFailedToOpenDBConnection,
// ErrFailedToApplyMigrations or ErrHealthcheckFailed.
//
// # See Also
//
//   - https://github.com/jackc/pgx
//   - https://github.com/pressly/goose
package pg
