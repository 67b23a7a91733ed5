// Package redis provides helpers for connecting to a Redis server for the
// Redis TOTP store.
//
// The package wraps the go-redis client and adds:
//
//   - Connect, which parses a redis:// URL and waits until the server answers
//     PING, retrying with a Fibonacci backoff from github.com/sethvargo/go-retry.
//   - Healthcheck, a probe for readiness checks and backend.Backend.
//
// Configuration is described by the Config struct whose fields are populated
// from REDIS_* environment variables via github.com/caarlos0/env.
//
// # Usage
//
// Load the configuration, usually with the config package:
//
//	cfg, err := config.Load[redis.Config]()
//	if err != nil {
//	    return err
//	}
//
// or build it by hand:
//
//	cfg := redis.Config{
//	    ConnectionURL:  "redis://localhost:6379/0",
//	    KeyPrefix:      "totp:",
//	    RetryAttempts:  3,
//	    RetryInterval:  time.Second,
//	    ConnectTimeout: 30 * time.Second,
//	}
//
// Connect with retries and hand the client to the store:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	store := redisstore.New(client, cfg.KeyPrefix)
//
// Check health:
//
//	if err := redis.Healthcheck(client)(ctx); err != nil {
//	    // redis is not reachable
//	}
//
// ConnectTimeout bounds the whole attempt including retries; RetryAttempts
// counts retries after the first failed ping.
//
// # Errors
//
// ErrEmptyConnectionURL is returned before anything is dialed. Parse and ping
// failures are joined with ErrFailedToParseRedisConnString and
// ErrRedisNotReady, and probe failures with ErrHealthcheckFailed, so callers
// can match them with errors.Is.
//
// # See Also
//
//   - https://github.com/redis/go-redis
package redis
