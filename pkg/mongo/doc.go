// Package mongo provides helpers for connecting to MongoDB with
// go.mongodb.org/mongo-driver/v2 for the Mongo TOTP store.
//
// The package adds:
//
//   - New, which applies the pool and retry settings from Config, connects and
//     pings the primary, retrying with a Fibonacci backoff from
//     github.com/sethvargo/go-retry.
//   - NewWithDatabase, which does the same and returns the configured
//     database handle.
//   - Healthcheck, a probe for readiness checks and backend.Backend.
//   - IsDuplicateKeyError and IsNotFoundError, which classify driver errors.
//
// Config is populated from MONGODB_* environment variables via
// github.com/caarlos0/env.
//
// # Usage
//
//	cfg, err := config.Load[mongo.Config]()
//	if err != nil {
//	    return err
//	}
//
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer db.Client().Disconnect(context.Background())
//
//	store := mongostore.New(db)
//	if err := store.EnsureIndexes(ctx); err != nil {
//	    return err
//	}
//
// Stores translate unique index violations into their own sentinels:
//
//	if _, err := coll.InsertOne(ctx, doc); mongo.IsDuplicateKeyError(err) {
//	    return totp.ErrCodeAlreadyUsed
//	}
//
// # Errors
//
// ErrEmptyConnectionURL is returned before anything is dialed. Connection and
// ping failures are joined with ErrFailedToConnectToMongo and probe failures
// with ErrHealthcheckFailed.
//
// # See Also
//
//   - https://github.com/mongodb/mongo-go-driver
package mongo
