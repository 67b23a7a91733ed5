// Package totp implements time-based one-time password (RFC 6238) multi-factor
// authentication with replay prevention and account lockout.
//
// The package is split into a pure code layer and a stateful engine.
//
// The code layer has no state: ComputeCode derives an HOTP value (RFC 4226)
// for a counter, Interval maps a timestamp to a counter, GenerateSecretKey
// creates alphanumeric secrets and EnrollmentURI builds otpauth:// URIs for
// authenticator apps. Secrets are base32 encoded only inside the URI; the raw
// secret string is used as the HMAC key.
//
// The engine is Authenticator. It keeps no per-user state of its own and reads
// and writes everything through a Store, so any number of Authenticator
// instances may share one store:
//
//	cfg, err := totp.LoadConfig()
//	if err != nil {
//		return err
//	}
//	auth, err := totp.New(cfg, totp.NewMemoryStore(), totp.WithLogger(log))
//	if err != nil {
//		return err
//	}
//
//	enrollment, err := auth.Enroll(ctx, "alice@example.com")
//	// show enrollment.QRCode or enrollment.URI to the user
//
//	res, err := auth.Verify(ctx, "alice@example.com", "123456")
//	if err != nil {
//		// store failure, never treat as success
//	}
//	if res.Locked {
//		// too many failed attempts
//	}
//
// # Verification
//
// Verify scans the intervals from c-PastIntervals to c+FutureIntervals in
// ascending order. An interval already recorded as used ends the scan as a
// failure. A matching interval is recorded as used before success is reported,
// and a concurrent verifier that loses the race to record it fails. Every
// failure increments the attempt counter; reaching MaxAttempts locks the user
// for LockoutDurationSeconds. A lock is cleared lazily by the next Verify or
// Status call made after it expires.
//
// # Stores
//
// MemoryStore keeps state in process. The pgstore, redisstore and mongostore
// subpackages persist it in PostgreSQL, Redis and MongoDB, and the backend
// subpackage selects one of them from the environment. EncryptedStore wraps
// any Store and keeps secrets AES-256-GCM encrypted at rest.
//
// # Errors
//
// Store failures are returned joined with ErrStoreUnavailable and a failed
// store call never yields a successful Result. Inspect errors with errors.Is.
package totp
