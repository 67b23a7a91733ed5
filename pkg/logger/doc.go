// Package logger builds *slog.Logger values configured with functional options
// and provides attribute constructors so that log keys stay consistent across
// the module.
//
// New picks a text or JSON handler, attaches static attributes and wraps the
// result in a LogHandlerDecorator. The decorator runs ContextExtractor
// callbacks on every record; the built-in one adds attributes attached with
// ContextWithAttrs, which lets a caller tag everything the TOTP engine logs
// for one operation:
//
//	opts, err := logger.FromConfig("totpctl", cfg)
//	if err != nil {
//		return err
//	}
//	log := logger.New(opts...)
//	ctx = logger.ContextWithAttrs(ctx, logger.Event("verify"))
//	log.InfoContext(ctx, "code verified", logger.UserIdentity("alice@example.com"))
//
// Binaries load a Config (APP_ENV, LOG_LEVEL, LOG_FORMAT) with the config
// package and pass FromConfig(service, cfg) to New. WithEnvironment maps the
// environment to defaults: development logs text at debug level, staging and
// production log JSON at info level.
//
// Error returns an empty attribute for a nil error, so
//
//	log.Info("store closed", logger.Error(err))
//
// needs no nil check.
package logger
