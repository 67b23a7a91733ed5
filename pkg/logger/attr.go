package logger

import "log/slog"

// Error returns an empty attr for a nil error, which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserIdentity is the identity a TOTP secret belongs to.
func UserIdentity(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("user_identity", id)
}

// Interval is a TOTP time step.
func Interval(n int64) slog.Attr {
	return slog.Int64("interval", n)
}

// Attempts is a failed verification counter.
func Attempts(n int) slog.Attr {
	return slog.Int("attempts", n)
}

// Backend names a store implementation (memory, postgres, redis, mongo).
func Backend(name string) slog.Attr {
	return slog.String("backend", name)
}

// Component names the package or subsystem that wrote the record.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event names the operation a record belongs to, such as a CLI command.
func Event(name string) slog.Attr {
	return slog.String("event", name)
}
