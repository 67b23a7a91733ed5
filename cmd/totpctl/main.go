// Command totpctl manages TOTP enrollment and verification against the store
// selected by TOTP_STORE.
//
//	totpctl keygen                      print a TOTP_ENCRYPTION_KEY value
//	totpctl secret [-length n]          print a random secret key
//	totpctl enroll -user id [-qr]       create a secret and print its otpauth URI
//	totpctl verify -user id -code c     verify a code, exit status 1 on failure
//	totpctl status -user id             print enrollment and lockout state
//	totpctl code -secret s [-at t]      print the code for a secret
//
// The memory store does not outlive the process, so enroll and verify are only
// meaningful across invocations with a persistent store.
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrymomot/totpauth/pkg/config"
	"github.com/dmitrymomot/totpauth/pkg/logger"
	"github.com/dmitrymomot/totpauth/pkg/qrcode"
	"github.com/dmitrymomot/totpauth/pkg/totp"
	"github.com/dmitrymomot/totpauth/pkg/totp/backend"
)

var errVerificationFailed = errors.New("verification failed")

const usage = `usage: totpctl <command> [flags]

commands:
  keygen   print a base64 AES-256 key for TOTP_ENCRYPTION_KEY
  secret   print a random secret key
  enroll   create a secret for a user
  verify   verify a code for a user
  status   print a user's enrollment and lockout state
  code     print the current code for a secret
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	switch {
	case err == nil:
	case errors.Is(err, errVerificationFailed):
		stop()
		os.Exit(1)
	case errors.Is(err, flag.ErrHelp):
		stop()
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, "totpctl:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return flag.ErrHelp
	}

	cmd, args := args[0], args[1:]
	switch cmd {
	case "keygen":
		return keygen(stdout)
	case "secret":
		return secret(args, stdout, stderr)
	case "code":
		return code(args, stdout, stderr)
	case "enroll", "verify", "status":
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return flag.ErrHelp
	}

	ctx = logger.ContextWithAttrs(ctx, logger.Event(cmd))
	log, err := newLogger(stderr)
	if err != nil {
		return err
	}
	auth, b, err := open(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.ErrorContext(ctx, "failed to close store", logger.Error(err))
		}
	}()

	switch cmd {
	case "enroll":
		return enroll(ctx, auth, args, stdout, stderr)
	case "verify":
		return verify(ctx, auth, args, stdout, stderr)
	default:
		return status(ctx, auth, args, stdout, stderr)
	}
}

func newLogger(w io.Writer) (*slog.Logger, error) {
	cfg, err := config.Load[logger.Config]()
	if err != nil {
		return nil, err
	}
	opts, err := logger.FromConfig("totpctl", cfg)
	if err != nil {
		return nil, errors.Join(config.ErrParsingConfig, err)
	}
	return logger.New(append(opts, logger.WithOutput(w))...), nil
}

func open(ctx context.Context, log *slog.Logger) (*totp.Authenticator, *backend.Backend, error) {
	cfg, err := totp.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	bcfg, err := backend.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	b, err := backend.Open(ctx, bcfg, log)
	if err != nil {
		return nil, nil, err
	}
	auth, err := totp.New(cfg, b.Store, totp.WithLogger(log))
	if err != nil {
		_ = b.Close()
		return nil, nil, err
	}
	return auth, b, nil
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func keygen(stdout io.Writer) error {
	key, err := totp.GenerateEncodedEncryptionKey()
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, key)
	return nil
}

func secret(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("secret", stderr)
	length := fs.Int("length", 20, "secret length in characters")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := totp.GenerateSecretKey(rand.Reader, *length)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, s)
	return nil
}

func code(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("code", stderr)
	secret := fs.String("secret", "", "raw secret key")
	base32 := fs.Bool("base32", false, "the secret is base32 encoded, as in an otpauth URI")
	at := fs.String("at", "", "RFC 3339 time, defaults to now")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *secret == "" {
		return totp.ErrMissingSecret
	}

	key := *secret
	if *base32 {
		decoded, err := totp.DecodeBase32String(key)
		if err != nil {
			return err
		}
		key = decoded
	}

	t := time.Now()
	if *at != "" {
		parsed, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			return fmt.Errorf("invalid -at: %w", err)
		}
		t = parsed
	}

	cfg, err := totp.LoadConfig()
	if err != nil {
		return err
	}
	auth, err := totp.New(cfg, totp.NewMemoryStore())
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, auth.Code(key, t))
	return nil
}

func enroll(ctx context.Context, auth *totp.Authenticator, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("enroll", stderr)
	user := fs.String("user", "", "user identity")
	qr := fs.Bool("qr", false, "print the QR code to the terminal")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := auth.Enroll(ctx, *user)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "secret: %s\nuri:    %s\n", e.Secret, e.URI)
	if *qr {
		img, err := qrcode.Terminal(e.URI, false)
		if err != nil {
			return err
		}
		fmt.Fprint(stdout, img)
	}
	return nil
}

func verify(ctx context.Context, auth *totp.Authenticator, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("verify", stderr)
	user := fs.String("user", "", "user identity")
	c := fs.String("code", "", "code to verify")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := auth.Verify(ctx, *user, *c)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "success=%t attempts=%d locked=%t\n", res.Success, res.Attempts, res.Locked)
	if !res.Success {
		return errVerificationFailed
	}
	return nil
}

func status(ctx context.Context, auth *totp.Authenticator, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("status", stderr)
	user := fs.String("user", "", "user identity")
	if err := fs.Parse(args); err != nil {
		return err
	}

	st, err := auth.Status(ctx, *user)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "enrolled=%t attempts=%d locked=%t\n", st.Enrolled, st.Attempts, st.Locked)
	return nil
}
