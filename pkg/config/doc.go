// Package config loads application configuration from environment variables
// into plain structs.
//
// It wraps `github.com/joho/godotenv` and `github.com/caarlos0/env/v11`:
//
//   - The default `.env` in the working directory is loaded once per process
//     (it is optional, existing variables win).
//   - Additional `.env` files can be requested per call with WithEnvFiles.
//   - Struct fields are populated from `env` / `envDefault` tags.
//
// Load returns the configuration by value. Callers keep the value they were
// given; there is no shared cache that a later Load could change.
//
// # Usage
//
//	type DatabaseConfig struct {
//	    Host string `env:"DB_HOST,required"`
//	    Port int    `env:"DB_PORT" envDefault:"5432"`
//	}
//
//	db, err := config.Load[DatabaseConfig]()
//	if err != nil {
//	    log.Fatalf("parsing env: %v", err)
//	}
//
// Tests can bypass the process environment entirely:
//
//	cfg, err := config.Load[DatabaseConfig](config.WithEnvironment(map[string]string{
//	    "DB_HOST": "localhost",
//	}))
//
// # Error Handling
//
//   - ErrParsingConfig  – env vars could not be parsed into the struct.
//   - ErrLoadingEnvFile – a file passed to WithEnvFiles could not be read.
package config
