// Package cli provides common initialization shared by cmd/accounting and
// cmd/accounting-worker.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"accounting/internal/config"
	applog "accounting/internal/log"
)

// LoadEnvFile loads config.env, the file this service has always been
// configured with, falling back to .env for local development. Missing
// files are fine; real environment variables win either way.
func LoadEnvFile() {
	if err := godotenv.Load("config.env"); err != nil {
		_ = godotenv.Load()
	}
}

// SetupLogger initializes structured logging at the configured level and
// sets it as the default logger. Output goes to stderr so the stdio
// transport keeps stdout for protocol traffic.
func SetupLogger(level string) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(level),
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}
	return cfg
}
