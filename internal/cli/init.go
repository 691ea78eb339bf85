// Package cli provides common CLI initialization utilities shared by
// cmd/faxina, cmd/faxina-worker and cmd/faxina-import.
package cli

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"faxina/internal/config"
	"faxina/internal/log"
)

// LoadEnvFile loads .env files for local development. A missing file is
// fine; variables already in the environment win.
func LoadEnvFile(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// SetupLogger builds the application logger from cfg and makes it the
// slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: component,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)
	return logger
}

// Bootstrap loads .env and the configuration, then builds the logger. An
// invalid configuration is logged and ends the process.
func Bootstrap(component string) (*config.Config, *log.Logger) {
	envErr := LoadEnvFile()

	cfg := config.Load()
	logger := SetupLogger(cfg, component)
	if envErr != nil {
		logger.Warn("Could not read .env file", log.FieldError, envErr.Error())
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	return cfg, logger
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
