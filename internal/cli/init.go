// Package cli provides common process initialization shared by
// cmd/tagih-reminder and cmd/tagih-notifier.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tagih/internal/config"
	"tagih/internal/log"
	"tagih/internal/storage"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger at the given level and installs it
// as the slog default.
func SetupLogger(level string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: log.ComponentApp,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it along with any
// process-specific checks. Exits the process on failure.
func LoadAndValidateConfig(logger *log.Logger, cfg *config.Config, extra ...func(*config.Config) error) *config.Config {
	errs := []error{cfg.Validate()}
	for _, check := range extra {
		errs = append(errs, check(cfg))
	}
	if err := errors.Join(errs...); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenLedger opens the ledger database and applies the schema.
// Exits the process on failure.
func OpenLedger(ctx context.Context, logger *log.Logger, dbPath string) *storage.Handle {
	handle := storage.NewHandle(dbPath)
	if err := handle.Init(ctx); err != nil {
		logger.Error("Failed to open ledger database", log.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	return handle
}

// WaitForSignal blocks until SIGINT/SIGTERM arrives or ctx is cancelled.
func WaitForSignal(ctx context.Context, logger *log.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}
}

// AwaitShutdown waits for done, giving up after timeout.
func AwaitShutdown(logger *log.Logger, done <-chan struct{}, timeout time.Duration) {
	select {
	case <-done:
		logger.Info("Shutdown complete")
	case <-time.After(timeout):
		logger.Warn("Shutdown timeout reached")
	}
}
