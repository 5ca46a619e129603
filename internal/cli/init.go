// Package cli holds the bootstrap steps shared by cmd/moneytracker and
// cmd/ledger-report.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"moneytracker/internal/config"
	"moneytracker/internal/log"
	"moneytracker/internal/storage"
)

// SetupLogger builds the process logger at level and installs it as the
// slog default. An unknown level falls back to info with a warning.
func SetupLogger(level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	logger := log.New(log.Config{Level: lvl, Component: log.ComponentApp})
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Falling back to info log level", log.FieldError, err)
	}
	return logger
}

// LoadEnvFile loads .env (or the given files) for local development.
// Missing files are ignored; variables already set win.
func LoadEnvFile(paths ...string) {
	_ = godotenv.Load(paths...)
}

// LoadAndValidateConfig loads configuration or exits the process.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}
	return cfg
}

// InitStore migrates the schema at dbPath and opens it, or exits the
// process.
func InitStore(ctx context.Context, logger *log.Logger, dbPath string) *storage.DB {
	if err := storage.RunMigrations(dbPath); err != nil {
		logger.Error("Failed to migrate database",
			log.FieldOperation, log.OpMigrate,
			log.FieldError, err,
			"path", dbPath)
		os.Exit(1)
	}
	db, err := storage.Open(ctx, dbPath)
	if err != nil {
		logger.Error("Failed to open database",
			log.FieldOperation, log.OpStartup,
			log.FieldError, err,
			"path", dbPath)
		os.Exit(1)
	}
	logger.Info("Database ready", log.FieldOperation, log.OpStartup, "path", db.Path())
	return db
}

// GracefulShutdown waits for SIGINT or SIGTERM, then runs cleanup with a
// context bounded by timeout. The returned context is cancelled once a
// signal arrives; done is closed after cleanup returns.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	return shutdownOn(logger, sigs, timeout, func(ctx context.Context) {
		signal.Stop(sigs)
		if cleanup != nil {
			cleanup(ctx)
		}
	})
}

func shutdownOn(logger *log.Logger, sigs <-chan os.Signal, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		sig := <-sigs
		logger.Info("Shutdown signal received",
			log.FieldOperation, log.OpShutdown,
			"signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()
		cleanup(shutdownCtx)

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached", log.FieldOperation, log.OpShutdown)
			return
		}
		logger.Info("Shutdown complete", log.FieldOperation, log.OpShutdown)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the shutdown started by GracefulShutdown has
// finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
