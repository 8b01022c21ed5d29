// Package cli holds the command tree shared by cmd/fintrack and
// cmd/fintrack-worker, plus the startup steps both binaries repeat.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// SetupLogger builds the application logger from cfg and installs it as the
// slog default. Logs go to w so that command output on stdout stays clean.
func SetupLogger(cfg *config.Config, w io.Writer) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
		Output:    w,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration, applies the store override
// when set, and runs validate (Validate or ValidateWorker).
func LoadAndValidateConfig(dbOverride string, validate func(*config.Config) error) (*config.Config, error) {
	cfg := config.Load()
	if dbOverride != "" {
		cfg.DBPath = dbOverride
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenLedger opens the store and, when AMQP is configured, an event
// publisher. A broker that cannot be reached disables events rather than
// failing the command.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *log.Logger) (*services.LedgerService, error) {
	repo, err := storage.NewSQLiteRepository(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", cfg.DBPath, err)
	}

	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.WithComponent(log.ComponentAMQP).WarnContext(ctx, "AMQP unavailable, ledger events disabled", log.FieldError, err.Error())
		} else {
			publisher = client
		}
	}

	logger.WithComponent(log.ComponentStorage).DebugContext(ctx, "Ledger opened",
		"path", cfg.DBPath,
		"events", publisher != nil)
	return services.NewLedgerService(repo, publisher), nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM.
func GracefulShutdown(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
