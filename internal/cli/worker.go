package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/sheets/google"
	"fintrack/internal/services"
	"fintrack/internal/storage"
	"fintrack/internal/worker"
)

// NewWorkerCmd builds the fintrack-worker command: it consumes ledger
// events and keeps the Google spreadsheet in step with the ledger.
func NewWorkerCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "fintrack-worker",
		Short:         "Mirror the ledger into Google Sheets on every ledger event",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, (*config.Config).ValidateWorker)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := GracefulShutdown(cmd.Context(), a.logger)
			defer cancel()
			return runWorker(ctx, a.cfg, a.logger)
		},
	}
	cmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "ledger file (overrides FINANCE_DB_PATH)")
	return cmd
}

func runWorker(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	logger = logger.WithComponent(log.ComponentWorker)
	logger.InfoContext(ctx, "Starting fintrack-worker", log.FieldOperation, log.OpStartup)

	repo, err := storage.NewSQLiteRepository(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open ledger %s: %w", cfg.DBPath, err)
	}
	// The worker only reads; it never publishes.
	svc := services.NewLedgerService(repo, nil)
	defer svc.Close()

	sheetsClient, err := google.New(ctx, sheetsOptions(cfg))
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("connect AMQP: %w", err)
	}
	defer amqpClient.Close()

	exporter := worker.NewExportWorker(svc, sheetsClient, cfg.ExportInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.Consume(gctx, exporter.HandleEvent)
	})
	g.Go(func() error {
		return exporter.Run(gctx)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		logger.Info("Worker shutdown complete", log.FieldOperation, log.OpShutdown)
		return nil
	}
	return err
}

// ExecuteWorker runs the worker command and exits non-zero on failure.
func ExecuteWorker() {
	exitOnError(NewWorkerCmd().ExecuteContext(context.Background()))
}
