package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// app carries what every subcommand needs once PersistentPreRunE has run.
type app struct {
	dbPath string

	cfg    *config.Config
	logger *log.Logger
}

// NewRootCmd builds the fintrack command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "fintrack",
		Short: "Track income, expenses and budgets in a local ledger",
		Long: `fintrack records income and expense transactions and per-category budgets
in a local SQLite file, and reports totals, category breakdowns and monthly
trends. Run "fintrack serve" for the HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, (*config.Config).Validate)
		},
	}
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "ledger file (overrides FINANCE_DB_PATH)")

	root.AddCommand(
		newServeCmd(a),
		newTxCmd(a),
		newBudgetCmd(a),
		newSummaryCmd(a),
		newCategoriesCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newExportSheetsCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, validate func(*config.Config) error) error {
	LoadEnvFile()
	cfg, err := LoadAndValidateConfig(a.dbPath, validate)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = SetupLogger(cfg, cmd.ErrOrStderr())
	return nil
}

// withLedger opens the ledger for the duration of fn.
func (a *app) withLedger(ctx context.Context, fn func(*services.LedgerService) error) error {
	svc, err := OpenLedger(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			a.logger.WithComponent(log.ComponentCLI).Warn("Failed to close ledger", log.FieldError, err.Error())
		}
	}()
	return fn(svc)
}

// Execute runs the fintrack CLI and exits non-zero on failure.
func Execute() {
	exitOnError(NewRootCmd().ExecuteContext(context.Background()))
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
