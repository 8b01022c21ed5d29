package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"fintrack/internal/config"
	"fintrack/internal/csvio"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/sheets/google"
	"fintrack/internal/worker"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import transactions from a CSV file (- for stdin)",
		Long: `Import reads a CSV file with the header date,type,category,description,amount.
Every row is validated before anything is stored; a bad row aborts the import.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open import file: %w", err)
				}
				defer f.Close()
				r = f
			}

			txs, err := csvio.New(a.cfg.Delimiter()).ReadTransactions(r)
			if err != nil {
				return err
			}
			return a.withLedger(cmd.Context(), func(svc *services.LedgerService) error {
				n, err := svc.ImportTransactions(cmd.Context(), txs)
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d transactions\n", n)
				return err
			})
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [FILE]",
		Short: "Export all transactions as CSV (stdout when FILE is omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(cmd.Context(), func(svc *services.LedgerService) error {
				txs, err := svc.ListTransactions(cmd.Context())
				if err != nil {
					return err
				}

				codec := csvio.New(a.cfg.Delimiter())
				if len(args) == 0 {
					return codec.WriteTransactions(cmd.OutOrStdout(), txs)
				}

				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				if err := codec.WriteTransactions(f, txs); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return fmt.Errorf("close export file: %w", err)
				}
				a.logger.WithComponent(log.ComponentCSV).InfoContext(cmd.Context(), "Transactions exported",
					log.FieldOperation, log.OpExport,
					log.FieldCount, len(txs),
					"file", args[0])
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d transactions to %s\n", len(txs), args[0])
				return nil
			})
		},
	}
}

func newExportSheetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export-sheets",
		Short: "Write the ledger and its summary to the configured Google spreadsheet once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := google.New(cmd.Context(), sheetsOptions(a.cfg))
			if err != nil {
				return err
			}
			return a.withLedger(cmd.Context(), func(svc *services.LedgerService) error {
				if err := worker.NewExportWorker(svc, client, a.cfg.ExportInterval).ExportNow(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Spreadsheet updated")
				return nil
			})
		},
	}
}

func sheetsOptions(cfg *config.Config) google.Options {
	return google.Options{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
		TransactionsSheet:  cfg.GoogleTransactionsSheet,
		SummarySheet:       cfg.GoogleSummarySheet,
	}
}
