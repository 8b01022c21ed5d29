package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

func newTxCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Add, list and delete transactions",
	}
	cmd.AddCommand(newTxAddCmd(a), newTxListCmd(a), newTxDeleteCmd(a))
	return cmd
}

func newTxAddCmd(a *app) *cobra.Command {
	var date, kind, category, description, amount string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Example: `  fintrack tx add --type Expense --category Groceries --amount 150.50
  fintrack tx add --date 2024-03-01 --type Income --category Salary --amount 2000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := buildTransaction(date, kind, category, description, amount)
			if err != nil {
				return err
			}
			return a.withLedger(cmd.Context(), func(svc *services.LedgerService) error {
				id, err := svc.AddTransaction(cmd.Context(), t)
				if err != nil {
					return err
				}
				log.NewStructuredLogger(a.logger).LogTransactionCreated(cmd.Context(), id, t.Date, t.Kind.String(), t.Category, t.Amount)
				fmt.Fprintf(cmd.OutOrStdout(), "Added transaction %d\n", id)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", time.Now().Format(core.DateLayout), "transaction date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&kind, "type", "t", "", "Income or Expense")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category")
	cmd.Flags().StringVarP(&description, "description", "d", "", "optional free text")
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "positive amount, e.g. 12.50")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

// buildTransaction validates raw flag values the same way the HTTP API
// validates request bodies.
func buildTransaction(date, kind, category, description, amount string) (core.Transaction, error) {
	k, err := core.ParseKind(kind)
	if err != nil {
		return core.Transaction{}, err
	}
	amt, err := core.ParseAmount(amount)
	if err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{
		Date:        strings.TrimSpace(date),
		Kind:        k,
		Category:    core.CleanText(category),
		Description: core.CleanText(description),
		Amount:      amt,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func newTxListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(cmd.Context(), func(svc *services.LedgerService) error {
				txs, err := svc.ListTransactions(cmd.Context())
				if err != nil {
					return err
				}
				if len(txs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No transactions.")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tDATE\tTYPE\tCATEGORY\tDESCRIPTION\tAMOUNT")
				for _, t := range txs {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
						t.ID, t.Date, t.Kind, t.Category, t.Description, core.FormatAmount(t.Amount))
				}
				return tw.Flush()
			})
		},
	}
}

func newTxDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withLedger(cmd.Context(), func(svc *services.LedgerService) error {
				if err := svc.DeleteTransaction(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted transaction %d\n", id)
				return nil
			})
		},
	}
}

func newBudgetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Set, list and delete category budgets",
	}
	cmd.AddCommand(newBudgetSetCmd(a), newBudgetListCmd(a), newBudgetDeleteCmd(a))
	return cmd
}

func newBudgetSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "set CATEGORY AMOUNT",
		Short:   "Create or replace the budget of a category",
		Example: "  fintrack budget set Groceries 400",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := core.ParseAmount(args[1])
			if err != nil {
				return err
			}
			b := core.Budget{Category: core.CleanText(args[0]), Amount: amount}
			if err := b.Validate(); err != nil {
				return err
			}
			return a.withLedger(cmd.Context(), func(svc *services.LedgerService) error {
				if err := svc.AddOrUpdateBudget(cmd.Context(), b.Category, b.Amount); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Budget for %s set to %s\n", b.Category, core.FormatAmount(b.Amount))
				return nil
			})
		},
	}
}

func newBudgetListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List budgets with spending against them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(cmd.Context(), func(svc *services.LedgerService) error {
				statuses, err := svc.BudgetStatuses(cmd.Context())
				if err != nil {
					return err
				}
				if len(statuses) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No budgets.")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tCATEGORY\tBUDGET\tSPENT\tREMAINING\t")
				for _, s := range statuses {
					flag := ""
					if s.Over {
						flag = "OVER"
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
						s.BudgetID, s.Category, core.FormatAmount(s.Budget),
						core.FormatAmount(s.Spent), core.FormatAmount(s.Remaining), flag)
				}
				return tw.Flush()
			})
		},
	}
}

func newBudgetDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withLedger(cmd.Context(), func(svc *services.LedgerService) error {
				if err := svc.DeleteBudget(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted budget %d\n", id)
				return nil
			})
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: must be an integer", s)
	}
	return id, nil
}
