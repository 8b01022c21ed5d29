package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

func newSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show totals, expenses by category and the monthly trend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(cmd.Context(), func(svc *services.LedgerService) error {
				snap, err := svc.Dashboard(cmd.Context())
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
				fmt.Fprintf(tw, "Total income\t%s\t\n", core.FormatAmount(snap.Summary.TotalIncome))
				fmt.Fprintf(tw, "Total expense\t%s\t\n", core.FormatAmount(snap.Summary.TotalExpense))
				fmt.Fprintf(tw, "Net balance\t%s\t\n", core.FormatAmount(snap.Summary.NetBalance))
				if err := tw.Flush(); err != nil {
					return err
				}

				if len(snap.ByCategory) > 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "\nExpenses by category")
					tw = tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
					for _, ct := range snap.ByCategory {
						fmt.Fprintf(tw, "%s\t%s\n", ct.Category, core.FormatAmount(ct.Total))
					}
					if err := tw.Flush(); err != nil {
						return err
					}
				}

				if len(snap.Monthly) > 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "\nMonthly")
					tw = tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
					fmt.Fprintln(tw, "MONTH\tINCOME\tEXPENSE\tNET")
					for _, m := range snap.Monthly {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Month,
							core.FormatAmount(m.Income), core.FormatAmount(m.Expense), core.FormatAmount(m.Net()))
					}
					if err := tw.Flush(); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List every category used by a transaction or a budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(cmd.Context(), func(svc *services.LedgerService) error {
				cats, err := svc.GetAllCategories(cmd.Context())
				if err != nil {
					return err
				}
				for _, c := range cats {
					fmt.Fprintln(cmd.OutOrStdout(), c)
				}
				return nil
			})
		},
	}
}
