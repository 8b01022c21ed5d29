package google

import (
	"time"

	"fintrack/internal/core"
)

var transactionHeader = []any{"ID", "Date", "Type", "Category", "Description", "Amount"}

// transactionRows renders the ledger, keeping the store's newest-first order.
func transactionRows(txs []core.Transaction) [][]any {
	rows := make([][]any, 0, len(txs)+1)
	rows = append(rows, transactionHeader)
	for _, t := range txs {
		rows = append(rows, []any{t.ID, t.Date, t.Kind.String(), t.Category, t.Description, core.RoundAmount(t.Amount)})
	}
	return rows
}

// summaryRows renders the aggregate blocks, separated by blank rows.
func summaryRows(snap core.Snapshot) [][]any {
	blank := []any{}
	rows := [][]any{
		{"Generated at", snap.GeneratedAt.UTC().Format(time.RFC3339)},
		blank,
		{"Totals"},
		{"Total income", core.RoundAmount(snap.Summary.TotalIncome)},
		{"Total expense", core.RoundAmount(snap.Summary.TotalExpense)},
		{"Net balance", core.RoundAmount(snap.Summary.NetBalance)},
		blank,
		{"Expenses by category"},
		{"Category", "Total"},
	}
	for _, ct := range snap.ByCategory {
		rows = append(rows, []any{ct.Category, core.RoundAmount(ct.Total)})
	}

	rows = append(rows, blank, []any{"Monthly"}, []any{"Month", "Income", "Expense", "Net"})
	for _, m := range snap.Monthly {
		rows = append(rows, []any{m.Month, core.RoundAmount(m.Income), core.RoundAmount(m.Expense), core.RoundAmount(m.Net())})
	}

	rows = append(rows, blank, []any{"Budgets"}, []any{"Category", "Budget", "Spent", "Remaining", "Over"})
	for _, b := range snap.BudgetStatus {
		rows = append(rows, []any{b.Category, core.RoundAmount(b.Budget), core.RoundAmount(b.Spent), core.RoundAmount(b.Remaining), b.Over})
	}
	return rows
}
