package http

import (
	"time"

	"fintrack/internal/core"
)

// Response shapes. Every amount is sent raw and as a two-decimal string.

type transactionResponse struct {
	ID            int64   `json:"id"`
	Date          string  `json:"date"`
	Type          string  `json:"type"`
	Category      string  `json:"category"`
	Description   string  `json:"description"`
	Amount        float64 `json:"amount"`
	AmountDisplay string  `json:"amount_display"`
}

type budgetResponse struct {
	ID            int64   `json:"id"`
	Category      string  `json:"category"`
	Amount        float64 `json:"amount"`
	AmountDisplay string  `json:"amount_display"`
}

type summaryResponse struct {
	TotalIncome         float64 `json:"total_income"`
	TotalIncomeDisplay  string  `json:"total_income_display"`
	TotalExpense        float64 `json:"total_expense"`
	TotalExpenseDisplay string  `json:"total_expense_display"`
	NetBalance          float64 `json:"net_balance"`
	NetBalanceDisplay   string  `json:"net_balance_display"`
}

type categoryTotalResponse struct {
	Category     string  `json:"category"`
	Total        float64 `json:"total"`
	TotalDisplay string  `json:"total_display"`
}

type monthResponse struct {
	Month          string  `json:"month"`
	Income         float64 `json:"income"`
	IncomeDisplay  string  `json:"income_display"`
	Expense        float64 `json:"expense"`
	ExpenseDisplay string  `json:"expense_display"`
	Net            float64 `json:"net"`
	NetDisplay     string  `json:"net_display"`
}

type budgetStatusResponse struct {
	BudgetID         int64   `json:"budget_id"`
	Category         string  `json:"category"`
	Budget           float64 `json:"budget"`
	BudgetDisplay    string  `json:"budget_display"`
	Spent            float64 `json:"spent"`
	SpentDisplay     string  `json:"spent_display"`
	Remaining        float64 `json:"remaining"`
	RemainingDisplay string  `json:"remaining_display"`
	Over             bool    `json:"over"`
}

type dashboardResponse struct {
	GeneratedAt time.Time               `json:"generated_at"`
	Summary     summaryResponse         `json:"summary"`
	ByCategory  []categoryTotalResponse `json:"by_category"`
	Monthly     []monthResponse         `json:"monthly"`
	Budgets     []budgetStatusResponse  `json:"budgets"`
}

type createdResponse struct {
	ID int64 `json:"id"`
}

type importResponse struct {
	Imported int `json:"imported"`
}

func newTransactionResponses(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, transactionResponse{
			ID:            t.ID,
			Date:          t.Date,
			Type:          t.Kind.String(),
			Category:      t.Category,
			Description:   t.Description,
			Amount:        t.Amount,
			AmountDisplay: core.FormatAmount(t.Amount),
		})
	}
	return out
}

func newBudgetResponses(budgets []core.Budget) []budgetResponse {
	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, budgetResponse{
			ID:            b.ID,
			Category:      b.Category,
			Amount:        b.Amount,
			AmountDisplay: core.FormatAmount(b.Amount),
		})
	}
	return out
}

func newSummaryResponse(s core.Summary) summaryResponse {
	return summaryResponse{
		TotalIncome:         s.TotalIncome,
		TotalIncomeDisplay:  core.FormatAmount(s.TotalIncome),
		TotalExpense:        s.TotalExpense,
		TotalExpenseDisplay: core.FormatAmount(s.TotalExpense),
		NetBalance:          s.NetBalance,
		NetBalanceDisplay:   core.FormatAmount(s.NetBalance),
	}
}

func newCategoryTotalResponses(totals []core.CategoryTotal) []categoryTotalResponse {
	out := make([]categoryTotalResponse, 0, len(totals))
	for _, ct := range totals {
		out = append(out, categoryTotalResponse{
			Category:     ct.Category,
			Total:        ct.Total,
			TotalDisplay: core.FormatAmount(ct.Total),
		})
	}
	return out
}

func newMonthResponses(months []core.MonthTotals) []monthResponse {
	out := make([]monthResponse, 0, len(months))
	for _, m := range months {
		out = append(out, monthResponse{
			Month:          m.Month,
			Income:         m.Income,
			IncomeDisplay:  core.FormatAmount(m.Income),
			Expense:        m.Expense,
			ExpenseDisplay: core.FormatAmount(m.Expense),
			Net:            m.Net(),
			NetDisplay:     core.FormatAmount(m.Net()),
		})
	}
	return out
}

func newBudgetStatusResponses(statuses []core.BudgetStatus) []budgetStatusResponse {
	out := make([]budgetStatusResponse, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, budgetStatusResponse{
			BudgetID:         s.BudgetID,
			Category:         s.Category,
			Budget:           s.Budget,
			BudgetDisplay:    core.FormatAmount(s.Budget),
			Spent:            s.Spent,
			SpentDisplay:     core.FormatAmount(s.Spent),
			Remaining:        s.Remaining,
			RemainingDisplay: core.FormatAmount(s.Remaining),
			Over:             s.Over,
		})
	}
	return out
}

func newDashboardResponse(snap core.Snapshot) dashboardResponse {
	return dashboardResponse{
		GeneratedAt: snap.GeneratedAt,
		Summary:     newSummaryResponse(snap.Summary),
		ByCategory:  newCategoryTotalResponses(snap.ByCategory),
		Monthly:     newMonthResponses(snap.Monthly),
		Budgets:     newBudgetStatusResponses(snap.BudgetStatus),
	}
}
