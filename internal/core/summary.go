package core

import "time"

// Summary holds the all-time totals. NetBalance is always
// TotalIncome - TotalExpense.
type Summary struct {
	TotalIncome  float64
	TotalExpense float64
	NetBalance   float64
}

// NewSummary derives the net balance from the two totals.
func NewSummary(income, expense float64) Summary {
	return Summary{
		TotalIncome:  income,
		TotalExpense: expense,
		NetBalance:   income - expense,
	}
}

// CategoryTotal is the summed expense amount of one category.
type CategoryTotal struct {
	Category string
	Total    float64
}

// MonthTotals aggregates income and expense for one YYYY-MM bucket.
type MonthTotals struct {
	Month   string
	Income  float64
	Expense float64
}

// Net returns income minus expense for the month.
func (m MonthTotals) Net() float64 {
	return m.Income - m.Expense
}

// BudgetStatus compares a budget with the expenses recorded under the same
// category.
type BudgetStatus struct {
	BudgetID  int64
	Category  string
	Budget    float64
	Spent     float64
	Remaining float64
	Over      bool
}

// NewBudgetStatuses pairs every budget with its category's expense total.
// Budgets keep their input order; categories without expenses count as
// zero spent.
func NewBudgetStatuses(budgets []Budget, spending []CategoryTotal) []BudgetStatus {
	spent := make(map[string]float64, len(spending))
	for _, ct := range spending {
		spent[ct.Category] = ct.Total
	}
	out := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		s := spent[b.Category]
		out = append(out, BudgetStatus{
			BudgetID:  b.ID,
			Category:  b.Category,
			Budget:    b.Amount,
			Spent:     s,
			Remaining: b.Amount - s,
			Over:      s > b.Amount,
		})
	}
	return out
}

// Snapshot is a point-in-time view of the whole ledger, used by the
// dashboard and by exports.
type Snapshot struct {
	GeneratedAt  time.Time
	Summary      Summary
	Transactions []Transaction
	Budgets      []Budget
	ByCategory   []CategoryTotal
	Monthly      []MonthTotals
	BudgetStatus []BudgetStatus
}
