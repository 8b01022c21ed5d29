package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository owns the ledger file. It holds exactly one connection;
// every method is a single statement committed on its own.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Run migrations first; they create the file when absent.
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks that the store file is still reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// AddTransaction inserts t under a freshly assigned identifier and returns
// it. t.ID is ignored. No validation happens here.
func (r *SQLiteRepository) AddTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (date, type, category, description, amount) VALUES (?, ?, ?, ?, ?)`,
		t.Date, string(t.Kind), t.Category, t.Description, t.Amount)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read transaction id: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved",
		"id", id,
		"date", t.Date,
		"type", t.Kind,
		"category", t.Category,
		"amount", t.Amount)

	return id, nil
}

// ListTransactions returns every transaction, newest date first and, within
// a date, most recently inserted first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, type, category, COALESCE(description, ''), amount
		 FROM transactions
		 ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		var (
			t    core.Transaction
			kind string
		)
		if err := rows.Scan(&t.ID, &t.Date, &kind, &t.Category, &t.Description, &t.Amount); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Kind = core.Kind(kind)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// DeleteTransaction removes the transaction with the given id. A missing id
// is not an error.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, _ := res.RowsAffected()
	slog.DebugContext(ctx, "Transaction delete executed", "id", id, "rows_affected", n)
	return nil
}

// AddOrUpdateBudget sets the budget of category to amount. The category
// match is exact and case-sensitive; an existing row keeps its id.
func (r *SQLiteRepository) AddOrUpdateBudget(ctx context.Context, category string, amount float64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (category, amount) VALUES (?, ?)
		 ON CONFLICT(category) DO UPDATE SET amount = excluded.amount`,
		category, amount)
	if err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}
	slog.DebugContext(ctx, "Budget saved", "category", category, "amount", amount)
	return nil
}

// ListBudgets returns all budgets ordered by category (binary collation).
func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, category, amount FROM budgets ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	out := make([]core.Budget, 0)
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.Category, &b.Amount); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return out, nil
}

// DeleteBudget removes the budget with the given id. A missing id is not an
// error.
func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	n, _ := res.RowsAffected()
	slog.DebugContext(ctx, "Budget delete executed", "id", id, "rows_affected", n)
	return nil
}

// GetSummary returns total income, total expense and their difference.
func (r *SQLiteRepository) GetSummary(ctx context.Context) (core.Summary, error) {
	var income, expense float64
	err := r.db.QueryRowContext(ctx,
		`SELECT
		   COALESCE(SUM(CASE WHEN type = ? THEN amount END), 0.0),
		   COALESCE(SUM(CASE WHEN type = ? THEN amount END), 0.0)
		 FROM transactions`,
		string(core.Income), string(core.Expense)).Scan(&income, &expense)
	if err != nil {
		return core.Summary{}, fmt.Errorf("query summary: %w", err)
	}
	return core.NewSummary(income, expense), nil
}

// GetExpensesByCategory sums expenses per category, largest first.
// Categories without expenses are absent.
func (r *SQLiteRepository) GetExpensesByCategory(ctx context.Context) ([]core.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, SUM(amount) AS total
		 FROM transactions
		 WHERE type = ?
		 GROUP BY category
		 ORDER BY total DESC, category ASC`,
		string(core.Expense))
	if err != nil {
		return nil, fmt.Errorf("query expenses by category: %w", err)
	}
	defer rows.Close()

	out := make([]core.CategoryTotal, 0)
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		out = append(out, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category totals: %w", err)
	}
	return out, nil
}

// GetMonthlySummary groups transactions by the YYYY-MM prefix of their date
// and returns income and expense per month in chronological order.
func (r *SQLiteRepository) GetMonthlySummary(ctx context.Context) ([]core.MonthTotals, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT substr(date, 1, 7) AS month,
		        SUM(CASE WHEN type = ? THEN amount ELSE 0 END) AS income_total,
		        SUM(CASE WHEN type = ? THEN amount ELSE 0 END) AS expense_total
		 FROM transactions
		 GROUP BY month
		 ORDER BY month`,
		string(core.Income), string(core.Expense))
	if err != nil {
		return nil, fmt.Errorf("query monthly summary: %w", err)
	}
	defer rows.Close()

	out := make([]core.MonthTotals, 0)
	for rows.Next() {
		var mt core.MonthTotals
		if err := rows.Scan(&mt.Month, &mt.Income, &mt.Expense); err != nil {
			return nil, fmt.Errorf("scan month totals: %w", err)
		}
		out = append(out, mt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate month totals: %w", err)
	}
	return out, nil
}

// GetAllCategories returns every distinct non-empty category used by a
// transaction or a budget, sorted case-insensitively.
func (r *SQLiteRepository) GetAllCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category FROM transactions
		 UNION
		 SELECT category FROM budgets`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var c sql.NullString
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if !c.Valid || c.String == "" {
			continue
		}
		out = append(out, c.String)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	slices.SortFunc(out, func(a, b string) int {
		if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return out, nil
}
