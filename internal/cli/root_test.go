package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"AMQP_URL", "GOOGLE_SPREADSHEET_ID", "GOOGLE_SERVICE_ACCOUNT_JSON",
		"GOOGLE_SERVICE_ACCOUNT_FILE", "GOOGLE_APPLICATION_CREDENTIALS",
		"LOG_LEVEL", "LOG_FORMAT", "CSV_DELIMITER", "FINANCE_DB_PATH",
	} {
		t.Setenv(key, "")
	}
}

// run executes the fintrack command tree against db and returns stdout.
func run(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--db", db}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func mustRun(t *testing.T, db string, args ...string) string {
	t.Helper()
	out, err := run(t, db, args...)
	require.NoError(t, err, "fintrack %v", args)
	return out
}

func newDB(t *testing.T) string {
	t.Helper()
	isolateEnv(t)
	return filepath.Join(t.TempDir(), "finance.db")
}

func TestTxAddListDelete(t *testing.T) {
	db := newDB(t)

	assert.Equal(t, "No transactions.\n", mustRun(t, db, "tx", "list"))

	out := mustRun(t, db, "tx", "add", "--date", "2024-03-05", "--type", "expense",
		"--category", "Groceries", "--description", "weekly shop", "--amount", "150,5")
	assert.Equal(t, "Added transaction 1\n", out)
	mustRun(t, db, "tx", "add", "--date", "2024-03-01", "-t", "Income", "-c", "Salary", "-a", "2000")

	out = mustRun(t, db, "tx", "list")
	assert.Contains(t, out, "DESCRIPTION")
	assert.Contains(t, out, "Groceries")
	assert.Contains(t, out, "150.50")
	assert.Contains(t, out, "2000.00")
	assert.Less(t, strings.Index(out, "2024-03-05"), strings.Index(out, "2024-03-01"), "newest first")

	assert.Equal(t, "Deleted transaction 1\n", mustRun(t, db, "tx", "delete", "1"))
	assert.Equal(t, "Deleted transaction 42\n", mustRun(t, db, "tx", "delete", "42"))
	assert.NotContains(t, mustRun(t, db, "tx", "list"), "Groceries")

	assert.Equal(t, "Deleted transaction 0\n", mustRun(t, db, "tx", "delete", "0"))
	assert.Equal(t, "Deleted transaction -5\n", mustRun(t, db, "tx", "delete", "--", "-5"))
	assert.Equal(t, "Deleted budget 0\n", mustRun(t, db, "budget", "delete", "0"))

	_, err := run(t, db, "tx", "delete", "abc")
	assert.ErrorContains(t, err, "invalid id")
}

func TestTxAddValidatesBeforeStoring(t *testing.T) {
	db := newDB(t)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"bad amount", []string{"--type", "Expense", "--category", "Food", "--amount", "-3"}, core.ErrInvalidAmount},
		{"bad type", []string{"--type", "Gift", "--category", "Food", "--amount", "3"}, core.ErrInvalidKind},
		{"bad date", []string{"--date", "2024-02-30", "--type", "Expense", "--category", "Food", "--amount", "3"}, core.ErrInvalidDate},
		{"blank category", []string{"--type", "Expense", "--category", " ", "--amount", "3"}, core.ErrEmptyCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, db, append([]string{"tx", "add"}, tt.args...)...)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := run(t, db, "tx", "add", "--type", "Expense", "--category", "Food")
	assert.ErrorContains(t, err, `required flag(s) "amount" not set`)

	assert.Equal(t, "No transactions.\n", mustRun(t, db, "tx", "list"))
}

func TestBudgetCommands(t *testing.T) {
	db := newDB(t)

	assert.Equal(t, "No budgets.\n", mustRun(t, db, "budget", "list"))
	assert.Equal(t, "Budget for Food set to 100.00\n", mustRun(t, db, "budget", "set", "Food", "100"))
	mustRun(t, db, "budget", "set", "Food", "40")
	mustRun(t, db, "tx", "add", "--date", "2024-01-02", "--type", "Expense", "--category", "Food", "--amount", "55")

	out := mustRun(t, db, "budget", "list")
	assert.Contains(t, out, "40.00")
	assert.Contains(t, out, "55.00")
	assert.Contains(t, out, "-15.00")
	assert.Contains(t, out, "OVER")

	_, err := run(t, db, "budget", "set", "Food", "0")
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	mustRun(t, db, "budget", "delete", "1")
	assert.Equal(t, "No budgets.\n", mustRun(t, db, "budget", "list"))
}

func TestInputIsTrimmed(t *testing.T) {
	db := newDB(t)

	mustRun(t, db, "budget", "set", "Food", "100")
	assert.Equal(t, "Budget for Food set to 150.00\n", mustRun(t, db, "budget", "set", " Food ", "150"))
	mustRun(t, db, "tx", "add", "--date", " 2024-01-02 ", "--type", "Expense",
		"--category", " Food", "--description", "  lunch  ", "--amount", "5")

	out := mustRun(t, db, "budget", "list")
	assert.Equal(t, 1, strings.Count(out, "Food"), out)
	assert.Contains(t, out, "150.00")

	assert.Equal(t, "Food\n", mustRun(t, db, "categories"))
}

func TestSummaryAndCategories(t *testing.T) {
	db := newDB(t)

	mustRun(t, db, "tx", "add", "--date", "2024-03-01", "--type", "Income", "--category", "Salary", "--amount", "2000")
	mustRun(t, db, "tx", "add", "--date", "2024-03-05", "--type", "Expense", "--category", "groceries", "--amount", "150.50")
	mustRun(t, db, "budget", "set", "Books", "20")

	out := mustRun(t, db, "summary")
	assert.Contains(t, out, "Total income")
	assert.Contains(t, out, "2000.00")
	assert.Contains(t, out, "1849.50")
	assert.Contains(t, out, "Expenses by category")
	assert.Contains(t, out, "2024-03")

	assert.Equal(t, "Books\ngroceries\nSalary\n", mustRun(t, db, "categories"))
}

func TestImportExport(t *testing.T) {
	db := newDB(t)
	dir := t.TempDir()

	in := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(in, []byte(
		"date,type,category,description,amount\n"+
			"2024-01-05,Expense,Rent,\"January, flat\",800\n"+
			"2024-01-01,Income,Salary,,2500.00\n"), 0o644))

	assert.Equal(t, "Imported 2 transactions\n", mustRun(t, db, "import", in))

	out := mustRun(t, db, "export")
	assert.Equal(t,
		"date,type,category,description,amount\n"+
			"2024-01-05,Expense,Rent,\"January, flat\",800.00\n"+
			"2024-01-01,Income,Salary,,2500.00\n", out)

	file := filepath.Join(dir, "out.csv")
	assert.Equal(t, "Exported 2 transactions to "+file+"\n", mustRun(t, db, "export", file))
	written, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, out, string(written))
}

func TestImportRejectsBadFile(t *testing.T) {
	db := newDB(t)

	in := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(in, []byte(
		"date,type,category,description,amount\n"+
			"2024-01-05,Expense,Rent,,800\n"+
			"2024-01-06,Expense,Rent,,zero\n"), 0o644))

	_, err := run(t, db, "import", in)
	assert.ErrorContains(t, err, "line 2")
	assert.Equal(t, "No transactions.\n", mustRun(t, db, "tx", "list"))

	_, err = run(t, db, "import", filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorContains(t, err, "open import file")
}

func TestInvalidConfigurationFailsFast(t *testing.T) {
	db := newDB(t)
	t.Setenv("LOG_LEVEL", "loud")

	_, err := run(t, db, "tx", "list")
	assert.ErrorContains(t, err, "configuration validation failed")
	_, statErr := os.Stat(db)
	assert.True(t, os.IsNotExist(statErr), "the store is not touched")
}

func TestExportSheetsRequiresSpreadsheet(t *testing.T) {
	db := newDB(t)
	_, err := run(t, db, "export-sheets")
	assert.ErrorContains(t, err, "missing GOOGLE_SPREADSHEET_ID")
}

func TestWorkerRequiresAMQPAndSheets(t *testing.T) {
	db := newDB(t)

	cmd := NewWorkerCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", db})
	err := cmd.ExecuteContext(context.Background())
	assert.ErrorContains(t, err, "AMQP_URL is required")
	assert.ErrorContains(t, err, "GOOGLE_SPREADSHEET_ID is required")
}

func TestBuildTransaction(t *testing.T) {
	got, err := buildTransaction("2024-03-05", "Expense", "Groceries", "", "150.50")
	require.NoError(t, err)
	assert.Equal(t, core.Transaction{Date: "2024-03-05", Kind: core.Expense, Category: "Groceries", Amount: 150.5}, got)

	got, err = buildTransaction(" 2024-03-05 ", "Expense", "\tGroceries ", " weekly shop ", "1")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", got.Date)
	assert.Equal(t, "Groceries", got.Category)
	assert.Equal(t, "weekly shop", got.Description)

	_, err = buildTransaction("", "Expense", "Groceries", "", "1")
	assert.ErrorIs(t, err, core.ErrEmptyDate)
}
