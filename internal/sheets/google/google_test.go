package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{ServiceAccountJSON: "{}"})
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "sheet-id"})
	if err == nil {
		t.Fatal("expected error without credentials")
	}
	if !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Options{
		SpreadsheetID:      "sheet-id",
		ServiceAccountFile: filepath.Join(t.TempDir(), "missing.json"),
	})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestWriteSnapshot_NoService(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if err := c.WriteSnapshot(context.Background(), core.Snapshot{}); err == nil {
		t.Fatal("expected error when service is not initialized")
	}
}

func TestTransactionRows(t *testing.T) {
	rows := transactionRows([]core.Transaction{
		{ID: 2, Date: "2024-03-05", Kind: core.Expense, Category: "Groceries", Description: "weekly", Amount: 150.504},
		{ID: 1, Date: "2024-03-01", Kind: core.Income, Category: "Salary", Amount: 2000},
	})

	want := [][]any{
		transactionHeader,
		{int64(2), "2024-03-05", "Expense", "Groceries", "weekly", 150.5},
		{int64(1), "2024-03-01", "Income", "Salary", "", 2000.0},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("transactionRows() = %v, want %v", rows, want)
	}
}

func TestTransactionRows_Empty(t *testing.T) {
	rows := transactionRows(nil)
	if len(rows) != 1 {
		t.Fatalf("expected header only, got %d rows", len(rows))
	}
}

func TestSummaryRows(t *testing.T) {
	snap := core.Snapshot{
		GeneratedAt: time.Date(2024, 3, 31, 8, 0, 0, 0, time.UTC),
		Summary:     core.NewSummary(2000, 150.5),
		ByCategory:  []core.CategoryTotal{{Category: "Groceries", Total: 150.5}},
		Monthly:     []core.MonthTotals{{Month: "2024-03", Income: 2000, Expense: 150.5}},
		BudgetStatus: []core.BudgetStatus{
			{Category: "Groceries", Budget: 100, Spent: 150.5, Remaining: -50.5, Over: true},
		},
	}

	rows := summaryRows(snap)

	find := func(label string) []any {
		for _, r := range rows {
			if len(r) > 0 && r[0] == label {
				return r
			}
		}
		t.Fatalf("row %q not found", label)
		return nil
	}

	if got := find("Generated at"); got[1] != "2024-03-31T08:00:00Z" {
		t.Errorf("Generated at = %v", got[1])
	}
	if got := find("Net balance"); got[1] != 1849.5 {
		t.Errorf("Net balance = %v, want 1849.5", got[1])
	}
	if got := find("2024-03"); !reflect.DeepEqual(got, []any{"2024-03", 2000.0, 150.5, 1849.5}) {
		t.Errorf("monthly row = %v", got)
	}

	last := rows[len(rows)-1]
	if !reflect.DeepEqual(last, []any{"Groceries", 100.0, 150.5, -50.5, true}) {
		t.Errorf("budget row = %v", last)
	}
}

func TestMissingSheets(t *testing.T) {
	got := missingSheets(map[string]bool{"Summary": true, "Other": true}, "Transactions", "Summary")
	if !reflect.DeepEqual(got, []string{"Transactions"}) {
		t.Errorf("missingSheets() = %v", got)
	}
	if got := missingSheets(map[string]bool{"A": true}, "A"); got != nil {
		t.Errorf("missingSheets() = %v, want nil", got)
	}
}

func TestQuoteSheet(t *testing.T) {
	tests := map[string]string{
		"Summary":    "'Summary'",
		"My Ledger":  "'My Ledger'",
		"Bob's data": "'Bob''s data'",
	}
	for in, want := range tests {
		if got := quoteSheet(in); got != want {
			t.Errorf("quoteSheet(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteSnapshot_StoresTextVerbatim(t *testing.T) {
	var got gsheet.BatchUpdateValuesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "values:batchClear"):
			_, _ = w.Write([]byte(`{}`))
		case strings.HasSuffix(r.URL.Path, "values:batchUpdate"):
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decode batch update: %v", err)
			}
			_, _ = w.Write([]byte(`{}`))
		case r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`{"sheets":[{"properties":{"title":"Transactions"}},{"properties":{"title":"Summary"}}]}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	c := &Client{svc: svc, spreadsheetID: "sheet-id", transactionsSheet: "Transactions", summarySheet: "Summary"}

	snap := core.Snapshot{
		GeneratedAt: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Transactions: []core.Transaction{
			{ID: 1, Date: "2024-03-05", Kind: core.Expense, Category: "=IMPORTXML(\"x\")", Amount: 5},
		},
	}
	if err := c.WriteSnapshot(context.Background(), snap); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	if got.ValueInputOption != "RAW" {
		t.Errorf("ValueInputOption = %q, want RAW", got.ValueInputOption)
	}
	if len(got.Data) != 2 || len(got.Data[0].Values) != 2 {
		t.Fatalf("unexpected payload: %+v", got.Data)
	}
	if cat := got.Data[0].Values[1][3]; cat != `=IMPORTXML("x")` {
		t.Errorf("category = %v, want it sent unchanged", cat)
	}
}
