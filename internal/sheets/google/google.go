package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	transactionsSheet string
	summarySheet      string
}

var _ ports.SnapshotWriter = (*Client)(nil)

// Options selects the spreadsheet and the credentials used to reach it.
type Options struct {
	SpreadsheetID      string
	ServiceAccountJSON string
	ServiceAccountFile string
	TransactionsSheet  string
	SummarySheet       string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx, opts.ServiceAccountJSON, opts.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:               svc,
		spreadsheetID:     spreadsheetID,
		transactionsSheet: defaultName(opts.TransactionsSheet, "Transactions"),
		summarySheet:      defaultName(opts.SummarySheet, "Summary"),
	}, nil
}

func defaultName(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials, inline JSON first, then the credentials file.
func newSheetsService(ctx context.Context, serviceAccountJSON, serviceAccountFile string) (*gsheet.Service, error) {
	serviceAccountJSON = strings.TrimSpace(serviceAccountJSON)
	serviceAccountFile = strings.TrimSpace(serviceAccountFile)

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.DebugContext(ctx, "Using inline JSON credentials", "component", "sheets")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.DebugContext(ctx, "Reading credentials from file", "component", "sheets", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// WriteSnapshot clears both sheets and rewrites them from snap. Missing
// sheets are created first.
func (c *Client) WriteSnapshot(ctx context.Context, snap core.Snapshot) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	if err := c.ensureSheets(ctx); err != nil {
		return err
	}

	txRange := quoteSheet(c.transactionsSheet)
	sumRange := quoteSheet(c.summarySheet)

	_, err := c.svc.Spreadsheets.Values.BatchClear(c.spreadsheetID, &gsheet.BatchClearValuesRequest{
		Ranges: []string{txRange, sumRange},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear sheets: %w", err)
	}

	_, err = c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateValuesRequest{
		// RAW stores user text like "=1+1" verbatim instead of evaluating it.
		ValueInputOption: "RAW",
		Data: []*gsheet.ValueRange{
			{Range: txRange + "!A1", Values: transactionRows(snap.Transactions)},
			{Range: sumRange + "!A1", Values: summaryRows(snap)},
		},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write sheets: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot exported to Google Sheets",
		"component", "sheets",
		"transactions", len(snap.Transactions),
		"budgets", len(snap.Budgets))
	return nil
}

func (c *Client) ensureSheets(ctx context.Context) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}

	existing := make(map[string]bool, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			existing[sh.Properties.Title] = true
		}
	}

	missing := missingSheets(existing, c.transactionsSheet, c.summarySheet)
	if len(missing) == 0 {
		return nil
	}

	reqs := make([]*gsheet.Request, 0, len(missing))
	for _, title := range missing {
		reqs = append(reqs, &gsheet.Request{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		})
	}
	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("create sheets %v: %w", missing, err)
	}
	slog.InfoContext(ctx, "Created missing sheets", "component", "sheets", "sheets", missing)
	return nil
}

func missingSheets(existing map[string]bool, names ...string) []string {
	var out []string
	for _, n := range names {
		if !existing[n] {
			out = append(out, n)
		}
	}
	return out
}

// quoteSheet returns name in A1 notation quoting.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
