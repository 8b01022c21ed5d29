// Package csvio reads and writes the ledger as delimited text with the
// columns date, type, category, description, amount.
package csvio

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"fintrack/internal/core"
)

type transactionRow struct {
	Date        string `csv:"date"`
	Type        string `csv:"type"`
	Category    string `csv:"category"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
}

// RowError reports the first row of an import that failed to parse or
// validate. Line counts data rows from 1, excluding the header.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Codec converts between transactions and CSV using Delimiter.
type Codec struct {
	Delimiter rune
}

// New returns a codec for delim; zero means comma.
func New(delim rune) *Codec {
	if delim == 0 {
		delim = ','
	}
	return &Codec{Delimiter: delim}
}

// ReadTransactions parses and validates every row. Nothing is returned
// unless all rows are valid.
func (c *Codec) ReadTransactions(r io.Reader) ([]core.Transaction, error) {
	cr := csv.NewReader(skipBOM(r))
	cr.Comma = c.Delimiter
	cr.TrimLeadingSpace = true

	var rows []transactionRow
	if err := gocsv.UnmarshalCSV(cr, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return []core.Transaction{}, nil
		}
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	out := make([]core.Transaction, 0, len(rows))
	for i, row := range rows {
		t, err := row.toTransaction()
		if err != nil {
			return nil, &RowError{Line: i + 1, Err: err}
		}
		out = append(out, t)
	}
	return out, nil
}

func (row transactionRow) toTransaction() (core.Transaction, error) {
	kind, err := core.ParseKind(strings.TrimSpace(row.Type))
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(row.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{
		Date:        strings.TrimSpace(row.Date),
		Kind:        kind,
		Category:    core.CleanText(row.Category),
		Description: core.CleanText(row.Description),
		Amount:      amount,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// WriteTransactions writes a header and one row per transaction in the
// given order. Amounts carry two decimals.
func (c *Codec) WriteTransactions(w io.Writer, txs []core.Transaction) error {
	rows := make([]*transactionRow, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, &transactionRow{
			Date:        t.Date,
			Type:        t.Kind.String(),
			Category:    t.Category,
			Description: t.Description,
			Amount:      core.FormatAmount(t.Amount),
		})
	}

	cw := csv.NewWriter(w)
	cw.Comma = c.Delimiter
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

var bom = []byte{0xEF, 0xBB, 0xBF}

func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(bom)); err == nil && bytes.Equal(head, bom) {
		_, _ = br.Discard(len(bom))
	}
	return br
}
