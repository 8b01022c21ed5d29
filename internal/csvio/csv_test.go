package csvio

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestWriteTransactions(t *testing.T) {
	var buf bytes.Buffer
	err := New(0).WriteTransactions(&buf, []core.Transaction{
		{ID: 2, Date: "2024-03-05", Kind: core.Expense, Category: "Groceries", Description: "milk, eggs", Amount: 150.5},
		{ID: 1, Date: "2024-03-01", Kind: core.Income, Category: "Salary", Amount: 2000},
	})
	require.NoError(t, err)

	want := "date,type,category,description,amount\n" +
		"2024-03-05,Expense,Groceries,\"milk, eggs\",150.50\n" +
		"2024-03-01,Income,Salary,,2000.00\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteTransactions_EmptyWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(0).WriteTransactions(&buf, nil))
	assert.Equal(t, "date,type,category,description,amount\n", buf.String())
}

func TestReadTransactions(t *testing.T) {
	in := "date,type,category,description,amount\n" +
		"2024-03-01,income,Salary,,2000\n" +
		"2024-03-05, Expense ,Groceries,weekly shop,\"150,50\"\n"

	got, err := New(0).ReadTransactions(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []core.Transaction{
		{Date: "2024-03-01", Kind: core.Income, Category: "Salary", Amount: 2000},
		{Date: "2024-03-05", Kind: core.Expense, Category: "Groceries", Description: "weekly shop", Amount: 150.5},
	}, got)
}

func TestReadTransactions_ColumnOrderAndBOM(t *testing.T) {
	in := "\xEF\xBB\xBFamount,category,type,date\n12.345,Food,Expense,2024-01-02\n"

	got, err := New(0).ReadTransactions(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 12.345, got[0].Amount)
	assert.Equal(t, "2024-01-02", got[0].Date)
}

func TestReadTransactions_Empty(t *testing.T) {
	for name, in := range map[string]string{
		"no input":    "",
		"header only": "date,type,category,description,amount\n",
	} {
		t.Run(name, func(t *testing.T) {
			got, err := New(0).ReadTransactions(strings.NewReader(in))
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestReadTransactions_InvalidRows(t *testing.T) {
	header := "date,type,category,description,amount\n"
	good := "2024-01-01,Income,Salary,,10\n"

	tests := []struct {
		name    string
		row     string
		line    int
		wantErr error
	}{
		{name: "bad kind", row: "2024-01-02,Transfer,Food,,10\n", line: 2, wantErr: core.ErrInvalidKind},
		{name: "bad date", row: "2024-02-30,Expense,Food,,10\n", line: 2, wantErr: core.ErrInvalidDate},
		{name: "empty date", row: ",Expense,Food,,10\n", line: 2, wantErr: core.ErrEmptyDate},
		{name: "empty category", row: "2024-01-02,Expense,  ,,10\n", line: 2, wantErr: core.ErrEmptyCategory},
		{name: "zero amount", row: "2024-01-02,Expense,Food,,0\n", line: 2, wantErr: core.ErrInvalidAmount},
		{name: "text amount", row: "2024-01-02,Expense,Food,,ten\n", line: 2, wantErr: core.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(0).ReadTransactions(strings.NewReader(header + good + tt.row + good))
			require.Error(t, err)

			var rowErr *RowError
			require.True(t, errors.As(err, &rowErr))
			assert.Equal(t, tt.line, rowErr.Line)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, core.IsValidationError(err))
		})
	}
}

func TestReadTransactions_MalformedCSV(t *testing.T) {
	_, err := New(0).ReadTransactions(strings.NewReader("date,type\n\"unterminated,Income\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse csv")
}

func TestCodec_Semicolon(t *testing.T) {
	codec := New(';')
	txs := []core.Transaction{
		{Date: "2024-05-01", Kind: core.Expense, Category: "Rent", Description: "May; flat", Amount: 800},
	}

	var buf bytes.Buffer
	require.NoError(t, codec.WriteTransactions(&buf, txs))
	assert.True(t, strings.HasPrefix(buf.String(), "date;type;category;description;amount\n"))

	got, err := codec.ReadTransactions(&buf)
	require.NoError(t, err)
	assert.Equal(t, txs, got)
}

func TestNew_DefaultsToComma(t *testing.T) {
	assert.Equal(t, ',', New(0).Delimiter)
}
