package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"fintrack/internal/core"
)

const (
	maxJSONBody   = 64 << 10
	maxImportBody = 10 << 20
)

type transactionRequest struct {
	Date        string      `json:"date"`
	Type        string      `json:"type"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Amount      amountField `json:"amount"`
}

type budgetRequest struct {
	Category string      `json:"category"`
	Amount   amountField `json:"amount"`
}

// amountField accepts an amount as a JSON number or as a string, so that
// "12,50" reaches ParseAmount intact.
type amountField string

func (a *amountField) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountField(s)
		return nil
	}
	*a = amountField(b)
	return nil
}

// decodeJSON reads a single JSON object from the request body, rejecting
// unknown fields and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid request body: unexpected data after JSON object")
	}
	return nil
}

// toTransaction sanitizes and validates the request. Errors returned are
// core validation errors.
func (req transactionRequest) toTransaction() (core.Transaction, error) {
	kind, err := core.ParseKind(req.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(string(req.Amount))
	if err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{
		Date:        strings.TrimSpace(req.Date),
		Kind:        kind,
		Category:    core.CleanText(req.Category),
		Description: core.CleanText(req.Description),
		Amount:      amount,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func (req budgetRequest) toBudget() (core.Budget, error) {
	amount, err := core.ParseAmount(string(req.Amount))
	if err != nil {
		return core.Budget{}, err
	}
	b := core.Budget{Category: core.CleanText(req.Category), Amount: amount}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

// importBody returns the CSV payload of an import request: the "file" part
// of a multipart form, or the raw body otherwise.
func importBody(w http.ResponseWriter, r *http.Request) (io.ReadCloser, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, nil
	}
	if err := r.ParseMultipartForm(maxImportBody); err != nil {
		return nil, fmt.Errorf("parse multipart form: %w", err)
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("read form file: %w", err)
	}
	return f, nil
}
