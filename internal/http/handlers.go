package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/csvio"
	"fintrack/internal/log"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.ledger.Ping(ctx); err != nil {
		s.structured.LogError(ctx, "Readiness check failed", err, log.ComponentStorage, "ping", nil)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// storeError reports a failed ledger call as a 500 carrying the error text.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.structured.LogError(r.Context(), "Ledger operation failed", err, log.ComponentHTTP, op, nil)
	writeError(w, r, http.StatusInternalServerError, err)
}

// inputError maps a validation failure to 422 and anything else to 400.
func inputError(w http.ResponseWriter, r *http.Request, err error) {
	var rowErr *csvio.RowError
	if core.IsValidationError(err) || errors.As(err, &rowErr) {
		writeError(w, r, http.StatusUnprocessableEntity, err)
		return
	}
	writeError(w, r, http.StatusBadRequest, err)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.ListTransactions(r.Context())
	if err != nil {
		s.storeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newTransactionResponses(txs))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		inputError(w, r, err)
		return
	}
	t, err := req.toTransaction()
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Transaction rejected",
			log.FieldOperation, log.OpValidate,
			log.FieldError, err.Error())
		inputError(w, r, err)
		return
	}

	id, err := s.ledger.AddTransaction(ctx, t)
	if err != nil {
		s.storeError(w, r, log.OpCreate, err)
		return
	}
	s.invalidateDashboard()
	s.structured.LogTransactionCreated(ctx, id, t.Date, t.Kind.String(), t.Category, t.Amount)

	writeJSON(w, r, http.StatusCreated, createdResponse{ID: id})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		s.storeError(w, r, log.OpDelete, err)
		return
	}
	s.invalidateDashboard()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.ledger.ListBudgets(r.Context())
	if err != nil {
		s.storeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newBudgetResponses(budgets))
}

func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		inputError(w, r, err)
		return
	}
	b, err := req.toBudget()
	if err != nil {
		inputError(w, r, err)
		return
	}
	if err := s.ledger.AddOrUpdateBudget(ctx, b.Category, b.Amount); err != nil {
		s.storeError(w, r, log.OpUpsert, err)
		return
	}
	s.invalidateDashboard()
	s.structured.LogBudgetSaved(ctx, b.Category, b.Amount)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := s.ledger.DeleteBudget(r.Context(), id); err != nil {
		s.storeError(w, r, log.OpDelete, err)
		return
	}
	s.invalidateDashboard()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.ledger.GetSummary(r.Context())
	if err != nil {
		s.storeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newSummaryResponse(sum))
}

func (s *Server) handleExpensesByCategory(w http.ResponseWriter, r *http.Request) {
	totals, err := s.ledger.GetExpensesByCategory(r.Context())
	if err != nil {
		s.storeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newCategoryTotalResponses(totals))
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	months, err := s.ledger.GetMonthlySummary(r.Context())
	if err != nil {
		s.storeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newMonthResponses(months))
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.ledger.BudgetStatuses(r.Context())
	if err != nil {
		s.storeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newBudgetStatusResponses(statuses))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.ledger.GetAllCategories(r.Context())
	if err != nil {
		s.storeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, r, http.StatusOK, cats)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap, hit, err := s.dashboard(r.Context())
	if err != nil {
		s.storeError(w, r, log.OpList, err)
		return
	}
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	writeJSON(w, r, http.StatusOK, newDashboardResponse(snap))
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	txs, err := s.ledger.ListTransactions(ctx)
	if err != nil {
		s.storeError(w, r, log.OpExport, err)
		return
	}

	var buf bytes.Buffer
	if err := s.codec.WriteTransactions(&buf, txs); err != nil {
		s.structured.LogError(ctx, "CSV export failed", err, log.ComponentCSV, log.OpExport, nil)
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := importBody(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	defer body.Close()

	txs, err := s.codec.ReadTransactions(body)
	if err != nil {
		inputError(w, r, err)
		return
	}

	n, err := s.ledger.ImportTransactions(ctx, txs)
	if n > 0 {
		s.invalidateDashboard()
	}
	if err != nil {
		s.structured.LogError(ctx, "CSV import failed", err, log.ComponentCSV, log.OpImport,
			log.LogFields{log.FieldCount: n})
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: err.Error(), Imported: &n})
		return
	}

	s.logger.InfoContext(ctx, "CSV import completed",
		log.FieldOperation, log.OpImport,
		log.FieldCount, n)
	writeJSON(w, r, http.StatusOK, importResponse{Imported: n})
}
