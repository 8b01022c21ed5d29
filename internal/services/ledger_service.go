package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

// Repository is the ledger store.
type Repository interface {
	AddTransaction(ctx context.Context, t core.Transaction) (int64, error)
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	AddOrUpdateBudget(ctx context.Context, category string, amount float64) error
	ListBudgets(ctx context.Context) ([]core.Budget, error)
	DeleteBudget(ctx context.Context, id int64) error
	GetSummary(ctx context.Context) (core.Summary, error)
	GetExpensesByCategory(ctx context.Context) ([]core.CategoryTotal, error)
	GetMonthlySummary(ctx context.Context) ([]core.MonthTotals, error)
	GetAllCategories(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}

// EventPublisher announces committed ledger mutations.
type EventPublisher interface {
	Publish(ctx context.Context, ev *amqp.LedgerEvent) error
	Close() error
}

// LedgerService fronts the store for every presentation surface and
// publishes an event after each committed mutation.
type LedgerService struct {
	repo      Repository
	publisher EventPublisher
	now       func() time.Time
}

// NewLedgerService wires a store and an optional publisher (nil disables
// events).
func NewLedgerService(repo Repository, publisher EventPublisher) *LedgerService {
	return &LedgerService{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

// AddTransaction stores t and returns its new identifier. t is expected to
// be validated by the caller.
func (s *LedgerService) AddTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	id, err := s.repo.AddTransaction(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("add transaction: %w", err)
	}
	s.publish(ctx, amqp.NewLedgerEvent(amqp.TransactionCreated, id, t.Category))
	return id, nil
}

func (s *LedgerService) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.repo.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.publish(ctx, amqp.NewLedgerEvent(amqp.TransactionDeleted, id, ""))
	return nil
}

func (s *LedgerService) AddOrUpdateBudget(ctx context.Context, category string, amount float64) error {
	if err := s.repo.AddOrUpdateBudget(ctx, category, amount); err != nil {
		return fmt.Errorf("save budget: %w", err)
	}
	s.publish(ctx, amqp.NewLedgerEvent(amqp.BudgetUpserted, 0, category))
	return nil
}

func (s *LedgerService) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	budgets, err := s.repo.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return budgets, nil
}

func (s *LedgerService) DeleteBudget(ctx context.Context, id int64) error {
	if err := s.repo.DeleteBudget(ctx, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	s.publish(ctx, amqp.NewLedgerEvent(amqp.BudgetDeleted, id, ""))
	return nil
}

func (s *LedgerService) GetSummary(ctx context.Context) (core.Summary, error) {
	sum, err := s.repo.GetSummary(ctx)
	if err != nil {
		return core.Summary{}, fmt.Errorf("get summary: %w", err)
	}
	return sum, nil
}

func (s *LedgerService) GetExpensesByCategory(ctx context.Context) ([]core.CategoryTotal, error) {
	totals, err := s.repo.GetExpensesByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("get expenses by category: %w", err)
	}
	return totals, nil
}

func (s *LedgerService) GetMonthlySummary(ctx context.Context) ([]core.MonthTotals, error) {
	months, err := s.repo.GetMonthlySummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("get monthly summary: %w", err)
	}
	return months, nil
}

func (s *LedgerService) GetAllCategories(ctx context.Context) ([]string, error) {
	cats, err := s.repo.GetAllCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("get categories: %w", err)
	}
	return cats, nil
}

// Ping reports whether the store is reachable.
func (s *LedgerService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// BudgetStatuses pairs every budget with the expenses recorded under its
// category.
func (s *LedgerService) BudgetStatuses(ctx context.Context) ([]core.BudgetStatus, error) {
	var (
		budgets  []core.Budget
		spending []core.CategoryTotal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		budgets, err = s.repo.ListBudgets(gctx)
		return err
	})
	g.Go(func() (err error) {
		spending, err = s.repo.GetExpensesByCategory(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("budget statuses: %w", err)
	}
	return core.NewBudgetStatuses(budgets, spending), nil
}

// Dashboard gathers every aggregate except the transaction list.
func (s *LedgerService) Dashboard(ctx context.Context) (core.Snapshot, error) {
	return s.snapshot(ctx, false)
}

// Snapshot gathers the full ledger state for export.
func (s *LedgerService) Snapshot(ctx context.Context) (core.Snapshot, error) {
	return s.snapshot(ctx, true)
}

func (s *LedgerService) snapshot(ctx context.Context, withTransactions bool) (core.Snapshot, error) {
	snap := core.Snapshot{GeneratedAt: s.now().UTC()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Summary, err = s.repo.GetSummary(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.ByCategory, err = s.repo.GetExpensesByCategory(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Monthly, err = s.repo.GetMonthlySummary(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Budgets, err = s.repo.ListBudgets(gctx)
		return err
	})
	if withTransactions {
		g.Go(func() (err error) {
			snap.Transactions, err = s.repo.ListTransactions(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return core.Snapshot{}, fmt.Errorf("build snapshot: %w", err)
	}

	snap.BudgetStatus = core.NewBudgetStatuses(snap.Budgets, snap.ByCategory)
	return snap, nil
}

// ImportTransactions adds rows one by one and stops at the first store
// error. It returns how many rows were committed; earlier rows stay.
func (s *LedgerService) ImportTransactions(ctx context.Context, txs []core.Transaction) (int, error) {
	for i, t := range txs {
		if _, err := s.AddTransaction(ctx, t); err != nil {
			return i, fmt.Errorf("import row %d: %w", i+1, err)
		}
	}
	slog.InfoContext(ctx, "Transactions imported", "component", "ledger", "count", len(txs))
	return len(txs), nil
}

func (s *LedgerService) publish(ctx context.Context, ev *amqp.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	// The mutation is already committed; a lost event only delays export.
	if err := s.publisher.Publish(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"component", "ledger",
			"event_type", ev.Type,
			"id", ev.ID,
			"error", err)
	}
}

// Close closes both the store and the publisher.
func (s *LedgerService) Close() error {
	var errs []error

	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}
	return nil
}
