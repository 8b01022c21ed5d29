package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.LedgerEvent
	err    error
	closed bool
}

func (p *recordingPublisher) Publish(_ context.Context, ev *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, *ev)
	return nil
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

func (p *recordingPublisher) types() []amqp.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func newTestService(t *testing.T, pub EventPublisher) *LedgerService {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "finance.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return NewLedgerService(repo, pub)
}

func TestLedgerService_PublishesAfterMutations(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := newTestService(t, pub)

	id, err := svc.AddTransaction(ctx, core.Transaction{Date: "2024-01-01", Kind: core.Expense, Category: "Food", Amount: 10})
	require.NoError(t, err)
	require.NoError(t, svc.AddOrUpdateBudget(ctx, "Food", 100))
	require.NoError(t, svc.DeleteTransaction(ctx, id))
	require.NoError(t, svc.DeleteBudget(ctx, 42))

	assert.Equal(t, []amqp.EventType{
		amqp.TransactionCreated,
		amqp.BudgetUpserted,
		amqp.TransactionDeleted,
		amqp.BudgetDeleted,
	}, pub.types())
	assert.Equal(t, id, pub.events[0].ID)
	assert.Equal(t, "Food", pub.events[1].Category)
}

func TestLedgerService_PublishFailureDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newTestService(t, pub)

	_, err := svc.AddTransaction(ctx, core.Transaction{Date: "2024-01-01", Kind: core.Income, Category: "Salary", Amount: 10})
	require.NoError(t, err)

	txs, err := svc.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestLedgerService_NilPublisher(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	_, err := svc.AddTransaction(ctx, core.Transaction{Date: "2024-01-01", Kind: core.Income, Category: "Salary", Amount: 10})
	require.NoError(t, err)
	require.NoError(t, svc.Ping(ctx))
}

func TestLedgerService_Snapshot(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)
	fixed := time.Date(2024, 3, 31, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	for _, tx := range []core.Transaction{
		{Date: "2024-03-01", Kind: core.Income, Category: "Salary", Amount: 2000},
		{Date: "2024-03-05", Kind: core.Expense, Category: "Groceries", Amount: 150.50},
		{Date: "2024-03-09", Kind: core.Expense, Category: "Fun", Amount: 20},
	} {
		_, err := svc.AddTransaction(ctx, tx)
		require.NoError(t, err)
	}
	require.NoError(t, svc.AddOrUpdateBudget(ctx, "Groceries", 100))
	require.NoError(t, svc.AddOrUpdateBudget(ctx, "Travel", 300))

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	assert.Equal(t, fixed, snap.GeneratedAt)
	assert.Len(t, snap.Transactions, 3)
	assert.InDelta(t, 1829.5, snap.Summary.NetBalance, 1e-9)
	assert.Equal(t, []core.CategoryTotal{{Category: "Groceries", Total: 150.5}, {Category: "Fun", Total: 20}}, snap.ByCategory)
	assert.Len(t, snap.Monthly, 1)
	require.Len(t, snap.BudgetStatus, 2)

	groceries := snap.BudgetStatus[0]
	assert.Equal(t, "Groceries", groceries.Category)
	assert.InDelta(t, 150.5, groceries.Spent, 1e-9)
	assert.True(t, groceries.Over)

	travel := snap.BudgetStatus[1]
	assert.Equal(t, "Travel", travel.Category)
	assert.Zero(t, travel.Spent)
	assert.False(t, travel.Over)

	dash, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Nil(t, dash.Transactions)
	assert.Equal(t, snap.Summary, dash.Summary)
}

func TestLedgerService_BudgetStatuses(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	require.NoError(t, svc.AddOrUpdateBudget(ctx, "Rent", 800))
	_, err := svc.AddTransaction(ctx, core.Transaction{Date: "2024-01-01", Kind: core.Expense, Category: "Rent", Amount: 750})
	require.NoError(t, err)

	statuses, err := svc.BudgetStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.InDelta(t, 50, statuses[0].Remaining, 1e-9)
	assert.False(t, statuses[0].Over)
}

type failingRepo struct {
	Repository
	failAfter int
	calls     int
	closed    bool
}

func (r *failingRepo) AddTransaction(_ context.Context, _ core.Transaction) (int64, error) {
	r.calls++
	if r.calls > r.failAfter {
		return 0, errors.New("disk full")
	}
	return int64(r.calls), nil
}

func (r *failingRepo) Close() error {
	r.closed = true
	return nil
}

func TestLedgerService_ImportStopsAtFirstError(t *testing.T) {
	repo := &failingRepo{failAfter: 2}
	pub := &recordingPublisher{}
	svc := NewLedgerService(repo, pub)

	rows := make([]core.Transaction, 4)
	n, err := svc.ImportTransactions(context.Background(), rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import row 3")
	assert.Equal(t, 2, n)
	assert.Len(t, pub.types(), 2)
}

func TestLedgerService_ImportAll(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	n, err := svc.ImportTransactions(ctx, []core.Transaction{
		{Date: "2024-01-01", Kind: core.Income, Category: "Salary", Amount: 1},
		{Date: "2024-01-02", Kind: core.Expense, Category: "Food", Amount: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	cats, err := svc.GetAllCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Food", "Salary"}, cats)
}

func TestLedgerService_Close(t *testing.T) {
	repo := &failingRepo{}
	pub := &recordingPublisher{}
	svc := NewLedgerService(repo, pub)

	require.NoError(t, svc.Close())
	assert.True(t, repo.closed)
	assert.True(t, pub.closed)
}
