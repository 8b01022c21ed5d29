package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

// SnapshotSource provides the current ledger state.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (core.Snapshot, error)
}

// ExportWorker mirrors the ledger into an external sheet. Ledger events only
// mark the export as stale; the sheet is rewritten at most once per interval.
type ExportWorker struct {
	source   SnapshotSource
	writer   sheets.SnapshotWriter
	interval time.Duration

	dirty atomic.Bool
	mu    sync.Mutex
}

func NewExportWorker(source SnapshotSource, writer sheets.SnapshotWriter, interval time.Duration) *ExportWorker {
	return &ExportWorker{
		source:   source,
		writer:   writer,
		interval: interval,
	}
}

// HandleEvent records that the ledger changed.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	slog.DebugContext(ctx, "Ledger changed, export scheduled",
		"component", "worker",
		"event_type", ev.Type,
		"id", ev.ID)
	w.dirty.Store(true)
	return nil
}

// Dirty reports whether an export is pending.
func (w *ExportWorker) Dirty() bool {
	return w.dirty.Load()
}

// ExportNow writes a fresh snapshot regardless of the dirty flag.
func (w *ExportWorker) ExportNow(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	start := time.Now()
	snap, err := w.source.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	if err := w.writer.WriteSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Ledger exported",
		"component", "worker",
		"transactions", len(snap.Transactions),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// flush exports when the ledger changed since the last successful export.
// A failed export leaves the flag set so the next tick retries.
func (w *ExportWorker) flush(ctx context.Context) error {
	if !w.dirty.Swap(false) {
		return nil
	}
	if err := w.ExportNow(ctx); err != nil {
		w.dirty.Store(true)
		return err
	}
	return nil
}

// Run exports once at startup and then flushes pending changes on every
// tick until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context) error {
	w.dirty.Store(true)
	if err := w.flush(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup export failed", "component", "worker", "error", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Export worker stopping", "component", "worker", "pending", w.Dirty())
			return ctx.Err()
		case <-ticker.C:
			if err := w.flush(ctx); err != nil {
				slog.ErrorContext(ctx, "Export failed, will retry", "component", "worker", "error", err)
			}
		}
	}
}
