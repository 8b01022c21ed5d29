package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	// SnapshotWriter replaces the exported view of the ledger with snap.
	SnapshotWriter interface {
		WriteSnapshot(ctx context.Context, snap core.Snapshot) error
	}
)
