// Package memory provides an in-process sheets.SnapshotWriter for tests of
// code that exports snapshots.
package memory

import (
	"context"
	"sync"

	"fintrack/internal/core"
)

// Store keeps the last exported snapshot in memory and can be told to fail,
// so export retries can be exercised without a spreadsheet.
type Store struct {
	mu     sync.Mutex
	last   core.Snapshot
	writes int
	err    error
}

func New() *Store {
	return &Store{}
}

// FailWith makes subsequent writes return err. A nil err restores success.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// WriteSnapshot records snap as the current export.
func (s *Store) WriteSnapshot(_ context.Context, snap core.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.last = snap
	s.writes++
	return nil
}

// Last returns the most recent snapshot and how many writes succeeded.
func (s *Store) Last() (core.Snapshot, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.writes
}
