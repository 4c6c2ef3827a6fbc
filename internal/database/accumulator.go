package database

import (
	"context"
	"fmt"
)

// DefaultBatchLimit keeps each commit well under the store's hard cap
// of 500 writes per batch.
const DefaultBatchLimit = 400

// Accumulator collects staged writes and commits them in bounded
// batches. Each commit is atomic for the writes it contains; the
// Accumulator provides no atomicity across commits, so a failure
// between batches leaves earlier batches durably applied.
type Accumulator struct {
	store   Store
	limit   int
	batch   Batch
	staged  int
	applied int
	commits int
}

func NewAccumulator(store Store, limit int) *Accumulator {
	if limit <= 0 {
		limit = DefaultBatchLimit
	}
	return &Accumulator{store: store, limit: limit}
}

// Add stages exactly one write through the stage callback. When the
// staged count reaches the limit the current batch is committed and a
// fresh one opened before further writes are accepted.
func (a *Accumulator) Add(ctx context.Context, stage func(Batch)) error {
	if a.batch == nil {
		a.batch = a.store.NewBatch()
	}
	stage(a.batch)
	a.staged++
	if a.staged >= a.limit {
		return a.Flush(ctx)
	}
	return nil
}

// Flush commits any remaining staged writes. A commit failure is fatal
// to the whole operation; already-committed batches are not rolled
// back.
func (a *Accumulator) Flush(ctx context.Context) error {
	if a.staged == 0 {
		return nil
	}
	if err := a.batch.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit batch of %d writes: %w", a.staged, err)
	}
	a.applied += a.staged
	a.commits++
	a.staged = 0
	a.batch = nil
	return nil
}

// Applied returns the total number of writes committed so far.
func (a *Accumulator) Applied() int { return a.applied }

// Commits returns how many batches have been committed.
func (a *Accumulator) Commits() int { return a.commits }
