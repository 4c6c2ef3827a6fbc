package database

import (
	"context"
	"errors"
	"testing"
)

// fakeBatch counts staged writes and records the size of its commit.
type fakeBatch struct {
	staged        int
	committedSize int
	commitErr     error
}

func (b *fakeBatch) CreateBeneficiary(kind AggregateKind, rootID string, ben *Beneficiary) { b.staged++ }
func (b *fakeBatch) CreateDonation(d *Donation)                                            { b.staged++ }
func (b *fakeBatch) SetDonationTypeSplit(id string, split []CategoryAmount)                { b.staged++ }
func (b *fakeBatch) DeleteBeneficiary(kind AggregateKind, rootID, id string)               { b.staged++ }
func (b *fakeBatch) DeleteDonation(id string)                                              { b.staged++ }
func (b *fakeBatch) DeleteCampaign(kind AggregateKind, id string)                          { b.staged++ }
func (b *fakeBatch) SetUser(u *User)                                                       { b.staged++ }
func (b *fakeBatch) DeleteUser(email string)                                               { b.staged++ }
func (b *fakeBatch) SetUserLookup(key, email string)                                       { b.staged++ }
func (b *fakeBatch) DeleteUserLookup(key string)                                           { b.staged++ }

func (b *fakeBatch) Commit(ctx context.Context) error {
	if b.commitErr != nil {
		return b.commitErr
	}
	b.committedSize = b.staged
	return nil
}

// fakeBatchStore only supports NewBatch; the embedded nil Store panics
// on anything else, which would flag an accumulator reaching past the
// batch API.
type fakeBatchStore struct {
	Store
	batches   []*fakeBatch
	commitErr error
}

func (f *fakeBatchStore) NewBatch() Batch {
	b := &fakeBatch{commitErr: f.commitErr}
	f.batches = append(f.batches, b)
	return b
}

func stageOne(b Batch) {
	b.DeleteDonation("doc")
}

func TestAccumulatorRespectsCapacity(t *testing.T) {
	store := &fakeBatchStore{}
	acc := NewAccumulator(store, 400)
	ctx := context.Background()

	for i := 0; i < 401; i++ {
		if err := acc.Add(ctx, stageOne); err != nil {
			t.Fatalf("Add %d failed: %v", i, err)
		}
	}
	if err := acc.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	if len(store.batches) != 2 {
		t.Fatalf("Expected 2 batches, got %d", len(store.batches))
	}
	if store.batches[0].committedSize != 400 {
		t.Errorf("Expected first commit to contain 400 writes, got %d", store.batches[0].committedSize)
	}
	if store.batches[1].committedSize != 1 {
		t.Errorf("Expected second commit to contain 1 write, got %d", store.batches[1].committedSize)
	}
	if acc.Commits() != 2 {
		t.Errorf("Expected 2 commits, got %d", acc.Commits())
	}
	if acc.Applied() != 401 {
		t.Errorf("Expected 401 applied writes, got %d", acc.Applied())
	}
}

func TestAccumulatorExactMultiple(t *testing.T) {
	store := &fakeBatchStore{}
	acc := NewAccumulator(store, 100)
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		if err := acc.Add(ctx, stageOne); err != nil {
			t.Fatalf("Add %d failed: %v", i, err)
		}
	}
	if err := acc.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	if len(store.batches) != 2 {
		t.Errorf("Expected 2 batches for 200 writes at limit 100, got %d", len(store.batches))
	}
	if acc.Applied() != 200 {
		t.Errorf("Expected 200 applied writes, got %d", acc.Applied())
	}
}

func TestAccumulatorEmptyFlush(t *testing.T) {
	store := &fakeBatchStore{}
	acc := NewAccumulator(store, 400)

	if err := acc.Flush(context.Background()); err != nil {
		t.Fatalf("Flush of empty accumulator failed: %v", err)
	}
	if len(store.batches) != 0 {
		t.Errorf("Expected no batches for empty flush, got %d", len(store.batches))
	}
	if acc.Commits() != 0 {
		t.Errorf("Expected 0 commits, got %d", acc.Commits())
	}
}

func TestAccumulatorDefaultLimit(t *testing.T) {
	acc := NewAccumulator(&fakeBatchStore{}, 0)
	if acc.limit != DefaultBatchLimit {
		t.Errorf("Expected default limit %d, got %d", DefaultBatchLimit, acc.limit)
	}
}

func TestAccumulatorSurfacesCommitFailure(t *testing.T) {
	commitErr := errors.New("quota exceeded")
	store := &fakeBatchStore{commitErr: commitErr}
	acc := NewAccumulator(store, 10)
	ctx := context.Background()

	var err error
	for i := 0; i < 10 && err == nil; i++ {
		err = acc.Add(ctx, stageOne)
	}
	if !errors.Is(err, commitErr) {
		t.Fatalf("Expected commit error to surface from Add, got %v", err)
	}
	if acc.Applied() != 0 {
		t.Errorf("Expected no applied writes after failed commit, got %d", acc.Applied())
	}
}
