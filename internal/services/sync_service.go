package services

import (
	"context"
	"log"

	"amanah/internal/database"
)

// legacyGeneral is the pre-split category name; it maps to Sadqa.
const legacyGeneral = "General"

// SyncService backfills the typeSplit field on donations that still
// carry only the legacy singular type.
type SyncService struct {
	store      database.Store
	batchLimit int
}

func NewSyncService(store database.Store, batchLimit int) *SyncService {
	return &SyncService{store: store, batchLimit: batchLimit}
}

// LegacyTypeSplit computes the derived split for a donation from its
// legacy type: General becomes Sadqa, recognized categories pass
// through, anything else defaults to Sadqa. The full amount lands in
// the single resulting bucket.
func LegacyTypeSplit(d *database.Donation) []database.CategoryAmount {
	category := database.CategorySadqa
	if d.Type != legacyGeneral && database.RecognizedCategory(database.Category(d.Type)) {
		category = database.Category(d.Type)
	}
	return []database.CategoryAmount{{Category: category, Amount: d.Amount}}
}

// SyncDonationTypes scans the donations collection once and stages an
// update for every document whose typeSplit is still empty. Re-running
// after all documents are migrated performs zero writes.
func (s *SyncService) SyncDonationTypes(ctx context.Context) Result {
	dons, err := s.store.AllDonations(ctx)
	if err != nil {
		return failure(err, "failed to read donations: %v", err)
	}

	acc := database.NewAccumulator(s.store, s.batchLimit)
	updated := 0
	for i := range dons {
		don := dons[i]
		if len(don.TypeSplit) > 0 {
			continue
		}
		split := LegacyTypeSplit(&don)
		if err := acc.Add(ctx, func(b database.Batch) {
			b.SetDonationTypeSplit(don.ID, split)
		}); err != nil {
			return failure(ErrBatchCommit, "failed while migrating donations: %v", err)
		}
		updated++
	}

	if err := acc.Flush(ctx); err != nil {
		return failure(ErrBatchCommit, "failed to finish donation sync: %v", err)
	}

	log.Printf("Donation sync: %d of %d documents updated", updated, len(dons))
	res := success("synced %d of %d donations", updated, len(dons))
	res.UpdatedCount = updated
	return res
}
