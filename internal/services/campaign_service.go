package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"amanah/internal/database"
	"amanah/internal/storage"
)

// CopyOptions selects which child sets a bulk copy carries over.
type CopyOptions struct {
	Beneficiaries bool
	Donations     bool
	ItemLists     bool
}

// Actor identifies the admin a copy is attributed to in the rewritten
// audit fields.
type Actor struct {
	ID   string
	Name string
}

// CampaignService runs the bulk copy and bulk delete operations for
// campaigns and leads.
type CampaignService struct {
	store      database.Store
	blobs      storage.BlobStore
	batchLimit int
}

func NewCampaignService(store database.Store, blobs storage.BlobStore, batchLimit int) *CampaignService {
	return &CampaignService{store: store, blobs: blobs, batchLimit: batchLimit}
}

// List returns every root of the given kind.
func (s *CampaignService) List(ctx context.Context, kind database.AggregateKind) ([]database.Campaign, error) {
	return s.store.ListCampaigns(ctx, kind)
}

// Copy duplicates the source root under a fresh id with identity
// fields reset, then copies the selected child sets through bounded
// batches. The source is never mutated.
func (s *CampaignService) Copy(ctx context.Context, kind database.AggregateKind, sourceID, newName string, opts CopyOptions, actor Actor) Result {
	src, err := s.store.GetCampaign(ctx, kind, sourceID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return failure(ErrNotFound, "%s %s does not exist", kind.Singular(), sourceID)
		}
		return failure(err, "failed to read source %s: %v", kind.Singular(), err)
	}

	dup := &database.Campaign{
		Name:          newName,
		Status:        database.StatusUpcoming,
		Verification:  database.VerificationUnverified,
		Visibility:    database.VisibilityPrivate,
		ItemLists:     map[string][]string{},
		CreatedAt:     time.Now(),
		CreatedByID:   actor.ID,
		CreatedByName: actor.Name,
	}
	if opts.ItemLists {
		dup.ItemLists = cloneItemLists(src.ItemLists)
	}

	newID, err := s.store.CreateCampaign(ctx, kind, dup)
	if err != nil {
		return failure(err, "failed to create copy of %s %q: %v", kind.Singular(), src.Name, err)
	}

	acc := database.NewAccumulator(s.store, s.batchLimit)

	if opts.Beneficiaries {
		bens, err := s.store.ListBeneficiaries(ctx, kind, sourceID)
		if err != nil {
			return failure(err, "failed to read beneficiaries of %s: %v", sourceID, err)
		}
		for i := range bens {
			ben := bens[i]
			ben.ID = ""
			ben.Status = database.BeneficiaryPending
			ben.IDProofURL = ""
			ben.IDProofPublic = false
			if err := acc.Add(ctx, func(b database.Batch) {
				b.CreateBeneficiary(kind, newID, &ben)
			}); err != nil {
				return failure(ErrBatchCommit, "failed while copying beneficiaries: %v", err)
			}
		}
	}

	if opts.Donations {
		dons, err := s.store.ListDonations(ctx, kind, sourceID)
		if err != nil {
			return failure(err, "failed to read donations of %s: %v", sourceID, err)
		}
		for i := range dons {
			don := dons[i]
			don.ID = ""
			don.SetForeignKey(kind, newID)
			don.CampaignName = newName
			don.Status = database.DonationPending
			don.ScreenshotURL = ""
			don.CreatedAt = time.Now()
			if err := acc.Add(ctx, func(b database.Batch) {
				b.CreateDonation(&don)
			}); err != nil {
				return failure(ErrBatchCommit, "failed while copying donations: %v", err)
			}
		}
	}

	if err := acc.Flush(ctx); err != nil {
		return failure(ErrBatchCommit, "failed to finish copy of %s: %v", src.Name, err)
	}

	log.Printf("Copied %s %q (%s) to %q (%s), %d child writes",
		kind.Singular(), src.Name, sourceID, newName, newID, acc.Applied())
	return success("%s %q copied to %q", kind.Singular(), src.Name, newName)
}

// Delete removes the root, its beneficiaries, its donations and every
// referenced attachment. Blobs go first: an interrupted run leaves
// orphaned blobs (recoverable waste) rather than documents pointing at
// missing attachments.
func (s *CampaignService) Delete(ctx context.Context, kind database.AggregateKind, id string) Result {
	root, err := s.store.GetCampaign(ctx, kind, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return failure(ErrNotFound, "%s %s does not exist", kind.Singular(), id)
		}
		return failure(err, "failed to read %s: %v", kind.Singular(), err)
	}

	var (
		bens []database.Beneficiary
		dons []database.Donation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bens, err = s.store.ListBeneficiaries(gctx, kind, id)
		return err
	})
	g.Go(func() error {
		var err error
		dons, err = s.store.ListDonations(gctx, kind, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return failure(err, "failed to read children of %s %s: %v", kind.Singular(), id, err)
	}

	var refs []string
	for _, ben := range bens {
		if ben.IDProofURL != "" {
			refs = append(refs, ben.IDProofURL)
		}
	}
	for _, don := range dons {
		if don.ScreenshotURL != "" {
			refs = append(refs, don.ScreenshotURL)
		}
	}

	s.deleteBlobs(ctx, refs)

	acc := database.NewAccumulator(s.store, s.batchLimit)
	for _, ben := range bens {
		benID := ben.ID
		if err := acc.Add(ctx, func(b database.Batch) {
			b.DeleteBeneficiary(kind, id, benID)
		}); err != nil {
			return failure(ErrBatchCommit, "failed while deleting beneficiaries: %v", err)
		}
	}
	for _, don := range dons {
		donID := don.ID
		if err := acc.Add(ctx, func(b database.Batch) {
			b.DeleteDonation(donID)
		}); err != nil {
			return failure(ErrBatchCommit, "failed while deleting donations: %v", err)
		}
	}
	if err := acc.Add(ctx, func(b database.Batch) {
		b.DeleteCampaign(kind, id)
	}); err != nil {
		return failure(ErrBatchCommit, "failed while deleting %s: %v", kind.Singular(), err)
	}
	if err := acc.Flush(ctx); err != nil {
		return failure(ErrBatchCommit, "failed to finish delete of %s: %v", root.Name, err)
	}

	log.Printf("Deleted %s %q (%s): %d documents, %d attachments",
		kind.Singular(), root.Name, id, acc.Applied(), len(refs))
	return success("%s %q deleted", kind.Singular(), root.Name)
}

// deleteBlobs issues every attachment delete concurrently and waits
// for all of them. Already-absent blobs count as deleted; any other
// failure is logged and the operation continues, since attachments are
// not part of the transactional invariant.
func (s *CampaignService) deleteBlobs(ctx context.Context, refs []string) {
	var wg sync.WaitGroup
	for _, ref := range refs {
		wg.Add(1)
		go func(ref string) {
			defer wg.Done()
			if err := s.blobs.Delete(ctx, ref); err != nil && !errors.Is(err, storage.ErrBlobNotFound) {
				log.Printf("Failed to delete attachment %s: %v", ref, err)
			}
		}(ref)
	}
	wg.Wait()
}

func cloneItemLists(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, items := range m {
		out[k] = append([]string(nil), items...)
	}
	return out
}
