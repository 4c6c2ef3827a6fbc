package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestCampaignRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	c := &Campaign{
		Name:          "Winter Kits 2025",
		Status:        StatusActive,
		Verification:  VerificationVerified,
		Visibility:    VisibilityPublic,
		ItemLists:     map[string][]string{"kit": {"blanket", "rice"}},
		CreatedAt:     time.Now(),
		CreatedByID:   "admin-1",
		CreatedByName: "Admin",
	}

	id, err := store.CreateCampaign(ctx, KindCampaign, c)
	if err != nil {
		t.Fatalf("CreateCampaign failed: %v", err)
	}
	if id == "" {
		t.Fatal("Expected a server-assigned id")
	}

	got, err := store.GetCampaign(ctx, KindCampaign, id)
	if err != nil {
		t.Fatalf("GetCampaign failed: %v", err)
	}
	if got.Name != c.Name || got.Status != StatusActive || got.Visibility != VisibilityPublic {
		t.Errorf("Round trip mismatch: %+v", got)
	}
	if len(got.ItemLists["kit"]) != 2 {
		t.Errorf("Expected 2 kit items, got %v", got.ItemLists)
	}

	// Same id under the other kind must not resolve
	if _, err := store.GetCampaign(ctx, KindLead, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for wrong kind, got %v", err)
	}
}

func TestGetCampaignNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetCampaign(context.Background(), KindCampaign, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestBeneficiaryBatchWrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rootID, err := store.CreateCampaign(ctx, KindLead, &Campaign{Name: "Flood Relief", Status: StatusUpcoming})
	if err != nil {
		t.Fatalf("CreateCampaign failed: %v", err)
	}

	batch := store.NewBatch()
	batch.CreateBeneficiary(KindLead, rootID, &Beneficiary{Name: "A", Status: BeneficiaryPending, KitAmount: 1500})
	batch.CreateBeneficiary(KindLead, rootID, &Beneficiary{Name: "B", Status: BeneficiaryGiven, IDProofURL: "proofs/b.jpg"})
	if err := batch.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	bens, err := store.ListBeneficiaries(ctx, KindLead, rootID)
	if err != nil {
		t.Fatalf("ListBeneficiaries failed: %v", err)
	}
	if len(bens) != 2 {
		t.Fatalf("Expected 2 beneficiaries, got %d", len(bens))
	}
	for _, b := range bens {
		if b.ID == "" {
			t.Error("Expected assigned beneficiary id")
		}
	}

	del := store.NewBatch()
	for _, b := range bens {
		del.DeleteBeneficiary(KindLead, rootID, b.ID)
	}
	if err := del.Commit(ctx); err != nil {
		t.Fatalf("Delete commit failed: %v", err)
	}

	bens, err = store.ListBeneficiaries(ctx, KindLead, rootID)
	if err != nil {
		t.Fatalf("ListBeneficiaries after delete failed: %v", err)
	}
	if len(bens) != 0 {
		t.Errorf("Expected no beneficiaries after delete, got %d", len(bens))
	}
}

func TestDonationForeignKeys(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	batch := store.NewBatch()
	batch.CreateDonation(&Donation{CampaignID: "c1", Amount: 100, Status: DonationVerified})
	batch.CreateDonation(&Donation{CampaignID: "c1", Amount: 50, Status: DonationPending})
	batch.CreateDonation(&Donation{LeadID: "l1", Amount: 25, Status: DonationVerified})
	if err := batch.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	byCampaign, err := store.ListDonations(ctx, KindCampaign, "c1")
	if err != nil {
		t.Fatalf("ListDonations failed: %v", err)
	}
	if len(byCampaign) != 2 {
		t.Errorf("Expected 2 campaign donations, got %d", len(byCampaign))
	}

	byLead, err := store.ListDonations(ctx, KindLead, "l1")
	if err != nil {
		t.Fatalf("ListDonations failed: %v", err)
	}
	if len(byLead) != 1 {
		t.Errorf("Expected 1 lead donation, got %d", len(byLead))
	}

	all, err := store.AllDonations(ctx)
	if err != nil {
		t.Fatalf("AllDonations failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 donations total, got %d", len(all))
	}
}

func TestDonationTypeSplitUpdate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	batch := store.NewBatch()
	batch.CreateDonation(&Donation{ID: "d1", CampaignID: "c1", Amount: 500, Type: "Zakat", Status: DonationVerified})
	if err := batch.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	upd := store.NewBatch()
	upd.SetDonationTypeSplit("d1", []CategoryAmount{{Category: CategoryZakat, Amount: 500}})
	if err := upd.Commit(ctx); err != nil {
		t.Fatalf("Update commit failed: %v", err)
	}

	all, err := store.AllDonations(ctx)
	if err != nil {
		t.Fatalf("AllDonations failed: %v", err)
	}
	if len(all) != 1 || len(all[0].TypeSplit) != 1 {
		t.Fatalf("Expected 1 donation with 1 split entry, got %+v", all)
	}
	if all[0].TypeSplit[0].Category != CategoryZakat || all[0].TypeSplit[0].Amount != 500 {
		t.Errorf("Unexpected split: %+v", all[0].TypeSplit)
	}
}

func TestUserAndLookups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u := &User{Email: "ayesha@example.com", Name: "Ayesha", LoginID: "ayesha", Phone: "+92300", UserKey: "UK1"}
	batch := store.NewBatch()
	batch.SetUser(u)
	for _, key := range u.LookupKeys() {
		batch.SetUserLookup(key, u.Email)
	}
	if err := batch.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	got, err := store.GetUser(ctx, u.Email)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got.LoginID != "ayesha" || got.UserKey != "UK1" {
		t.Errorf("Unexpected user: %+v", got)
	}

	for _, key := range []string{"ayesha", "+92300", "UK1"} {
		email, err := store.GetUserLookup(ctx, key)
		if err != nil {
			t.Fatalf("GetUserLookup(%s) failed: %v", key, err)
		}
		if email != u.Email {
			t.Errorf("Lookup %s resolved to %s, want %s", key, email, u.Email)
		}
	}

	if _, err := store.GetUserLookup(ctx, "unknown"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown lookup, got %v", err)
	}

	users, err := store.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("Expected 1 user, got %d", len(users))
	}
}

func TestBatchAtomicity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	batch := store.NewBatch()
	batch.CreateDonation(&Donation{ID: "dup", CampaignID: "c1", Status: DonationPending})
	batch.CreateDonation(&Donation{ID: "dup", CampaignID: "c1", Status: DonationPending})
	if err := batch.Commit(ctx); err == nil {
		t.Fatal("Expected commit of conflicting writes to fail")
	}

	all, err := store.AllDonations(ctx)
	if err != nil {
		t.Fatalf("AllDonations failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("Expected failed batch to apply nothing, got %d donations", len(all))
	}
}
