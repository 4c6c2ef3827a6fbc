package database

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Collection names as they exist in the production project.
const (
	beneficiariesCollection = "beneficiaries"
	donationsCollection     = "donations"
	usersCollection         = "users"
	userLookupsCollection   = "user_lookups"
)

// FirestoreStore is the production Store backend.
type FirestoreStore struct {
	client    *firestore.Client
	projectID string
}

func NewFirestoreStore(ctx context.Context, projectID string, opts ...option.ClientOption) (*FirestoreStore, error) {
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return &FirestoreStore{client: client, projectID: projectID}, nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

type campaignEntity struct {
	Name          string              `firestore:"name"`
	Status        string              `firestore:"status"`
	Verification  string              `firestore:"verificationStatus"`
	Visibility    string              `firestore:"visibility"`
	ItemLists     map[string][]string `firestore:"itemLists"`
	CreatedAt     time.Time           `firestore:"createdAt"`
	CreatedByID   string              `firestore:"createdById"`
	CreatedByName string              `firestore:"createdByName"`
}

type beneficiaryEntity struct {
	Name          string  `firestore:"name"`
	Phone         string  `firestore:"phone"`
	Address       string  `firestore:"address"`
	Gender        string  `firestore:"gender"`
	KitAmount     float64 `firestore:"kitAmount"`
	Status        string  `firestore:"status"`
	IDProofURL    string  `firestore:"idProofUrl"`
	IDProofPublic bool    `firestore:"idProofPublic"`
}

type categoryAmountEntity struct {
	Category string  `firestore:"category"`
	Amount   float64 `firestore:"amount"`
}

type donationEntity struct {
	CampaignID    string                 `firestore:"campaignId"`
	LeadID        string                 `firestore:"leadId"`
	CampaignName  string                 `firestore:"campaignName"`
	DonorName     string                 `firestore:"donorName"`
	Amount        float64                `firestore:"amount"`
	Type          string                 `firestore:"type"`
	TypeSplit     []categoryAmountEntity `firestore:"typeSplit"`
	Status        string                 `firestore:"status"`
	ScreenshotURL string                 `firestore:"screenshotUrl"`
	CreatedAt     time.Time              `firestore:"createdAt"`
}

type userEntity struct {
	Name      string    `firestore:"name"`
	LoginID   string    `firestore:"loginId"`
	Phone     string    `firestore:"phone"`
	UserKey   string    `firestore:"userKey"`
	Role      string    `firestore:"role"`
	CreatedAt time.Time `firestore:"createdAt"`
}

type userLookupEntity struct {
	Email string `firestore:"email"`
}

func (s *FirestoreStore) rootRef(kind AggregateKind, id string) *firestore.DocumentRef {
	return s.client.Collection(string(kind)).Doc(id)
}

func (s *FirestoreStore) GetCampaign(ctx context.Context, kind AggregateKind, id string) (*Campaign, error) {
	snap, err := s.rootRef(kind, id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %s: %w", kind.Singular(), id, err)
	}

	var entity campaignEntity
	if err := snap.DataTo(&entity); err != nil {
		return nil, fmt.Errorf("failed to decode %s %s: %w", kind.Singular(), id, err)
	}

	return &Campaign{
		ID:            snap.Ref.ID,
		Name:          entity.Name,
		Status:        CampaignStatus(entity.Status),
		Verification:  VerificationStatus(entity.Verification),
		Visibility:    Visibility(entity.Visibility),
		ItemLists:     nonNilItemLists(entity.ItemLists),
		CreatedAt:     entity.CreatedAt,
		CreatedByID:   entity.CreatedByID,
		CreatedByName: entity.CreatedByName,
	}, nil
}

func (s *FirestoreStore) ListCampaigns(ctx context.Context, kind AggregateKind) ([]Campaign, error) {
	iter := s.client.Collection(string(kind)).Documents(ctx)
	defer iter.Stop()

	var campaigns []Campaign
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate %s: %w", kind, err)
		}

		var entity campaignEntity
		if err := snap.DataTo(&entity); err != nil {
			return nil, fmt.Errorf("failed to decode %s %s: %w", kind.Singular(), snap.Ref.ID, err)
		}

		campaigns = append(campaigns, Campaign{
			ID:            snap.Ref.ID,
			Name:          entity.Name,
			Status:        CampaignStatus(entity.Status),
			Verification:  VerificationStatus(entity.Verification),
			Visibility:    Visibility(entity.Visibility),
			ItemLists:     nonNilItemLists(entity.ItemLists),
			CreatedAt:     entity.CreatedAt,
			CreatedByID:   entity.CreatedByID,
			CreatedByName: entity.CreatedByName,
		})
	}

	return campaigns, nil
}

func (s *FirestoreStore) CreateCampaign(ctx context.Context, kind AggregateKind, c *Campaign) (string, error) {
	ref := s.client.Collection(string(kind)).NewDoc()
	entity := campaignEntity{
		Name:          c.Name,
		Status:        string(c.Status),
		Verification:  string(c.Verification),
		Visibility:    string(c.Visibility),
		ItemLists:     nonNilItemLists(c.ItemLists),
		CreatedAt:     c.CreatedAt,
		CreatedByID:   c.CreatedByID,
		CreatedByName: c.CreatedByName,
	}

	if _, err := ref.Create(ctx, entity); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", kind.Singular(), err)
	}

	c.ID = ref.ID
	return ref.ID, nil
}

func (s *FirestoreStore) ListBeneficiaries(ctx context.Context, kind AggregateKind, rootID string) ([]Beneficiary, error) {
	iter := s.rootRef(kind, rootID).Collection(beneficiariesCollection).Documents(ctx)
	defer iter.Stop()

	var bens []Beneficiary
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate beneficiaries: %w", err)
		}

		var entity beneficiaryEntity
		if err := snap.DataTo(&entity); err != nil {
			return nil, fmt.Errorf("failed to decode beneficiary %s: %w", snap.Ref.ID, err)
		}

		bens = append(bens, Beneficiary{
			ID:            snap.Ref.ID,
			Name:          entity.Name,
			Phone:         entity.Phone,
			Address:       entity.Address,
			Gender:        entity.Gender,
			KitAmount:     entity.KitAmount,
			Status:        BeneficiaryStatus(entity.Status),
			IDProofURL:    entity.IDProofURL,
			IDProofPublic: entity.IDProofPublic,
		})
	}

	return bens, nil
}

func foreignKeyField(kind AggregateKind) string {
	if kind == KindLead {
		return "leadId"
	}
	return "campaignId"
}

func (s *FirestoreStore) ListDonations(ctx context.Context, kind AggregateKind, rootID string) ([]Donation, error) {
	query := s.client.Collection(donationsCollection).Where(foreignKeyField(kind), "==", rootID)
	return s.collectDonations(query.Documents(ctx))
}

func (s *FirestoreStore) AllDonations(ctx context.Context) ([]Donation, error) {
	return s.collectDonations(s.client.Collection(donationsCollection).Documents(ctx))
}

func (s *FirestoreStore) collectDonations(iter *firestore.DocumentIterator) ([]Donation, error) {
	defer iter.Stop()

	var dons []Donation
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate donations: %w", err)
		}

		var entity donationEntity
		if err := snap.DataTo(&entity); err != nil {
			return nil, fmt.Errorf("failed to decode donation %s: %w", snap.Ref.ID, err)
		}

		var split []CategoryAmount
		for _, ca := range entity.TypeSplit {
			split = append(split, CategoryAmount{Category: Category(ca.Category), Amount: ca.Amount})
		}

		dons = append(dons, Donation{
			ID:            snap.Ref.ID,
			CampaignID:    entity.CampaignID,
			LeadID:        entity.LeadID,
			CampaignName:  entity.CampaignName,
			DonorName:     entity.DonorName,
			Amount:        entity.Amount,
			Type:          entity.Type,
			TypeSplit:     split,
			Status:        DonationStatus(entity.Status),
			ScreenshotURL: entity.ScreenshotURL,
			CreatedAt:     entity.CreatedAt,
		})
	}

	return dons, nil
}

func (s *FirestoreStore) GetUser(ctx context.Context, email string) (*User, error) {
	snap, err := s.client.Collection(usersCollection).Doc(email).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", email, err)
	}

	var entity userEntity
	if err := snap.DataTo(&entity); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", email, err)
	}

	return userFromEntity(snap.Ref.ID, entity), nil
}

func (s *FirestoreStore) ListUsers(ctx context.Context) ([]User, error) {
	iter := s.client.Collection(usersCollection).Documents(ctx)
	defer iter.Stop()

	var users []User
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate users: %w", err)
		}

		var entity userEntity
		if err := snap.DataTo(&entity); err != nil {
			return nil, fmt.Errorf("failed to decode user %s: %w", snap.Ref.ID, err)
		}
		users = append(users, *userFromEntity(snap.Ref.ID, entity))
	}

	return users, nil
}

func userFromEntity(email string, entity userEntity) *User {
	return &User{
		Email:     email,
		Name:      entity.Name,
		LoginID:   entity.LoginID,
		Phone:     entity.Phone,
		UserKey:   entity.UserKey,
		Role:      entity.Role,
		CreatedAt: entity.CreatedAt,
	}
}

func (s *FirestoreStore) GetUserLookup(ctx context.Context, key string) (string, error) {
	snap, err := s.client.Collection(userLookupsCollection).Doc(key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get user lookup %s: %w", key, err)
	}

	var entity userLookupEntity
	if err := snap.DataTo(&entity); err != nil {
		return "", fmt.Errorf("failed to decode user lookup %s: %w", key, err)
	}

	return entity.Email, nil
}

// firestoreBatch wraps the client's atomic WriteBatch. The store caps
// a single commit at 500 writes; callers go through the Accumulator to
// stay under it.
type firestoreBatch struct {
	store *FirestoreStore
	batch *firestore.WriteBatch
	size  int
}

func (s *FirestoreStore) NewBatch() Batch {
	return &firestoreBatch{store: s, batch: s.client.Batch()}
}

func (b *firestoreBatch) CreateBeneficiary(kind AggregateKind, rootID string, ben *Beneficiary) {
	ref := b.store.rootRef(kind, rootID).Collection(beneficiariesCollection).NewDoc()
	b.batch.Create(ref, beneficiaryEntity{
		Name:          ben.Name,
		Phone:         ben.Phone,
		Address:       ben.Address,
		Gender:        ben.Gender,
		KitAmount:     ben.KitAmount,
		Status:        string(ben.Status),
		IDProofURL:    ben.IDProofURL,
		IDProofPublic: ben.IDProofPublic,
	})
	b.size++
}

func (b *firestoreBatch) CreateDonation(d *Donation) {
	ref := b.store.client.Collection(donationsCollection).NewDoc()
	b.batch.Create(ref, donationEntity{
		CampaignID:    d.CampaignID,
		LeadID:        d.LeadID,
		CampaignName:  d.CampaignName,
		DonorName:     d.DonorName,
		Amount:        d.Amount,
		Type:          d.Type,
		TypeSplit:     splitToEntities(d.TypeSplit),
		Status:        string(d.Status),
		ScreenshotURL: d.ScreenshotURL,
		CreatedAt:     d.CreatedAt,
	})
	b.size++
}

func splitToEntities(split []CategoryAmount) []categoryAmountEntity {
	entities := make([]categoryAmountEntity, 0, len(split))
	for _, ca := range split {
		entities = append(entities, categoryAmountEntity{Category: string(ca.Category), Amount: ca.Amount})
	}
	return entities
}

func (b *firestoreBatch) SetDonationTypeSplit(id string, split []CategoryAmount) {
	ref := b.store.client.Collection(donationsCollection).Doc(id)
	b.batch.Update(ref, []firestore.Update{
		{Path: "typeSplit", Value: splitToEntities(split)},
	})
	b.size++
}

func (b *firestoreBatch) DeleteBeneficiary(kind AggregateKind, rootID, id string) {
	b.batch.Delete(b.store.rootRef(kind, rootID).Collection(beneficiariesCollection).Doc(id))
	b.size++
}

func (b *firestoreBatch) DeleteDonation(id string) {
	b.batch.Delete(b.store.client.Collection(donationsCollection).Doc(id))
	b.size++
}

func (b *firestoreBatch) DeleteCampaign(kind AggregateKind, id string) {
	b.batch.Delete(b.store.rootRef(kind, id))
	b.size++
}

func (b *firestoreBatch) SetUser(u *User) {
	ref := b.store.client.Collection(usersCollection).Doc(u.Email)
	b.batch.Set(ref, userEntity{
		Name:      u.Name,
		LoginID:   u.LoginID,
		Phone:     u.Phone,
		UserKey:   u.UserKey,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	})
	b.size++
}

func (b *firestoreBatch) DeleteUser(email string) {
	b.batch.Delete(b.store.client.Collection(usersCollection).Doc(email))
	b.size++
}

func (b *firestoreBatch) SetUserLookup(key, email string) {
	b.batch.Set(b.store.client.Collection(userLookupsCollection).Doc(key), userLookupEntity{Email: email})
	b.size++
}

func (b *firestoreBatch) DeleteUserLookup(key string) {
	b.batch.Delete(b.store.client.Collection(userLookupsCollection).Doc(key))
	b.size++
}

func (b *firestoreBatch) Commit(ctx context.Context) error {
	if b.size == 0 {
		return nil
	}
	if _, err := b.batch.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit firestore batch: %w", err)
	}
	b.batch = b.store.client.Batch()
	b.size = 0
	return nil
}
