package database

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("document not found")

// AggregateKind selects which top-level collection an aggregate root
// lives in. Campaigns and leads share the same document shape.
type AggregateKind string

const (
	KindCampaign AggregateKind = "campaigns"
	KindLead     AggregateKind = "leads"
)

func (k AggregateKind) Valid() bool {
	return k == KindCampaign || k == KindLead
}

// Singular returns the kind as a singular noun for messages.
func (k AggregateKind) Singular() string {
	if k == KindLead {
		return "lead"
	}
	return "campaign"
}

type CampaignStatus string

const (
	StatusUpcoming  CampaignStatus = "Upcoming"
	StatusActive    CampaignStatus = "Active"
	StatusCompleted CampaignStatus = "Completed"
)

type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "Unverified"
	VerificationPending    VerificationStatus = "Pending"
	VerificationVerified   VerificationStatus = "Verified"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "Public"
	VisibilityPrivate Visibility = "Private"
)

type BeneficiaryStatus string

const (
	BeneficiaryGiven       BeneficiaryStatus = "Given"
	BeneficiaryPending     BeneficiaryStatus = "Pending"
	BeneficiaryHold        BeneficiaryStatus = "Hold"
	BeneficiaryNeedDetails BeneficiaryStatus = "Need More Details"
)

type DonationStatus string

const (
	DonationVerified DonationStatus = "Verified"
	DonationPending  DonationStatus = "Pending"
	DonationCanceled DonationStatus = "Canceled"
)

type Category string

const (
	CategorySadqa    Category = "Sadqa"
	CategoryZakat    Category = "Zakat"
	CategoryFitra    Category = "Fitra"
	CategoryKaffarah Category = "Kaffarah"
)

// RecognizedCategory reports whether c is one of the donation
// categories the UI knows how to display.
func RecognizedCategory(c Category) bool {
	switch c {
	case CategorySadqa, CategoryZakat, CategoryFitra, CategoryKaffarah:
		return true
	}
	return false
}

// Campaign is an aggregate root. The store never copies an ID between
// roots; a fresh one is assigned on every create.
type Campaign struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Status        CampaignStatus      `json:"status"`
	Verification  VerificationStatus  `json:"verification_status"`
	Visibility    Visibility          `json:"visibility"`
	ItemLists     map[string][]string `json:"item_lists"`
	CreatedAt     time.Time           `json:"created_at"`
	CreatedByID   string              `json:"created_by_id"`
	CreatedByName string              `json:"created_by_name"`
}

// Beneficiary lives in the beneficiaries sub-collection of a root.
type Beneficiary struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Phone         string            `json:"phone"`
	Address       string            `json:"address"`
	Gender        string            `json:"gender"`
	KitAmount     float64           `json:"kit_amount"`
	Status        BeneficiaryStatus `json:"status"`
	IDProofURL    string            `json:"id_proof_url"`
	IDProofPublic bool              `json:"id_proof_public"`
}

type CategoryAmount struct {
	Category Category `json:"category"`
	Amount   float64  `json:"amount"`
}

// Donation is a top-level record foreign-keyed to a root through
// CampaignID or LeadID depending on the aggregate kind. Type is the
// legacy singular category field; TypeSplit supersedes it.
type Donation struct {
	ID            string           `json:"id"`
	CampaignID    string           `json:"campaign_id"`
	LeadID        string           `json:"lead_id"`
	CampaignName  string           `json:"campaign_name"`
	DonorName     string           `json:"donor_name"`
	Amount        float64          `json:"amount"`
	Type          string           `json:"type"`
	TypeSplit     []CategoryAmount `json:"type_split"`
	Status        DonationStatus   `json:"status"`
	ScreenshotURL string           `json:"screenshot_url"`
	CreatedAt     time.Time        `json:"created_at"`
}

// ForeignKey returns the root this donation belongs to for the given
// aggregate kind.
func (d *Donation) ForeignKey(kind AggregateKind) string {
	if kind == KindLead {
		return d.LeadID
	}
	return d.CampaignID
}

// SetForeignKey points the donation at a root of the given kind.
func (d *Donation) SetForeignKey(kind AggregateKind, id string) {
	if kind == KindLead {
		d.LeadID = id
		return
	}
	d.CampaignID = id
}

// User is keyed by canonical email. LoginID, Phone and UserKey each
// have a row in user_lookups pointing back at the email; every edit to
// one of them must update the lookup rows in the same batch.
type User struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	LoginID   string    `json:"login_id"`
	Phone     string    `json:"phone"`
	UserKey   string    `json:"user_key"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// LookupKeys returns the non-empty secondary index keys for the user.
func (u *User) LookupKeys() []string {
	var keys []string
	for _, k := range []string{u.LoginID, u.Phone, u.UserKey} {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Store is the document store behind every bulk operation. The
// Firestore implementation backs production; the SQLite implementation
// backs local runs and tests.
type Store interface {
	GetCampaign(ctx context.Context, kind AggregateKind, id string) (*Campaign, error)
	ListCampaigns(ctx context.Context, kind AggregateKind) ([]Campaign, error)
	CreateCampaign(ctx context.Context, kind AggregateKind, c *Campaign) (string, error)
	ListBeneficiaries(ctx context.Context, kind AggregateKind, rootID string) ([]Beneficiary, error)
	ListDonations(ctx context.Context, kind AggregateKind, rootID string) ([]Donation, error)
	AllDonations(ctx context.Context) ([]Donation, error)

	GetUser(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	GetUserLookup(ctx context.Context, key string) (string, error)

	NewBatch() Batch
	Close() error
}

// Batch stages writes that are committed atomically. The backing store
// caps a single commit at 500 writes; the Accumulator keeps batches
// comfortably below that.
type Batch interface {
	CreateBeneficiary(kind AggregateKind, rootID string, b *Beneficiary)
	CreateDonation(d *Donation)
	SetDonationTypeSplit(id string, split []CategoryAmount)
	DeleteBeneficiary(kind AggregateKind, rootID, id string)
	DeleteDonation(id string)
	DeleteCampaign(kind AggregateKind, id string)
	SetUser(u *User)
	DeleteUser(email string)
	SetUserLookup(key, email string)
	DeleteUserLookup(key string)
	Commit(ctx context.Context) error
}
