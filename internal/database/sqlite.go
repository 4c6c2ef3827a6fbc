package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore backs local development and tests with the same Store
// contract the Firestore backend implements in production.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.createTables(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *SQLiteStore) createTables() error {
	campaignsTable := `
	CREATE TABLE IF NOT EXISTS campaigns (
		kind TEXT NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		status TEXT NOT NULL,
		verification TEXT NOT NULL,
		visibility TEXT NOT NULL,
		item_lists TEXT NOT NULL DEFAULT '{}',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		created_by_id TEXT,
		created_by_name TEXT,
		PRIMARY KEY (kind, id)
	);`

	beneficiariesTable := `
	CREATE TABLE IF NOT EXISTS beneficiaries (
		kind TEXT NOT NULL,
		root_id TEXT NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		phone TEXT,
		address TEXT,
		gender TEXT,
		kit_amount REAL DEFAULT 0,
		status TEXT NOT NULL,
		id_proof_url TEXT,
		id_proof_public BOOLEAN DEFAULT 0,
		PRIMARY KEY (kind, root_id, id)
	);`

	donationsTable := `
	CREATE TABLE IF NOT EXISTS donations (
		id TEXT PRIMARY KEY,
		campaign_id TEXT,
		lead_id TEXT,
		campaign_name TEXT,
		donor_name TEXT,
		amount REAL DEFAULT 0,
		type TEXT,
		type_split TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL,
		screenshot_url TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	usersTable := `
	CREATE TABLE IF NOT EXISTS users (
		email TEXT PRIMARY KEY,
		name TEXT,
		login_id TEXT,
		phone TEXT,
		user_key TEXT,
		role TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	userLookupsTable := `
	CREATE TABLE IF NOT EXISTS user_lookups (
		key TEXT PRIMARY KEY,
		email TEXT NOT NULL
	);`

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_donations_campaign ON donations (campaign_id);`,
		`CREATE INDEX IF NOT EXISTS idx_donations_lead ON donations (lead_id);`,
	}

	tables := []string{campaignsTable, beneficiariesTable, donationsTable, usersTable, userLookupsTable}
	for _, table := range tables {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	for _, idx := range indexes {
		if _, err := s.db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetCampaign(ctx context.Context, kind AggregateKind, id string) (*Campaign, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, status, verification, visibility, item_lists,
		       created_at, created_by_id, created_by_name
		FROM campaigns WHERE kind = ? AND id = ?`, string(kind), id)

	var c Campaign
	var itemLists string
	err := row.Scan(&c.ID, &c.Name, &c.Status, &c.Verification, &c.Visibility,
		&itemLists, &c.CreatedAt, &c.CreatedByID, &c.CreatedByName)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %s: %w", kind.Singular(), id, err)
	}

	if err := json.Unmarshal([]byte(itemLists), &c.ItemLists); err != nil {
		return nil, fmt.Errorf("failed to decode item lists for %s: %w", id, err)
	}

	return &c, nil
}

func (s *SQLiteStore) ListCampaigns(ctx context.Context, kind AggregateKind) ([]Campaign, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, status, verification, visibility, item_lists,
		       created_at, created_by_id, created_by_name
		FROM campaigns WHERE kind = ?`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}
	defer func() { _ = rows.Close() }()

	var campaigns []Campaign
	for rows.Next() {
		var c Campaign
		var itemLists string
		if err := rows.Scan(&c.ID, &c.Name, &c.Status, &c.Verification, &c.Visibility,
			&itemLists, &c.CreatedAt, &c.CreatedByID, &c.CreatedByName); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", kind.Singular(), err)
		}
		if err := json.Unmarshal([]byte(itemLists), &c.ItemLists); err != nil {
			return nil, fmt.Errorf("failed to decode item lists for %s: %w", c.ID, err)
		}
		campaigns = append(campaigns, c)
	}

	return campaigns, rows.Err()
}

func (s *SQLiteStore) CreateCampaign(ctx context.Context, kind AggregateKind, c *Campaign) (string, error) {
	id := uuid.NewString()
	itemLists, err := json.Marshal(nonNilItemLists(c.ItemLists))
	if err != nil {
		return "", fmt.Errorf("failed to encode item lists: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO campaigns (kind, id, name, status, verification, visibility,
		                       item_lists, created_at, created_by_id, created_by_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(kind), id, c.Name, c.Status, c.Verification, c.Visibility,
		string(itemLists), c.CreatedAt, c.CreatedByID, c.CreatedByName)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", kind.Singular(), err)
	}

	c.ID = id
	return id, nil
}

func (s *SQLiteStore) ListBeneficiaries(ctx context.Context, kind AggregateKind, rootID string) ([]Beneficiary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone, address, gender, kit_amount, status,
		       id_proof_url, id_proof_public
		FROM beneficiaries WHERE kind = ? AND root_id = ?`, string(kind), rootID)
	if err != nil {
		return nil, fmt.Errorf("failed to list beneficiaries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var bens []Beneficiary
	for rows.Next() {
		var b Beneficiary
		if err := rows.Scan(&b.ID, &b.Name, &b.Phone, &b.Address, &b.Gender,
			&b.KitAmount, &b.Status, &b.IDProofURL, &b.IDProofPublic); err != nil {
			return nil, fmt.Errorf("failed to scan beneficiary: %w", err)
		}
		bens = append(bens, b)
	}

	return bens, rows.Err()
}

func (s *SQLiteStore) ListDonations(ctx context.Context, kind AggregateKind, rootID string) ([]Donation, error) {
	fk := "campaign_id"
	if kind == KindLead {
		fk = "lead_id"
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, campaign_id, lead_id, campaign_name, donor_name, amount,
		       type, type_split, status, screenshot_url, created_at
		FROM donations WHERE `+fk+` = ?`, rootID)
	if err != nil {
		return nil, fmt.Errorf("failed to list donations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanDonations(rows)
}

func (s *SQLiteStore) AllDonations(ctx context.Context) ([]Donation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, campaign_id, lead_id, campaign_name, donor_name, amount,
		       type, type_split, status, screenshot_url, created_at
		FROM donations`)
	if err != nil {
		return nil, fmt.Errorf("failed to list donations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanDonations(rows)
}

func scanDonations(rows *sql.Rows) ([]Donation, error) {
	var dons []Donation
	for rows.Next() {
		var d Donation
		var split string
		if err := rows.Scan(&d.ID, &d.CampaignID, &d.LeadID, &d.CampaignName,
			&d.DonorName, &d.Amount, &d.Type, &split, &d.Status,
			&d.ScreenshotURL, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan donation: %w", err)
		}
		if err := json.Unmarshal([]byte(split), &d.TypeSplit); err != nil {
			return nil, fmt.Errorf("failed to decode type split for %s: %w", d.ID, err)
		}
		dons = append(dons, d)
	}

	return dons, rows.Err()
}

func (s *SQLiteStore) GetUser(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT email, name, login_id, phone, user_key, role, created_at
		FROM users WHERE email = ?`, email)

	var u User
	err := row.Scan(&u.Email, &u.Name, &u.LoginID, &u.Phone, &u.UserKey, &u.Role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", email, err)
	}

	return &u, nil
}

func (s *SQLiteStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT email, name, login_id, phone, user_key, role, created_at
		FROM users`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Email, &u.Name, &u.LoginID, &u.Phone, &u.UserKey,
			&u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (s *SQLiteStore) GetUserLookup(ctx context.Context, key string) (string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT email FROM user_lookups WHERE key = ?`, key)

	var email string
	err := row.Scan(&email)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get user lookup %s: %w", key, err)
	}

	return email, nil
}

func nonNilItemLists(m map[string][]string) map[string][]string {
	if m == nil {
		return map[string][]string{}
	}
	return m
}

// sqliteBatch stages writes as statements executed inside a single
// transaction on Commit.
type sqliteBatch struct {
	store *SQLiteStore
	ops   []func(*sql.Tx) error
}

func (s *SQLiteStore) NewBatch() Batch {
	return &sqliteBatch{store: s}
}

func (b *sqliteBatch) CreateBeneficiary(kind AggregateKind, rootID string, ben *Beneficiary) {
	bn := *ben
	if bn.ID == "" {
		bn.ID = uuid.NewString()
	}
	b.ops = append(b.ops, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO beneficiaries (kind, root_id, id, name, phone, address,
			                           gender, kit_amount, status, id_proof_url, id_proof_public)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(kind), rootID, bn.ID, bn.Name, bn.Phone, bn.Address, bn.Gender,
			bn.KitAmount, bn.Status, bn.IDProofURL, bn.IDProofPublic)
		return err
	})
}

func (b *sqliteBatch) CreateDonation(d *Donation) {
	dn := *d
	if dn.ID == "" {
		dn.ID = uuid.NewString()
	}
	if dn.CreatedAt.IsZero() {
		dn.CreatedAt = time.Now()
	}
	b.ops = append(b.ops, func(tx *sql.Tx) error {
		split, err := json.Marshal(dn.TypeSplit)
		if err != nil {
			return fmt.Errorf("failed to encode type split: %w", err)
		}
		_, err = tx.Exec(`
			INSERT INTO donations (id, campaign_id, lead_id, campaign_name, donor_name,
			                       amount, type, type_split, status, screenshot_url, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			dn.ID, dn.CampaignID, dn.LeadID, dn.CampaignName, dn.DonorName,
			dn.Amount, dn.Type, string(split), dn.Status, dn.ScreenshotURL, dn.CreatedAt)
		return err
	})
}

func (b *sqliteBatch) SetDonationTypeSplit(id string, split []CategoryAmount) {
	b.ops = append(b.ops, func(tx *sql.Tx) error {
		encoded, err := json.Marshal(split)
		if err != nil {
			return fmt.Errorf("failed to encode type split: %w", err)
		}
		_, err = tx.Exec(`UPDATE donations SET type_split = ? WHERE id = ?`, string(encoded), id)
		return err
	})
}

func (b *sqliteBatch) DeleteBeneficiary(kind AggregateKind, rootID, id string) {
	b.ops = append(b.ops, func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM beneficiaries WHERE kind = ? AND root_id = ? AND id = ?`,
			string(kind), rootID, id)
		return err
	})
}

func (b *sqliteBatch) DeleteDonation(id string) {
	b.ops = append(b.ops, func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM donations WHERE id = ?`, id)
		return err
	})
}

func (b *sqliteBatch) DeleteCampaign(kind AggregateKind, id string) {
	b.ops = append(b.ops, func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM campaigns WHERE kind = ? AND id = ?`, string(kind), id)
		return err
	})
}

func (b *sqliteBatch) SetUser(u *User) {
	un := *u
	if un.CreatedAt.IsZero() {
		un.CreatedAt = time.Now()
	}
	b.ops = append(b.ops, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO users (email, name, login_id, phone, user_key, role, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(email) DO UPDATE SET
				name = excluded.name, login_id = excluded.login_id,
				phone = excluded.phone, user_key = excluded.user_key,
				role = excluded.role`,
			un.Email, un.Name, un.LoginID, un.Phone, un.UserKey, un.Role, un.CreatedAt)
		return err
	})
}

func (b *sqliteBatch) DeleteUser(email string) {
	b.ops = append(b.ops, func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM users WHERE email = ?`, email)
		return err
	})
}

func (b *sqliteBatch) SetUserLookup(key, email string) {
	b.ops = append(b.ops, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO user_lookups (key, email) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET email = excluded.email`, key, email)
		return err
	})
}

func (b *sqliteBatch) DeleteUserLookup(key string) {
	b.ops = append(b.ops, func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM user_lookups WHERE key = ?`, key)
		return err
	})
}

func (b *sqliteBatch) Commit(ctx context.Context) error {
	if len(b.ops) == 0 {
		return nil
	}

	tx, err := b.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, op := range b.ops {
		if err := op(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to apply staged write: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	b.ops = nil
	return nil
}
