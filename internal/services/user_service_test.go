package services

import (
	"context"
	"errors"
	"testing"

	"amanah/internal/database"
	"amanah/internal/identity"
)

// fakeDirectory is an in-memory identity backend with deterministic
// fixed-size pages.
type fakeDirectory struct {
	users        []identity.AuthUser
	pageSize     int
	listCalls    int
	deletedUIDs  []string
	tokensServed []string
}

func (f *fakeDirectory) GetByEmail(ctx context.Context, email string) (*identity.AuthUser, error) {
	for i := range f.users {
		if f.users[i].Email == email {
			return &f.users[i], nil
		}
	}
	return nil, identity.ErrUserNotFound
}

func (f *fakeDirectory) ListUsers(ctx context.Context, pageToken string) (*identity.Page, error) {
	f.listCalls++
	f.tokensServed = append(f.tokensServed, pageToken)

	start := 0
	if pageToken != "" {
		var err error
		start, err = tokenOffset(pageToken)
		if err != nil {
			return nil, err
		}
	}

	size := f.pageSize
	if size == 0 {
		size = identity.PageSize
	}
	end := start + size
	if end > len(f.users) {
		end = len(f.users)
	}

	page := &identity.Page{Users: append([]identity.AuthUser(nil), f.users[start:end]...)}
	if end < len(f.users) {
		page.NextToken = tokenFor(end)
	}
	return page, nil
}

func (f *fakeDirectory) DeleteUsers(ctx context.Context, uids []string) (*identity.DeleteResult, error) {
	f.deletedUIDs = append(f.deletedUIDs, uids...)
	return &identity.DeleteResult{SuccessCount: len(uids)}, nil
}

func tokenFor(offset int) string {
	return string(rune('A' + offset/1000))
}

func tokenOffset(token string) (int, error) {
	if len(token) != 1 || token[0] < 'A' {
		return 0, errors.New("bad page token")
	}
	return int(token[0]-'A') * 1000, nil
}

func seedUser(t *testing.T, store *database.SQLiteStore, u *database.User) {
	t.Helper()

	batch := store.NewBatch()
	batch.SetUser(u)
	for _, key := range u.LookupKeys() {
		batch.SetUserLookup(key, u.Email)
	}
	if err := batch.Commit(context.Background()); err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
}

func TestUserDeleteRemovesLookups(t *testing.T) {
	store := newTestStore(t)
	dir := &fakeDirectory{users: []identity.AuthUser{{UID: "uid-1", Email: "sara@example.com"}}}
	svc := NewUserService(store, dir)
	ctx := context.Background()

	seedUser(t, store, &database.User{Email: "sara@example.com", LoginID: "sara", Phone: "+92311", UserKey: "UK9"})

	res := svc.Delete(ctx, "sara@example.com")
	if !res.Success {
		t.Fatalf("Delete failed: %s", res.Message)
	}

	if _, err := store.GetUser(ctx, "sara@example.com"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Expected user document gone, got %v", err)
	}
	for _, key := range []string{"sara", "+92311", "UK9"} {
		if _, err := store.GetUserLookup(ctx, key); !errors.Is(err, database.ErrNotFound) {
			t.Errorf("Expected lookup %s gone, got %v", key, err)
		}
	}
	if len(dir.deletedUIDs) != 1 || dir.deletedUIDs[0] != "uid-1" {
		t.Errorf("Expected auth account uid-1 deleted, got %v", dir.deletedUIDs)
	}
}

func TestUserDeleteWithoutDirectory(t *testing.T) {
	store := newTestStore(t)
	svc := NewUserService(store, nil)

	seedUser(t, store, &database.User{Email: "local@example.com", LoginID: "local"})

	res := svc.Delete(context.Background(), "local@example.com")
	if !res.Success {
		t.Fatalf("Delete without directory failed: %s", res.Message)
	}
}

func TestUserDeleteMissing(t *testing.T) {
	store := newTestStore(t)
	svc := NewUserService(store, nil)

	res := svc.Delete(context.Background(), "nobody@example.com")
	if res.Success {
		t.Fatal("Expected delete of missing user to fail")
	}
	if !errors.Is(res.Err(), ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", res.Err())
	}
}

func TestUpdateContactReindexesLookups(t *testing.T) {
	store := newTestStore(t)
	svc := NewUserService(store, nil)
	ctx := context.Background()

	seedUser(t, store, &database.User{Email: "old@example.com", Name: "Omar", LoginID: "omar", Phone: "+92322", UserKey: "UK5"})

	res := svc.UpdateContact(ctx, "old@example.com", ContactUpdate{
		Email:   "new@example.com",
		LoginID: "omar2",
		Phone:   "+92333",
	})
	if !res.Success {
		t.Fatalf("UpdateContact failed: %s", res.Message)
	}

	if _, err := store.GetUser(ctx, "old@example.com"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Expected old document gone, got %v", err)
	}
	u, err := store.GetUser(ctx, "new@example.com")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if u.LoginID != "omar2" || u.Phone != "+92333" || u.Name != "Omar" {
		t.Errorf("Unexpected user after update: %+v", u)
	}

	// Stale lookups are gone
	for _, key := range []string{"omar", "+92322"} {
		if _, err := store.GetUserLookup(ctx, key); !errors.Is(err, database.ErrNotFound) {
			t.Errorf("Expected stale lookup %s gone, got %v", key, err)
		}
	}
	// New lookups all resolve to the new email, including the
	// unchanged user key
	for _, key := range []string{"omar2", "+92333", "UK5"} {
		email, err := store.GetUserLookup(ctx, key)
		if err != nil {
			t.Fatalf("GetUserLookup(%s) failed: %v", key, err)
		}
		if email != "new@example.com" {
			t.Errorf("Lookup %s resolved to %s, want new@example.com", key, email)
		}
	}
}

func TestUpdateContactPartial(t *testing.T) {
	store := newTestStore(t)
	svc := NewUserService(store, nil)
	ctx := context.Background()

	seedUser(t, store, &database.User{Email: "k@example.com", LoginID: "khalid", Phone: "+92344"})

	res := svc.UpdateContact(ctx, "k@example.com", ContactUpdate{Phone: "+92355"})
	if !res.Success {
		t.Fatalf("UpdateContact failed: %s", res.Message)
	}

	u, err := store.GetUser(ctx, "k@example.com")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if u.LoginID != "khalid" || u.Phone != "+92355" {
		t.Errorf("Unexpected user after partial update: %+v", u)
	}
	if _, err := store.GetUserLookup(ctx, "+92344"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Expected old phone lookup gone, got %v", err)
	}
	if email, err := store.GetUserLookup(ctx, "khalid"); err != nil || email != "k@example.com" {
		t.Errorf("Expected login lookup intact, got %s/%v", email, err)
	}
}
