package services

import (
	"context"
	"errors"
	"log"

	"amanah/internal/database"
	"amanah/internal/identity"
)

// ContactUpdate carries the fields of a user edit that touch the
// lookup index. Empty fields are left unchanged.
type ContactUpdate struct {
	Email   string
	LoginID string
	Phone   string
}

// UserService maintains the invariant between the users collection and
// its user_lookups secondary index: every edit to login id, phone or
// email updates the dependent lookup rows in the same batch as the
// primary document.
type UserService struct {
	store database.Store
	dir   identity.Directory
}

// NewUserService builds a UserService. dir may be nil in local runs
// without an identity service; auth-account deletion is then skipped.
func NewUserService(store database.Store, dir identity.Directory) *UserService {
	return &UserService{store: store, dir: dir}
}

// Delete removes the user document and all of its lookup rows in one
// atomic batch, then best-effort deletes the auth account.
func (s *UserService) Delete(ctx context.Context, email string) Result {
	u, err := s.store.GetUser(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return failure(ErrNotFound, "user %s does not exist", email)
		}
		return failure(err, "failed to read user %s: %v", email, err)
	}

	batch := s.store.NewBatch()
	batch.DeleteUser(u.Email)
	for _, key := range u.LookupKeys() {
		batch.DeleteUserLookup(key)
	}
	if err := batch.Commit(ctx); err != nil {
		return failure(ErrBatchCommit, "failed to delete user %s: %v", email, err)
	}

	s.deleteAuthAccount(ctx, email)

	log.Printf("Deleted user %s and %d lookup rows", email, len(u.LookupKeys()))
	return success("user %s deleted", email)
}

func (s *UserService) deleteAuthAccount(ctx context.Context, email string) {
	if s.dir == nil {
		return
	}

	account, err := s.dir.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, identity.ErrUserNotFound) {
			log.Printf("Failed to look up auth account for %s: %v", email, err)
		}
		return
	}

	res, err := s.dir.DeleteUsers(ctx, []string{account.UID})
	if err != nil {
		log.Printf("Failed to delete auth account %s: %v", account.UID, err)
		return
	}
	for _, f := range res.Failures {
		log.Printf("Failed to delete auth account %s: %s", f.UID, f.Reason)
	}
}

// UpdateContact applies an email/login-id/phone edit. The new lookup
// rows, the removal of the stale ones, and the primary document write
// all land in a single batch so the index can never drift from the
// user document.
func (s *UserService) UpdateContact(ctx context.Context, email string, upd ContactUpdate) Result {
	u, err := s.store.GetUser(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return failure(ErrNotFound, "user %s does not exist", email)
		}
		return failure(err, "failed to read user %s: %v", email, err)
	}

	batch := s.store.NewBatch()

	newEmail := u.Email
	if upd.Email != "" && upd.Email != u.Email {
		newEmail = upd.Email
		batch.DeleteUser(u.Email)
	}

	if upd.LoginID != "" && upd.LoginID != u.LoginID {
		if u.LoginID != "" {
			batch.DeleteUserLookup(u.LoginID)
		}
		u.LoginID = upd.LoginID
	}
	if upd.Phone != "" && upd.Phone != u.Phone {
		if u.Phone != "" {
			batch.DeleteUserLookup(u.Phone)
		}
		u.Phone = upd.Phone
	}

	u.Email = newEmail
	batch.SetUser(u)
	for _, key := range u.LookupKeys() {
		batch.SetUserLookup(key, newEmail)
	}

	if err := batch.Commit(ctx); err != nil {
		return failure(ErrBatchCommit, "failed to update user %s: %v", email, err)
	}

	log.Printf("Updated contact fields of %s (now %s)", email, newEmail)
	return success("user %s updated", newEmail)
}
