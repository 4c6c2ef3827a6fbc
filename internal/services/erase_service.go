package services

import (
	"context"
	"fmt"
	"log"

	"amanah/internal/database"
	"amanah/internal/identity"
)

// EraseService wipes every account and user document except the
// preserved ids. It backs the standalone erase command.
type EraseService struct {
	store      database.Store
	dir        identity.Directory
	batchLimit int
}

func NewEraseService(store database.Store, dir identity.Directory, batchLimit int) *EraseService {
	return &EraseService{store: store, dir: dir, batchLimit: batchLimit}
}

// EraseReport summarizes one erase run.
type EraseReport struct {
	AuthUsersDeleted int
	DocsDeleted      int
	Preserved        int
}

// EraseAllExcept removes every auth account and every user document
// whose uid or email is not in preserved. With dryRun set it only
// counts what would be removed.
func (s *EraseService) EraseAllExcept(ctx context.Context, preserved []string, dryRun bool) (*EraseReport, error) {
	keep := make(map[string]bool, len(preserved))
	for _, id := range preserved {
		keep[id] = true
	}

	report := &EraseReport{}

	if err := s.eraseAuthUsers(ctx, keep, dryRun, report); err != nil {
		return report, err
	}
	if err := s.eraseUserDocs(ctx, keep, dryRun, report); err != nil {
		return report, err
	}

	log.Printf("Erase complete (dry-run=%v): %d auth users, %d documents, %d preserved",
		dryRun, report.AuthUsersDeleted, report.DocsDeleted, report.Preserved)
	return report, nil
}

// eraseAuthUsers walks the identity service page by page. The backend
// guarantees an absent continuation token on the final page, which is
// the loop's only exit.
func (s *EraseService) eraseAuthUsers(ctx context.Context, keep map[string]bool, dryRun bool, report *EraseReport) error {
	if s.dir == nil {
		return nil
	}

	token := ""
	for {
		page, err := s.dir.ListUsers(ctx, token)
		if err != nil {
			return fmt.Errorf("failed to list auth users: %w", err)
		}

		var uids []string
		for _, u := range page.Users {
			if keep[u.UID] || keep[u.Email] {
				report.Preserved++
				continue
			}
			uids = append(uids, u.UID)
		}

		if dryRun {
			report.AuthUsersDeleted += len(uids)
		} else if len(uids) > 0 {
			res, err := s.dir.DeleteUsers(ctx, uids)
			if err != nil {
				return fmt.Errorf("failed to delete auth users: %w", err)
			}
			for _, f := range res.Failures {
				log.Printf("Failed to delete auth user %s: %s", f.UID, f.Reason)
			}
			report.AuthUsersDeleted += res.SuccessCount
		}

		if page.NextToken == "" {
			return nil
		}
		token = page.NextToken
	}
}

func (s *EraseService) eraseUserDocs(ctx context.Context, keep map[string]bool, dryRun bool, report *EraseReport) error {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list user documents: %w", err)
	}

	acc := database.NewAccumulator(s.store, s.batchLimit)
	for i := range users {
		u := users[i]
		if keep[u.Email] {
			continue
		}

		if dryRun {
			report.DocsDeleted += 1 + len(u.LookupKeys())
			continue
		}

		if err := acc.Add(ctx, func(b database.Batch) {
			b.DeleteUser(u.Email)
		}); err != nil {
			return fmt.Errorf("failed while deleting user documents: %w", err)
		}
		for _, key := range u.LookupKeys() {
			if err := acc.Add(ctx, func(b database.Batch) {
				b.DeleteUserLookup(key)
			}); err != nil {
				return fmt.Errorf("failed while deleting user lookups: %w", err)
			}
		}
	}

	if err := acc.Flush(ctx); err != nil {
		return fmt.Errorf("failed to finish user document erase: %w", err)
	}
	if !dryRun {
		report.DocsDeleted += acc.Applied()
	}

	return nil
}
