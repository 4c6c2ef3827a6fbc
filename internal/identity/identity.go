package identity

import (
	"context"
	"errors"
)

// ErrUserNotFound is returned by lookups for unknown accounts.
var ErrUserNotFound = errors.New("auth user not found")

// PageSize is the maximum number of accounts the identity service
// returns per page.
const PageSize = 1000

// AuthUser is one account in the identity service.
type AuthUser struct {
	UID      string
	Email    string
	Disabled bool
}

// Page is one page of accounts plus the continuation token for the
// next page. An empty NextToken means the listing is exhausted.
type Page struct {
	Users     []AuthUser
	NextToken string
}

// DeleteFailure reports one account that a bulk delete could not
// remove.
type DeleteFailure struct {
	UID    string
	Reason string
}

// DeleteResult is the per-id outcome of a bulk delete.
type DeleteResult struct {
	SuccessCount int
	Failures     []DeleteFailure
}

// Directory is the identity service consumed by the erase and user
// operations: lookup by email, token-paginated enumeration, and bulk
// deletion with per-id results.
type Directory interface {
	GetByEmail(ctx context.Context, email string) (*AuthUser, error)
	ListUsers(ctx context.Context, pageToken string) (*Page, error)
	DeleteUsers(ctx context.Context, uids []string) (*DeleteResult, error)
}

// TokenClaims are the verified claims the admin API cares about.
type TokenClaims struct {
	UID   string
	Name  string
	Admin bool
}

// TokenVerifier checks a bearer ID token and extracts its claims.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, idToken string) (*TokenClaims, error)
}
