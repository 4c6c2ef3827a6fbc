package identity

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/iterator"
)

// FirebaseDirectory backs Directory and TokenVerifier with the
// project's identity service.
type FirebaseDirectory struct {
	client *auth.Client
}

func NewFirebaseDirectory(ctx context.Context, app *firebase.App) (*FirebaseDirectory, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth client: %w", err)
	}

	return &FirebaseDirectory{client: client}, nil
}

func (d *FirebaseDirectory) GetByEmail(ctx context.Context, email string) (*AuthUser, error) {
	rec, err := d.client.GetUserByEmail(ctx, email)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up auth user %s: %w", email, err)
	}

	return &AuthUser{UID: rec.UID, Email: rec.Email, Disabled: rec.Disabled}, nil
}

func (d *FirebaseDirectory) ListUsers(ctx context.Context, pageToken string) (*Page, error) {
	pager := iterator.NewPager(d.client.Users(ctx, ""), PageSize, pageToken)

	var records []*auth.ExportedUserRecord
	nextToken, err := pager.NextPage(&records)
	if err != nil {
		return nil, fmt.Errorf("failed to list auth users: %w", err)
	}

	page := &Page{NextToken: nextToken}
	for _, rec := range records {
		page.Users = append(page.Users, AuthUser{
			UID:      rec.UID,
			Email:    rec.Email,
			Disabled: rec.Disabled,
		})
	}

	return page, nil
}

func (d *FirebaseDirectory) DeleteUsers(ctx context.Context, uids []string) (*DeleteResult, error) {
	res, err := d.client.DeleteUsers(ctx, uids)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk delete auth users: %w", err)
	}

	out := &DeleteResult{SuccessCount: res.SuccessCount}
	for _, e := range res.Errors {
		failure := DeleteFailure{Reason: e.Reason}
		if e.Index >= 0 && e.Index < len(uids) {
			failure.UID = uids[e.Index]
		}
		out.Failures = append(out.Failures, failure)
	}

	return out, nil
}

func (d *FirebaseDirectory) VerifyToken(ctx context.Context, idToken string) (*TokenClaims, error) {
	tok, err := d.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify id token: %w", err)
	}

	claims := &TokenClaims{UID: tok.UID}
	if name, ok := tok.Claims["name"].(string); ok {
		claims.Name = name
	}
	if admin, ok := tok.Claims["admin"].(bool); ok {
		claims.Admin = admin
	}

	return claims, nil
}
