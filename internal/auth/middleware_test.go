package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"amanah/internal/identity"
)

type fakeVerifier struct {
	claims map[string]*identity.TokenClaims
}

func (f *fakeVerifier) VerifyToken(ctx context.Context, token string) (*identity.TokenClaims, error) {
	if c, ok := f.claims[token]; ok {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

func protectedRouter(verifier identity.TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequireAdmin(verifier))
	r.GET("/test", func(c *gin.Context) {
		claims, _ := GetClaimsFromContext(c)
		c.JSON(http.StatusOK, gin.H{"uid": claims.UID})
	})
	return r
}

func TestRequireAdmin(t *testing.T) {
	verifier := &fakeVerifier{claims: map[string]*identity.TokenClaims{
		"admin-token": {UID: "uid-1", Name: "Admin", Admin: true},
		"user-token":  {UID: "uid-2", Name: "User", Admin: false},
	}}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"malformed header", "Token abc", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"non-admin token", "Bearer user-token", http.StatusForbidden},
		{"admin token", "Bearer admin-token", http.StatusOK},
	}

	r := protectedRouter(verifier)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestRequireAdminLocalMode(t *testing.T) {
	r := protectedRouter(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected local mode to pass without a token, got %d", w.Code)
	}
}
