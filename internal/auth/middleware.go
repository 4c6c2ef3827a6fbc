package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"amanah/internal/identity"
)

const claimsContextKey = "auth_claims"

// RequireAdmin verifies the bearer ID token on every request and
// rejects callers without the admin claim. A nil verifier (local mode)
// installs a stub admin identity instead, mirroring how local runs
// relax auth elsewhere in the stack.
func RequireAdmin(verifier identity.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			c.Set(claimsContextKey, &identity.TokenClaims{UID: "local-admin", Name: "Local Admin", Admin: true})
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		claims, err := verifier.VerifyToken(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}
		if !claims.Admin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// GetClaimsFromContext returns the verified claims set by RequireAdmin.
func GetClaimsFromContext(c *gin.Context) (*identity.TokenClaims, bool) {
	v, exists := c.Get(claimsContextKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*identity.TokenClaims)
	return claims, ok
}
