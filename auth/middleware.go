package auth

import (
	"net/http"
	"strings"

	"github.com/sachit-ab-lele/POC2-local/service"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// Middleware resolves the request's identity from the Bearer token and makes
// it available to handlers. Requests without a valid token are rejected.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractTokenFromHeader(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing access token"})
			return
		}

		userID, username, role, err := ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(identityKey, service.Identity{
			UserID:   userID,
			Username: username,
			Role:     role,
		})
		c.Next()
	}
}

// RequireRole gates an endpoint to one role; it must run after Middleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok || identity.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the identity resolved by Middleware.
func IdentityFrom(c *gin.Context) (service.Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return service.Identity{}, false
	}
	identity, ok := value.(service.Identity)
	return identity, ok
}

func extractTokenFromHeader(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
