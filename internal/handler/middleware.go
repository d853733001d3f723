package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"terra-storefront/internal/auth"
)

const (
	ctxClaimsKey = "claims"
	ctxUserIDKey = "userID"
)

// AuthMiddleware validates the bearer token and stashes the claims and the
// caller's user id on the request context.
func AuthMiddleware(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		if after, ok := strings.CutPrefix(tokenString, "Bearer "); ok {
			tokenString = after
		}

		claims, err := tokens.Validate(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(ctxClaimsKey, claims)
		c.Set(ctxUserIDKey, userID)
		c.Next()
	}
}

// AdminMiddleware rejects callers whose session lacks the admin flag.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := c.Get(ctxClaimsKey)
		if !ok || !claims.(*auth.Claims).Admin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admins only"})
			return
		}
		c.Next()
	}
}

func currentUserID(c *gin.Context) uuid.UUID {
	id, _ := c.Get(ctxUserIDKey)
	userID, _ := id.(uuid.UUID)
	return userID
}
