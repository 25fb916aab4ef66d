package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// userIDKey is where RequireAuth stores the authenticated user id in the
// gin context.
const userIDKey = "userID"

// SessionVerifier checks a bearer token and returns the user id it carries.
type SessionVerifier interface {
	VerifySession(tokenString string) (string, error)
}

// RequireAuth rejects requests without a valid bearer token and exposes the
// authenticated user id to handlers.
func RequireAuth(tokens SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if len(header) < 8 || !strings.EqualFold(header[:7], "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		userID, err := tokens.VerifySession(header[7:])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
