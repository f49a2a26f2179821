package middleware

import (
	"net/http"
	"strings"

	"capturemoments/utils"

	"github.com/gin-gonic/gin"
)

const (
	subjectKey = "subject"
	roleKey    = "role"
)

// JWTAuthMiddleware requires a bearer token signed with secret and stores
// its subject and role on the context.
func JWTAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := utils.ValidateToken(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(subjectKey, claims.Subject)
		c.Set(roleKey, claims.Role)
		c.Next()
	}
}

// Subject is the authenticated caller id: a client id, provider id or admin id
// depending on Role.
func Subject(c *gin.Context) string {
	return c.GetString(subjectKey)
}

func Role(c *gin.Context) string {
	return c.GetString(roleKey)
}
