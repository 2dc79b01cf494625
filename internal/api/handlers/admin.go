package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	AdminKeyHeader = "X-Admin-Key"

	adminContextKey = "admin_caller"
)

// RequireAdminKey guards operator endpoints. An empty key disables the check.
func RequireAdminKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		if !hasAdminKey(c, key) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(adminContextKey, true)
		c.Next()
	}
}

// IdentifyAdmin marks callers presenting the configured key and lets everyone through.
// Without a configured key nobody is marked, so download secrets stay hidden.
func IdentifyAdmin(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key != "" && hasAdminKey(c, key) {
			c.Set(adminContextKey, true)
		}
		c.Next()
	}
}

func isAdmin(c *gin.Context) bool {
	return c.GetBool(adminContextKey)
}

func hasAdminKey(c *gin.Context, key string) bool {
	return subtle.ConstantTimeCompare([]byte(c.GetHeader(AdminKeyHeader)), []byte(key)) == 1
}
