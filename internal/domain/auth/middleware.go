package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Middleware enforces bearer token auth on protected routes. A request
// passes when it carries either the raw shared token or a JWT issued
// from it. With an empty token the middleware is a no-op.
func Middleware(token string) gin.HandlerFunc {
	verifier := NewAuthToken(token)
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		bearer := strings.TrimPrefix(header, "Bearer ")
		if bearer == "" || bearer == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Authorization required",
			})
			return
		}
		if bearer == token {
			c.Next()
			return
		}
		if ok, clientID, err := verifier.VerifyToken(bearer); err == nil && ok {
			c.Set("client_id", clientID)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "Invalid access token",
		})
	}
}
