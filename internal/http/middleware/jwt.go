package middleware

import (
	"net/http"
	"strings"

	"ekehi_backend/internal/service"

	"github.com/gin-gonic/gin"
)

// JWT validates the identity provider's bearer token and injects the caller
// identity as user_id. The service never issues tokens itself.
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		userID, err := service.ParseJWT(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

// GatewayKey guards the payment gateway callbacks with a shared secret.
func GatewayKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-Gateway-Key") != key {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid gateway key"})
			return
		}
		c.Next()
	}
}
