package api

import (
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware verifies the Firebase ID token carried in the Authorization
// header. The booking clients sign in through the same Firebase project.
func AuthMiddleware(authClient *auth.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.String(http.StatusUnauthorized, "Unauthorized: No token provided or malformed.")
			c.Abort()
			return
		}

		idToken := strings.TrimPrefix(header, "Bearer ")
		token, err := authClient.VerifyIDToken(c.Request.Context(), idToken)
		if err != nil {
			logger.Warn("ID token verification failed", zap.Error(err))
			c.String(http.StatusUnauthorized, "Unauthorized: Invalid ID token.")
			c.Abort()
			return
		}

		c.Set("uid", token.UID)
		c.Next()
	}
}
