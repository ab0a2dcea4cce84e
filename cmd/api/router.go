package api

import (
	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRoutes wires the HTTP surface. authClient may be nil when auth is not
// required.
func SetupRoutes(r *gin.Engine, h *Handler, authClient *auth.Client, requireAuth bool, logger *zap.Logger) {
	r.GET("/", h.Liveness)
	r.GET("/health", h.Health)

	api := r.Group("/")
	if requireAuth && authClient != nil {
		api.Use(AuthMiddleware(authClient, logger))
	}
	{
		api.POST("/register-token", h.RegisterToken)
		api.POST("/send-notification", h.SendNotification)
		api.POST("/schedule-notification", h.ScheduleNotification)
	}
}
