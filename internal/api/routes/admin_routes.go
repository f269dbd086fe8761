package routes

import (
	"service-jobs-api/internal/api/handlers"
	"service-jobs-api/internal/api/middleware"
	"service-jobs-api/internal/models"

	"github.com/gin-gonic/gin"
)

// RegisterAdminRoutes registers the operator routes. Every route requires
// the admin role.
func RegisterAdminRoutes(rg *gin.RouterGroup, adminHandler handlers.AdminHandlerInterface, authMiddleware gin.HandlerFunc) {
	admin := rg.Group("/admin")
	admin.Use(authMiddleware, middleware.RequireRole(models.RoleAdmin))
	{
		admin.POST("/jobs/:id/payout", adminHandler.PayoutJob)
		admin.POST("/jobs/auto-verify", adminHandler.AutoVerify)
		admin.GET("/jobs/export", adminHandler.ExportJobs)
	}
}
