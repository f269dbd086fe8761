package routes

import (
	"service-jobs-api/internal/api/handlers"
	"service-jobs-api/internal/api/middleware"
	"service-jobs-api/internal/models"

	"github.com/gin-gonic/gin"
)

// RegisterJobRoutes registers all routes related to jobs.
// It applies the provided authentication middleware to all job routes.
func RegisterJobRoutes(
	rg *gin.RouterGroup,
	jobHandler handlers.JobHandlerInterface,
	authMiddleware gin.HandlerFunc,
) {
	jobs := rg.Group("/jobs")
	jobs.Use(authMiddleware)
	{
		jobs.POST("", middleware.RequireRole(models.RoleClient), jobHandler.CreateJob)
		jobs.GET("", jobHandler.ListJobs)
		jobs.GET("/available", middleware.RequireRole(models.RoleProvider, models.RoleAdmin), jobHandler.ListAvailableJobs)
		jobs.GET("/:id", jobHandler.GetJobByID)
		jobs.GET("/:id/history", jobHandler.GetJobHistory)
		jobs.PATCH("/:id", jobHandler.UpdateJobDetails)
		jobs.DELETE("/:id", jobHandler.DeleteJob)

		// Lifecycle transitions
		jobs.POST("/:id/fund", jobHandler.FundJob)
		jobs.POST("/:id/assign", jobHandler.AssignProvider)
		jobs.POST("/:id/accept", jobHandler.AcceptJob)
		jobs.POST("/:id/start", jobHandler.StartJob)
		jobs.POST("/:id/complete", jobHandler.CompleteJob)
		jobs.POST("/:id/verify", jobHandler.VerifyJob)
		jobs.POST("/:id/cancel", jobHandler.CancelJob)
		jobs.POST("/:id/dispute", jobHandler.DisputeJob)

		jobs.POST("/:id/rate", jobHandler.RateJob)
		jobs.POST("/:id/images", jobHandler.AddJobImage)
	}
}
