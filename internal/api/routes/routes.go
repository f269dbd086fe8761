package routes

import (
	"context"

	"service-jobs-api/internal/api/handlers"
	"service-jobs-api/internal/api/middleware"
	"service-jobs-api/internal/app"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// RegisterRoutes sets up the API routes by calling resource-specific registration functions
func RegisterRoutes(router *gin.Engine, app *app.Application) {
	apiV1 := router.Group("/api/v1")

	userHandler := handlers.NewUserHandler(app.UserService, app.Validator)
	jobHandler := handlers.NewJobHandler(app.JobService, app.Validator, app.Config.AutoVerify.After)

	authMiddleware := middleware.JWTAuthMiddleware(app.Config.JWT.Secret)

	RegisterUserRoutes(apiV1, userHandler, authMiddleware)
	RegisterJobRoutes(apiV1, jobHandler, authMiddleware)
	RegisterAdminRoutes(apiV1, jobHandler, authMiddleware)

	checks := map[string]handlers.Pinger{}
	if app.DBPool != nil {
		checks["database"] = app.DBPool
	}
	if app.RedisClient != nil {
		checks["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return app.RedisClient.Ping(ctx).Err()
		})
	}
	router.GET("/health", handlers.NewHealthHandler(checks).HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	zap.S().Info("Configuring Swagger UI handler")
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
