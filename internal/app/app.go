package app

import (
	"context"
	"fmt"

	"service-jobs-api/config"
	"service-jobs-api/internal/blob"
	"service-jobs-api/internal/database"
	"service-jobs-api/internal/events"
	"service-jobs-api/internal/scheduler"
	"service-jobs-api/internal/services"
	"service-jobs-api/internal/storage"
	"service-jobs-api/internal/storage/cache"
	"service-jobs-api/internal/storage/postgres"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Application holds core application dependencies.
type Application struct {
	Config       *config.Config
	DBPool       *pgxpool.Pool
	RedisClient  *redis.Client
	Validator    *validator.Validate
	UserService  services.UserService
	JobService   services.JobService
	AutoVerifier *scheduler.AutoVerifier // nil when the sweep is disabled
}

// New connects to every backing service and wires the application.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	dbPool, err := database.NewConnectionPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}

	redisClient, err := database.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		dbPool.Close()
		return nil, err
	}

	var blobs storage.BlobStore
	if cfg.Storage.Enabled() {
		store, err := blob.NewMinioStore(ctx, cfg.Storage)
		if err != nil {
			dbPool.Close()
			_ = redisClient.Close()
			return nil, err
		}
		blobs = store
	} else {
		zap.S().Info("Image storage not configured, uploads are disabled")
	}

	userRepo := postgres.NewUserRepo(dbPool)
	jobRepo := postgres.NewJobRepo(dbPool)

	a := &Application{
		Config:      cfg,
		DBPool:      dbPool,
		RedisClient: redisClient,
		Validator:   validator.New(),
		UserService: services.NewUserService(userRepo, cache.NewRefreshTokenStore(redisClient), services.TokenConfig{
			Secret:            cfg.JWT.Secret,
			Expiration:        cfg.JWT.Expiration,
			RefreshExpiration: cfg.JWT.RefreshExpiration,
		}),
		JobService: services.NewJobService(dbPool, jobRepo, userRepo, events.NewRedisPublisher(redisClient), blobs, services.JobServiceConfig{
			MaxImageBytes:   cfg.Storage.MaxImageBytes,
			AutoVerifyBatch: cfg.AutoVerify.BatchSize,
		}),
	}

	if cfg.AutoVerify.Enabled {
		a.AutoVerifier, err = scheduler.NewAutoVerifier(a.JobService, cfg.AutoVerify)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to configure auto verification: %w", err)
		}
	}
	return a, nil
}

// Close releases the connections held by the application.
func (a *Application) Close() {
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			zap.S().Errorf("Error closing Redis client: %v", err)
		}
	}
	if a.DBPool != nil {
		a.DBPool.Close()
	}
}
