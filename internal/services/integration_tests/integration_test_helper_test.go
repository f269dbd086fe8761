package integration_tests

import (
	"context"
	"os"
	"testing"
	"time"

	"service-jobs-api/internal/database"
	"service-jobs-api/internal/models"
	"service-jobs-api/internal/storage/postgres"
	"service-jobs-api/internal/transport/dto"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

var testPool *pgxpool.Pool

// getTestPool connects to the database named by TEST_DATABASE_URL and applies
// the migrations once. Tests are skipped when the variable is not set.
func getTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}
	if testPool != nil {
		return testPool
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, pool.Ping(ctx), "Failed to ping test database")
	require.NoError(t, database.Migrate(ctx, pool, "up"), "Failed to run migrations")

	testPool = pool
	return testPool
}

// getTestRedis returns a client for TEST_REDIS_URL, or nil when unset.
func getTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_URL")
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// cleanupTables truncates the given tables for test isolation.
func cleanupTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool, tables ...string) {
	t.Helper()
	for _, table := range tables {
		_, err := pool.Exec(ctx, "TRUNCATE TABLE "+table+" CASCADE")
		require.NoError(t, err, "Failed to truncate %s table", table)
	}
}

// createTestUser inserts a user with the given role.
func createTestUser(t *testing.T, ctx context.Context, pool *pgxpool.Pool, email string, role models.Role) *models.User {
	t.Helper()
	userRepo := postgres.NewUserRepo(pool)
	user, err := userRepo.Create(ctx, &dto.CreateUserRequest{
		Email:        email,
		Name:         email,
		Role:         role,
		PasswordHash: "not-a-real-hash",
	})
	require.NoError(t, err, "Failed to create test user %s", email)
	return user
}
