package storage

import (
	"context"
	"io"
	"time"

	"service-jobs-api/internal/models"
	"service-jobs-api/internal/transport/dto"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TxBeginner starts database transactions. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Create(ctx context.Context, req *dto.CreateUserRequest) (*models.User, error)
	GetByID(ctx context.Context, req *dto.GetUserByIdRequest) (*models.User, error)
	GetByEmail(ctx context.Context, req *dto.GetUserByEmailRequest) (*models.User, error)
	WithTx(tx pgx.Tx) UserRepository
}

// JobRepository defines the interface for service job data operations.
type JobRepository interface {
	Create(ctx context.Context, job *models.ServiceJob) (*models.ServiceJob, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceJob, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.ServiceJob, error)
	List(ctx context.Context, filter dto.JobFilter) ([]models.ServiceJob, error)
	ListCompletedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ServiceJob, error)
	// Save writes the full snapshot of job, including its history.
	Save(ctx context.Context, job *models.ServiceJob) (*models.ServiceJob, error)
	Delete(ctx context.Context, id uuid.UUID) error
	WithTx(tx pgx.Tx) JobRepository
}

// BlobStore stores uploaded job images and returns their public URL.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
}

// RefreshTokenStore keeps opaque refresh tokens until they expire or are used.
type RefreshTokenStore interface {
	Save(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error
	// Consume returns the owner of token and removes it so it cannot be reused.
	Consume(ctx context.Context, token string) (uuid.UUID, error)
	Delete(ctx context.Context, token string) error
}
