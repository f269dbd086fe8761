// internal/storage/postgres/jobs.go
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"service-jobs-api/internal/models"
	"service-jobs-api/internal/storage"
	"service-jobs-api/internal/transport/dto"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const jobColumns = `id, client_id, provider_id, transaction_id, service_type, description,
	latitude, longitude, address, city, region, area, image_urls,
	estimated_price, final_price, escrow_amount,
	state_kind, state_auto_verified, state_history,
	created_at, updated_at, scheduled_time, completed_at, rating, review`

// JobRepo implements the storage.JobRepository interface using PostgreSQL.
type JobRepo struct {
	db Querier
}

// NewJobRepo creates a new JobRepo.
func NewJobRepo(db Querier) *JobRepo {
	return &JobRepo{db: db}
}

// WithTx creates a new JobRepo with the transaction.
func (r *JobRepo) WithTx(tx pgx.Tx) storage.JobRepository {
	return &JobRepo{db: tx}
}

// Compile-time check to ensure JobRepo implements JobRepository
var _ storage.JobRepository = (*JobRepo)(nil)

func scanJob(row pgx.Row) (*models.ServiceJob, error) {
	var (
		job     models.ServiceJob
		history []byte
	)
	err := row.Scan(
		&job.ID,
		&job.ClientID,
		&job.ProviderID,
		&job.TransactionID,
		&job.ServiceType,
		&job.Description,
		&job.Location.Latitude,
		&job.Location.Longitude,
		&job.Location.Address,
		&job.Location.City,
		&job.Location.Region,
		&job.Area,
		&job.ImageURLs,
		&job.EstimatedPrice,
		&job.FinalPrice,
		&job.EscrowAmount,
		&job.State.Kind,
		&job.State.AutoVerified,
		&history,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.ScheduledTime,
		&job.CompletedAt,
		&job.Rating,
		&job.Review,
	)
	if err != nil {
		return nil, err
	}
	if err := job.State.Validate(); err != nil {
		return nil, fmt.Errorf("invalid state stored for job %s: %w", job.ID, err)
	}
	job.StateHistory = []models.StateTransition{}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &job.StateHistory); err != nil {
			return nil, fmt.Errorf("failed to decode state history for job %s: %w", job.ID, err)
		}
	}
	if job.ImageURLs == nil {
		job.ImageURLs = []string{}
	}
	return &job, nil
}

func (r *JobRepo) collect(rows pgx.Rows) ([]models.ServiceJob, error) {
	defer rows.Close()
	jobs := []models.ServiceJob{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}

func encodeHistory(job *models.ServiceJob) ([]byte, error) {
	history := job.StateHistory
	if history == nil {
		history = []models.StateTransition{}
	}
	return json.Marshal(history)
}

// Create saves a new job.
func (r *JobRepo) Create(ctx context.Context, job *models.ServiceJob) (*models.ServiceJob, error) {
	history, err := encodeHistory(job)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state history: %w", err)
	}
	imageURLs := job.ImageURLs
	if imageURLs == nil {
		imageURLs = []string{}
	}

	query := `
		INSERT INTO service_jobs (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
		RETURNING ` + jobColumns

	created, err := scanJob(r.db.QueryRow(ctx, query,
		job.ID,
		job.ClientID,
		job.ProviderID,
		job.TransactionID,
		job.ServiceType,
		job.Description,
		job.Location.Latitude,
		job.Location.Longitude,
		job.Location.Address,
		job.Location.City,
		job.Location.Region,
		job.Area,
		imageURLs,
		job.EstimatedPrice,
		job.FinalPrice,
		job.EscrowAmount,
		job.State.Kind,
		job.State.AutoVerified,
		history,
		job.CreatedAt,
		job.UpdatedAt,
		job.ScheduledTime,
		job.CompletedAt,
		job.Rating,
		job.Review,
	))
	if err != nil {
		zap.S().Errorf("Error creating job: %v", err)
		return nil, fmt.Errorf("failed to create job: %w", mapPgError(err))
	}

	zap.S().Infof("Job created successfully with ID: %s", created.ID)
	return created, nil
}

// GetByID retrieves a specific job by its ID.
func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceJob, error) {
	return r.getByID(ctx, `SELECT `+jobColumns+` FROM service_jobs WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves a job and locks its row for the current transaction.
func (r *JobRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.ServiceJob, error) {
	return r.getByID(ctx, `SELECT `+jobColumns+` FROM service_jobs WHERE id = $1 FOR UPDATE`, id)
}

func (r *JobRepo) getByID(ctx context.Context, query string, id uuid.UUID) (*models.ServiceJob, error) {
	job, err := scanJob(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			zap.S().Debugf("Job not found with ID: %s", id)
			return nil, storage.ErrNotFound
		}
		zap.S().Errorf("Error scanning job by ID %s: %v", id, err)
		return nil, fmt.Errorf("failed to get job by ID %s: %w", id, mapPgError(err))
	}
	return job, nil
}

// List retrieves jobs matching the filter, newest first.
func (r *JobRepo) List(ctx context.Context, filter dto.JobFilter) ([]models.ServiceJob, error) {
	baseQuery := `SELECT ` + jobColumns + ` FROM service_jobs`
	var conditions []string
	args := []interface{}{}

	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if filter.ProviderID != nil {
		args = append(args, *filter.ProviderID)
		conditions = append(conditions, fmt.Sprintf("provider_id = $%d", len(args)))
	}
	if filter.NoProvider {
		conditions = append(conditions, "provider_id IS NULL")
	}
	if filter.State != nil {
		args = append(args, *filter.State)
		conditions = append(conditions, fmt.Sprintf("state_kind = $%d", len(args)))
	}
	if filter.ServiceType != "" {
		args = append(args, filter.ServiceType)
		conditions = append(conditions, fmt.Sprintf("service_type = $%d", len(args)))
	}
	if filter.City != "" {
		args = append(args, filter.City)
		conditions = append(conditions, fmt.Sprintf("lower(city) = lower($%d)", len(args)))
	}

	query := buildListQuery(baseQuery, conditions, &args, "created_at DESC", filter.Offset, filter.Limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		zap.S().Errorf("Error querying jobs: %v", err)
		return nil, fmt.Errorf("failed to query jobs: %w", mapPgError(err))
	}
	jobs, err := r.collect(rows)
	if err != nil {
		zap.S().Errorf("Error scanning jobs: %v", err)
		return nil, fmt.Errorf("failed to scan jobs: %w", mapPgError(err))
	}
	return jobs, nil
}

// ListCompletedBefore returns Completed jobs whose completion time is older than cutoff.
func (r *JobRepo) ListCompletedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ServiceJob, error) {
	args := []interface{}{models.StateKindCompleted, cutoff}
	query := buildListQuery(
		`SELECT `+jobColumns+` FROM service_jobs`,
		[]string{"state_kind = $1", "completed_at IS NOT NULL", "completed_at < $2"},
		&args, "completed_at ASC", 0, limit,
	)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		zap.S().Errorf("Error querying completed jobs before %s: %v", cutoff, err)
		return nil, fmt.Errorf("failed to query completed jobs: %w", mapPgError(err))
	}
	jobs, err := r.collect(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan completed jobs: %w", mapPgError(err))
	}
	return jobs, nil
}

// Save overwrites the mutable columns of an existing job with the given snapshot.
func (r *JobRepo) Save(ctx context.Context, job *models.ServiceJob) (*models.ServiceJob, error) {
	history, err := encodeHistory(job)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state history: %w", err)
	}
	imageURLs := job.ImageURLs
	if imageURLs == nil {
		imageURLs = []string{}
	}

	query := `
		UPDATE service_jobs SET
			provider_id = $2, transaction_id = $3, service_type = $4, description = $5,
			latitude = $6, longitude = $7, address = $8, city = $9, region = $10, area = $11,
			image_urls = $12, estimated_price = $13, final_price = $14, escrow_amount = $15,
			state_kind = $16, state_auto_verified = $17, state_history = $18,
			updated_at = $19, scheduled_time = $20, completed_at = $21, rating = $22, review = $23
		WHERE id = $1
		RETURNING ` + jobColumns

	saved, err := scanJob(r.db.QueryRow(ctx, query,
		job.ID,
		job.ProviderID,
		job.TransactionID,
		job.ServiceType,
		job.Description,
		job.Location.Latitude,
		job.Location.Longitude,
		job.Location.Address,
		job.Location.City,
		job.Location.Region,
		job.Area,
		imageURLs,
		job.EstimatedPrice,
		job.FinalPrice,
		job.EscrowAmount,
		job.State.Kind,
		job.State.AutoVerified,
		history,
		job.UpdatedAt,
		job.ScheduledTime,
		job.CompletedAt,
		job.Rating,
		job.Review,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			zap.S().Infof("Job not found for update with ID: %s", job.ID)
			return nil, storage.ErrNotFound
		}
		zap.S().Errorf("Error saving job %s: %v", job.ID, err)
		return nil, fmt.Errorf("failed to save job %s: %w", job.ID, mapPgError(err))
	}
	return saved, nil
}

// Delete removes a job by its ID.
func (r *JobRepo) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM service_jobs WHERE id = $1`, id)
	if err != nil {
		zap.S().Errorf("Error deleting job %s: %v", id, err)
		return fmt.Errorf("failed to delete job %s: %w", id, mapPgError(err))
	}
	if cmdTag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	zap.S().Infof("Job deleted successfully: %s", id)
	return nil
}
