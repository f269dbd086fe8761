package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"service-jobs-api/internal/events"
	"service-jobs-api/internal/metrics"
	"service-jobs-api/internal/models"
	"service-jobs-api/internal/report"
	"service-jobs-api/internal/storage"
	"service-jobs-api/internal/transport/dto"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AutoVerifyReason is recorded on transitions made by the review window sweep.
const AutoVerifyReason = "auto-verified after review window"

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// JobServiceConfig carries the tunables of the job service.
type JobServiceConfig struct {
	MaxImageBytes   int64
	AutoVerifyBatch int
}

type jobService struct {
	db        storage.TxBeginner
	jobRepo   storage.JobRepository
	userRepo  storage.UserRepository
	publisher events.Publisher
	blobs     storage.BlobStore // nil when image storage is not configured
	cfg       JobServiceConfig
	now       func() time.Time
}

// NewJobService creates a new instance of JobService.
func NewJobService(
	db storage.TxBeginner,
	jobRepo storage.JobRepository,
	userRepo storage.UserRepository,
	publisher events.Publisher,
	blobs storage.BlobStore,
	cfg JobServiceConfig,
) JobService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if cfg.AutoVerifyBatch <= 0 {
		cfg.AutoVerifyBatch = 100
	}
	return &jobService{
		db:        db,
		jobRepo:   jobRepo,
		userRepo:  userRepo,
		publisher: publisher,
		blobs:     blobs,
		cfg:       cfg,
		now:       time.Now,
	}
}

// transitionStep describes one lifecycle move requested by a user.
type transitionStep struct {
	operation string
	target    models.JobState
	reason    string
	authorize func(job *models.ServiceJob) error
	// prepare edits the locked job before the transition is applied.
	prepare func(job *models.ServiceJob) error
}

// mutateJob loads the job under a row lock, lets fn derive the new snapshot
// and saves it in the same transaction.
func (s *jobService) mutateJob(ctx context.Context, jobID uuid.UUID, operation string, fn func(job *models.ServiceJob) (models.ServiceJob, error)) (*models.ServiceJob, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		zap.S().Errorf("%s: Error beginning transaction: %v", operation, err)
		return nil, beginError(err)
	}
	defer tx.Rollback(ctx) // Rollback if anything fails

	txJobRepo := s.jobRepo.WithTx(tx)

	existingJob, err := txJobRepo.GetByIDForUpdate(ctx, jobID)
	if err != nil {
		zap.S().Infof("%s: Error fetching job %s: %v", operation, jobID, err)
		return nil, mapRepoError(err, "fetching job for "+operation)
	}

	next, err := fn(existingJob)
	if err != nil {
		return nil, err
	}

	savedJob, err := txJobRepo.Save(ctx, &next)
	if err != nil {
		zap.S().Errorf("%s: Error saving job %s: %v", operation, jobID, err)
		return nil, mapRepoError(err, "saving job for "+operation)
	}

	if err := tx.Commit(ctx); err != nil {
		zap.S().Errorf("%s: Error committing transaction: %v", operation, err)
		return nil, fmt.Errorf("internal error committing changes: %w", err)
	}
	return savedJob, nil
}

// applyTransition runs a lifecycle step and broadcasts it once committed.
func (s *jobService) applyTransition(ctx context.Context, jobID uuid.UUID, step transitionStep) (*models.ServiceJob, error) {
	var entry models.StateTransition
	savedJob, err := s.mutateJob(ctx, jobID, step.operation, func(existingJob *models.ServiceJob) (models.ServiceJob, error) {
		if step.authorize != nil {
			if err := step.authorize(existingJob); err != nil {
				return models.ServiceJob{}, err
			}
		}

		draft := existingJob.Clone()
		if step.prepare != nil {
			if err := step.prepare(&draft); err != nil {
				return models.ServiceJob{}, mapModelError(err)
			}
		}

		next, err := models.Transition(draft, step.target, step.reason, s.now())
		if err != nil {
			if errors.Is(err, models.ErrIllegalTransition) {
				metrics.IncRejectedTransition(string(existingJob.State.Kind), string(step.target.Kind))
			}
			zap.S().Infof("%s: Rejected transition on job %s: %v", step.operation, jobID, err)
			return models.ServiceJob{}, mapModelError(err)
		}
		entry = next.StateHistory[len(next.StateHistory)-1]
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncTransition(string(entry.From.Kind), string(entry.To.Kind))
	s.publish(ctx, savedJob, entry)
	return savedJob, nil
}

// publish never fails the caller: the transition is already committed. It
// outlives the request context so a client hanging up does not drop the event.
func (s *jobService) publish(ctx context.Context, job *models.ServiceJob, entry models.StateTransition) {
	if err := s.publisher.Publish(context.WithoutCancel(ctx), events.NewJobEvent(*job, entry)); err != nil {
		zap.S().Warnf("JobService: Error publishing event for job %s: %v", job.ID, err)
	}
}

func requireClient(userID uuid.UUID) func(job *models.ServiceJob) error {
	return func(job *models.ServiceJob) error {
		if job.ClientID != userID {
			return ErrForbidden
		}
		return nil
	}
}

func requireProvider(userID uuid.UUID) func(job *models.ServiceJob) error {
	return func(job *models.ServiceJob) error {
		if !job.IsProvider(userID) {
			return ErrForbidden
		}
		return nil
	}
}

func requireClientOrAdmin(userID uuid.UUID, role models.Role) func(job *models.ServiceJob) error {
	return func(job *models.ServiceJob) error {
		if role != models.RoleAdmin && job.ClientID != userID {
			return ErrForbidden
		}
		return nil
	}
}

func (s *jobService) CreateJob(ctx context.Context, req *dto.CreateJobRequest) (*models.ServiceJob, error) {
	now := s.now().UTC().Truncate(time.Millisecond)

	job := models.NewServiceJob()
	job.ID = uuid.New()
	job.ClientID = req.ClientID
	job.ServiceType = req.ServiceType
	job.Description = req.Description
	job.Location = models.Location{
		Latitude:  req.Location.Latitude,
		Longitude: req.Location.Longitude,
		Address:   req.Location.Address,
		City:      req.Location.City,
		Region:    req.Location.Region,
	}
	job.Area = req.Area
	job.EstimatedPrice = req.EstimatedPrice
	job.ScheduledTime = req.ScheduledTime
	job.CreatedAt = now
	job.UpdatedAt = now

	if err := job.Validate(); err != nil {
		return nil, mapModelError(err)
	}

	createdJob, err := s.jobRepo.Create(ctx, &job)
	if err != nil {
		zap.S().Errorf("JobService: Error creating job: %v", err)
		return nil, mapRepoError(err, "creating job")
	}
	return createdJob, nil
}

func (s *jobService) GetJobByID(ctx context.Context, req *dto.GetJobByIDRequest) (*models.ServiceJob, error) {
	job, err := s.jobRepo.GetByID(ctx, req.ID)
	if err != nil {
		zap.S().Infof("JobService: Error getting job %s: %v", req.ID, err)
		return nil, mapRepoError(err, "getting job by ID")
	}

	// Funded jobs without a provider are open to every provider.
	openToProviders := req.Role == models.RoleProvider && job.State == models.StateFunded && job.ProviderID == nil
	if req.Role != models.RoleAdmin && !job.HasParticipant(req.UserID) && !openToProviders {
		zap.S().Infof("JobService: Forbidden read of job %s by user %s", req.ID, req.UserID)
		return nil, ErrForbidden
	}
	return job, nil
}

func (s *jobService) ListJobs(ctx context.Context, req *dto.ListJobsRequest) ([]models.ServiceJob, error) {
	filter := dto.JobFilter{
		ServiceType: req.ServiceType,
		City:        req.City,
		Limit:       req.Limit,
		Offset:      req.Offset,
	}
	userID := req.UserID
	if req.AsProvider {
		filter.ProviderID = &userID
	} else {
		filter.ClientID = &userID
	}
	if req.State != "" {
		kind, err := models.ParseStateKind(req.State)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		filter.State = &kind
	}

	jobs, err := s.jobRepo.List(ctx, filter)
	if err != nil {
		zap.S().Errorf("JobService: Error listing jobs for %s: %v", req.UserID, err)
		return nil, mapRepoError(err, "listing jobs")
	}
	return jobs, nil
}

func (s *jobService) ListAvailableJobs(ctx context.Context, req *dto.ListAvailableJobsRequest) ([]models.ServiceJob, error) {
	funded := models.StateKindFunded
	jobs, err := s.jobRepo.List(ctx, dto.JobFilter{
		State:       &funded,
		NoProvider:  true,
		ServiceType: req.ServiceType,
		City:        req.City,
		Limit:       req.Limit,
		Offset:      req.Offset,
	})
	if err != nil {
		zap.S().Errorf("JobService: Error listing available jobs: %v", err)
		return nil, mapRepoError(err, "listing available jobs")
	}
	return jobs, nil
}

func (s *jobService) UpdateJobDetails(ctx context.Context, req *dto.UpdateJobDetailsRequest) (*models.ServiceJob, error) {
	return s.mutateJob(ctx, req.JobID, "UpdateJobDetails", func(existingJob *models.ServiceJob) (models.ServiceJob, error) {
		if existingJob.ClientID != req.UserID {
			zap.S().Infof("UpdateJobDetails: Forbidden attempt on job %s by user %s", req.JobID, req.UserID)
			return models.ServiceJob{}, ErrForbidden
		}
		if existingJob.State != models.StateCreated {
			return models.ServiceJob{}, fmt.Errorf("%w: details can only change while the job is a draft (state %s)", ErrInvalidState, existingJob.State)
		}

		next := existingJob.Clone()
		if req.ServiceType != nil {
			next.ServiceType = *req.ServiceType
		}
		if req.Description != nil {
			next.Description = *req.Description
		}
		if req.Location != nil {
			next.Location = models.Location{
				Latitude:  req.Location.Latitude,
				Longitude: req.Location.Longitude,
				Address:   req.Location.Address,
				City:      req.Location.City,
				Region:    req.Location.Region,
			}
		}
		if req.Area != nil {
			next.Area = req.Area
		}
		if req.EstimatedPrice != nil {
			next.EstimatedPrice = *req.EstimatedPrice
		}
		if req.ScheduledTime != nil {
			next.ScheduledTime = req.ScheduledTime
		}
		next.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)

		if err := next.Validate(); err != nil {
			return models.ServiceJob{}, mapModelError(err)
		}
		return next, nil
	})
}

func (s *jobService) DeleteJob(ctx context.Context, req *dto.DeleteJobRequest) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		zap.S().Errorf("DeleteJob: Error beginning transaction: %v", err)
		return beginError(err)
	}
	defer tx.Rollback(ctx)

	txJobRepo := s.jobRepo.WithTx(tx)

	existingJob, err := txJobRepo.GetByIDForUpdate(ctx, req.ID)
	if err != nil {
		zap.S().Infof("DeleteJob: Error fetching job %s for delete check: %v", req.ID, err)
		return mapRepoError(err, "fetching job for delete check")
	}
	if existingJob.ClientID != req.UserID {
		zap.S().Infof("DeleteJob: Forbidden attempt on job %s by non-owner %s", req.ID, req.UserID)
		return ErrForbidden
	}
	if existingJob.State != models.StateCreated {
		return fmt.Errorf("%w: only draft jobs can be deleted (state %s)", ErrInvalidState, existingJob.State)
	}

	if err := txJobRepo.Delete(ctx, req.ID); err != nil {
		zap.S().Errorf("DeleteJob: Error deleting job %s: %v", req.ID, err)
		return mapRepoError(err, "deleting job")
	}

	if err := tx.Commit(ctx); err != nil {
		zap.S().Errorf("DeleteJob: Error committing transaction: %v", err)
		return fmt.Errorf("internal error committing job deletion: %w", err)
	}
	return nil
}

func (s *jobService) FundJob(ctx context.Context, req *dto.FundJobRequest) (*models.ServiceJob, error) {
	return s.applyTransition(ctx, req.JobID, transitionStep{
		operation: "FundJob",
		target:    models.StateFunded,
		authorize: requireClient(req.UserID),
		prepare: func(job *models.ServiceJob) error {
			job.EscrowAmount = req.EscrowAmount
			job.TransactionID = req.TransactionID
			return job.Validate()
		},
	})
}

func (s *jobService) AssignProvider(ctx context.Context, req *dto.AssignProviderRequest) (*models.ServiceJob, error) {
	provider, err := s.userRepo.GetByID(ctx, &dto.GetUserByIdRequest{ID: req.ProviderID})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: provider %s does not exist", ErrValidation, req.ProviderID)
		}
		return nil, mapRepoError(err, "fetching provider for assignment")
	}
	if provider.Role != models.RoleProvider {
		return nil, fmt.Errorf("%w: user %s is not a provider", ErrValidation, req.ProviderID)
	}

	return s.applyTransition(ctx, req.JobID, transitionStep{
		operation: "AssignProvider",
		target:    models.StateAssigned,
		authorize: requireClientOrAdmin(req.UserID, req.Role),
		prepare: func(job *models.ServiceJob) error {
			providerID := provider.ID
			job.ProviderID = &providerID
			return nil
		},
	})
}

func (s *jobService) AcceptJob(ctx context.Context, req *dto.JobActionRequest) (*models.ServiceJob, error) {
	return s.applyTransition(ctx, req.JobID, transitionStep{
		operation: "AcceptJob",
		target:    models.StateAccepted,
		reason:    req.Reason,
		authorize: requireProvider(req.UserID),
	})
}

func (s *jobService) StartJob(ctx context.Context, req *dto.JobActionRequest) (*models.ServiceJob, error) {
	return s.applyTransition(ctx, req.JobID, transitionStep{
		operation: "StartJob",
		target:    models.StateInProgress,
		reason:    req.Reason,
		authorize: requireProvider(req.UserID),
	})
}

func (s *jobService) CompleteJob(ctx context.Context, req *dto.CompleteJobRequest) (*models.ServiceJob, error) {
	return s.applyTransition(ctx, req.JobID, transitionStep{
		operation: "CompleteJob",
		target:    models.StateCompleted,
		authorize: requireProvider(req.UserID),
		prepare: func(job *models.ServiceJob) error {
			switch {
			case req.FinalPrice != nil:
				job.FinalPrice = *req.FinalPrice
			case job.FinalPrice == 0:
				job.FinalPrice = job.EstimatedPrice
			}
			return job.Validate()
		},
	})
}

func (s *jobService) VerifyJob(ctx context.Context, req *dto.JobActionRequest) (*models.ServiceJob, error) {
	return s.applyTransition(ctx, req.JobID, transitionStep{
		operation: "VerifyJob",
		target:    models.Verified(false),
		reason:    req.Reason,
		authorize: requireClient(req.UserID),
	})
}

func (s *jobService) PayoutJob(ctx context.Context, req *dto.JobActionRequest) (*models.ServiceJob, error) {
	if req.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	return s.applyTransition(ctx, req.JobID, transitionStep{
		operation: "PayoutJob",
		target:    models.StatePaidOut,
		reason:    req.Reason,
	})
}

func (s *jobService) CancelJob(ctx context.Context, req *dto.JobActionRequest) (*models.ServiceJob, error) {
	return s.applyTransition(ctx, req.JobID, transitionStep{
		operation: "CancelJob",
		target:    models.StateCancelled,
		reason:    req.Reason,
		authorize: requireClientOrAdmin(req.UserID, req.Role),
	})
}

func (s *jobService) DisputeJob(ctx context.Context, req *dto.DisputeJobRequest) (*models.ServiceJob, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return nil, fmt.Errorf("%w: a dispute needs a reason", ErrValidation)
	}
	return s.applyTransition(ctx, req.JobID, transitionStep{
		operation: "DisputeJob",
		target:    models.StateDisputed,
		reason:    req.Reason,
		authorize: func(job *models.ServiceJob) error {
			if req.Role != models.RoleAdmin && !job.HasParticipant(req.UserID) {
				return ErrForbidden
			}
			return nil
		},
	})
}

func (s *jobService) RateJob(ctx context.Context, req *dto.RateJobRequest) (*models.ServiceJob, error) {
	return s.mutateJob(ctx, req.JobID, "RateJob", func(existingJob *models.ServiceJob) (models.ServiceJob, error) {
		if existingJob.ClientID != req.UserID {
			return models.ServiceJob{}, ErrForbidden
		}
		next, err := models.Rate(*existingJob, req.Rating, req.Review, s.now())
		if err != nil {
			return models.ServiceJob{}, mapModelError(err)
		}
		return next, nil
	})
}

func (s *jobService) AddJobImage(ctx context.Context, req *dto.AddJobImageRequest) (*models.ServiceJob, error) {
	if s.blobs == nil {
		return nil, fmt.Errorf("%w: image storage is not configured", ErrStorageUnavailable)
	}
	ext, ok := allowedImageTypes[req.ContentType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported image type %q", ErrValidation, req.ContentType)
	}
	if req.Size <= 0 || (s.cfg.MaxImageBytes > 0 && req.Size > s.cfg.MaxImageBytes) {
		return nil, fmt.Errorf("%w: image size %d is outside the allowed range", ErrValidation, req.Size)
	}

	// Check ownership before spending an upload.
	job, err := s.jobRepo.GetByID(ctx, req.JobID)
	if err != nil {
		return nil, mapRepoError(err, "fetching job for image upload")
	}
	if job.ClientID != req.UserID {
		return nil, ErrForbidden
	}
	if job.State.IsTerminal() {
		return nil, fmt.Errorf("%w: cannot add images to a job in state %s", ErrInvalidState, job.State)
	}

	key := path.Join("jobs", req.JobID.String(), uuid.NewString()+ext)
	url, err := s.blobs.Put(ctx, key, req.Body, req.Size, req.ContentType)
	if err != nil {
		zap.S().Errorf("AddJobImage: Error uploading image for job %s: %v", req.JobID, err)
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	updated, err := s.mutateJob(ctx, req.JobID, "AddJobImage", func(existingJob *models.ServiceJob) (models.ServiceJob, error) {
		if existingJob.State.IsTerminal() {
			return models.ServiceJob{}, fmt.Errorf("%w: cannot add images to a job in state %s", ErrInvalidState, existingJob.State)
		}
		next := existingJob.Clone()
		next.ImageURLs = append(next.ImageURLs, url)
		next.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)
		return next, nil
	})
	if err != nil {
		if rmErr := s.blobs.Remove(context.WithoutCancel(ctx), key); rmErr != nil {
			zap.S().Warnf("AddJobImage: Orphaned object %s for job %s: %v", key, req.JobID, rmErr)
		}
		return nil, err
	}
	return updated, nil
}

func (s *jobService) AutoVerifyCompleted(ctx context.Context, cutoff time.Time) (*dto.AutoVerifyResponse, error) {
	jobs, err := s.jobRepo.ListCompletedBefore(ctx, cutoff, s.cfg.AutoVerifyBatch)
	if err != nil {
		zap.S().Errorf("AutoVerifyCompleted: Error listing completed jobs: %v", err)
		return nil, mapRepoError(err, "listing completed jobs")
	}

	result := &dto.AutoVerifyResponse{}
	for _, candidate := range jobs {
		_, err := s.applyTransition(ctx, candidate.ID, transitionStep{
			operation: "AutoVerifyCompleted",
			target:    models.Verified(true),
			reason:    AutoVerifyReason,
			// The client may have acted since the listing.
			authorize: func(job *models.ServiceJob) error {
				if job.State != models.StateCompleted || job.CompletedAt == nil || !job.CompletedAt.Before(cutoff) {
					return fmt.Errorf("%w: job %s is no longer awaiting review", ErrInvalidState, job.ID)
				}
				return nil
			},
		})
		if err != nil {
			zap.S().Warnf("AutoVerifyCompleted: Skipping job %s: %v", candidate.ID, err)
			result.Failed++
			continue
		}
		result.Verified++
	}

	metrics.AddAutoVerified(result.Verified)
	if len(jobs) > 0 {
		zap.S().Infof("AutoVerifyCompleted: verified %d of %d completed jobs", result.Verified, len(jobs))
	}
	return result, nil
}

func (s *jobService) ExportJobs(ctx context.Context, req *dto.ExportJobsRequest, w io.Writer) error {
	filter := dto.JobFilter{ServiceType: req.ServiceType, Limit: req.Limit}
	if req.State != "" {
		kind, err := models.ParseStateKind(req.State)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		filter.State = &kind
	}

	jobs, err := s.jobRepo.List(ctx, filter)
	if err != nil {
		zap.S().Errorf("ExportJobs: Error listing jobs: %v", err)
		return mapRepoError(err, "listing jobs for export")
	}
	if err := report.WriteJobsWorkbook(w, jobs); err != nil {
		return fmt.Errorf("internal error writing export: %w", err)
	}
	return nil
}
