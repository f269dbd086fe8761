package services

import (
	"context"
	"io"
	"time"

	"service-jobs-api/internal/models"
	"service-jobs-api/internal/transport/dto"
)

// UserService defines the interface for user-related business logic.
type UserService interface {
	Register(ctx context.Context, req *dto.CreateUserRequest) (*models.User, error)
	// CreateAdmin is not reachable over HTTP; operators call it from the CLI.
	CreateAdmin(ctx context.Context, req *dto.CreateAdminRequest) (*models.User, error)
	// Login returns the user, an access token and a refresh token.
	Login(ctx context.Context, req *dto.LoginRequest) (*models.User, string, string, error)
	Refresh(ctx context.Context, req *dto.RefreshRequest) (string, string, error)
	Logout(ctx context.Context, req *dto.LogoutRequest) error
	GetByID(ctx context.Context, req *dto.GetUserByIdRequest) (*models.User, error)
}

// JobService defines the interface for job-related business logic.
type JobService interface {
	CreateJob(ctx context.Context, req *dto.CreateJobRequest) (*models.ServiceJob, error)
	GetJobByID(ctx context.Context, req *dto.GetJobByIDRequest) (*models.ServiceJob, error)
	ListJobs(ctx context.Context, req *dto.ListJobsRequest) ([]models.ServiceJob, error)
	ListAvailableJobs(ctx context.Context, req *dto.ListAvailableJobsRequest) ([]models.ServiceJob, error)
	UpdateJobDetails(ctx context.Context, req *dto.UpdateJobDetailsRequest) (*models.ServiceJob, error)
	DeleteJob(ctx context.Context, req *dto.DeleteJobRequest) error

	FundJob(ctx context.Context, req *dto.FundJobRequest) (*models.ServiceJob, error)
	AssignProvider(ctx context.Context, req *dto.AssignProviderRequest) (*models.ServiceJob, error)
	AcceptJob(ctx context.Context, req *dto.JobActionRequest) (*models.ServiceJob, error)
	StartJob(ctx context.Context, req *dto.JobActionRequest) (*models.ServiceJob, error)
	CompleteJob(ctx context.Context, req *dto.CompleteJobRequest) (*models.ServiceJob, error)
	VerifyJob(ctx context.Context, req *dto.JobActionRequest) (*models.ServiceJob, error)
	PayoutJob(ctx context.Context, req *dto.JobActionRequest) (*models.ServiceJob, error)
	CancelJob(ctx context.Context, req *dto.JobActionRequest) (*models.ServiceJob, error)
	DisputeJob(ctx context.Context, req *dto.DisputeJobRequest) (*models.ServiceJob, error)

	RateJob(ctx context.Context, req *dto.RateJobRequest) (*models.ServiceJob, error)
	AddJobImage(ctx context.Context, req *dto.AddJobImageRequest) (*models.ServiceJob, error)

	// AutoVerifyCompleted verifies every Completed job finished before cutoff.
	AutoVerifyCompleted(ctx context.Context, cutoff time.Time) (*dto.AutoVerifyResponse, error)
	ExportJobs(ctx context.Context, req *dto.ExportJobsRequest, w io.Writer) error
}
