// internal/transport/dto/job_dto.go
package dto

import (
	"io"
	"time"

	"service-jobs-api/internal/models"

	"github.com/google/uuid"
)

// --- Job Request DTOs ---

// LocationRequest is the location block of a job request.
type LocationRequest struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Address   string  `json:"address" validate:"required,max=255"`
	City      string  `json:"city" validate:"required,max=100"`
	Region    string  `json:"region" validate:"omitempty,max=100"`
}

// CreateJobRequest defines the structure for submitting a new job request.
type CreateJobRequest struct {
	ServiceType    string          `json:"service_type" validate:"required,max=100"`
	Description    string          `json:"description" validate:"required,max=2000"`
	Location       LocationRequest `json:"location" validate:"required"`
	Area           *string         `json:"area,omitempty" validate:"omitempty,max=100"`
	EstimatedPrice float64         `json:"estimated_price" validate:"gte=0"`
	ScheduledTime  *time.Time      `json:"scheduled_time,omitempty"`
	ClientID       uuid.UUID       `json:"-"` // Set internally by handler from auth context
}

// GetJobByIDRequest defines the structure for getting a job by ID.
type GetJobByIDRequest struct {
	ID     uuid.UUID   `json:"-" validate:"required"`
	UserID uuid.UUID   `json:"-"`
	Role   models.Role `json:"-"`
}

// ListAvailableJobsRequest defines parameters for listing funded jobs without a provider.
type ListAvailableJobsRequest struct {
	Limit       int    `form:"limit,default=10" validate:"omitempty,gte=0,lte=100"`
	Offset      int    `form:"offset,default=0" validate:"omitempty,gte=0"`
	ServiceType string `form:"service_type" validate:"omitempty,max=100"`
	City        string `form:"city" validate:"omitempty,max=100"`
}

// ListJobsRequest defines parameters for listing the caller's jobs.
type ListJobsRequest struct {
	UserID      uuid.UUID `json:"-"`
	AsProvider  bool      `form:"as_provider"`
	Limit       int       `form:"limit,default=10" validate:"omitempty,gte=0,lte=100"`
	Offset      int       `form:"offset,default=0" validate:"omitempty,gte=0"`
	State       string    `form:"state" validate:"omitempty,oneof=Created Funded Assigned Accepted InProgress Completed Verified PaidOut Cancelled Disputed"`
	ServiceType string    `form:"service_type" validate:"omitempty,max=100"`
	City        string    `form:"city" validate:"omitempty,max=100"`
}

// JobFilter is the repository-level filter built from list requests.
type JobFilter struct {
	ClientID    *uuid.UUID
	ProviderID  *uuid.UUID
	State       *models.StateKind
	NoProvider  bool
	ServiceType string
	City        string
	Limit       int
	Offset      int
}

// UpdateJobDetailsRequest defines the fields a client may edit while the job is a draft.
type UpdateJobDetailsRequest struct {
	JobID          uuid.UUID        `json:"-"`
	UserID         uuid.UUID        `json:"-"`
	ServiceType    *string          `json:"service_type,omitempty" validate:"omitempty,max=100"`
	Description    *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	Location       *LocationRequest `json:"location,omitempty"`
	Area           *string          `json:"area,omitempty" validate:"omitempty,max=100"`
	EstimatedPrice *float64         `json:"estimated_price,omitempty" validate:"omitempty,gte=0"`
	ScheduledTime  *time.Time       `json:"scheduled_time,omitempty"`
}

// FundJobRequest records the escrow deposit for a job.
type FundJobRequest struct {
	JobID         uuid.UUID `json:"-"`
	UserID        uuid.UUID `json:"-"`
	EscrowAmount  float64   `json:"escrow_amount" validate:"required,gt=0"`
	TransactionID string    `json:"transaction_id" validate:"required,max=255"`
}

// AssignProviderRequest assigns a provider to a funded job.
type AssignProviderRequest struct {
	JobID      uuid.UUID   `json:"-"`
	UserID     uuid.UUID   `json:"-"`
	Role       models.Role `json:"-"`
	ProviderID uuid.UUID   `json:"provider_id" validate:"required"`
}

// JobActionRequest is used by transitions that carry no payload besides an optional reason.
type JobActionRequest struct {
	JobID  uuid.UUID   `json:"-"`
	UserID uuid.UUID   `json:"-"`
	Role   models.Role `json:"-"`
	Reason string      `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// CompleteJobRequest marks work as done with the final price.
type CompleteJobRequest struct {
	JobID      uuid.UUID `json:"-"`
	UserID     uuid.UUID `json:"-"`
	FinalPrice *float64  `json:"final_price,omitempty" validate:"omitempty,gte=0"`
}

// DisputeJobRequest opens a dispute; a reason is mandatory.
type DisputeJobRequest struct {
	JobID  uuid.UUID   `json:"-"`
	UserID uuid.UUID   `json:"-"`
	Role   models.Role `json:"-"`
	Reason string      `json:"reason" validate:"required,max=500"`
}

// RateJobRequest records the client's rating of the provider.
type RateJobRequest struct {
	JobID  uuid.UUID `json:"-"`
	UserID uuid.UUID `json:"-"`
	Rating int       `json:"rating" validate:"required,gte=1,lte=5"`
	Review string    `json:"review,omitempty" validate:"omitempty,max=2000"`
}

// AddJobImageRequest carries an uploaded image for a job.
type AddJobImageRequest struct {
	JobID       uuid.UUID
	UserID      uuid.UUID
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// AutoVerifyRequest triggers the auto verification sweep.
type AutoVerifyRequest struct {
	OlderThanHours *int `json:"older_than_hours,omitempty" validate:"omitempty,gte=0"`
}

// ExportJobsRequest selects the jobs written to the admin workbook.
type ExportJobsRequest struct {
	State       string `form:"state" validate:"omitempty,oneof=Created Funded Assigned Accepted InProgress Completed Verified PaidOut Cancelled Disputed"`
	ServiceType string `form:"service_type" validate:"omitempty,max=100"`
	Limit       int    `form:"limit,default=1000" validate:"omitempty,gte=0,lte=10000"`
}

// DeleteJobRequest defines the structure for deleting a job.
type DeleteJobRequest struct {
	ID     uuid.UUID `json:"-" validate:"required"`
	UserID uuid.UUID `json:"-"`
}

// --- Job Response DTOs ---

// JobStateResponse is the tagged state representation plus its display label.
type JobStateResponse struct {
	Kind         string `json:"kind"`
	AutoVerified *bool  `json:"auto_verified,omitempty"`
	Label        string `json:"label"`
}

// StateTransitionResponse is one history entry.
type StateTransitionResponse struct {
	From      JobStateResponse `json:"from"`
	To        JobStateResponse `json:"to"`
	Timestamp int64            `json:"timestamp"` // epoch millis
	Reason    *string          `json:"reason,omitempty"`
}

// LocationResponse mirrors models.Location.
type LocationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
	City      string  `json:"city"`
	Region    string  `json:"region"`
}

// JobResponse defines the standard job data returned to the client.
type JobResponse struct {
	ID             uuid.UUID                 `json:"id"`
	ClientID       uuid.UUID                 `json:"client_id"`
	ProviderID     *uuid.UUID                `json:"provider_id,omitempty"`
	TransactionID  string                    `json:"transaction_id,omitempty"`
	ServiceType    string                    `json:"service_type"`
	Description    string                    `json:"description"`
	Location       LocationResponse          `json:"location"`
	Area           *string                   `json:"area,omitempty"`
	ImageURLs      []string                  `json:"image_urls"`
	EstimatedPrice float64                   `json:"estimated_price"`
	FinalPrice     float64                   `json:"final_price"`
	EscrowAmount   float64                   `json:"escrow_amount"`
	State          JobStateResponse          `json:"state"`
	NextStates     []string                  `json:"next_states"`
	StateHistory   []StateTransitionResponse `json:"state_history,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
	ScheduledTime  *time.Time                `json:"scheduled_time,omitempty"`
	CompletedAt    *time.Time                `json:"completed_at,omitempty"`
	Rating         *int                      `json:"rating,omitempty"`
	Review         *string                   `json:"review,omitempty"`
}

// AutoVerifyResponse reports the outcome of a sweep.
type AutoVerifyResponse struct {
	Verified int `json:"verified"`
	Failed   int `json:"failed"`
}
