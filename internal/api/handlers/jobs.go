package handlers

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"service-jobs-api/internal/models"
	"service-jobs-api/internal/services"
	"service-jobs-api/internal/transport/dto"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// JobHandler holds dependencies for job operations.
type JobHandler struct {
	service         services.JobService
	validator       *validator.Validate
	autoVerifyAfter time.Duration
	now             func() time.Time
}

// NewJobHandler creates a new JobHandler. autoVerifyAfter is the review
// window used when an admin triggers a sweep without an explicit age.
func NewJobHandler(service services.JobService, validate *validator.Validate, autoVerifyAfter time.Duration) *JobHandler {
	return &JobHandler{
		service:         service,
		validator:       validate,
		autoVerifyAfter: autoVerifyAfter,
		now:             time.Now,
	}
}

// CreateJob godoc
// @Summary      Create a new service job
// @Description  Creates a job in the Created state. The client ID is taken from the auth context.
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Param        job body      dto.CreateJobRequest true  "Job details"
// @Success      201 {object}  dto.JobResponse "Job created successfully"
// @Failure      400 {object}  map[string]string "Bad Request - Invalid input"
// @Failure      401 {object}  map[string]string "Unauthorized"
// @Failure      403 {object}  map[string]string "Forbidden - Only clients create jobs"
// @Failure      500 {object}  map[string]string "Internal Server Error"
// @Router       /jobs [post]
// @Security     BearerAuth
func (h *JobHandler) CreateJob(c *gin.Context) {
	clientID, _, ok := caller(c)
	if !ok {
		return
	}

	var req dto.CreateJobRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}
	req.ClientID = clientID

	createdJob, err := h.service.CreateJob(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "create job", err)
		return
	}
	c.JSON(http.StatusCreated, MapJobModelToJobResponse(createdJob))
}

// GetJobByID godoc
// @Summary      Get a job by ID
// @Description  Retrieves a job visible to the caller, including its state history.
// @Tags         jobs
// @Produce      json
// @Param        id path      string true  "Job ID" Format(uuid)
// @Success      200 {object}  dto.JobResponse "Successfully retrieved job"
// @Failure      400 {object}  map[string]string "Invalid ID format"
// @Failure      401 {object}  map[string]string "Unauthorized"
// @Failure      403 {object}  map[string]string "Forbidden"
// @Failure      404 {object}  map[string]string "Job Not Found"
// @Router       /jobs/{id} [get]
// @Security     BearerAuth
func (h *JobHandler) GetJobByID(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, MapJobModelToJobResponse(job))
}

// GetJobHistory godoc
// @Summary      Get a job's state history
// @Description  Returns the ordered audit trail of state transitions.
// @Tags         jobs
// @Produce      json
// @Param        id path      string true  "Job ID" Format(uuid)
// @Success      200 {array}   dto.StateTransitionResponse "State history, oldest first"
// @Failure      400 {object}  map[string]string "Invalid ID format"
// @Failure      403 {object}  map[string]string "Forbidden"
// @Failure      404 {object}  map[string]string "Job Not Found"
// @Router       /jobs/{id}/history [get]
// @Security     BearerAuth
func (h *JobHandler) GetJobHistory(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, MapHistoryToResponse(job.StateHistory))
}

func (h *JobHandler) loadJob(c *gin.Context) (*models.ServiceJob, bool) {
	userID, role, ok := caller(c)
	if !ok {
		return nil, false
	}
	jobID, ok := jobIDParam(c)
	if !ok {
		return nil, false
	}

	job, err := h.service.GetJobByID(c.Request.Context(), &dto.GetJobByIDRequest{ID: jobID, UserID: userID, Role: role})
	if err != nil {
		respondError(c, "retrieve job", err)
		return nil, false
	}
	return job, true
}

// ListJobs godoc
// @Summary      List the caller's jobs
// @Description  Lists jobs the caller owns, or jobs assigned to the caller when as_provider is set.
// @Tags         jobs
// @Produce      json
// @Param        as_provider query bool false "List jobs assigned to the caller"
// @Param        state query string false "Filter by state kind"
// @Param        service_type query string false "Filter by service type"
// @Param        city query string false "Filter by city"
// @Param        limit query int false "Pagination limit" default(10)
// @Param        offset query int false "Pagination offset" default(0)
// @Success      200 {array}   dto.JobResponse "Jobs"
// @Failure      400 {object}  map[string]string "Bad Request - Invalid query parameters"
// @Failure      401 {object}  map[string]string "Unauthorized"
// @Router       /jobs [get]
// @Security     BearerAuth
func (h *JobHandler) ListJobs(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}

	var req dto.ListJobsRequest
	if !bindQuery(c, h.validator, &req) {
		return
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}
	req.UserID = userID

	jobs, err := h.service.ListJobs(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "retrieve jobs", err)
		return
	}
	c.JSON(http.StatusOK, mapJobs(jobs))
}

// ListAvailableJobs godoc
// @Summary      List available jobs
// @Description  Lists Funded jobs that have no provider yet.
// @Tags         jobs
// @Produce      json
// @Param        service_type query string false "Filter by service type"
// @Param        city query string false "Filter by city"
// @Param        limit query int false "Pagination limit" default(10)
// @Param        offset query int false "Pagination offset" default(0)
// @Success      200 {array}   dto.JobResponse "Available jobs"
// @Failure      400 {object}  map[string]string "Bad Request - Invalid query parameters"
// @Failure      401 {object}  map[string]string "Unauthorized"
// @Router       /jobs/available [get]
// @Security     BearerAuth
func (h *JobHandler) ListAvailableJobs(c *gin.Context) {
	var req dto.ListAvailableJobsRequest
	if !bindQuery(c, h.validator, &req) {
		return
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}

	jobs, err := h.service.ListAvailableJobs(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "retrieve available jobs", err)
		return
	}
	c.JSON(http.StatusOK, mapJobs(jobs))
}

// UpdateJobDetails godoc
// @Summary      Update a draft job
// @Description  Lets the owning client edit a job while it is still in the Created state.
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Param        id path      string true  "Job ID" Format(uuid)
// @Param        details body dto.UpdateJobDetailsRequest true "Fields to update"
// @Success      200 {object}  dto.JobResponse "Job details updated successfully"
// @Failure      400 {object}  map[string]string "Bad Request - Invalid input"
// @Failure      403 {object}  map[string]string "Forbidden"
// @Failure      404 {object}  map[string]string "Job Not Found"
// @Failure      409 {object}  map[string]string "Job is no longer a draft"
// @Router       /jobs/{id} [patch]
// @Security     BearerAuth
func (h *JobHandler) UpdateJobDetails(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	jobID, ok := jobIDParam(c)
	if !ok {
		return
	}

	var req dto.UpdateJobDetailsRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}
	if req.ServiceType == nil && req.Description == nil && req.Location == nil &&
		req.Area == nil && req.EstimatedPrice == nil && req.ScheduledTime == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No update fields provided"})
		return
	}
	req.UserID = userID
	req.JobID = jobID

	updatedJob, err := h.service.UpdateJobDetails(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "update job details", err)
		return
	}
	c.JSON(http.StatusOK, MapJobModelToJobResponse(updatedJob))
}

// DeleteJob godoc
// @Summary      Delete a draft job
// @Description  Deletes a job. Allowed only by the owning client while the job is in the Created state.
// @Tags         jobs
// @Param        id path      string true  "Job ID" Format(uuid)
// @Success      204 {object}  nil "Job deleted successfully"
// @Failure      400 {object}  map[string]string "Invalid ID format"
// @Failure      403 {object}  map[string]string "Forbidden"
// @Failure      404 {object}  map[string]string "Job Not Found"
// @Failure      409 {object}  map[string]string "Job is no longer a draft"
// @Router       /jobs/{id} [delete]
// @Security     BearerAuth
func (h *JobHandler) DeleteJob(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	jobID, ok := jobIDParam(c)
	if !ok {
		return
	}

	if err := h.service.DeleteJob(c.Request.Context(), &dto.DeleteJobRequest{ID: jobID, UserID: userID}); err != nil {
		respondError(c, "delete job", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// FundJob godoc
// @Summary      Fund a job
// @Description  Records the escrow deposit and moves the job from Created to Funded.
// @Tags         lifecycle
// @Accept       json
// @Produce      json
// @Param        id path      string true  "Job ID" Format(uuid)
// @Param        funding body dto.FundJobRequest true "Escrow details"
// @Success      200 {object}  dto.JobResponse "Job funded"
// @Failure      400 {object}  map[string]string "Bad Request - Invalid input"
// @Failure      403 {object}  map[string]string "Forbidden"
// @Failure      404 {object}  map[string]string "Job Not Found"
// @Failure      409 {object}  map[string]string "Illegal transition"
// @Router       /jobs/{id}/fund [post]
// @Security     BearerAuth
func (h *JobHandler) FundJob(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	jobID, ok := jobIDParam(c)
	if !ok {
		return
	}
	var req dto.FundJobRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}
	req.JobID, req.UserID = jobID, userID

	job, err := h.service.FundJob(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "fund job", err)
		return
	}
	c.JSON(http.StatusOK, MapJobModelToJobResponse(job))
}

// AssignProvider godoc
// @Summary      Assign a provider
// @Description  Assigns a provider to a Funded job, moving it to Assigned.
// @Tags         lifecycle
// @Accept       json
// @Produce      json
// @Param        id path      string true  "Job ID" Format(uuid)
// @Param        assignment body dto.AssignProviderRequest true "Provider to assign"
// @Success      200 {object}  dto.JobResponse "Provider assigned"
// @Failure      400 {object}  map[string]string "Bad Request - Invalid input"
// @Failure      403 {object}  map[string]string "Forbidden"
// @Failure      404 {object}  map[string]string "Job Not Found"
// @Failure      409 {object}  map[string]string "Illegal transition"
// @Router       /jobs/{id}/assign [post]
// @Security     BearerAuth
func (h *JobHandler) AssignProvider(c *gin.Context) {
	userID, role, ok := caller(c)
	if !ok {
		return
	}
	jobID, ok := jobIDParam(c)
	if !ok {
		return
	}
	var req dto.AssignProviderRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}
	req.JobID, req.UserID, req.Role = jobID, userID, role

	job, err := h.service.AssignProvider(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "assign provider", err)
		return
	}
	c.JSON(http.StatusOK, MapJobModelToJobResponse(job))
}

// AcceptJob godoc
// @Summary      Accept an assignment
// @Description  The assigned provider accepts the job (Assigned to Accepted).
// @Tags         lifecycle
// @Produce      json
// @Param        id path      string true  "Job ID" Format(uuid)
// @Success      200 {object}  dto.JobResponse "Job accepted"
// @Failure      403 {object}  map[string]string "Forbidden"
// @Failure      404 {object}  map[string]string "Job Not Found"
// @Failure      409 {object}  map[string]string "Illegal transition"
// @Router       /jobs/{id}/accept [post]
// @Security     BearerAuth
func (h *JobHandler) AcceptJob(c *gin.Context) {
	h.runAction(c, "accept job", h.service.AcceptJob)
}

// StartJob godoc
// @Summary      Start work
// @Description  The assigned provider starts work (Accepted to InProgress).
// @Tags         lifecycle
// @Produce      json
// @Param        id path      string true  "Job ID" Format(uuid)
// @Success      200 {object}  dto.JobResponse "Job started"
// @Failure      403 {object}  map[string]string "Forbidden"
// @Failure      404 {object}  map[string]string "Job Not Found"
// @Failure      409 {object}  map[string]string "Illegal transition"
// @Router       /jobs/{id}/start [post]
// @Security     BearerAuth
func (h *JobHandler) StartJob(c *gin.Context) {
	h.runAction(c, "start job", h.service.StartJob)
}

// CompleteJob godoc
// @Summary      Complete work
// @Description  The assigned provider marks the work done (InProgress to Completed).
// @Tags         lifecycle
// @Accept       json
// @Produce      json
// @Param        id path      string true  "Job ID" Format(uuid)
// @Param        completion body dto.CompleteJobRequest false "Final price"
// @Success      200 {object}  dto.JobResponse "Job completed"
// @Failure      400 {object}  map[string]string "Bad Request - Invalid input"
// @Failure      403 {object}  map[string]string "Forbidden"
// @Failure      404 {object}  map[string]string "Job Not Found"
// @Failure      409 {object}  map[string]string "Illegal transition"
// @Router       /jobs/{id}/complete [post]
// @Security     BearerAuth
func (h *JobHandler) CompleteJob(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	jobID, ok := jobIDParam(c)
	if !ok {
		return
	}
	var req dto.CompleteJobRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, h.validator, &req) {
		return
	}
	req.JobID, req.UserID = jobID, userID

	job, err := h.service.CompleteJob(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "complete job", err)
		return
	}
	c.JSON(http.StatusOK, MapJobModelToJobResponse(job))
}

// VerifyJob godoc
// @Summary      Verify completed work
// @Description  The client confirms the work (Completed to Verified).
// @Tags         lifecycle
// @Produce      json
// @Param        id path      string true  "Job ID" Format(uuid)
// @Success      200 {object}  dto.JobResponse "Job verified"
// @Failure      403 {object}  map[string]string "Forbidden"
// @Failure      404 {object}  map[string]string "Job Not Found"
// @Failure      409 {object}  map[string]string "Illegal transition"
// @Router       /jobs/{id}/verify [post]
// @Security     BearerAuth
func (h *JobHandler) VerifyJob(c *gin.Context) {
	h.runAction(c, "verify job", h.service.VerifyJob)
}

// CancelJob godoc
// @Summary      Cancel a job
// @Description  The client or an admin cancels a job that has not started.
// @Tags         lifecycle
// @Accept       json
// @Produce      json
// @Param        id path      string true  "Job ID" Format(uuid)
// @Param        cancellation body dto.JobActionRequest false "Optional reason"
// @Success      200 {object}  dto.JobResponse "Job cancelled"
// @Failure      403 {object}  map[string]string "Forbidden"
// @Failure      404 {object}  map[string]string "Job Not Found"
// @Failure      409 {object}  map[string]string "Illegal transition"
// @Router       /jobs/{id}/cancel [post]
// @Security     BearerAuth
func (h *JobHandler) CancelJob(c *gin.Context) {
	h.runAction(c, "cancel job", h.service.CancelJob)
}

// DisputeJob godoc
// @Summary      Dispute a job
// @Description  A participant or an admin opens a dispute. A reason is required.
// @Tags         lifecycle
// @Accept       json
// @Produce      json
// @Param        id path      string true  "Job ID" Format(uuid)
// @Param        dispute body dto.DisputeJobRequest true "Dispute reason"
// @Success      200 {object}  dto.JobResponse "Job disputed"
// @Failure      400 {object}  map[string]string "Bad Request - Invalid input"
// @Failure      403 {object}  map[string]string "Forbidden"
// @Failure      404 {object}  map[string]string "Job Not Found"
// @Failure      409 {object}  map[string]string "Illegal transition"
// @Router       /jobs/{id}/dispute [post]
// @Security     BearerAuth
func (h *JobHandler) DisputeJob(c *gin.Context) {
	userID, role, ok := caller(c)
	if !ok {
		return
	}
	jobID, ok := jobIDParam(c)
	if !ok {
		return
	}
	var req dto.DisputeJobRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}
	req.JobID, req.UserID, req.Role = jobID, userID, role

	job, err := h.service.DisputeJob(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "dispute job", err)
		return
	}
	c.JSON(http.StatusOK, MapJobModelToJobResponse(job))
}

// RateJob godoc
// @Summary      Rate a job
// @Description  The client rates the provider once the job is Verified or PaidOut.
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Param        id path      string true  "Job ID" Format(uuid)
// @Param        rating body dto.RateJobRequest true "Rating from 1 to 5"
// @Success      200 {object}  dto.JobResponse "Rating recorded"
// @Failure      400 {object}  map[string]string "Bad Request - Invalid input"
// @Failure      403 {object}  map[string]string "Forbidden"
// @Failure      404 {object}  map[string]string "Job Not Found"
// @Failure      409 {object}  map[string]string "Job cannot be rated in its state"
// @Router       /jobs/{id}/rate [post]
// @Security     BearerAuth
func (h *JobHandler) RateJob(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	jobID, ok := jobIDParam(c)
	if !ok {
		return
	}
	var req dto.RateJobRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}
	req.JobID, req.UserID = jobID, userID

	job, err := h.service.RateJob(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "rate job", err)
		return
	}
	c.JSON(http.StatusOK, MapJobModelToJobResponse(job))
}

// AddJobImage godoc
// @Summary      Upload a job image
// @Description  Uploads a photo of the job site and appends its URL to the job.
// @Tags         jobs
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path      string true  "Job ID" Format(uuid)
// @Param        image formData file true "JPEG, PNG or WebP image"
// @Success      200 {object}  dto.JobResponse "Image added"
// @Failure      400 {object}  map[string]string "Bad Request - Invalid image"
// @Failure      403 {object}  map[string]string "Forbidden"
// @Failure      404 {object}  map[string]string "Job Not Found"
// @Failure      503 {object}  map[string]string "Image storage unavailable"
// @Router       /jobs/{id}/images [post]
// @Security     BearerAuth
func (h *JobHandler) AddJobImage(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}
	jobID, ok := jobIDParam(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read uploaded image"})
		return
	}
	defer file.Close()

	job, err := h.service.AddJobImage(c.Request.Context(), &dto.AddJobImageRequest{
		JobID:       jobID,
		UserID:      userID,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		respondError(c, "add job image", err)
		return
	}
	c.JSON(http.StatusOK, MapJobModelToJobResponse(job))
}

// PayoutJob godoc
// @Summary      Release escrow
// @Description  An admin records the payout of a Verified job (Verified to PaidOut).
// @Tags         admin
// @Produce      json
// @Param        id path      string true  "Job ID" Format(uuid)
// @Success      200 {object}  dto.JobResponse "Job paid out"
// @Failure      403 {object}  map[string]string "Forbidden"
// @Failure      404 {object}  map[string]string "Job Not Found"
// @Failure      409 {object}  map[string]string "Illegal transition"
// @Router       /admin/jobs/{id}/payout [post]
// @Security     BearerAuth
func (h *JobHandler) PayoutJob(c *gin.Context) {
	h.runAction(c, "pay out job", h.service.PayoutJob)
}

// AutoVerify godoc
// @Summary      Run the auto verification sweep
// @Description  Verifies every Completed job older than the review window.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        sweep body dto.AutoVerifyRequest false "Optional window override in hours"
// @Success      200 {object}  dto.AutoVerifyResponse "Sweep result"
// @Failure      400 {object}  map[string]string "Bad Request - Invalid input"
// @Failure      403 {object}  map[string]string "Forbidden"
// @Router       /admin/jobs/auto-verify [post]
// @Security     BearerAuth
func (h *JobHandler) AutoVerify(c *gin.Context) {
	var req dto.AutoVerifyRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, h.validator, &req) {
		return
	}
	window := h.autoVerifyAfter
	if req.OlderThanHours != nil {
		window = time.Duration(*req.OlderThanHours) * time.Hour
	}

	result, err := h.service.AutoVerifyCompleted(c.Request.Context(), h.now().Add(-window))
	if err != nil {
		respondError(c, "auto verify jobs", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ExportJobs godoc
// @Summary      Export jobs as a workbook
// @Description  Downloads matching jobs and their state history as an XLSX workbook.
// @Tags         admin
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        state query string false "Filter by state kind"
// @Param        service_type query string false "Filter by service type"
// @Param        limit query int false "Maximum number of jobs" default(1000)
// @Success      200 {file}    file "Workbook"
// @Failure      400 {object}  map[string]string "Bad Request - Invalid query parameters"
// @Failure      403 {object}  map[string]string "Forbidden"
// @Router       /admin/jobs/export [get]
// @Security     BearerAuth
func (h *JobHandler) ExportJobs(c *gin.Context) {
	var req dto.ExportJobsRequest
	if !bindQuery(c, h.validator, &req) {
		return
	}

	var buf bytes.Buffer
	if err := h.service.ExportJobs(c.Request.Context(), &req, &buf); err != nil {
		respondError(c, "export jobs", err)
		return
	}
	filename := "jobs-" + h.now().UTC().Format("20060102-150405") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	zap.S().Infof("ExportJobs: exported %d bytes", buf.Len())
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// runAction handles the transitions whose body is at most an optional reason.
func (h *JobHandler) runAction(c *gin.Context, operation string, action func(context.Context, *dto.JobActionRequest) (*models.ServiceJob, error)) {
	userID, role, ok := caller(c)
	if !ok {
		return
	}
	jobID, ok := jobIDParam(c)
	if !ok {
		return
	}
	var req dto.JobActionRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, h.validator, &req) {
		return
	}
	req.JobID, req.UserID, req.Role = jobID, userID, role

	job, err := action(c.Request.Context(), &req)
	if err != nil {
		respondError(c, operation, err)
		return
	}
	c.JSON(http.StatusOK, MapJobModelToJobResponse(job))
}
