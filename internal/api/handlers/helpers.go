package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"service-jobs-api/internal/api/middleware"
	"service-jobs-api/internal/models"
	"service-jobs-api/internal/services"
	"service-jobs-api/internal/transport/dto"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func FormatValidationErrors(err error) map[string]string {
	errorsMap := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errorsMap["error"] = "Invalid validation error type"
		return errorsMap
	}
	for _, fieldError := range validationErrors {
		fieldName := fieldError.Field()
		errorsMap[fieldName] = fmt.Sprintf("Field validation for '%s' failed on the '%s' tag", fieldName, fieldError.Tag())
		switch fieldError.Tag() {
		case "required":
			errorsMap[fieldName] = fmt.Sprintf("Field '%s' is required", fieldName)
		case "email":
			errorsMap[fieldName] = fmt.Sprintf("Field '%s' must be a valid email address", fieldName)
		case "min":
			errorsMap[fieldName] = fmt.Sprintf("Field '%s' must be at least %s characters long", fieldName, fieldError.Param())
		case "max":
			errorsMap[fieldName] = fmt.Sprintf("Field '%s' must be at most %s characters long", fieldName, fieldError.Param())
		case "oneof":
			errorsMap[fieldName] = fmt.Sprintf("Field '%s' must be one of: %s", fieldName, fieldError.Param())
		case "gte", "gt", "lte", "lt":
			errorsMap[fieldName] = fmt.Sprintf("Field '%s' is out of range (%s %s)", fieldName, fieldError.Tag(), fieldError.Param())
		}
	}
	return errorsMap
}

// MapUserModelToUserResponse converts a models.User to a dto.UserResponse
func MapUserModelToUserResponse(user *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func mapJobState(s models.JobState) dto.JobStateResponse {
	resp := dto.JobStateResponse{Kind: string(s.Kind), Label: s.Label()}
	if s.Kind == models.StateKindVerified {
		auto := s.AutoVerified
		resp.AutoVerified = &auto
	}
	return resp
}

// MapHistoryToResponse converts a job's audit trail, oldest first.
func MapHistoryToResponse(history []models.StateTransition) []dto.StateTransitionResponse {
	resp := make([]dto.StateTransitionResponse, 0, len(history))
	for _, t := range history {
		resp = append(resp, dto.StateTransitionResponse{
			From:      mapJobState(t.From),
			To:        mapJobState(t.To),
			Timestamp: t.Timestamp.UnixMilli(),
			Reason:    t.Reason,
		})
	}
	return resp
}

// MapJobModelToJobResponse converts a models.ServiceJob to a dto.JobResponse
func MapJobModelToJobResponse(job *models.ServiceJob) dto.JobResponse {
	next := models.NextStates(job.State)
	nextStates := make([]string, 0, len(next))
	for _, k := range next {
		nextStates = append(nextStates, string(k))
	}
	imageURLs := job.ImageURLs
	if imageURLs == nil {
		imageURLs = []string{}
	}

	return dto.JobResponse{
		ID:            job.ID,
		ClientID:      job.ClientID,
		ProviderID:    job.ProviderID,
		TransactionID: job.TransactionID,
		ServiceType:   job.ServiceType,
		Description:   job.Description,
		Location: dto.LocationResponse{
			Latitude:  job.Location.Latitude,
			Longitude: job.Location.Longitude,
			Address:   job.Location.Address,
			City:      job.Location.City,
			Region:    job.Location.Region,
		},
		Area:           job.Area,
		ImageURLs:      imageURLs,
		EstimatedPrice: job.EstimatedPrice,
		FinalPrice:     job.FinalPrice,
		EscrowAmount:   job.EscrowAmount,
		State:          mapJobState(job.State),
		NextStates:     nextStates,
		StateHistory:   MapHistoryToResponse(job.StateHistory),
		CreatedAt:      job.CreatedAt,
		UpdatedAt:      job.UpdatedAt,
		ScheduledTime:  job.ScheduledTime,
		CompletedAt:    job.CompletedAt,
		Rating:         job.Rating,
		Review:         job.Review,
	}
}

func mapJobs(jobs []models.ServiceJob) []dto.JobResponse {
	jobResponses := make([]dto.JobResponse, 0, len(jobs))
	for i := range jobs {
		jobResponses = append(jobResponses, MapJobModelToJobResponse(&jobs[i]))
	}
	return jobResponses
}

// respondError writes the HTTP status matching a service error.
func respondError(c *gin.Context, operation string, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidTransition), errors.Is(err, services.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Conflict"})
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, services.ErrStorageUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage unavailable"})
	default:
		zap.S().Errorf("%s: unexpected error: %v", operation, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + operation})
	}
}

// bindJSON binds and validates the request body, writing a 400 on failure.
func bindJSON(c *gin.Context, v *validator.Validate, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return false
	}
	if err := v.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": FormatValidationErrors(err)})
		return false
	}
	return true
}

// bindQuery binds and validates query parameters, writing a 400 on failure.
func bindQuery(c *gin.Context, v *validator.Validate, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return false
	}
	if err := v.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": FormatValidationErrors(err)})
		return false
	}
	return true
}

// caller returns the authenticated user, writing a 401 when absent.
func caller(c *gin.Context) (uuid.UUID, models.Role, bool) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		zap.S().Infof("Error getting user ID from context: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return uuid.Nil, "", false
	}
	role, _ := middleware.GetRoleFromContext(c)
	return userID, role, true
}

// jobIDParam parses the :id path parameter, writing a 400 when malformed.
func jobIDParam(c *gin.Context) (uuid.UUID, bool) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID format"})
		return uuid.Nil, false
	}
	return jobID, true
}
