package routes_test

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"service-jobs-api/internal/api/handlers"
	"service-jobs-api/internal/api/middleware"
	"service-jobs-api/internal/api/routes"
	"service-jobs-api/internal/auth"
	"service-jobs-api/internal/models"
	"service-jobs-api/internal/services"
	"service-jobs-api/internal/transport/dto"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-test-secret"

// MockJobService is a mock implementation of services.JobService
type MockJobService struct {
	mock.Mock
}

var _ services.JobService = (*MockJobService)(nil)

func jobOrNil(args mock.Arguments) (*models.ServiceJob, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceJob), args.Error(1)
}

func jobsOrNil(args mock.Arguments) ([]models.ServiceJob, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ServiceJob), args.Error(1)
}

func (m *MockJobService) CreateJob(ctx context.Context, req *dto.CreateJobRequest) (*models.ServiceJob, error) {
	return jobOrNil(m.Called(ctx, req))
}

func (m *MockJobService) GetJobByID(ctx context.Context, req *dto.GetJobByIDRequest) (*models.ServiceJob, error) {
	return jobOrNil(m.Called(ctx, req))
}

func (m *MockJobService) ListJobs(ctx context.Context, req *dto.ListJobsRequest) ([]models.ServiceJob, error) {
	return jobsOrNil(m.Called(ctx, req))
}

func (m *MockJobService) ListAvailableJobs(ctx context.Context, req *dto.ListAvailableJobsRequest) ([]models.ServiceJob, error) {
	return jobsOrNil(m.Called(ctx, req))
}

func (m *MockJobService) UpdateJobDetails(ctx context.Context, req *dto.UpdateJobDetailsRequest) (*models.ServiceJob, error) {
	return jobOrNil(m.Called(ctx, req))
}

func (m *MockJobService) DeleteJob(ctx context.Context, req *dto.DeleteJobRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockJobService) FundJob(ctx context.Context, req *dto.FundJobRequest) (*models.ServiceJob, error) {
	return jobOrNil(m.Called(ctx, req))
}

func (m *MockJobService) AssignProvider(ctx context.Context, req *dto.AssignProviderRequest) (*models.ServiceJob, error) {
	return jobOrNil(m.Called(ctx, req))
}

func (m *MockJobService) AcceptJob(ctx context.Context, req *dto.JobActionRequest) (*models.ServiceJob, error) {
	return jobOrNil(m.Called(ctx, req))
}

func (m *MockJobService) StartJob(ctx context.Context, req *dto.JobActionRequest) (*models.ServiceJob, error) {
	return jobOrNil(m.Called(ctx, req))
}

func (m *MockJobService) CompleteJob(ctx context.Context, req *dto.CompleteJobRequest) (*models.ServiceJob, error) {
	return jobOrNil(m.Called(ctx, req))
}

func (m *MockJobService) VerifyJob(ctx context.Context, req *dto.JobActionRequest) (*models.ServiceJob, error) {
	return jobOrNil(m.Called(ctx, req))
}

func (m *MockJobService) PayoutJob(ctx context.Context, req *dto.JobActionRequest) (*models.ServiceJob, error) {
	return jobOrNil(m.Called(ctx, req))
}

func (m *MockJobService) CancelJob(ctx context.Context, req *dto.JobActionRequest) (*models.ServiceJob, error) {
	return jobOrNil(m.Called(ctx, req))
}

func (m *MockJobService) DisputeJob(ctx context.Context, req *dto.DisputeJobRequest) (*models.ServiceJob, error) {
	return jobOrNil(m.Called(ctx, req))
}

func (m *MockJobService) RateJob(ctx context.Context, req *dto.RateJobRequest) (*models.ServiceJob, error) {
	return jobOrNil(m.Called(ctx, req))
}

func (m *MockJobService) AddJobImage(ctx context.Context, req *dto.AddJobImageRequest) (*models.ServiceJob, error) {
	return jobOrNil(m.Called(ctx, req))
}

func (m *MockJobService) AutoVerifyCompleted(ctx context.Context, cutoff time.Time) (*dto.AutoVerifyResponse, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AutoVerifyResponse), args.Error(1)
}

func (m *MockJobService) ExportJobs(ctx context.Context, req *dto.ExportJobsRequest, w io.Writer) error {
	return m.Called(ctx, req, w).Error(0)
}

// MockUserService is a mock implementation of services.UserService
type MockUserService struct {
	mock.Mock
}

var _ services.UserService = (*MockUserService)(nil)

func (m *MockUserService) Register(ctx context.Context, req *dto.CreateUserRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) CreateAdmin(ctx context.Context, req *dto.CreateAdminRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, req *dto.LoginRequest) (*models.User, string, string, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, "", "", args.Error(3)
	}
	return args.Get(0).(*models.User), args.String(1), args.String(2), args.Error(3)
}

func (m *MockUserService) Refresh(ctx context.Context, req *dto.RefreshRequest) (string, string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockUserService) Logout(ctx context.Context, req *dto.LogoutRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockUserService) GetByID(ctx context.Context, req *dto.GetUserByIdRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// --- Helper Functions for Setup ---

func setupTestRouter(t *testing.T) (*gin.Engine, *MockJobService, *MockUserService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jobService := new(MockJobService)
	userService := new(MockUserService)
	t.Cleanup(func() {
		jobService.AssertExpectations(t)
		userService.AssertExpectations(t)
	})

	validate := validator.New()
	jobHandler := handlers.NewJobHandler(jobService, validate, 72*time.Hour)
	userHandler := handlers.NewUserHandler(userService, validate)
	authMiddleware := middleware.JWTAuthMiddleware(testSecret)

	router := gin.New()
	apiV1 := router.Group("/api/v1")
	routes.RegisterUserRoutes(apiV1, userHandler, authMiddleware)
	routes.RegisterJobRoutes(apiV1, jobHandler, authMiddleware)
	routes.RegisterAdminRoutes(apiV1, jobHandler, authMiddleware)
	return router, jobService, userService
}

func generateTestToken(t *testing.T, userID uuid.UUID, role models.Role) string {
	t.Helper()
	token, err := auth.IssueAccessToken(testSecret, userID, role, time.Minute, time.Now())
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	request := httptest.NewRequest(method, path, reader)
	if body != "" {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

// sampleJob builds a persisted-looking job driven through the given states.
func sampleJob(t *testing.T, clientID uuid.UUID, providerID *uuid.UUID, targets ...models.JobState) *models.ServiceJob {
	t.Helper()
	job := models.NewServiceJob()
	job.ID = uuid.New()
	job.ClientID = clientID
	job.ServiceType = "plumbing"
	job.Description = "Fix the sink"
	job.Location = models.Location{Address: "Rua A 1", City: "Lisboa"}
	job.EstimatedPrice = 50
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	job.CreatedAt, job.UpdatedAt = now, now

	for i, target := range targets {
		if target.Kind == models.StateKindAssigned {
			job.ProviderID = providerID
		}
		next, err := models.Transition(job, target, "", now.Add(time.Duration(i+1)*time.Minute))
		require.NoError(t, err)
		job = next
	}
	return &job
}

func issueExpiredToken() (string, error) {
	return auth.IssueAccessToken(testSecret, uuid.New(), models.RoleClient, time.Minute, time.Now().Add(-time.Hour))
}
