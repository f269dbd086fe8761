package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"service-jobs-api/internal/auth"
	"service-jobs-api/internal/models"
	"service-jobs-api/internal/services"
	"service-jobs-api/internal/storage"
	"service-jobs-api/internal/storage/cache"
	"service-jobs-api/internal/transport/dto"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const jwtSecret = "test-secret-key"

var tokenConfig = services.TokenConfig{
	Secret:            jwtSecret,
	Expiration:        15 * time.Minute,
	RefreshExpiration: time.Hour,
}

func setupUserServiceTest(t *testing.T) (context.Context, services.UserService, *MockUserRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := new(MockUserRepository)
	t.Cleanup(func() { repo.AssertExpectations(t) })
	return context.Background(), services.NewUserService(repo, cache.NewRefreshTokenStore(client), tokenConfig), repo, mr
}

func hashedUser(t *testing.T, password string, role models.Role) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{ID: uuid.New(), Email: "test@example.com", Name: "Test User", PasswordHash: string(hash), Role: role}
}

func TestUserService_Register(t *testing.T) {
	repoErrDbConnectionLost := errors.New("database connection lost")

	tests := []struct {
		name          string
		repoUser      *models.User
		repoErr       error
		expectedError error
		errorContains string
	}{
		{name: "Success", repoUser: &models.User{ID: uuid.New(), Email: "test@example.com", Role: models.RoleProvider}},
		{name: "Conflict - Duplicate Email", repoErr: storage.ErrDuplicateEmail, expectedError: services.ErrConflict},
		{name: "Repository Error", repoErr: repoErrDbConnectionLost, expectedError: repoErrDbConnectionLost, errorContains: "internal error creating user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, userService, repo, _ := setupUserServiceTest(t)
			req := &dto.CreateUserRequest{Email: "test@example.com", Password: "password123", Name: "Test User", Role: models.RoleProvider}

			var returned interface{}
			if tt.repoUser != nil {
				returned = tt.repoUser
			}
			repo.On("Create", ctx, mock.MatchedBy(func(r *dto.CreateUserRequest) bool {
				return bcrypt.CompareHashAndPassword([]byte(r.PasswordHash), []byte("password123")) == nil
			})).Return(returned, tt.repoErr).Once()

			user, err := userService.Register(ctx, req)

			if tt.expectedError != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.expectedError), "Expected error %v, got %v", tt.expectedError, err)
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.repoUser.ID, user.ID)
		})
	}
}

func TestUserService_CreateAdmin(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		ctx, userService, repo, _ := setupUserServiceTest(t)
		adminID := uuid.New()
		repo.On("Create", ctx, mock.MatchedBy(func(r *dto.CreateUserRequest) bool {
			return r.Role == models.RoleAdmin && r.Email == "ops@example.com" &&
				bcrypt.CompareHashAndPassword([]byte(r.PasswordHash), []byte("s3cret-pass")) == nil
		})).Return(&models.User{ID: adminID, Email: "ops@example.com", Role: models.RoleAdmin}, nil).Once()

		admin, err := userService.CreateAdmin(ctx, &dto.CreateAdminRequest{Email: "ops@example.com", Password: "s3cret-pass"})

		require.NoError(t, err)
		assert.Equal(t, adminID, admin.ID)
		assert.Equal(t, models.RoleAdmin, admin.Role)
	})

	t.Run("Duplicate Email", func(t *testing.T) {
		ctx, userService, repo, _ := setupUserServiceTest(t)
		repo.On("Create", ctx, mock.Anything).Return(nil, storage.ErrDuplicateEmail).Once()

		_, err := userService.CreateAdmin(ctx, &dto.CreateAdminRequest{Email: "ops@example.com", Password: "s3cret-pass"})

		assert.ErrorIs(t, err, services.ErrConflict)
	})
}

func TestUserService_Login(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		ctx, userService, repo, mr := setupUserServiceTest(t)
		user := hashedUser(t, "password123", models.RoleProvider)
		repo.On("GetByEmail", ctx, &dto.GetUserByEmailRequest{Email: user.Email}).Return(user, nil).Once()

		got, accessToken, refreshToken, err := userService.Login(ctx, &dto.LoginRequest{Email: user.Email, Password: "password123"})

		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		claims, err := auth.ParseAccessToken(jwtSecret, accessToken)
		require.NoError(t, err)
		assert.Equal(t, models.RoleProvider, claims.Role)
		assert.Equal(t, user.ID.String(), claims.Subject)
		assert.NotEmpty(t, refreshToken)
		assert.Len(t, mr.Keys(), 1)
	})

	t.Run("Invalid Password", func(t *testing.T) {
		ctx, userService, repo, _ := setupUserServiceTest(t)
		user := hashedUser(t, "password123", models.RoleClient)
		repo.On("GetByEmail", ctx, &dto.GetUserByEmailRequest{Email: user.Email}).Return(user, nil).Once()

		_, _, _, err := userService.Login(ctx, &dto.LoginRequest{Email: user.Email, Password: "wrongpassword"})

		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("User Not Found", func(t *testing.T) {
		ctx, userService, repo, _ := setupUserServiceTest(t)
		repo.On("GetByEmail", ctx, &dto.GetUserByEmailRequest{Email: "nobody@example.com"}).Return(nil, storage.ErrNotFound).Once()

		_, _, _, err := userService.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "x"})

		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})
}

func TestUserService_RefreshRotatesToken(t *testing.T) {
	ctx, userService, repo, _ := setupUserServiceTest(t)
	user := hashedUser(t, "password123", models.RoleClient)
	repo.On("GetByEmail", ctx, &dto.GetUserByEmailRequest{Email: user.Email}).Return(user, nil).Once()
	repo.On("GetByID", ctx, &dto.GetUserByIdRequest{ID: user.ID}).Return(user, nil).Once()

	_, _, refreshToken, err := userService.Login(ctx, &dto.LoginRequest{Email: user.Email, Password: "password123"})
	require.NoError(t, err)

	accessToken, rotated, err := userService.Refresh(ctx, &dto.RefreshRequest{RefreshToken: refreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, accessToken)
	assert.NotEqual(t, refreshToken, rotated)

	// The consumed token cannot be replayed.
	_, _, err = userService.Refresh(ctx, &dto.RefreshRequest{RefreshToken: refreshToken})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestUserService_Logout(t *testing.T) {
	ctx, userService, repo, mr := setupUserServiceTest(t)
	user := hashedUser(t, "password123", models.RoleClient)
	repo.On("GetByEmail", ctx, &dto.GetUserByEmailRequest{Email: user.Email}).Return(user, nil).Once()

	_, _, refreshToken, err := userService.Login(ctx, &dto.LoginRequest{Email: user.Email, Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, userService.Logout(ctx, &dto.LogoutRequest{RefreshToken: refreshToken}))
	assert.Empty(t, mr.Keys())

	_, _, err = userService.Refresh(ctx, &dto.RefreshRequest{RefreshToken: refreshToken})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestUserService_GetByID_NotFound(t *testing.T) {
	ctx, userService, repo, _ := setupUserServiceTest(t)
	id := uuid.New()
	repo.On("GetByID", ctx, &dto.GetUserByIdRequest{ID: id}).Return(nil, storage.ErrNotFound).Once()

	_, err := userService.GetByID(ctx, &dto.GetUserByIdRequest{ID: id})

	assert.ErrorIs(t, err, services.ErrNotFound)
}
