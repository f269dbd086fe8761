package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"service-jobs-api/internal/auth"
	"service-jobs-api/internal/models"
	"service-jobs-api/internal/storage"
	"service-jobs-api/internal/transport/dto"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TokenConfig holds the signing secret and token lifetimes.
type TokenConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type userService struct {
	repo   storage.UserRepository
	tokens storage.RefreshTokenStore
	cfg    TokenConfig
	now    func() time.Time
}

// NewUserService creates a new instance of UserService.
func NewUserService(repo storage.UserRepository, tokens storage.RefreshTokenStore, cfg TokenConfig) UserService {
	return &userService{
		repo:   repo,
		tokens: tokens,
		cfg:    cfg,
		now:    time.Now,
	}
}

func (s *userService) Register(ctx context.Context, req *dto.CreateUserRequest) (*models.User, error) {
	if req.Role == "" {
		req.Role = models.RoleClient
	}
	return s.createUser(ctx, req)
}

func (s *userService) CreateAdmin(ctx context.Context, req *dto.CreateAdminRequest) (*models.User, error) {
	user, err := s.createUser(ctx, &dto.CreateUserRequest{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return nil, err
	}
	zap.S().Infof("UserService: Created admin %s", user.ID)
	return user, nil
}

func (s *userService) createUser(ctx context.Context, req *dto.CreateUserRequest) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		zap.S().Errorf("UserService: Error hashing password: %v", err)
		return nil, fmt.Errorf("internal error hashing password: %w", err)
	}
	req.PasswordHash = string(hash)

	user, err := s.repo.Create(ctx, req)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) || errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("%w: %w", ErrConflict, err)
		}
		if errors.Is(err, storage.ErrUnavailable) {
			return nil, mapRepoError(err, "creating user")
		}
		zap.S().Errorf("UserService: Error creating user: %v", err)
		return nil, fmt.Errorf("internal error creating user: %w", err)
	}
	return user, nil
}

func (s *userService) Login(ctx context.Context, req *dto.LoginRequest) (*models.User, string, string, error) {
	user, err := s.repo.GetByEmail(ctx, &dto.GetUserByEmailRequest{Email: req.Email})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			zap.S().Infof("Login attempt failed for email %s: user not found", req.Email)
			return nil, "", "", ErrInvalidCredentials
		}
		zap.S().Errorf("Error fetching user by email %s during login: %v", req.Email, err)
		return nil, "", "", mapRepoError(err, "login")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		zap.S().Infof("Login attempt failed for email %s: invalid password", req.Email)
		return nil, "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, "", "", err
	}
	return user, accessToken, refreshToken, nil
}

// Refresh rotates the refresh token: the presented one is consumed and a new
// pair is issued.
func (s *userService) Refresh(ctx context.Context, req *dto.RefreshRequest) (string, string, error) {
	userID, err := s.tokens.Consume(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", fmt.Errorf("internal error reading refresh token: %w", err)
	}

	user, err := s.repo.GetByID(ctx, &dto.GetUserByIdRequest{ID: userID})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", mapRepoError(err, "fetching user for refresh")
	}

	return s.issueTokens(ctx, user)
}

func (s *userService) Logout(ctx context.Context, req *dto.LogoutRequest) error {
	if err := s.tokens.Delete(ctx, req.RefreshToken); err != nil {
		zap.S().Errorf("UserService: Error revoking refresh token: %v", err)
		return fmt.Errorf("internal error during logout: %w", err)
	}
	return nil
}

func (s *userService) GetByID(ctx context.Context, req *dto.GetUserByIdRequest) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, req)
	if err != nil {
		return nil, mapRepoError(err, "getting user by ID")
	}
	return user, nil
}

func (s *userService) issueTokens(ctx context.Context, user *models.User) (string, string, error) {
	accessToken, err := auth.IssueAccessToken(s.cfg.Secret, user.ID, user.Role, s.cfg.Expiration, s.now())
	if err != nil {
		zap.S().Errorf("Error generating JWT token for user %s: %v", user.Email, err)
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken := auth.NewRefreshToken()
	if err := s.tokens.Save(ctx, refreshToken, user.ID, s.cfg.RefreshExpiration); err != nil {
		return "", "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return accessToken, refreshToken, nil
}
