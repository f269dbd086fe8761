package dto

import (
	"time"

	"service-jobs-api/internal/models"

	"github.com/google/uuid"
)

// GetUserByIdRequest defines the structure for getting a user by id.
type GetUserByIdRequest struct {
	ID uuid.UUID `json:"id" validate:"required"`
}

// GetUserByEmailRequest defines the structure for getting a user by email.
type GetUserByEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// CreateUserRequest defines the structure for registering a new user.
type CreateUserRequest struct {
	Email        string      `json:"email" validate:"required,email"`
	Name         string      `json:"name" validate:"omitempty,max=100"`
	Password     string      `json:"password" validate:"required,min=8,max=72"`
	Role         models.Role `json:"role" validate:"required,oneof=client provider"`
	PasswordHash string      `json:"-"` // Set by the service after hashing
}

// CreateAdminRequest defines an operator-created administrator account.
type CreateAdminRequest struct {
	Email    string `validate:"required,email"`
	Name     string `validate:"omitempty,max=100"`
	Password string `validate:"required,min=8,max=72"`
}

// LoginRequest defines the structure for a login attempt.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest exchanges a refresh token for a new token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest revokes a refresh token.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// UserResponse defines the user data returned to the client.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LoginResponse carries the issued tokens.
type LoginResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

// TokenResponse carries a rotated token pair.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
