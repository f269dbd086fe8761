package handlers

import (
	"net/http"

	"service-jobs-api/internal/services"
	"service-jobs-api/internal/transport/dto"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// UserHandler holds the service dependency for user operations
type UserHandler struct {
	service   services.UserService
	validator *validator.Validate
}

// NewUserHandler creates a new UserHandler with the given service
func NewUserHandler(service services.UserService, validate *validator.Validate) *UserHandler {
	return &UserHandler{service: service, validator: validate}
}

// Register godoc
// @Summary      Register a new user
// @Description  Creates a client or provider account.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        user body      dto.CreateUserRequest true  "Registration details"
// @Success      201  {object}  dto.UserResponse "User created successfully"
// @Failure      400  {object}  map[string]string "Bad Request - Invalid input"
// @Failure      409  {object}  map[string]string "Conflict - Email already registered"
// @Failure      500  {object}  map[string]string "Internal Server Error"
// @Router       /auth/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req dto.CreateUserRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}

	user, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "register user", err)
		return
	}
	c.JSON(http.StatusCreated, MapUserModelToUserResponse(user))
}

// Login godoc
// @Summary      Log in
// @Description  Exchanges credentials for an access token and a refresh token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials body dto.LoginRequest true "Email and password"
// @Success      200  {object}  dto.LoginResponse "Tokens issued"
// @Failure      400  {object}  map[string]string "Bad Request - Invalid input"
// @Failure      401  {object}  map[string]string "Invalid credentials"
// @Router       /auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}

	user, accessToken, refreshToken, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "log in", err)
		return
	}
	c.JSON(http.StatusOK, dto.LoginResponse{
		User:         MapUserModelToUserResponse(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// Refresh godoc
// @Summary      Refresh tokens
// @Description  Consumes a refresh token and issues a new token pair.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token body dto.RefreshRequest true "Refresh token"
// @Success      200  {object}  dto.TokenResponse "Tokens rotated"
// @Failure      400  {object}  map[string]string "Bad Request - Invalid input"
// @Failure      401  {object}  map[string]string "Unknown or expired refresh token"
// @Router       /auth/refresh [post]
func (h *UserHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}

	accessToken, refreshToken, err := h.service.Refresh(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "refresh token", err)
		return
	}
	c.JSON(http.StatusOK, dto.TokenResponse{AccessToken: accessToken, RefreshToken: refreshToken})
}

// Logout godoc
// @Summary      Log out
// @Description  Revokes a refresh token.
// @Tags         auth
// @Accept       json
// @Param        token body dto.LogoutRequest true "Refresh token"
// @Success      204  {object}  nil "Token revoked"
// @Failure      400  {object}  map[string]string "Bad Request - Invalid input"
// @Router       /auth/logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	var req dto.LogoutRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}

	if err := h.service.Logout(c.Request.Context(), &req); err != nil {
		respondError(c, "log out", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me godoc
// @Summary      Current user
// @Description  Returns the authenticated user's profile.
// @Tags         users
// @Produce      json
// @Success      200  {object}  dto.UserResponse "Current user"
// @Failure      401  {object}  map[string]string "Unauthorized"
// @Failure      404  {object}  map[string]string "User Not Found"
// @Router       /users/me [get]
// @Security     BearerAuth
func (h *UserHandler) Me(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}

	user, err := h.service.GetByID(c.Request.Context(), &dto.GetUserByIdRequest{ID: userID})
	if err != nil {
		respondError(c, "retrieve user", err)
		return
	}
	c.JSON(http.StatusOK, MapUserModelToUserResponse(user))
}
