package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"cardioscan-server/internal/config"
	"cardioscan-server/internal/models"
	"cardioscan-server/internal/service"
	"cardioscan-server/internal/utils"
)

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	Service *service.RecordService
	Cfg     *config.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.RecordService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{Service: svc, Cfg: cfg}
}

// RegisterRequest represents the request body for user registration.
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"omitempty,oneof=patient doctor"`
}

// Register handles user registration.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	err := h.Service.Register(c.Request.Context(), req.Username, req.Password, models.Role(req.Role))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.Created(c, "User registered successfully", gin.H{"username": req.Username})
}

// LoginRequest represents the request body for user login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the response body for successful login.
type LoginResponse struct {
	Username    string      `json:"username"`
	Role        models.Role `json:"role"`
	AccessToken string      `json:"accessToken"`
}

// Login handles user login and mints an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	p, err := h.Service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	accessToken, err := utils.GenerateAccessToken(p.Username, p.Role, h.Cfg)
	if err != nil {
		utils.InternalServerError(c, "Failed to generate token")
		return
	}

	utils.Success(c, "Login successful", LoginResponse{
		Username:    p.Username,
		Role:        p.Role,
		AccessToken: accessToken,
	})
}

// respondServiceError maps a service outcome to its HTTP status.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		utils.Unauthorized(c, "Invalid credentials")
	case errors.Is(err, service.ErrUnauthorized):
		utils.Forbidden(c, "Unauthorized access")
	case errors.Is(err, service.ErrNotFound):
		utils.NotFound(c, "Record not found")
	case errors.Is(err, service.ErrDuplicateUsername):
		utils.Conflict(c, "Username already exists")
	case errors.Is(err, service.ErrValidation):
		utils.BadRequest(c, "Invalid request")
	default:
		utils.InternalServerError(c, "Internal failure")
	}
}
