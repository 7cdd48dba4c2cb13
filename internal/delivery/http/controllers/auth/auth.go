package auth

import (
	"EduForge/internal/delivery/http/controllers/middleware"
	"EduForge/internal/delivery/http/controllers/respond"
	"EduForge/internal/models"
	"EduForge/pkg/logger"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthService interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	LoginUser(ctx context.Context, username, password string) (accessToken, refreshToken string, err error)
	RefreshTokens(ctx context.Context, token string) (*models.TokenPair, error)
}

type AuthHandler struct {
	AuthService AuthService
	log         logger.Log
}

func NewAuthHandler(l logger.Log, auth AuthService) *AuthHandler {
	return &AuthHandler{
		AuthService: auth,
		log:         l,
	}
}

type userResponse struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Roles    []string  `json:"roles"`
}

func toUserResponse(u models.User) userResponse {
	return userResponse{UserID: u.ID, Username: u.Username, Email: u.Email, Roles: u.Roles}
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.Client(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input registerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}

	user, err := h.AuthService.CreateUser(c.Request.Context(), models.User{
		Username: input.Username,
		Password: input.Password,
		Email:    input.Email,
		Roles:    []string{input.Role},
	})
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	h.log.Info("user registered", "user_id", user.ID.String(), "role", input.Role)
	c.JSON(http.StatusCreated, toUserResponse(*user))
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input loginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}

	accessToken, refreshToken, err := h.AuthService.LoginUser(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{AccessToken: accessToken, RefreshToken: refreshToken})
}

type tokenRefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var input tokenRefreshRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}

	tokenPair, err := h.AuthService.RefreshTokens(c.Request.Context(), input.RefreshToken)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
	})
}
