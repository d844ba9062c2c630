package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"todo-list/backend/internal/config"
	"todo-list/backend/internal/models"
	"todo-list/backend/internal/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService services.AuthService
	cookie      CookieSettings
}

// CookieSettings controls the http-only cookie that mirrors the access token
// for browser clients.
type CookieSettings struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

func CookieSettingsFrom(cfg config.AuthConfig) CookieSettings {
	return CookieSettings{
		Name:   cfg.CookieName,
		Secure: cfg.CookieSecure,
		MaxAge: cfg.AccessTokenTTL,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	services.TokenPair
	User *UserProfileResponse `json:"user"`
}

type UserProfileResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func profileOf(user *models.User) *UserProfileResponse {
	return &UserProfileResponse{
		ID:          user.ID.String(),
		Email:       user.Email,
		Name:        user.Name,
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}

func NewAuthHandler(authService services.AuthService, cookie CookieSettings) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "access_token"
	}
	return &AuthHandler{authService: authService, cookie: cookie}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	user, err := h.authService.LoginUser(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, services.ErrAccountDisabled):
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "account_disabled",
			"message": "Your account has been disabled",
		})
		return
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "invalid_credentials",
			"message": "Invalid email or password",
		})
		return
	case err != nil:
		log.Printf("[auth] login failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "login_failed",
			"message": "Failed to log in",
		})
		return
	}

	pair, err := h.authService.GenerateToken(c.Request.Context(), user)
	if err != nil {
		log.Printf("[auth] token generation for %s failed: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "token_generation_failed",
			"message": "Failed to generate authentication tokens",
		})
		return
	}

	h.setTokenCookie(c, pair.AccessToken)
	c.JSON(http.StatusOK, LoginResponse{TokenPair: *pair, User: profileOf(user)})
}

func (h *AuthHandler) setTokenCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, int(h.cookie.MaxAge.Seconds()), "/", "", h.cookie.Secure, true)
}

func (h *AuthHandler) clearTokenCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
}
