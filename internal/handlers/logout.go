package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Logout always clears the cookie and succeeds; a refresh token in the body
// is revoked when present.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "Invalid request format",
				"details": err.Error(),
			})
			return
		}
	}

	if req.RefreshToken != "" {
		if err := h.authService.RevokeToken(c.Request.Context(), req.RefreshToken); err != nil {
			log.Printf("[auth] revoke failed: %v", err)
		}
	}

	h.clearTokenCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}
