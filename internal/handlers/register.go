package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"unicode"

	"todo-list/backend/internal/services"

	"github.com/gin-gonic/gin"
)

type RegisterHandler struct {
	registerService services.RegisterService
}

func NewRegisterHandler(registerService services.RegisterService) *RegisterHandler {
	return &RegisterHandler{registerService: registerService}
}

type RegistrationResponse struct {
	Message string               `json:"message"`
	User    *UserProfileResponse `json:"user"`
}

func (h *RegisterHandler) Registration(c *gin.Context) {
	var req services.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if err := validateRegistration(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": err.Error(),
		})
		return
	}

	user, err := h.registerService.RegisterUser(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Registration failed",
				"details": "An account with this email already exists",
			})
			return
		}
		log.Printf("[auth] registration failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Registration failed",
			"details": "An unexpected error occurred. Please try again later.",
		})
		return
	}

	c.JSON(http.StatusCreated, RegistrationResponse{
		Message: "Your account has been created successfully.",
		User:    profileOf(user),
	})
}

func validateRegistration(req *services.RegistrationRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return errors.New("name is required")
	}
	return validatePassword(req.Password)
}

// validatePassword requires a letter and a digit on top of the length checks
// done by binding.
func validatePassword(password string) error {
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	var missing []string
	if !hasLetter {
		missing = append(missing, "letter")
	}
	if !hasDigit {
		missing = append(missing, "number")
	}
	if len(missing) > 0 {
		return errors.New("password must contain at least one " + strings.Join(missing, " and one "))
	}
	return nil
}
