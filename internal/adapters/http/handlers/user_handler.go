package handlers

import (
	"realestate-crm/internal/adapters/http/middleware"
	"realestate-crm/internal/core/domain"
	"realestate-crm/internal/core/services"
	"realestate-crm/internal/pkg/response"
	"realestate-crm/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// UserHandler handles the caller's own profile
type UserHandler struct {
	userService *services.UserService
	logger      *logrus.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// GetProfile handles getting current user's profile
// @Summary Get my profile
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /profile [get]
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	user, err := h.userService.GetProfile(c.Context(), middleware.Principal(c))
	if err != nil {
		return response.FromError(c, h.logger, err)
	}

	return response.Success(c, "Profile retrieved successfully", user)
}

// UpdateProfile handles updating current user's profile
// @Summary Update my profile
// @Description Change first_name, last_name, email, phone, photo_url or notes
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body object true "Profile fields"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /profile [put]
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	payload, err := validation.ParseObject(c.Body())
	if err != nil {
		return response.FromError(c, h.logger, err)
	}

	user, err := h.userService.UpdateProfile(c.Context(), middleware.Principal(c), payload)
	if err != nil {
		return response.FromError(c, h.logger, err)
	}

	return response.Success(c, "Profile updated successfully", user)
}

// ChangePassword handles changing current user's password
// @Summary Change my password
// @Description Change password and revoke every refresh token of the user
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.ChangePasswordInput true "Passwords"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /profile/password [put]
func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	var input services.ChangePasswordInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if input.OldPassword == "" || input.NewPassword == "" {
		return response.FromError(c, h.logger,
			domain.Validation("old_password and new_password are required", "old_password", "new_password"))
	}

	if err := h.userService.ChangePassword(c.Context(), middleware.Principal(c), &input); err != nil {
		return response.FromError(c, h.logger, err)
	}

	return response.Success(c, "Password changed successfully", nil)
}
