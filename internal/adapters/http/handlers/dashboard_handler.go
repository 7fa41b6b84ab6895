package handlers

import (
	"realestate-crm/internal/adapters/http/middleware"
	"realestate-crm/internal/core/services"
	"realestate-crm/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
	logger           *logrus.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService, logger *logrus.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// GetStats returns dashboard statistics
// @Summary Get dashboard statistics
// @Description Revenue and row counts. Admins see the whole office, consultants their own rows.
// @Tags Dashboard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=finance.DashboardStats}
// @Failure 401 {object} response.Response
// @Router /dashboard/stats [get]
func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.dashboardService.Stats(c.Context(), middleware.Principal(c))
	if err != nil {
		return response.FromError(c, h.logger, err)
	}

	return response.Success(c, "Dashboard stats retrieved", stats)
}
