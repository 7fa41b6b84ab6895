package handlers

import (
	"realestate-crm/internal/adapters/http/middleware"
	"realestate-crm/internal/core/domain"
	"realestate-crm/internal/core/policy"
	"realestate-crm/internal/core/services"
	"realestate-crm/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// AccountingHandler handles monthly closing
type AccountingHandler struct {
	closingService *services.ClosingService
	logger         *logrus.Logger
}

// NewAccountingHandler creates a new accounting handler
func NewAccountingHandler(closingService *services.ClosingService, logger *logrus.Logger) *AccountingHandler {
	return &AccountingHandler{
		closingService: closingService,
		logger:         logger,
	}
}

// CloseMonth rolls a month's completed transactions into its accounting record
// @Summary Close month
// @Description Recompute total_revenue and office_share of the period and refresh profit totals (Admin only)
// @Tags Accounting
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CloseMonthInput true "Period"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /entities/accounting/close [post]
func (h *AccountingHandler) CloseMonth(c *fiber.Ctx) error {
	if err := policy.Authorize(middleware.Principal(c), domain.KindAccounting, domain.OpUpdate); err != nil {
		return response.FromError(c, h.logger, err)
	}

	var input services.CloseMonthInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	record, err := h.closingService.CloseMonth(c.Context(), input.Month, input.Year)
	if err != nil {
		return response.FromError(c, h.logger, err)
	}

	return response.Success(c, "Month closed successfully", record)
}
