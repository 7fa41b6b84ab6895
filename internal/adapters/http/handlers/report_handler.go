package handlers

import (
	"bytes"
	"fmt"

	"realestate-crm/internal/adapters/http/middleware"
	"realestate-crm/internal/core/services"
	"realestate-crm/internal/pkg/export"
	"realestate-crm/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ReportHandler handles report exports
type ReportHandler struct {
	reportService *services.ReportService
	logger        *logrus.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *services.ReportService, logger *logrus.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// Export streams a report as an Excel workbook
// @Summary Export report
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param id path string true "Report ID"
// @Success 200 {file} file
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /entities/reports/{id}/export [get]
func (h *ReportHandler) Export(c *fiber.Ctx) error {
	var buf bytes.Buffer
	filename, err := h.reportService.Export(c.Context(), middleware.Principal(c), c.Params("id"), &buf)
	if err != nil {
		return response.FromError(c, h.logger, err)
	}

	c.Set(fiber.HeaderContentType, export.ContentTypeXLSX)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(buf.Bytes())
}
