package handlers

import (
	"realestate-crm/internal/adapters/http/middleware"
	"realestate-crm/internal/core/domain"
	"realestate-crm/internal/core/services"
	"realestate-crm/internal/pkg/pagination"
	"realestate-crm/internal/pkg/response"
	"realestate-crm/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// EntityHandler serves the CRUD endpoints of one entity kind
type EntityHandler struct {
	entityService *services.EntityService
	kind          domain.EntityKind
	logger        *logrus.Logger
}

// NewEntityHandler creates a handler bound to kind
func NewEntityHandler(entityService *services.EntityService, kind domain.EntityKind, logger *logrus.Logger) *EntityHandler {
	return &EntityHandler{
		entityService: entityService,
		kind:          kind,
		logger:        logger,
	}
}

// List returns the rows visible to the caller
// @Summary List entities
// @Description List rows of an entity kind. Consultants only see their own clients, properties, transactions and reports.
// @Tags Entities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param entity path string true "Entity" Enums(clients, properties, transactions, documents, reports, users, accounting)
// @Param page query int false "Page number (omit for the full list)"
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response{data=pagination.Response}
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /entities/{entity} [get]
func (h *EntityHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	rows, total, err := h.entityService.List(c.Context(), middleware.Principal(c), h.kind, services.ListOptions{
		Offset: params.Offset,
		Limit:  params.Limit,
	})
	if err != nil {
		return response.FromError(c, h.logger, err)
	}

	return response.Success(c, "Retrieved successfully", pagination.NewResponse(rows, params, total))
}

// Get returns one row
// @Summary Get entity
// @Tags Entities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param entity path string true "Entity" Enums(clients, properties, transactions, documents, reports, users, accounting)
// @Param id path string true "Row ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /entities/{entity}/{id} [get]
func (h *EntityHandler) Get(c *fiber.Ctx) error {
	row, err := h.entityService.Get(c.Context(), middleware.Principal(c), h.kind, c.Params("id"))
	if err != nil {
		return response.FromError(c, h.logger, err)
	}

	return response.Success(c, "Retrieved successfully", row)
}

// Create creates a row from a JSON object
// @Summary Create entity
// @Description Create a row. Ownership fields are stamped from the caller and derived fields are computed server side.
// @Tags Entities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param entity path string true "Entity" Enums(clients, properties, transactions, documents, reports, users, accounting)
// @Param body body object true "Row fields"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /entities/{entity} [post]
func (h *EntityHandler) Create(c *fiber.Ctx) error {
	payload, err := validation.ParseObject(c.Body())
	if err != nil {
		return response.FromError(c, h.logger, err)
	}

	row, err := h.entityService.Create(c.Context(), middleware.Principal(c), h.kind, payload)
	if err != nil {
		return response.FromError(c, h.logger, err)
	}

	return response.Created(c, "Created successfully", row)
}

// Update applies a partial JSON object to a row
// @Summary Update entity
// @Description Partially update a row. Only the fields allowed for the caller's role may be sent.
// @Tags Entities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param entity path string true "Entity" Enums(clients, properties, transactions, documents, users, accounting)
// @Param id path string true "Row ID"
// @Param body body object true "Changed fields"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /entities/{entity}/{id} [put]
func (h *EntityHandler) Update(c *fiber.Ctx) error {
	payload, err := validation.ParseObject(c.Body())
	if err != nil {
		return response.FromError(c, h.logger, err)
	}

	row, err := h.entityService.Update(c.Context(), middleware.Principal(c), h.kind, c.Params("id"), payload)
	if err != nil {
		return response.FromError(c, h.logger, err)
	}

	return response.Success(c, "Updated successfully", row)
}

// Delete removes a row
// @Summary Delete entity
// @Tags Entities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param entity path string true "Entity" Enums(clients, properties, transactions, documents, reports, accounting)
// @Param id path string true "Row ID"
// @Success 204
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /entities/{entity}/{id} [delete]
func (h *EntityHandler) Delete(c *fiber.Ctx) error {
	if err := h.entityService.Delete(c.Context(), middleware.Principal(c), h.kind, c.Params("id")); err != nil {
		return response.FromError(c, h.logger, err)
	}

	return response.NoContent(c)
}
