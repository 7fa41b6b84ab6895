package response

import (
	"errors"

	"realestate-crm/internal/core/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Kind    string      `json:"kind,omitempty"`
	Error   string      `json:"error,omitempty"`
	Fields  []string    `json:"fields,omitempty"`
}

// Success sends a success response
func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Created sends a 201 created response
func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NoContent sends a 204 response without a body
func NoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

// Error sends an error response
func Error(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(Response{
		Success: false,
		Kind:    string(kindForStatus(statusCode)),
		Error:   message,
	})
}

// BadRequest sends a 400 bad request response
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, message)
}

// Forbidden sends a 403 forbidden response
func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusForbidden, message)
}

// NotFound sends a 404 not found response
func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, message)
}

// Conflict sends a 409 conflict response
func Conflict(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusConflict, message)
}

// InternalServerError sends a 500 internal server error response
func InternalServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}

// StatusFor maps an error kind to its HTTP status
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindUnauthenticated:
		return fiber.StatusUnauthorized
	case domain.KindForbidden:
		return fiber.StatusForbidden
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindValidation:
		return fiber.StatusBadRequest
	case domain.KindConflict:
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

func kindForStatus(status int) domain.ErrorKind {
	switch status {
	case fiber.StatusUnauthorized:
		return domain.KindUnauthenticated
	case fiber.StatusForbidden:
		return domain.KindForbidden
	case fiber.StatusNotFound:
		return domain.KindNotFound
	case fiber.StatusBadRequest:
		return domain.KindValidation
	case fiber.StatusConflict:
		return domain.KindConflict
	}
	return domain.KindInternal
}

// FromError renders a core error. Internal errors get a generic message;
// their cause is written to logger only.
func FromError(c *fiber.Ctx, logger *logrus.Logger, err error) error {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		derr = domain.Internal(err)
	}

	if derr.Kind == domain.KindInternal {
		if logger != nil {
			entry := logger.WithFields(logrus.Fields{
				"method": c.Method(),
				"path":   c.Path(),
			})
			if cause := errors.Unwrap(derr); cause != nil {
				entry = entry.WithField("cause", cause.Error())
			}
			entry.Error(err.Error())
		}
		return c.Status(fiber.StatusInternalServerError).JSON(Response{
			Success: false,
			Kind:    string(domain.KindInternal),
			Error:   "internal server error",
		})
	}

	return c.Status(StatusFor(derr.Kind)).JSON(Response{
		Success: false,
		Kind:    string(derr.Kind),
		Error:   derr.Message,
		Fields:  derr.Fields,
	})
}
