package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/haulworks/haulbooks-backend/internal/models"
)

// DefaultTenant is used when a request does not carry a tenant id
const DefaultTenant = "default"

// errorResponse maps service errors onto HTTP statuses
func errorResponse(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, models.ErrOverpayment), errors.Is(err, models.ErrInvalidPool):
		code = fiber.StatusUnprocessableEntity
	case errors.Is(err, models.ErrDuplicateInvoiceNumber), errors.Is(err, models.ErrConcurrentSettlementConflict):
		code = fiber.StatusConflict
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func tenantFrom(c *fiber.Ctx) string {
	if tenant := c.Query("tenant_id"); tenant != "" {
		return tenant
	}
	return DefaultTenant
}
