package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/haulworks/haulbooks-backend/internal/models"
	"github.com/haulworks/haulbooks-backend/internal/storage"
)

// DriverHandler handles driver-profile requests
type DriverHandler struct {
	store storage.Store
}

// NewDriverHandler creates a new driver handler
func NewDriverHandler(store storage.Store) *DriverHandler {
	return &DriverHandler{store: store}
}

// CreateDriver handles creating a new driver profile
func (h *DriverHandler) CreateDriver(c *fiber.Ctx) error {
	var driver models.Driver

	if err := c.BodyParser(&driver); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if driver.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Driver name is required",
		})
	}
	switch driver.Type {
	case models.DriverTypeCompany, models.DriverTypeOwnerOperator, models.DriverTypeOwnerAsDriver:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Driver type must be company_driver, owner_operator, or owner_as_driver",
		})
	}

	created, err := h.store.CreateDriver(&driver)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Driver created successfully",
		"driver":  created,
	})
}

// GetDriver retrieves a single driver by ID
func (h *DriverHandler) GetDriver(c *fiber.Ctx) error {
	driver, err := h.store.GetDriver(c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(driver)
}

// GetDrivers retrieves all drivers
func (h *DriverHandler) GetDrivers(c *fiber.Ctx) error {
	drivers, err := h.store.GetAllDrivers()
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"drivers": drivers,
		"count":   len(drivers),
	})
}
