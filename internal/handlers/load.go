package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/haulworks/haulbooks-backend/internal/models"
	"github.com/haulworks/haulbooks-backend/internal/services"
	"github.com/haulworks/haulbooks-backend/internal/storage"
)

// LoadHandler handles load-related requests
type LoadHandler struct {
	store    storage.Store
	loadsSvc *services.LoadService
}

// NewLoadHandler creates a new load handler
func NewLoadHandler(store storage.Store, loadsSvc *services.LoadService) *LoadHandler {
	return &LoadHandler{store: store, loadsSvc: loadsSvc}
}

// CreateLoad handles creating a new load
func (h *LoadHandler) CreateLoad(c *fiber.Ctx) error {
	var load models.Load

	if err := c.BodyParser(&load); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if load.DriverID == "" || load.Rate.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Driver and rate are required",
		})
	}

	// The load carries the driver's type so pay rules stay stable even
	// if the profile is edited later.
	if load.DriverType == "" {
		driver, err := h.store.GetDriver(load.DriverID)
		if err != nil {
			return errorResponse(c, err)
		}
		load.DriverType = driver.Type
	}

	created, err := h.store.CreateLoad(&load)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Load created successfully",
		"load":    created,
	})
}

// GetLoad retrieves a single load by ID
func (h *LoadHandler) GetLoad(c *fiber.Ctx) error {
	load, err := h.store.GetLoad(c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(load)
}

// GetLoadsByStatus lists loads filtered by status
func (h *LoadHandler) GetLoadsByStatus(c *fiber.Ctx) error {
	status := c.Query("status", models.LoadStatusCreated)
	loads, err := h.store.GetLoadsByStatus(status)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"loads": loads,
		"count": len(loads),
	})
}

type loadTransitionRequest struct {
	Date *time.Time `json:"date"`
}

// DispatchLoad moves a load to dispatched
func (h *LoadHandler) DispatchLoad(c *fiber.Ctx) error {
	var req loadTransitionRequest
	_ = c.BodyParser(&req)
	date := time.Now()
	if req.Date != nil {
		date = *req.Date
	}

	load, err := h.loadsSvc.Dispatch(c.Params("id"), date)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Load dispatched",
		"load":    load,
	})
}

// DeliverLoad completes a load and snapshots its driver pay
func (h *LoadHandler) DeliverLoad(c *fiber.Ctx) error {
	var req loadTransitionRequest
	_ = c.BodyParser(&req)
	date := time.Now()
	if req.Date != nil {
		date = *req.Date
	}

	load, err := h.loadsSvc.MarkDelivered(c.Params("id"), date)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Load delivered",
		"load":    load,
	})
}
