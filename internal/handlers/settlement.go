package handlers

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/haulworks/haulbooks-backend/internal/models"
	"github.com/haulworks/haulbooks-backend/internal/services"
	"github.com/haulworks/haulbooks-backend/internal/storage"
)

// SettlementHandler handles settlement generation and lookup
type SettlementHandler struct {
	store       storage.Store
	settlements *services.SettlementService
}

// NewSettlementHandler creates a new settlement handler
func NewSettlementHandler(store storage.Store, settlements *services.SettlementService) *SettlementHandler {
	return &SettlementHandler{store: store, settlements: settlements}
}

func parseSettlementRequest(c *fiber.Ctx) (*services.SettlementRequest, error) {
	var req services.SettlementRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, fmt.Errorf("invalid request body")
	}
	if req.DriverID == "" || len(req.LoadIDs) == 0 {
		return nil, fmt.Errorf("driver_id and load_ids are required")
	}
	return &req, nil
}

// PreviewSettlement computes a settlement without committing anything;
// the ledger is untouched and the preview can be discarded freely.
func (h *SettlementHandler) PreviewSettlement(c *fiber.Ctx) error {
	req, err := parseSettlementRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	result, err := h.settlements.Compute(req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"settlement": result.Settlement,
		"warnings":   result.Settlement.Warnings,
	})
}

// GenerateSettlement computes and commits a settlement
func (h *SettlementHandler) GenerateSettlement(c *fiber.Ctx) error {
	req, err := parseSettlementRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	settlement, err := h.settlements.Generate(req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Settlement committed",
		"settlement": settlement,
		"warnings":   settlement.Warnings,
	})
}

// RecomputeSettlement reverses a committed settlement's ledger
// allocations and commits a replacement atomically
func (h *SettlementHandler) RecomputeSettlement(c *fiber.Ctx) error {
	req, err := parseSettlementRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	settlement, err := h.settlements.Recompute(c.Params("id"), req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"message":    "Settlement recomputed",
		"settlement": settlement,
		"warnings":   settlement.Warnings,
	})
}

// GetSettlement retrieves a settlement by ID
func (h *SettlementHandler) GetSettlement(c *fiber.Ctx) error {
	settlement, err := h.store.GetSettlement(c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(settlement)
}

// GetDriverSettlements lists a driver's settlements
func (h *SettlementHandler) GetDriverSettlements(c *fiber.Ctx) error {
	settlements, err := h.store.GetSettlementsByDriver(c.Params("driverId"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"settlements": settlements,
		"count":       len(settlements),
	})
}

// ExportSettlement streams the settlement statement as an Excel file
func (h *SettlementHandler) ExportSettlement(c *fiber.Ctx) error {
	settlement, err := h.store.GetSettlement(c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}

	driver, err := h.store.GetDriver(settlement.DriverID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return errorResponse(c, err)
	}

	f, err := services.SettlementWorkbook(settlement, driver)
	if err != nil {
		return errorResponse(c, err)
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return errorResponse(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="settlement_%s.xlsx"`, settlement.ID))
	return c.Send(buf.Bytes())
}
