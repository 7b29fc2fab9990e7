package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/haulworks/haulbooks-backend/internal/services"
	"github.com/haulworks/haulbooks-backend/internal/storage"
)

// InvoiceHandler handles invoice issuing and payment recording
type InvoiceHandler struct {
	store    storage.Store
	invoices *services.InvoiceService
	ar       *services.ARService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(store storage.Store, invoices *services.InvoiceService, ar *services.ARService) *InvoiceHandler {
	return &InvoiceHandler{store: store, invoices: invoices, ar: ar}
}

type issueInvoiceRequest struct {
	TenantID string `json:"tenant_id"`
	LoadID   string `json:"load_id"`
}

// IssueInvoice mints an invoice number and creates the invoice for a
// delivered load
func (h *InvoiceHandler) IssueInvoice(c *fiber.Ctx) error {
	var req issueInvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.LoadID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "load_id is required",
		})
	}
	if req.TenantID == "" {
		req.TenantID = DefaultTenant
	}

	invoice, err := h.invoices.IssueInvoice(req.TenantID, req.LoadID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Invoice issued",
		"invoice": invoice,
	})
}

// GetInvoice retrieves an invoice with its payments
func (h *InvoiceHandler) GetInvoice(c *fiber.Ctx) error {
	invoice, err := h.store.GetInvoice(c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(invoice)
}

// GetInvoices lists a tenant's invoices
func (h *InvoiceHandler) GetInvoices(c *fiber.Ctx) error {
	invoices, err := h.store.GetInvoicesByTenant(tenantFrom(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"invoices": invoices,
		"count":    len(invoices),
	})
}

type recordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Date      *time.Time      `json:"date"`
	Method    string          `json:"method"`
	Reference string          `json:"reference"`
}

// RecordPayment applies a payment to an invoice
func (h *InvoiceHandler) RecordPayment(c *fiber.Ctx) error {
	var req recordPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	date := time.Now()
	if req.Date != nil {
		date = *req.Date
	}

	invoice, err := h.ar.RecordPayment(c.Params("id"), req.Amount, date, req.Method, req.Reference)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Payment recorded",
		"invoice": invoice,
	})
}
