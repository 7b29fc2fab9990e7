package handlers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/haulworks/haulbooks-backend/internal/services"
)

// ReportHandler serves AR aging and period revenue reports
type ReportHandler struct {
	ar      *services.ARService
	reports *services.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(ar *services.ARService, reports *services.ReportService) *ReportHandler {
	return &ReportHandler{ar: ar, reports: reports}
}

func asOfFrom(c *fiber.Ctx) (time.Time, error) {
	asOf := c.Query("as_of")
	if asOf == "" {
		return time.Now(), nil
	}
	t, err := time.Parse("2006-01-02", asOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("as_of must be YYYY-MM-DD")
	}
	return t, nil
}

// ARAging returns outstanding balances grouped by aging bucket
func (h *ReportHandler) ARAging(c *fiber.Ctx) error {
	asOf, err := asOfFrom(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	summary, invoices, err := h.ar.AgingReport(tenantFrom(c), asOf)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"as_of":      asOf.Format("2006-01-02"),
		"buckets":    summary,
		"open_count": len(invoices),
	})
}

// ExportARAging streams the aging report as an Excel file
func (h *ReportHandler) ExportARAging(c *fiber.Ctx) error {
	asOf, err := asOfFrom(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	summary, invoices, err := h.ar.AgingReport(tenantFrom(c), asOf)
	if err != nil {
		return errorResponse(c, err)
	}

	f, err := services.ARAgingWorkbook(summary, invoices, asOf)
	if err != nil {
		return errorResponse(c, err)
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return errorResponse(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="ar_aging_%s.xlsx"`, asOf.Format("20060102")))
	return c.Send(buf.Bytes())
}

// Revenue returns recognized revenue for a YYYY-MM period
func (h *ReportHandler) Revenue(c *fiber.Ctx) error {
	period := c.Query("period")
	if period == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "period is required (YYYY-MM)",
		})
	}

	summary, err := h.reports.RevenueByPeriod(period)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(summary)
}
