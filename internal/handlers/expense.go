package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/haulworks/haulbooks-backend/internal/models"
	"github.com/haulworks/haulbooks-backend/internal/services"
	"github.com/haulworks/haulbooks-backend/internal/storage"
)

// ExpenseHandler handles expense recording and lookup
type ExpenseHandler struct {
	store  storage.Store
	ledger *services.LedgerService
}

// NewExpenseHandler creates a new expense handler
func NewExpenseHandler(store storage.Store, ledger *services.LedgerService) *ExpenseHandler {
	return &ExpenseHandler{store: store, ledger: ledger}
}

// CreateExpense records an expense; company-paid, driver-linked
// expenses automatically receive a recovery ledger.
func (h *ExpenseHandler) CreateExpense(c *fiber.Ctx) error {
	var expense models.Expense

	if err := c.BodyParser(&expense); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if !expense.Amount.IsPositive() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Expense amount must be positive",
		})
	}
	if expense.PaidBy != models.PaidByCompany && expense.PaidBy != models.PaidByDriver {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "paid_by must be company or driver",
		})
	}

	created, err := h.ledger.RecordExpense(&expense)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Expense recorded successfully",
		"expense": created,
	})
}

// GetExpense retrieves a single expense with its ledger
func (h *ExpenseHandler) GetExpense(c *fiber.Ctx) error {
	expense, err := h.store.GetExpense(c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(expense)
}

// GetDriverExpenses lists a driver's expenses
func (h *ExpenseHandler) GetDriverExpenses(c *fiber.Ctx) error {
	expenses, err := h.store.GetExpensesByDriver(c.Params("driverId"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"expenses": expenses,
		"count":    len(expenses),
	})
}
