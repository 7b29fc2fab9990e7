package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense represents a cost entry attributable to a driver or load
type Expense struct {
	ID   string `json:"id" gorm:"primaryKey"`
	Type string `json:"type"` // "fuel", "insurance", "maintenance", "toll", "lumper", "other"

	Amount decimal.Decimal `json:"amount" gorm:"type:decimal(18,2)"`
	PaidBy string          `json:"paid_by"` // "company" or "driver"

	// LoadID is empty for floating expenses (e.g. monthly insurance),
	// which are eligible against any settlement for the driver.
	LoadID   string `json:"load_id" gorm:"index"`
	DriverID string `json:"driver_id" gorm:"index"`

	// Ledger tracks recovery of company-paid, driver-attributable
	// expenses across settlements. Nil otherwise.
	Ledger *ExpenseLedger `json:"ledger,omitempty" gorm:"foreignKey:ExpenseID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExpenseLedger is the balance state attached 1:1 to a company-paid expense
type ExpenseLedger struct {
	ExpenseID string `json:"expense_id" gorm:"primaryKey"`

	TotalAmount      decimal.Decimal `json:"total_amount" gorm:"type:decimal(18,2)"` // fixed at creation
	AmountPaid       decimal.Decimal `json:"amount_paid" gorm:"type:decimal(18,2)"`  // monotonically non-decreasing
	RemainingBalance decimal.Decimal `json:"remaining_balance" gorm:"type:decimal(18,2)"`

	Status string `json:"status"` // "active", "settled"

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Expense type constants
const (
	ExpenseTypeFuel        = "fuel"
	ExpenseTypeInsurance   = "insurance"
	ExpenseTypeMaintenance = "maintenance"
	ExpenseTypeToll        = "toll"
	ExpenseTypeLumper      = "lumper"
	ExpenseTypeOther       = "other"

	PaidByCompany = "company"
	PaidByDriver  = "driver"

	LedgerStatusActive  = "active"
	LedgerStatusSettled = "settled"
)

// IsFloating reports whether the expense is not tied to a single load.
func (e *Expense) IsFloating() bool {
	return e.LoadID == ""
}

// LedgerEligible reports whether the expense should carry a ledger:
// company-paid and attributable to a driver.
func (e *Expense) LedgerEligible() bool {
	return e.PaidBy == PaidByCompany && e.DriverID != ""
}

// LedgerDelta is one expense's pending balance change, produced by an
// allocation and applied only when the enclosing settlement commits.
// PriorAmountPaid is the amount_paid the allocation was computed against;
// a commit that finds a different value aborts with
// ErrConcurrentSettlementConflict.
type LedgerDelta struct {
	ExpenseID       string          `json:"expense_id"`
	Amount          decimal.Decimal `json:"amount"`
	PriorAmountPaid decimal.Decimal `json:"prior_amount_paid"`
	NewAmountPaid   decimal.Decimal `json:"new_amount_paid"`
	NewStatus       string          `json:"new_status"`
}
