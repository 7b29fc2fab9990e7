package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settlement represents a computed payout for one driver over a set of loads
type Settlement struct {
	ID       string `json:"id" gorm:"primaryKey"`
	DriverID string `json:"driver_id" gorm:"index"`

	// LoadIDs in chronological delivery order; allocation order depends on it
	LoadIDs []string `json:"load_ids" gorm:"serializer:json"`

	GrossPay decimal.Decimal `json:"gross_pay" gorm:"type:decimal(18,2)"`

	// Flat deduction inputs (not ledger-backed)
	Advances   decimal.Decimal `json:"advances" gorm:"type:decimal(18,2)"`
	LumperFees decimal.Decimal `json:"lumper_fees" gorm:"type:decimal(18,2)"`
	Taxes      decimal.Decimal `json:"taxes" gorm:"type:decimal(18,2)"`

	// ExpenseDeductions is the sum allocated from the expense ledger this run
	ExpenseDeductions decimal.Decimal `json:"expense_deductions" gorm:"type:decimal(18,2)"`
	TotalDeductions   decimal.Decimal `json:"total_deductions" gorm:"type:decimal(18,2)"`

	// NetPay may be negative; it is surfaced with a warning, never clamped
	NetPay decimal.Decimal `json:"net_pay" gorm:"type:decimal(18,2)"`

	// Itemized per-expense deduction lines for the settlement statement
	Deductions []SettlementDeduction `json:"deductions" gorm:"foreignKey:SettlementID"`

	Status string `json:"status"` // "draft", "computed", "committed", "superseded"

	// SupersededBy points at the replacement settlement after a recompute
	SupersededBy string `json:"superseded_by,omitempty"`

	Warnings []string `json:"warnings" gorm:"serializer:json"`

	CommittedAt *time.Time `json:"committed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// SettlementDeduction is one expense-ledger line on a settlement
type SettlementDeduction struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	SettlementID string          `json:"settlement_id" gorm:"index"`
	ExpenseID    string          `json:"expense_id"`
	ExpenseType  string          `json:"expense_type"`
	Amount       decimal.Decimal `json:"amount" gorm:"type:decimal(18,2)"`
}

// Settlement status constants
const (
	SettlementStatusDraft      = "draft"
	SettlementStatusComputed   = "computed"
	SettlementStatusCommitted  = "committed"
	SettlementStatusSuperseded = "superseded"
)

// Settlement warning flags
const (
	WarningNegativeNetPay = "negative_net_pay"
	WarningMissingProfile = "missing_profile"
)
