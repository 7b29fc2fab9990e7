package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice represents a customer invoice for a delivered load
type Invoice struct {
	ID       string `json:"id" gorm:"primaryKey"`
	TenantID string `json:"tenant_id" gorm:"index"`

	// InvoiceNumber is "INV-<year>-<sequence>", unique per tenant+year,
	// strictly increasing, never reused even after deletions.
	InvoiceNumber string `json:"invoice_number" gorm:"uniqueIndex"`

	LoadID string          `json:"load_id" gorm:"index"`
	Amount decimal.Decimal `json:"amount" gorm:"type:decimal(18,2)"`

	Status string `json:"status"` // "pending", "partial", "paid"

	// IssueDate is the delivery date of the underlying load when known;
	// AR aging counts from here.
	IssueDate time.Time `json:"issue_date"`

	// Payments are append-only; the invoice amount is never retro-edited
	Payments []Payment `json:"payments" gorm:"foreignKey:InvoiceID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Payment is one payment applied against an invoice
type Payment struct {
	ID        string          `json:"id" gorm:"primaryKey"`
	InvoiceID string          `json:"invoice_id" gorm:"index"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:decimal(18,2)"`
	Date      time.Time       `json:"date"`
	Method    string          `json:"method"`    // e.g. "ach", "check", "wire"
	Reference string          `json:"reference"` // check number, transaction id
	CreatedAt time.Time       `json:"created_at"`
}

// InvoiceCounter is the sole source of invoice sequence numbers, one row
// per tenant+year. The sequence is never derived by counting invoices,
// so deleting an invoice can never cause a number to be reissued.
type InvoiceCounter struct {
	TenantID  string    `json:"tenant_id" gorm:"primaryKey"`
	Year      int       `json:"year" gorm:"primaryKey"`
	LastValue int64     `json:"last_value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Invoice status constants
const (
	InvoiceStatusPending = "pending"
	InvoiceStatusPartial = "partial"
	InvoiceStatusPaid    = "paid"
)

// TotalPaid sums the payments applied so far.
func (i *Invoice) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, p := range i.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// Outstanding is the unpaid remainder.
func (i *Invoice) Outstanding() decimal.Decimal {
	return i.Amount.Sub(i.TotalPaid())
}

// StatusForPaid maps a paid total to the invoice status.
func (i *Invoice) StatusForPaid(totalPaid decimal.Decimal) string {
	switch {
	case totalPaid.GreaterThanOrEqual(i.Amount) && i.Amount.GreaterThan(decimal.Zero):
		return InvoiceStatusPaid
	case totalPaid.GreaterThan(decimal.Zero):
		return InvoiceStatusPartial
	default:
		return InvoiceStatusPending
	}
}
