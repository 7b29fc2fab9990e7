package services

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/haulworks/haulbooks-backend/internal/models"
	"github.com/haulworks/haulbooks-backend/internal/storage"
	"github.com/haulworks/haulbooks-backend/internal/utils"
)

// ARService records customer payments and computes receivable aging.
type ARService struct {
	store storage.Store
}

// NewARService creates a new accounts-receivable service
func NewARService(store storage.Store) *ARService {
	return &ARService{store: store}
}

// Aging bucket labels, in reporting order.
var AgingBuckets = []string{"0-30", "31-60", "61-90", "90+"}

// RecordPayment appends a payment to an invoice and recomputes its
// status. A payment that would push the total over the invoice amount
// is rejected with ErrOverpayment and leaves the invoice untouched.
func (s *ARService) RecordPayment(invoiceID string, amount decimal.Decimal, date time.Time, method, reference string) (*models.Invoice, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("payment amount %s must be positive", amount)
	}

	payment := &models.Payment{
		ID:        uuid.New().String(),
		Amount:    utils.Round2(amount),
		Date:      date,
		Method:    method,
		Reference: reference,
	}
	invoice, err := s.store.AddPayment(invoiceID, payment)
	if err != nil {
		return nil, err
	}
	log.Printf("ar: payment %s of %s on invoice %s, status now %s",
		payment.ID, payment.Amount, invoice.InvoiceNumber, invoice.Status)
	return invoice, nil
}

// AgingBucket returns the bucket label for an invoice as of a date.
func AgingBucket(invoice *models.Invoice, asOf time.Time) string {
	days := int(asOf.Sub(invoice.IssueDate).Hours() / 24)
	switch {
	case days <= 30:
		return "0-30"
	case days <= 60:
		return "31-60"
	case days <= 90:
		return "61-90"
	default:
		return "90+"
	}
}

// ARAgingSummary groups outstanding balances by aging bucket. Paid
// invoices carry no balance and are excluded. Pure: never mutates state.
func ARAgingSummary(invoices []*models.Invoice, asOf time.Time) map[string]decimal.Decimal {
	summary := make(map[string]decimal.Decimal, len(AgingBuckets))
	for _, bucket := range AgingBuckets {
		summary[bucket] = decimal.Zero
	}
	for _, invoice := range invoices {
		if invoice.Status == models.InvoiceStatusPaid {
			continue
		}
		bucket := AgingBucket(invoice, asOf)
		summary[bucket] = summary[bucket].Add(invoice.Outstanding())
	}
	return summary
}

// AgingReport returns the tenant's open invoices bucketed as of a date,
// for the aging endpoints and the Excel export.
func (s *ARService) AgingReport(tenantID string, asOf time.Time) (map[string]decimal.Decimal, []*models.Invoice, error) {
	invoices, err := s.store.GetOpenInvoices(tenantID)
	if err != nil {
		return nil, nil, err
	}
	return ARAgingSummary(invoices, asOf), invoices, nil
}
