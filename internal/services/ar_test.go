package services

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haulworks/haulbooks-backend/internal/models"
)

func (f *fixture) issuedInvoice(t *testing.T, rate string, delivered time.Time) *models.Invoice {
	t.Helper()
	driver := f.companyDriver(t, "0.25")
	load := f.deliveredLoad(t, driver, rate, delivered)
	invoice, err := f.invoices.IssueInvoice("tenant-a", load.ID)
	require.NoError(t, err)
	return invoice
}

func TestRecordPaymentMovesStatusThroughPartialToPaid(t *testing.T) {
	f := newFixture(t)
	mar10 := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	invoice := f.issuedInvoice(t, "2800", mar10)
	assert.Equal(t, models.InvoiceStatusPending, invoice.Status)

	invoice, err := f.ar.RecordPayment(invoice.ID, money("1000"), mar10.AddDate(0, 0, 5), "ach", "TX-1")
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPartial, invoice.Status)
	assertMoney(t, "1800.00", invoice.Outstanding())

	invoice, err = f.ar.RecordPayment(invoice.ID, money("1800"), mar10.AddDate(0, 0, 20), "check", "4471")
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, invoice.Status)
	assertMoney(t, "0.00", invoice.Outstanding())
}

func TestOverpaymentRejectedAndInvoiceUntouched(t *testing.T) {
	f := newFixture(t)
	mar10 := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	invoice := f.issuedInvoice(t, "2000", mar10)

	_, err := f.ar.RecordPayment(invoice.ID, money("1500"), mar10, "ach", "TX-1")
	require.NoError(t, err)

	_, err = f.ar.RecordPayment(invoice.ID, money("600"), mar10, "ach", "TX-2")
	assert.True(t, errors.Is(err, models.ErrOverpayment))

	// The rejected payment left nothing behind.
	reloaded, err := f.store.GetInvoice(invoice.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.Payments, 1)
	assert.Equal(t, models.InvoiceStatusPartial, reloaded.Status)
	assertMoney(t, "500.00", reloaded.Outstanding())
}

func TestNonPositivePaymentRejected(t *testing.T) {
	f := newFixture(t)
	mar10 := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	invoice := f.issuedInvoice(t, "2000", mar10)

	_, err := f.ar.RecordPayment(invoice.ID, money("0"), mar10, "ach", "TX-1")
	assert.Error(t, err)
	_, err = f.ar.RecordPayment(invoice.ID, money("-50"), mar10, "ach", "TX-2")
	assert.Error(t, err)
}

func TestExactPaymentMarksInvoicePaid(t *testing.T) {
	f := newFixture(t)
	mar10 := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	invoice := f.issuedInvoice(t, "2800", mar10)

	invoice, err := f.ar.RecordPayment(invoice.ID, money("2800"), mar10.AddDate(0, 0, 30), "wire", "W-9")
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, invoice.Status)
}

func TestAgingBucketBoundaries(t *testing.T) {
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	invoice := &models.Invoice{IssueDate: issued}

	cases := []struct {
		days int
		want string
	}{
		{0, "0-30"},
		{30, "0-30"},
		{31, "31-60"},
		{60, "31-60"},
		{61, "61-90"},
		{90, "61-90"},
		{91, "90+"},
		{365, "90+"},
	}
	for _, tc := range cases {
		asOf := issued.AddDate(0, 0, tc.days)
		assert.Equal(t, tc.want, AgingBucket(invoice, asOf), "at %d days", tc.days)
	}
}

func TestARAgingSummaryBucketsOutstandingBalances(t *testing.T) {
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	invoices := []*models.Invoice{
		{IssueDate: asOf.AddDate(0, 0, -10), Amount: money("1000"), Status: models.InvoiceStatusPending},
		{IssueDate: asOf.AddDate(0, 0, -45), Amount: money("2000"), Status: models.InvoiceStatusPartial,
			Payments: []models.Payment{{Amount: money("500")}}},
		{IssueDate: asOf.AddDate(0, 0, -75), Amount: money("300"), Status: models.InvoiceStatusPending},
		{IssueDate: asOf.AddDate(0, 0, -120), Amount: money("4000"), Status: models.InvoiceStatusPending},
	}

	summary := ARAgingSummary(invoices, asOf)

	assertMoney(t, "1000.00", summary["0-30"])
	assertMoney(t, "1500.00", summary["31-60"])
	assertMoney(t, "300.00", summary["61-90"])
	assertMoney(t, "4000.00", summary["90+"])
}

func TestARAgingSummaryExcludesPaidInvoices(t *testing.T) {
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	invoices := []*models.Invoice{
		{IssueDate: asOf.AddDate(0, 0, -10), Amount: money("1000"), Status: models.InvoiceStatusPaid,
			Payments: []models.Payment{{Amount: money("1000")}}},
	}

	summary := ARAgingSummary(invoices, asOf)
	for _, bucket := range AgingBuckets {
		assert.True(t, summary[bucket].IsZero(), "bucket %s should be empty", bucket)
	}
}

func TestARAgingSummaryEmptyInputYieldsZeroBuckets(t *testing.T) {
	summary := ARAgingSummary(nil, time.Now())
	assert.Len(t, summary, len(AgingBuckets))
	for _, bucket := range AgingBuckets {
		assert.True(t, summary[bucket].Equal(decimal.Zero))
	}
}

func TestAgingReportReturnsOpenInvoices(t *testing.T) {
	f := newFixture(t)
	mar10 := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	open := f.issuedInvoice(t, "2800", mar10)
	paid := f.issuedInvoice(t, "1000", mar10)
	_, err := f.ar.RecordPayment(paid.ID, money("1000"), mar10, "ach", "TX-1")
	require.NoError(t, err)

	summary, invoices, err := f.ar.AgingReport("tenant-a", mar10.AddDate(0, 0, 15))
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, open.ID, invoices[0].ID)
	assertMoney(t, "2800.00", summary["0-30"])
}
