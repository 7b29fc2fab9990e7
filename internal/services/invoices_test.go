package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haulworks/haulbooks-backend/internal/models"
)

func TestNextInvoiceNumberFormatAndFloor(t *testing.T) {
	f := newFixture(t)

	number, err := f.invoices.NextInvoiceNumber("tenant-a", 2026)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-1001", number)

	number, err = f.invoices.NextInvoiceNumber("tenant-a", 2026)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-1002", number)
}

func TestInvoiceSequencesAreScopedPerTenantAndYear(t *testing.T) {
	f := newFixture(t)

	a2026, err := f.invoices.NextInvoiceNumber("tenant-a", 2026)
	require.NoError(t, err)
	b2026, err := f.invoices.NextInvoiceNumber("tenant-b", 2026)
	require.NoError(t, err)
	a2027, err := f.invoices.NextInvoiceNumber("tenant-a", 2027)
	require.NoError(t, err)

	// Each tenant+year starts its own sequence at the floor.
	assert.Equal(t, "INV-2026-1001", a2026)
	assert.Equal(t, "INV-2026-1001", b2026)
	assert.Equal(t, "INV-2027-1001", a2027)
}

func TestInvoiceNumbersUniqueUnderConcurrency(t *testing.T) {
	f := newFixture(t)

	const callers = 50
	numbers := make(chan string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := f.invoices.NextInvoiceNumber("tenant-a", 2026)
			assert.NoError(t, err)
			numbers <- number
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool, callers)
	for number := range numbers {
		assert.False(t, seen[number], "number %s issued twice", number)
		seen[number] = true
	}
	assert.Len(t, seen, callers)
}

func TestDeletedInvoiceNumberNeverReissued(t *testing.T) {
	f := newFixture(t)
	driver := f.companyDriver(t, "0.25")
	mar10 := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	load := f.deliveredLoad(t, driver, "2800", mar10)

	first, err := f.invoices.IssueInvoice("tenant-a", load.ID)
	require.NoError(t, err)
	require.NoError(t, f.store.DeleteInvoice(first.ID))

	// The counter survives the deletion; the next number moves on.
	second, err := f.invoices.IssueInvoice("tenant-a", load.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.InvoiceNumber, second.InvoiceNumber)
	assert.Greater(t, second.InvoiceNumber, first.InvoiceNumber)
}

func TestIssueInvoiceRequiresDeliveredLoad(t *testing.T) {
	f := newFixture(t)
	driver := f.companyDriver(t, "0.25")
	load, err := f.store.CreateLoad(&models.Load{
		Rate:       money("2000"),
		DriverID:   driver.ID,
		DriverType: driver.Type,
	})
	require.NoError(t, err)

	_, err = f.invoices.IssueInvoice("tenant-a", load.ID)
	assert.Error(t, err)
}

func TestIssueInvoiceCarriesLoadAmountAndDeliveryDate(t *testing.T) {
	f := newFixture(t)
	driver := f.companyDriver(t, "0.25")
	mar14 := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	load := f.deliveredLoad(t, driver, "2800", mar14)

	invoice, err := f.invoices.IssueInvoice("tenant-a", load.ID)
	require.NoError(t, err)

	assertMoney(t, "2800.00", invoice.Amount)
	assert.Equal(t, models.InvoiceStatusPending, invoice.Status)
	assert.Equal(t, mar14, invoice.IssueDate)
	assert.Equal(t, "INV-2026-1001", invoice.InvoiceNumber)
}

func TestDuplicateInvoiceNumberRejected(t *testing.T) {
	f := newFixture(t)
	driver := f.companyDriver(t, "0.25")
	mar10 := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	load := f.deliveredLoad(t, driver, "2000", mar10)

	invoice, err := f.invoices.IssueInvoice("tenant-a", load.ID)
	require.NoError(t, err)

	// Simulate counter corruption: persist a second invoice carrying an
	// already-issued number.
	_, err = f.store.CreateInvoice(&models.Invoice{
		TenantID:      "tenant-a",
		InvoiceNumber: invoice.InvoiceNumber,
		LoadID:        load.ID,
		Amount:        money("100"),
		IssueDate:     mar10,
	})
	assert.True(t, errors.Is(err, models.ErrDuplicateInvoiceNumber))
}

func TestInvoiceNumbersMonotonicAcrossManyIssues(t *testing.T) {
	f := newFixture(t)

	var previous string
	for i := 0; i < 25; i++ {
		number, err := f.invoices.NextInvoiceNumber("tenant-a", 2026)
		require.NoError(t, err)
		if previous != "" {
			assert.Greater(t, number, previous, "sequence must strictly increase")
		}
		previous = number
	}
}
