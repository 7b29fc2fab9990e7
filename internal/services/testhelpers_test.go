package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haulworks/haulbooks-backend/internal/models"
	"github.com/haulworks/haulbooks-backend/internal/storage"
)

func money(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2), "expected %s, got %s", want, got)
}

type fixture struct {
	store       *storage.MemoryStore
	calc        *PayCalculator
	ledger      *LedgerService
	settlements *SettlementService
	invoices    *InvoiceService
	ar          *ARService
	loads       *LoadService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := storage.NewMemoryStore()
	calc := NewPayCalculator(DefaultCommissionRate)
	ledger := NewLedgerService(store)
	return &fixture{
		store:       store,
		calc:        calc,
		ledger:      ledger,
		settlements: NewSettlementService(store, calc, ledger),
		invoices:    NewInvoiceService(store),
		ar:          NewARService(store),
		loads:       NewLoadService(store, calc),
	}
}

func (f *fixture) companyDriver(t *testing.T, payRate string) *models.Driver {
	t.Helper()
	driver, err := f.store.CreateDriver(&models.Driver{
		Name:    "Test Driver",
		Type:    models.DriverTypeCompany,
		PayRate: money(payRate),
	})
	require.NoError(t, err)
	return driver
}

func (f *fixture) deliveredLoad(t *testing.T, driver *models.Driver, rate string, delivered time.Time) *models.Load {
	t.Helper()
	load, err := f.store.CreateLoad(&models.Load{
		CustomerName: "Acme Shipping",
		FromCity:     "Dallas",
		ToCity:       "Memphis",
		Rate:         money(rate),
		DriverID:     driver.ID,
		DriverType:   driver.Type,
		Status:       models.LoadStatusDelivered,
	})
	require.NoError(t, err)
	load.DeliveryDate = &delivered
	require.NoError(t, f.store.UpdateLoad(load))
	return load
}

func (f *fixture) companyExpense(t *testing.T, driverID, loadID, expenseType, amount string) *models.Expense {
	t.Helper()
	expense, err := f.ledger.RecordExpense(&models.Expense{
		Type:     expenseType,
		Amount:   money(amount),
		PaidBy:   models.PaidByCompany,
		LoadID:   loadID,
		DriverID: driverID,
	})
	require.NoError(t, err)
	return expense
}
