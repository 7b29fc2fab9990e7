package storage

import (
	"sync"

	"github.com/haulworks/haulbooks-backend/internal/models"
)

var (
	storeInstance Store
	storeOnce     sync.Once
)

// SetStore sets the global store instance (call from main.go)
func SetStore(s Store) {
	storeInstance = s
}

// GetStore returns the global store instance
func GetStore() Store {
	return storeInstance
}

// Store defines the interface for storage operations
type Store interface {
	// Driver operations
	CreateDriver(driver *models.Driver) (*models.Driver, error)
	GetDriver(id string) (*models.Driver, error)
	GetAllDrivers() ([]*models.Driver, error)
	UpdateDriver(driver *models.Driver) error

	// Load operations
	CreateLoad(load *models.Load) (*models.Load, error)
	GetLoad(id string) (*models.Load, error)
	GetLoadsByIDs(ids []string) ([]*models.Load, error)
	GetLoadsByDriver(driverID string) ([]*models.Load, error)
	GetLoadsByStatus(status string) ([]*models.Load, error)
	UpdateLoad(load *models.Load) error

	// Expense operations
	CreateExpense(expense *models.Expense) (*models.Expense, error)
	GetExpense(id string) (*models.Expense, error)
	GetExpensesByDriver(driverID string) ([]*models.Expense, error)
	GetActiveLedgerExpenses(driverID string) ([]*models.Expense, error)
	UpdateExpense(expense *models.Expense) error

	// Settlement operations
	GetSettlement(id string) (*models.Settlement, error)
	GetSettlementsByDriver(driverID string) ([]*models.Settlement, error)
	// CommitSettlement persists the settlement and applies its ledger
	// deltas as one atomic step. Every delta's prior amount_paid must
	// still match; otherwise nothing is applied and
	// ErrConcurrentSettlementConflict is returned.
	CommitSettlement(settlement *models.Settlement, deltas []models.LedgerDelta) (*models.Settlement, error)
	// ReplaceSettlement atomically reverses a committed settlement's
	// ledger deltas, marks it superseded, and commits the replacement.
	ReplaceSettlement(oldID string, reversals []models.LedgerDelta, replacement *models.Settlement, deltas []models.LedgerDelta) (*models.Settlement, error)

	// Invoice operations
	NextInvoiceSequence(tenantID string, year int) (int64, error)
	CreateInvoice(invoice *models.Invoice) (*models.Invoice, error)
	GetInvoice(id string) (*models.Invoice, error)
	GetInvoiceByNumber(number string) (*models.Invoice, error)
	GetInvoicesByTenant(tenantID string) ([]*models.Invoice, error)
	GetOpenInvoices(tenantID string) ([]*models.Invoice, error)
	// AddPayment appends a payment under the invoice's lock, rejecting
	// overpayment and recomputing the invoice status.
	AddPayment(invoiceID string, payment *models.Payment) (*models.Invoice, error)
	DeleteInvoice(id string) error
}
