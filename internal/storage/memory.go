package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/haulworks/haulbooks-backend/internal/models"
)

// InvoiceSequenceFloor seeds a brand-new tenant+year counter; the first
// issued sequence is the floor plus one.
const InvoiceSequenceFloor = 1000

// MemoryStore holds all data in memory for testing and local development
type MemoryStore struct {
	drivers     map[string]*models.Driver
	loads       map[string]*models.Load
	expenses    map[string]*models.Expense
	settlements map[string]*models.Settlement
	invoices    map[string]*models.Invoice
	counters    map[string]*models.InvoiceCounter

	// Mutexes for thread safety
	driverMu     sync.RWMutex
	loadMu       sync.RWMutex
	expenseMu    sync.RWMutex
	settlementMu sync.RWMutex
	invoiceMu    sync.RWMutex
	counterMu    sync.Mutex

	// Counters for ID generation
	driverCounter     int
	loadCounter       int
	expenseCounter    int
	settlementCounter int
	invoiceCounter    int
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		drivers:     make(map[string]*models.Driver),
		loads:       make(map[string]*models.Load),
		expenses:    make(map[string]*models.Expense),
		settlements: make(map[string]*models.Settlement),
		invoices:    make(map[string]*models.Invoice),
		counters:    make(map[string]*models.InvoiceCounter),
	}
}

// Driver operations

func (m *MemoryStore) CreateDriver(driver *models.Driver) (*models.Driver, error) {
	m.driverMu.Lock()
	defer m.driverMu.Unlock()

	if driver.ID == "" {
		m.driverCounter++
		driver.ID = fmt.Sprintf("DRV%05d", m.driverCounter)
	}
	driver.CreatedAt = time.Now()
	driver.UpdatedAt = time.Now()

	m.drivers[driver.ID] = driver
	return driver, nil
}

func (m *MemoryStore) GetDriver(id string) (*models.Driver, error) {
	m.driverMu.RLock()
	defer m.driverMu.RUnlock()

	driver, exists := m.drivers[id]
	if !exists {
		return nil, fmt.Errorf("driver %s: %w", id, models.ErrNotFound)
	}
	return driver, nil
}

func (m *MemoryStore) GetAllDrivers() ([]*models.Driver, error) {
	m.driverMu.RLock()
	defer m.driverMu.RUnlock()

	var drivers []*models.Driver
	for _, d := range m.drivers {
		drivers = append(drivers, d)
	}
	return drivers, nil
}

func (m *MemoryStore) UpdateDriver(driver *models.Driver) error {
	m.driverMu.Lock()
	defer m.driverMu.Unlock()

	if _, exists := m.drivers[driver.ID]; !exists {
		return fmt.Errorf("driver %s: %w", driver.ID, models.ErrNotFound)
	}
	driver.UpdatedAt = time.Now()
	m.drivers[driver.ID] = driver
	return nil
}

// Load operations

func (m *MemoryStore) CreateLoad(load *models.Load) (*models.Load, error) {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	if load.ID == "" {
		m.loadCounter++
		load.ID = fmt.Sprintf("LD%05d", m.loadCounter)
	}
	if load.Status == "" {
		load.Status = models.LoadStatusCreated
	}
	load.CreatedAt = time.Now()
	load.UpdatedAt = time.Now()

	m.loads[load.ID] = load
	return load, nil
}

func (m *MemoryStore) GetLoad(id string) (*models.Load, error) {
	m.loadMu.RLock()
	defer m.loadMu.RUnlock()

	load, exists := m.loads[id]
	if !exists {
		return nil, fmt.Errorf("load %s: %w", id, models.ErrNotFound)
	}
	return load, nil
}

func (m *MemoryStore) GetLoadsByIDs(ids []string) ([]*models.Load, error) {
	m.loadMu.RLock()
	defer m.loadMu.RUnlock()

	loads := make([]*models.Load, 0, len(ids))
	for _, id := range ids {
		load, exists := m.loads[id]
		if !exists {
			return nil, fmt.Errorf("load %s: %w", id, models.ErrNotFound)
		}
		loads = append(loads, load)
	}
	return loads, nil
}

func (m *MemoryStore) GetLoadsByDriver(driverID string) ([]*models.Load, error) {
	m.loadMu.RLock()
	defer m.loadMu.RUnlock()

	var loads []*models.Load
	for _, load := range m.loads {
		if load.DriverID == driverID {
			loads = append(loads, load)
		}
	}
	return loads, nil
}

func (m *MemoryStore) GetLoadsByStatus(status string) ([]*models.Load, error) {
	m.loadMu.RLock()
	defer m.loadMu.RUnlock()

	var loads []*models.Load
	for _, load := range m.loads {
		if load.Status == status {
			loads = append(loads, load)
		}
	}
	return loads, nil
}

func (m *MemoryStore) UpdateLoad(load *models.Load) error {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	if _, exists := m.loads[load.ID]; !exists {
		return fmt.Errorf("load %s: %w", load.ID, models.ErrNotFound)
	}
	load.UpdatedAt = time.Now()
	m.loads[load.ID] = load
	return nil
}

// Expense operations

func (m *MemoryStore) CreateExpense(expense *models.Expense) (*models.Expense, error) {
	m.expenseMu.Lock()
	defer m.expenseMu.Unlock()

	if expense.ID == "" {
		m.expenseCounter++
		expense.ID = fmt.Sprintf("EXP%05d", m.expenseCounter)
	}
	expense.CreatedAt = time.Now()
	expense.UpdatedAt = time.Now()
	if expense.Ledger != nil {
		expense.Ledger.ExpenseID = expense.ID
		expense.Ledger.CreatedAt = expense.CreatedAt
		expense.Ledger.UpdatedAt = expense.CreatedAt
	}

	m.expenses[expense.ID] = expense
	return copyExpense(expense), nil
}

func (m *MemoryStore) GetExpense(id string) (*models.Expense, error) {
	m.expenseMu.RLock()
	defer m.expenseMu.RUnlock()

	expense, exists := m.expenses[id]
	if !exists {
		return nil, fmt.Errorf("expense %s: %w", id, models.ErrNotFound)
	}
	return copyExpense(expense), nil
}

func (m *MemoryStore) GetExpensesByDriver(driverID string) ([]*models.Expense, error) {
	m.expenseMu.RLock()
	defer m.expenseMu.RUnlock()

	var expenses []*models.Expense
	for _, e := range m.expenses {
		if e.DriverID == driverID {
			expenses = append(expenses, copyExpense(e))
		}
	}
	sortExpensesByCreation(expenses)
	return expenses, nil
}

func (m *MemoryStore) GetActiveLedgerExpenses(driverID string) ([]*models.Expense, error) {
	m.expenseMu.RLock()
	defer m.expenseMu.RUnlock()

	var expenses []*models.Expense
	for _, e := range m.expenses {
		if e.DriverID == driverID && e.Ledger != nil && e.Ledger.Status == models.LedgerStatusActive {
			expenses = append(expenses, copyExpense(e))
		}
	}
	sortExpensesByCreation(expenses)
	return expenses, nil
}

func (m *MemoryStore) UpdateExpense(expense *models.Expense) error {
	m.expenseMu.Lock()
	defer m.expenseMu.Unlock()

	if _, exists := m.expenses[expense.ID]; !exists {
		return fmt.Errorf("expense %s: %w", expense.ID, models.ErrNotFound)
	}
	expense.UpdatedAt = time.Now()
	m.expenses[expense.ID] = copyExpense(expense)
	return nil
}

// Settlement operations

func (m *MemoryStore) GetSettlement(id string) (*models.Settlement, error) {
	m.settlementMu.RLock()
	defer m.settlementMu.RUnlock()

	settlement, exists := m.settlements[id]
	if !exists {
		return nil, fmt.Errorf("settlement %s: %w", id, models.ErrNotFound)
	}
	return settlement, nil
}

func (m *MemoryStore) GetSettlementsByDriver(driverID string) ([]*models.Settlement, error) {
	m.settlementMu.RLock()
	defer m.settlementMu.RUnlock()

	var settlements []*models.Settlement
	for _, s := range m.settlements {
		if s.DriverID == driverID {
			settlements = append(settlements, s)
		}
	}
	sort.Slice(settlements, func(i, j int) bool {
		return settlements[i].CreatedAt.Before(settlements[j].CreatedAt)
	})
	return settlements, nil
}

func (m *MemoryStore) CommitSettlement(settlement *models.Settlement, deltas []models.LedgerDelta) (*models.Settlement, error) {
	m.expenseMu.Lock()
	defer m.expenseMu.Unlock()
	m.settlementMu.Lock()
	defer m.settlementMu.Unlock()

	if err := m.checkDeltas(deltas); err != nil {
		return nil, err
	}
	m.applyDeltas(deltas)

	m.settlementCounter++
	now := time.Now()
	settlement.ID = fmt.Sprintf("SET%05d", m.settlementCounter)
	settlement.Status = models.SettlementStatusCommitted
	settlement.CommittedAt = &now
	settlement.CreatedAt = now
	settlement.UpdatedAt = now
	for i := range settlement.Deductions {
		settlement.Deductions[i].SettlementID = settlement.ID
	}

	m.settlements[settlement.ID] = settlement
	return settlement, nil
}

func (m *MemoryStore) ReplaceSettlement(oldID string, reversals []models.LedgerDelta, replacement *models.Settlement, deltas []models.LedgerDelta) (*models.Settlement, error) {
	m.expenseMu.Lock()
	defer m.expenseMu.Unlock()
	m.settlementMu.Lock()
	defer m.settlementMu.Unlock()

	old, exists := m.settlements[oldID]
	if !exists {
		return nil, fmt.Errorf("settlement %s: %w", oldID, models.ErrNotFound)
	}
	if old.Status != models.SettlementStatusCommitted {
		return nil, fmt.Errorf("settlement %s is %s, only committed settlements can be recomputed", oldID, old.Status)
	}

	// Both the reversal and the fresh allocation must still match the
	// live ledger, or the whole replacement is rejected.
	if err := m.checkDeltas(reversals); err != nil {
		return nil, err
	}
	m.applyDeltas(reversals)
	if err := m.checkDeltas(deltas); err != nil {
		// Undo the reversal so a rejected replacement leaves no trace.
		m.applyDeltas(invertDeltas(reversals))
		return nil, err
	}
	m.applyDeltas(deltas)

	m.settlementCounter++
	now := time.Now()
	replacement.ID = fmt.Sprintf("SET%05d", m.settlementCounter)
	replacement.Status = models.SettlementStatusCommitted
	replacement.CommittedAt = &now
	replacement.CreatedAt = now
	replacement.UpdatedAt = now
	for i := range replacement.Deductions {
		replacement.Deductions[i].SettlementID = replacement.ID
	}

	old.Status = models.SettlementStatusSuperseded
	old.SupersededBy = replacement.ID
	old.UpdatedAt = now

	m.settlements[replacement.ID] = replacement
	return replacement, nil
}

// checkDeltas verifies every delta's prior amount_paid still matches the
// live ledger. Caller must hold expenseMu.
func (m *MemoryStore) checkDeltas(deltas []models.LedgerDelta) error {
	for _, d := range deltas {
		expense, exists := m.expenses[d.ExpenseID]
		if !exists || expense.Ledger == nil {
			return fmt.Errorf("expense ledger %s: %w", d.ExpenseID, models.ErrNotFound)
		}
		if !expense.Ledger.AmountPaid.Equal(d.PriorAmountPaid) {
			return fmt.Errorf("expense %s amount_paid moved from %s to %s: %w",
				d.ExpenseID, d.PriorAmountPaid, expense.Ledger.AmountPaid, models.ErrConcurrentSettlementConflict)
		}
	}
	return nil
}

// applyDeltas mutates the live ledger. Caller must hold expenseMu and
// have validated the deltas first. Status is derived from the balance so
// that applying a delta and its inverse always round-trips.
func (m *MemoryStore) applyDeltas(deltas []models.LedgerDelta) {
	now := time.Now()
	for _, d := range deltas {
		ledger := m.expenses[d.ExpenseID].Ledger
		ledger.AmountPaid = d.NewAmountPaid
		ledger.RemainingBalance = ledger.TotalAmount.Sub(d.NewAmountPaid)
		if ledger.RemainingBalance.IsZero() {
			ledger.Status = models.LedgerStatusSettled
		} else {
			ledger.Status = models.LedgerStatusActive
		}
		ledger.UpdatedAt = now
	}
}

func invertDeltas(deltas []models.LedgerDelta) []models.LedgerDelta {
	inverted := make([]models.LedgerDelta, len(deltas))
	for i, d := range deltas {
		inverted[i] = models.LedgerDelta{
			ExpenseID:       d.ExpenseID,
			Amount:          d.Amount.Neg(),
			PriorAmountPaid: d.NewAmountPaid,
			NewAmountPaid:   d.PriorAmountPaid,
		}
	}
	return inverted
}

// Invoice operations

func (m *MemoryStore) NextInvoiceSequence(tenantID string, year int) (int64, error) {
	m.counterMu.Lock()
	defer m.counterMu.Unlock()

	key := fmt.Sprintf("%s:%d", tenantID, year)
	counter, exists := m.counters[key]
	if !exists {
		counter = &models.InvoiceCounter{
			TenantID:  tenantID,
			Year:      year,
			LastValue: InvoiceSequenceFloor,
		}
		m.counters[key] = counter
	}
	counter.LastValue++
	counter.UpdatedAt = time.Now()
	return counter.LastValue, nil
}

func (m *MemoryStore) CreateInvoice(invoice *models.Invoice) (*models.Invoice, error) {
	m.invoiceMu.Lock()
	defer m.invoiceMu.Unlock()

	for _, existing := range m.invoices {
		if existing.InvoiceNumber == invoice.InvoiceNumber {
			return nil, fmt.Errorf("invoice number %s: %w", invoice.InvoiceNumber, models.ErrDuplicateInvoiceNumber)
		}
	}

	if invoice.ID == "" {
		m.invoiceCounter++
		invoice.ID = fmt.Sprintf("IN%05d", m.invoiceCounter)
	}
	if invoice.Status == "" {
		invoice.Status = models.InvoiceStatusPending
	}
	invoice.CreatedAt = time.Now()
	invoice.UpdatedAt = time.Now()

	m.invoices[invoice.ID] = invoice
	return invoice, nil
}

func (m *MemoryStore) GetInvoice(id string) (*models.Invoice, error) {
	m.invoiceMu.RLock()
	defer m.invoiceMu.RUnlock()

	invoice, exists := m.invoices[id]
	if !exists {
		return nil, fmt.Errorf("invoice %s: %w", id, models.ErrNotFound)
	}
	return invoice, nil
}

func (m *MemoryStore) GetInvoiceByNumber(number string) (*models.Invoice, error) {
	m.invoiceMu.RLock()
	defer m.invoiceMu.RUnlock()

	for _, invoice := range m.invoices {
		if invoice.InvoiceNumber == number {
			return invoice, nil
		}
	}
	return nil, fmt.Errorf("invoice number %s: %w", number, models.ErrNotFound)
}

func (m *MemoryStore) GetInvoicesByTenant(tenantID string) ([]*models.Invoice, error) {
	m.invoiceMu.RLock()
	defer m.invoiceMu.RUnlock()

	var invoices []*models.Invoice
	for _, invoice := range m.invoices {
		if invoice.TenantID == tenantID {
			invoices = append(invoices, invoice)
		}
	}
	return invoices, nil
}

func (m *MemoryStore) GetOpenInvoices(tenantID string) ([]*models.Invoice, error) {
	m.invoiceMu.RLock()
	defer m.invoiceMu.RUnlock()

	var invoices []*models.Invoice
	for _, invoice := range m.invoices {
		if invoice.TenantID == tenantID && invoice.Status != models.InvoiceStatusPaid {
			invoices = append(invoices, invoice)
		}
	}
	return invoices, nil
}

func (m *MemoryStore) AddPayment(invoiceID string, payment *models.Payment) (*models.Invoice, error) {
	m.invoiceMu.Lock()
	defer m.invoiceMu.Unlock()

	invoice, exists := m.invoices[invoiceID]
	if !exists {
		return nil, fmt.Errorf("invoice %s: %w", invoiceID, models.ErrNotFound)
	}

	newTotal := invoice.TotalPaid().Add(payment.Amount)
	if newTotal.GreaterThan(invoice.Amount) {
		return nil, fmt.Errorf("invoice %s: paid %s of %s, payment %s rejected: %w",
			invoiceID, invoice.TotalPaid(), invoice.Amount, payment.Amount, models.ErrOverpayment)
	}

	payment.InvoiceID = invoiceID
	payment.CreatedAt = time.Now()
	invoice.Payments = append(invoice.Payments, *payment)
	invoice.Status = invoice.StatusForPaid(newTotal)
	invoice.UpdatedAt = time.Now()
	return invoice, nil
}

func (m *MemoryStore) DeleteInvoice(id string) error {
	m.invoiceMu.Lock()
	defer m.invoiceMu.Unlock()

	if _, exists := m.invoices[id]; !exists {
		return fmt.Errorf("invoice %s: %w", id, models.ErrNotFound)
	}
	delete(m.invoices, id)
	return nil
}

// helpers

func copyExpense(e *models.Expense) *models.Expense {
	clone := *e
	if e.Ledger != nil {
		ledger := *e.Ledger
		clone.Ledger = &ledger
	}
	return &clone
}

func sortExpensesByCreation(expenses []*models.Expense) {
	sort.Slice(expenses, func(i, j int) bool {
		if expenses[i].CreatedAt.Equal(expenses[j].CreatedAt) {
			return expenses[i].ID < expenses[j].ID
		}
		return expenses[i].CreatedAt.Before(expenses[j].CreatedAt)
	})
}
