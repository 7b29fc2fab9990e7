package storage

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/haulworks/haulbooks-backend/internal/models"
)

// DatabaseStore implements Store backed by PostgreSQL via GORM
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a new database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// Driver operations

func (s *DatabaseStore) CreateDriver(driver *models.Driver) (*models.Driver, error) {
	if driver.ID == "" {
		driver.ID = newID("DRV")
	}
	if err := s.db.Create(driver).Error; err != nil {
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}
	return driver, nil
}

func (s *DatabaseStore) GetDriver(id string) (*models.Driver, error) {
	var driver models.Driver
	if err := s.db.First(&driver, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err, "driver %s", id)
	}
	return &driver, nil
}

func (s *DatabaseStore) GetAllDrivers() ([]*models.Driver, error) {
	var drivers []*models.Driver
	if err := s.db.Find(&drivers).Error; err != nil {
		return nil, fmt.Errorf("failed to list drivers: %w", err)
	}
	return drivers, nil
}

func (s *DatabaseStore) UpdateDriver(driver *models.Driver) error {
	return s.db.Save(driver).Error
}

// Load operations

func (s *DatabaseStore) CreateLoad(load *models.Load) (*models.Load, error) {
	if load.ID == "" {
		load.ID = newID("LD")
	}
	if load.Status == "" {
		load.Status = models.LoadStatusCreated
	}
	if err := s.db.Create(load).Error; err != nil {
		return nil, fmt.Errorf("failed to create load: %w", err)
	}
	return load, nil
}

func (s *DatabaseStore) GetLoad(id string) (*models.Load, error) {
	var load models.Load
	if err := s.db.First(&load, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err, "load %s", id)
	}
	return &load, nil
}

func (s *DatabaseStore) GetLoadsByIDs(ids []string) ([]*models.Load, error) {
	var loads []*models.Load
	if err := s.db.Where("id IN ?", ids).Find(&loads).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch loads: %w", err)
	}
	if len(loads) != len(ids) {
		return nil, fmt.Errorf("%d of %d loads: %w", len(ids)-len(loads), len(ids), models.ErrNotFound)
	}
	return loads, nil
}

func (s *DatabaseStore) GetLoadsByDriver(driverID string) ([]*models.Load, error) {
	var loads []*models.Load
	if err := s.db.Where("driver_id = ?", driverID).Find(&loads).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch driver loads: %w", err)
	}
	return loads, nil
}

func (s *DatabaseStore) GetLoadsByStatus(status string) ([]*models.Load, error) {
	var loads []*models.Load
	if err := s.db.Where("status = ?", status).Find(&loads).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch loads by status: %w", err)
	}
	return loads, nil
}

func (s *DatabaseStore) UpdateLoad(load *models.Load) error {
	return s.db.Save(load).Error
}

// Expense operations

func (s *DatabaseStore) CreateExpense(expense *models.Expense) (*models.Expense, error) {
	if expense.ID == "" {
		expense.ID = newID("EXP")
	}
	if expense.Ledger != nil {
		expense.Ledger.ExpenseID = expense.ID
	}
	if err := s.db.Create(expense).Error; err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}
	return expense, nil
}

func (s *DatabaseStore) GetExpense(id string) (*models.Expense, error) {
	var expense models.Expense
	if err := s.db.Preload("Ledger").First(&expense, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err, "expense %s", id)
	}
	return &expense, nil
}

func (s *DatabaseStore) GetExpensesByDriver(driverID string) ([]*models.Expense, error) {
	var expenses []*models.Expense
	err := s.db.Preload("Ledger").
		Where("driver_id = ?", driverID).
		Order("created_at, id").
		Find(&expenses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch driver expenses: %w", err)
	}
	return expenses, nil
}

func (s *DatabaseStore) GetActiveLedgerExpenses(driverID string) ([]*models.Expense, error) {
	var expenses []*models.Expense
	err := s.db.Preload("Ledger").
		Joins("JOIN expense_ledgers ON expense_ledgers.expense_id = expenses.id").
		Where("expenses.driver_id = ? AND expense_ledgers.status = ?", driverID, models.LedgerStatusActive).
		Order("expenses.created_at, expenses.id").
		Find(&expenses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active ledger expenses: %w", err)
	}
	return expenses, nil
}

func (s *DatabaseStore) UpdateExpense(expense *models.Expense) error {
	return s.db.Session(&gorm.Session{FullSaveAssociations: true}).Save(expense).Error
}

// Settlement operations

func (s *DatabaseStore) GetSettlement(id string) (*models.Settlement, error) {
	var settlement models.Settlement
	if err := s.db.Preload("Deductions").First(&settlement, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err, "settlement %s", id)
	}
	return &settlement, nil
}

func (s *DatabaseStore) GetSettlementsByDriver(driverID string) ([]*models.Settlement, error) {
	var settlements []*models.Settlement
	err := s.db.Preload("Deductions").
		Where("driver_id = ?", driverID).
		Order("created_at").
		Find(&settlements).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch driver settlements: %w", err)
	}
	return settlements, nil
}

func (s *DatabaseStore) CommitSettlement(settlement *models.Settlement, deltas []models.LedgerDelta) (*models.Settlement, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := applyDeltasTx(tx, deltas); err != nil {
			return err
		}
		return createCommittedSettlement(tx, settlement)
	})
	if err != nil {
		return nil, err
	}
	return settlement, nil
}

func (s *DatabaseStore) ReplaceSettlement(oldID string, reversals []models.LedgerDelta, replacement *models.Settlement, deltas []models.LedgerDelta) (*models.Settlement, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var old models.Settlement
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&old, "id = ?", oldID).Error; err != nil {
			return wrapNotFound(err, "settlement %s", oldID)
		}
		if old.Status != models.SettlementStatusCommitted {
			return fmt.Errorf("settlement %s is %s, only committed settlements can be recomputed", oldID, old.Status)
		}

		if err := applyDeltasTx(tx, reversals); err != nil {
			return err
		}
		if err := applyDeltasTx(tx, deltas); err != nil {
			return err
		}
		if err := createCommittedSettlement(tx, replacement); err != nil {
			return err
		}

		return tx.Model(&old).Updates(map[string]interface{}{
			"status":        models.SettlementStatusSuperseded,
			"superseded_by": replacement.ID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return replacement, nil
}

// applyDeltasTx locks each touched ledger row, verifies the allocation
// was computed against the current amount_paid, and applies the change.
// Any mismatch rolls back the whole transaction.
func applyDeltasTx(tx *gorm.DB, deltas []models.LedgerDelta) error {
	for _, d := range deltas {
		var ledger models.ExpenseLedger
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&ledger, "expense_id = ?", d.ExpenseID).Error
		if err != nil {
			return wrapNotFound(err, "expense ledger %s", d.ExpenseID)
		}
		if !ledger.AmountPaid.Equal(d.PriorAmountPaid) {
			return fmt.Errorf("expense %s amount_paid moved from %s to %s: %w",
				d.ExpenseID, d.PriorAmountPaid, ledger.AmountPaid, models.ErrConcurrentSettlementConflict)
		}

		ledger.AmountPaid = d.NewAmountPaid
		ledger.RemainingBalance = ledger.TotalAmount.Sub(d.NewAmountPaid)
		if ledger.RemainingBalance.IsZero() {
			ledger.Status = models.LedgerStatusSettled
		} else {
			ledger.Status = models.LedgerStatusActive
		}
		if err := tx.Save(&ledger).Error; err != nil {
			return fmt.Errorf("failed to update expense ledger %s: %w", d.ExpenseID, err)
		}
	}
	return nil
}

func createCommittedSettlement(tx *gorm.DB, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = newID("SET")
	}
	now := time.Now()
	settlement.Status = models.SettlementStatusCommitted
	settlement.CommittedAt = &now
	for i := range settlement.Deductions {
		settlement.Deductions[i].SettlementID = settlement.ID
	}
	if err := tx.Create(settlement).Error; err != nil {
		return fmt.Errorf("failed to create settlement: %w", err)
	}
	return nil
}

// Invoice operations

func (s *DatabaseStore) NextInvoiceSequence(tenantID string, year int) (int64, error) {
	var next int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var counter models.InvoiceCounter
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND year = ?", tenantID, year).
			First(&counter).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			counter = models.InvoiceCounter{
				TenantID:  tenantID,
				Year:      year,
				LastValue: InvoiceSequenceFloor,
			}
			if err := tx.Create(&counter).Error; err != nil {
				return fmt.Errorf("failed to create invoice counter: %w", err)
			}
			// Another request may have created the row first; re-read
			// under lock so both see a serialized counter.
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("tenant_id = ? AND year = ?", tenantID, year).
				First(&counter).Error; err != nil {
				return fmt.Errorf("failed to reload invoice counter: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to read invoice counter: %w", err)
		}

		counter.LastValue++
		next = counter.LastValue
		return tx.Save(&counter).Error
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (s *DatabaseStore) CreateInvoice(invoice *models.Invoice) (*models.Invoice, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Invoice{}).
			Where("invoice_number = ?", invoice.InvoiceNumber).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check invoice number: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("invoice number %s: %w", invoice.InvoiceNumber, models.ErrDuplicateInvoiceNumber)
		}

		if invoice.ID == "" {
			invoice.ID = newID("IN")
		}
		if invoice.Status == "" {
			invoice.Status = models.InvoiceStatusPending
		}
		return tx.Create(invoice).Error
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *DatabaseStore) GetInvoice(id string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := s.db.Preload("Payments").First(&invoice, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err, "invoice %s", id)
	}
	return &invoice, nil
}

func (s *DatabaseStore) GetInvoiceByNumber(number string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := s.db.Preload("Payments").First(&invoice, "invoice_number = ?", number).Error; err != nil {
		return nil, wrapNotFound(err, "invoice number %s", number)
	}
	return &invoice, nil
}

func (s *DatabaseStore) GetInvoicesByTenant(tenantID string) ([]*models.Invoice, error) {
	var invoices []*models.Invoice
	if err := s.db.Preload("Payments").Where("tenant_id = ?", tenantID).Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch tenant invoices: %w", err)
	}
	return invoices, nil
}

func (s *DatabaseStore) GetOpenInvoices(tenantID string) ([]*models.Invoice, error) {
	var invoices []*models.Invoice
	err := s.db.Preload("Payments").
		Where("tenant_id = ? AND status <> ?", tenantID, models.InvoiceStatusPaid).
		Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch open invoices: %w", err)
	}
	return invoices, nil
}

func (s *DatabaseStore) AddPayment(invoiceID string, payment *models.Payment) (*models.Invoice, error) {
	var invoice models.Invoice
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&invoice, "id = ?", invoiceID).Error; err != nil {
			return wrapNotFound(err, "invoice %s", invoiceID)
		}
		if err := tx.Where("invoice_id = ?", invoiceID).Find(&invoice.Payments).Error; err != nil {
			return fmt.Errorf("failed to fetch payments: %w", err)
		}

		newTotal := invoice.TotalPaid().Add(payment.Amount)
		if newTotal.GreaterThan(invoice.Amount) {
			return fmt.Errorf("invoice %s: paid %s of %s, payment %s rejected: %w",
				invoiceID, invoice.TotalPaid(), invoice.Amount, payment.Amount, models.ErrOverpayment)
		}

		payment.InvoiceID = invoiceID
		if err := tx.Create(payment).Error; err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}

		invoice.Payments = append(invoice.Payments, *payment)
		invoice.Status = invoice.StatusForPaid(newTotal)
		return tx.Model(&models.Invoice{}).
			Where("id = ?", invoiceID).
			Update("status", invoice.Status).Error
	})
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (s *DatabaseStore) DeleteInvoice(id string) error {
	result := s.db.Delete(&models.Invoice{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete invoice: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("invoice %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// helpers

func newID(prefix string) string {
	return fmt.Sprintf("%s%d%03d", prefix, time.Now().Unix(), time.Now().Nanosecond()%1000)
}

func wrapNotFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf(format+": %w", append(args, models.ErrNotFound)...)
	}
	return fmt.Errorf(format+": %v", append(args, err)...)
}
