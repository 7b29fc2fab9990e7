package services

import (
	"fmt"
	"log"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/haulworks/haulbooks-backend/internal/models"
	"github.com/haulworks/haulbooks-backend/internal/storage"
	"github.com/haulworks/haulbooks-backend/internal/utils"
)

// LedgerService owns the balance lifecycle of company-paid,
// driver-attributable expenses and the deduction-allocation algorithm.
type LedgerService struct {
	store storage.Store
}

// NewLedgerService creates a new ledger service
func NewLedgerService(store storage.Store) *LedgerService {
	return &LedgerService{store: store}
}

// AllocationResult is the outcome of allocating a pay pool across
// eligible expenses. Nothing is committed; Deltas describe the pending
// balance changes and are applied only when the settlement commits.
type AllocationResult struct {
	Deltas         []models.LedgerDelta
	TotalAllocated decimal.Decimal
	PoolRemaining  decimal.Decimal
}

// AttachLedger gives a company-paid, driver-linked expense its balance
// ledger. Idempotent: an expense that already carries a ledger is left
// untouched.
func (l *LedgerService) AttachLedger(expense *models.Expense) {
	if expense.Ledger != nil {
		return
	}
	if !expense.LedgerEligible() {
		return
	}
	expense.Ledger = &models.ExpenseLedger{
		ExpenseID:        expense.ID,
		TotalAmount:      utils.Round2(expense.Amount),
		AmountPaid:       decimal.Zero,
		RemainingBalance: utils.Round2(expense.Amount),
		Status:           models.LedgerStatusActive,
	}
}

// RecordExpense stores a new expense, attaching a balance ledger when
// the expense is company-paid and driver-linked.
func (l *LedgerService) RecordExpense(expense *models.Expense) (*models.Expense, error) {
	l.AttachLedger(expense)
	created, err := l.store.CreateExpense(expense)
	if err != nil {
		return nil, fmt.Errorf("failed to record expense: %w", err)
	}
	return created, nil
}

// EligibleExpenses returns the driver's active-ledger expenses that can
// be deducted from a settlement over the given loads: those linked to
// one of the loads, plus all floating expenses (no load link), which are
// eligible against any settlement for the driver.
func (l *LedgerService) EligibleExpenses(driverID string, loadIDs []string) ([]*models.Expense, error) {
	active, err := l.store.GetActiveLedgerExpenses(driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active expenses for driver %s: %w", driverID, err)
	}

	inSet := make(map[string]bool, len(loadIDs))
	for _, id := range loadIDs {
		inSet[id] = true
	}

	var eligible []*models.Expense
	for _, e := range active {
		if e.IsFloating() || inSet[e.LoadID] {
			eligible = append(eligible, e)
		}
	}

	// Oldest first, tie-broken by ID. Allocation covers each expense
	// fully before moving to the next.
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].CreatedAt.Equal(eligible[j].CreatedAt) {
			return eligible[i].ID < eligible[j].ID
		}
		return eligible[i].CreatedAt.Before(eligible[j].CreatedAt)
	})
	return eligible, nil
}

// Allocate spreads the pay pool across the expenses in order, deducting
// min(remaining balance, remaining pool) from each until the pool is
// exhausted or every expense is covered. It works on the callers'
// in-memory copies only; the live ledger is untouched until the deltas
// are committed with the settlement. An expense the pool can't fully
// cover keeps its balance and spills over into the driver's next
// settlement.
func (l *LedgerService) Allocate(pool decimal.Decimal, expenses []*models.Expense) (*AllocationResult, error) {
	if pool.IsNegative() {
		return nil, fmt.Errorf("pool %s: %w", pool, models.ErrInvalidPool)
	}

	result := &AllocationResult{
		TotalAllocated: decimal.Zero,
		PoolRemaining:  utils.Round2(pool),
	}

	for _, expense := range expenses {
		if result.PoolRemaining.IsZero() {
			break
		}
		ledger := expense.Ledger
		if ledger == nil || ledger.Status != models.LedgerStatusActive {
			continue
		}

		deducted := decimal.Min(ledger.RemainingBalance, result.PoolRemaining)
		if !deducted.IsPositive() {
			continue
		}

		prior := ledger.AmountPaid
		newPaid := utils.Round2(prior.Add(deducted))
		newStatus := models.LedgerStatusActive
		if ledger.TotalAmount.Sub(newPaid).IsZero() {
			newStatus = models.LedgerStatusSettled
		}

		result.Deltas = append(result.Deltas, models.LedgerDelta{
			ExpenseID:       expense.ID,
			Amount:          deducted,
			PriorAmountPaid: prior,
			NewAmountPaid:   newPaid,
			NewStatus:       newStatus,
		})
		result.TotalAllocated = result.TotalAllocated.Add(deducted)
		result.PoolRemaining = result.PoolRemaining.Sub(deducted)

		if newStatus == models.LedgerStatusSettled {
			log.Printf("ledger: expense %s fully recovered (%s)", expense.ID, ledger.TotalAmount)
		}
	}

	return result, nil
}

// ReversalDeltas builds the deltas that undo a committed settlement's
// allocations, restoring each touched expense's amount_paid. The prior
// value is read from the live ledger so a commit elsewhere in between is
// detected at apply time.
func (l *LedgerService) ReversalDeltas(settlement *models.Settlement) ([]models.LedgerDelta, error) {
	var deltas []models.LedgerDelta
	for _, line := range settlement.Deductions {
		expense, err := l.store.GetExpense(line.ExpenseID)
		if err != nil {
			return nil, err
		}
		if expense.Ledger == nil {
			return nil, fmt.Errorf("expense %s has no ledger: %w", line.ExpenseID, models.ErrNotFound)
		}
		prior := expense.Ledger.AmountPaid
		deltas = append(deltas, models.LedgerDelta{
			ExpenseID:       line.ExpenseID,
			Amount:          line.Amount.Neg(),
			PriorAmountPaid: prior,
			NewAmountPaid:   utils.Round2(prior.Sub(line.Amount)),
			NewStatus:       models.LedgerStatusActive,
		})
	}
	return deltas, nil
}
