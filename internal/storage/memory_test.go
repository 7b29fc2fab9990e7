package storage

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haulworks/haulbooks-backend/internal/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newLedgerExpense(t *testing.T, store *MemoryStore, driverID, amount string) *models.Expense {
	t.Helper()
	total := dec(amount)
	expense, err := store.CreateExpense(&models.Expense{
		Type:     models.ExpenseTypeInsurance,
		Amount:   total,
		PaidBy:   models.PaidByCompany,
		DriverID: driverID,
		Ledger: &models.ExpenseLedger{
			TotalAmount:      total,
			AmountPaid:       decimal.Zero,
			RemainingBalance: total,
			Status:           models.LedgerStatusActive,
		},
	})
	require.NoError(t, err)
	return expense
}

func delta(expenseID, amount, prior string) models.LedgerDelta {
	a := dec(amount)
	p := dec(prior)
	return models.LedgerDelta{
		ExpenseID:       expenseID,
		Amount:          a,
		PriorAmountPaid: p,
		NewAmountPaid:   p.Add(a),
	}
}

func TestCommitSettlementConflictLeavesEverythingUntouched(t *testing.T) {
	store := NewMemoryStore()
	expense := newLedgerExpense(t, store, "DRV00001", "800")

	// A fresh commit moves amount_paid off zero.
	_, err := store.CommitSettlement(&models.Settlement{DriverID: "DRV00001"},
		[]models.LedgerDelta{delta(expense.ID, "300", "0")})
	require.NoError(t, err)

	// A commit computed against the pre-move ledger must fail whole.
	_, err = store.CommitSettlement(&models.Settlement{DriverID: "DRV00001"},
		[]models.LedgerDelta{delta(expense.ID, "500", "0")})
	assert.True(t, errors.Is(err, models.ErrConcurrentSettlementConflict))

	reloaded, err := store.GetExpense(expense.ID)
	require.NoError(t, err)
	assert.Equal(t, "300", reloaded.Ledger.AmountPaid.String())
	assert.Equal(t, "500", reloaded.Ledger.RemainingBalance.String())

	settlements, err := store.GetSettlementsByDriver("DRV00001")
	require.NoError(t, err)
	assert.Len(t, settlements, 1, "rejected settlement must not be stored")
}

func TestCommitSettlementSettlesLedgerAtZeroBalance(t *testing.T) {
	store := NewMemoryStore()
	expense := newLedgerExpense(t, store, "DRV00001", "400")

	_, err := store.CommitSettlement(&models.Settlement{DriverID: "DRV00001"},
		[]models.LedgerDelta{delta(expense.ID, "400", "0")})
	require.NoError(t, err)

	reloaded, err := store.GetExpense(expense.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LedgerStatusSettled, reloaded.Ledger.Status)
	assert.True(t, reloaded.Ledger.RemainingBalance.IsZero())
}

func TestReplaceSettlementRollsBackReversalWhenNewDeltasConflict(t *testing.T) {
	store := NewMemoryStore()
	first := newLedgerExpense(t, store, "DRV00001", "500")
	second := newLedgerExpense(t, store, "DRV00001", "200")

	committed, err := store.CommitSettlement(&models.Settlement{DriverID: "DRV00001"},
		[]models.LedgerDelta{delta(first.ID, "500", "0")})
	require.NoError(t, err)

	// Move the second expense so the replacement's deltas are stale.
	_, err = store.CommitSettlement(&models.Settlement{DriverID: "DRV00001"},
		[]models.LedgerDelta{delta(second.ID, "100", "0")})
	require.NoError(t, err)

	reversals := []models.LedgerDelta{delta(first.ID, "-500", "500")}
	staleDeltas := []models.LedgerDelta{
		delta(first.ID, "500", "0"),
		delta(second.ID, "100", "0"), // live value is 100, not 0
	}
	_, err = store.ReplaceSettlement(committed.ID, reversals,
		&models.Settlement{DriverID: "DRV00001"}, staleDeltas)
	assert.True(t, errors.Is(err, models.ErrConcurrentSettlementConflict))

	// The reversal was undone: the first ledger is still fully settled.
	reloaded, err := store.GetExpense(first.ID)
	require.NoError(t, err)
	assert.Equal(t, "500", reloaded.Ledger.AmountPaid.String())
	assert.Equal(t, models.LedgerStatusSettled, reloaded.Ledger.Status)

	// The old settlement was not superseded.
	old, err := store.GetSettlement(committed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SettlementStatusCommitted, old.Status)
	assert.Empty(t, old.SupersededBy)
}

func TestReplaceSettlementSupersedesOldAndAppliesBoth(t *testing.T) {
	store := NewMemoryStore()
	expense := newLedgerExpense(t, store, "DRV00001", "500")

	committed, err := store.CommitSettlement(&models.Settlement{DriverID: "DRV00001"},
		[]models.LedgerDelta{delta(expense.ID, "500", "0")})
	require.NoError(t, err)

	reversals := []models.LedgerDelta{delta(expense.ID, "-500", "500")}
	newDeltas := []models.LedgerDelta{delta(expense.ID, "300", "0")}
	replacement, err := store.ReplaceSettlement(committed.ID, reversals,
		&models.Settlement{DriverID: "DRV00001"}, newDeltas)
	require.NoError(t, err)

	old, err := store.GetSettlement(committed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SettlementStatusSuperseded, old.Status)
	assert.Equal(t, replacement.ID, old.SupersededBy)

	reloaded, err := store.GetExpense(expense.ID)
	require.NoError(t, err)
	assert.Equal(t, "300", reloaded.Ledger.AmountPaid.String())
	assert.Equal(t, models.LedgerStatusActive, reloaded.Ledger.Status)
}

func TestReplaceSettlementRequiresCommittedOriginal(t *testing.T) {
	store := NewMemoryStore()
	expense := newLedgerExpense(t, store, "DRV00001", "500")

	committed, err := store.CommitSettlement(&models.Settlement{DriverID: "DRV00001"},
		[]models.LedgerDelta{delta(expense.ID, "200", "0")})
	require.NoError(t, err)

	reversals := []models.LedgerDelta{delta(expense.ID, "-200", "200")}
	_, err = store.ReplaceSettlement(committed.ID, reversals,
		&models.Settlement{DriverID: "DRV00001"},
		[]models.LedgerDelta{delta(expense.ID, "150", "0")})
	require.NoError(t, err)

	// The original is now superseded; a second replacement is rejected.
	_, err = store.ReplaceSettlement(committed.ID, reversals,
		&models.Settlement{DriverID: "DRV00001"}, nil)
	assert.Error(t, err)
}

func TestGetExpenseReturnsIndependentCopies(t *testing.T) {
	store := NewMemoryStore()
	expense := newLedgerExpense(t, store, "DRV00001", "500")

	copy1, err := store.GetExpense(expense.ID)
	require.NoError(t, err)
	copy1.Ledger.AmountPaid = dec("999")
	copy1.Ledger.Status = models.LedgerStatusSettled

	copy2, err := store.GetExpense(expense.ID)
	require.NoError(t, err)
	assert.True(t, copy2.Ledger.AmountPaid.IsZero(), "caller mutation must not leak into the store")
	assert.Equal(t, models.LedgerStatusActive, copy2.Ledger.Status)
}

func TestNextInvoiceSequenceStartsAboveFloorAndNeverRepeats(t *testing.T) {
	store := NewMemoryStore()

	first, err := store.NextInvoiceSequence("tenant-a", 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(InvoiceSequenceFloor+1), first)

	const callers = 40
	seqs := make(chan int64, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := store.NextInvoiceSequence("tenant-a", 2026)
			assert.NoError(t, err)
			seqs <- seq
		}()
	}
	wg.Wait()
	close(seqs)

	seen := make(map[int64]bool, callers)
	for seq := range seqs {
		assert.False(t, seen[seq], "sequence %d issued twice", seq)
		seen[seq] = true
	}
	assert.Len(t, seen, callers)
}

func TestAddPaymentRejectsOverpaymentAtomically(t *testing.T) {
	store := NewMemoryStore()
	invoice, err := store.CreateInvoice(&models.Invoice{
		TenantID:      "tenant-a",
		InvoiceNumber: "INV-2026-1001",
		Amount:        dec("1000"),
		Status:        models.InvoiceStatusPending,
	})
	require.NoError(t, err)

	_, err = store.AddPayment(invoice.ID, &models.Payment{ID: "PAY-1", Amount: dec("1200")})
	assert.True(t, errors.Is(err, models.ErrOverpayment))

	reloaded, err := store.GetInvoice(invoice.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Payments)
	assert.Equal(t, models.InvoiceStatusPending, reloaded.Status)
}
