package services

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/haulworks/haulbooks-backend/internal/models"
	"github.com/haulworks/haulbooks-backend/internal/storage"
	"github.com/haulworks/haulbooks-backend/internal/utils"
)

// SettlementService orchestrates the pay calculator and the expense
// ledger to produce driver settlements. Compute is pure with respect to
// ledger state; only Commit mutates it.
type SettlementService struct {
	store  storage.Store
	calc   *PayCalculator
	ledger *LedgerService
}

// NewSettlementService creates a new settlement service
func NewSettlementService(store storage.Store, calc *PayCalculator, ledger *LedgerService) *SettlementService {
	return &SettlementService{store: store, calc: calc, ledger: ledger}
}

// SettlementRequest carries the caller's inputs for one generation
type SettlementRequest struct {
	DriverID   string          `json:"driver_id"`
	LoadIDs    []string        `json:"load_ids"`
	Advances   decimal.Decimal `json:"advances"`
	LumperFees decimal.Decimal `json:"lumper_fees"`
	Taxes      decimal.Decimal `json:"taxes"`
}

// ComputeResult pairs a computed settlement with the ledger deltas its
// commit must apply. Until commit, nothing has touched the live ledger,
// so an abandoned result needs no cleanup.
type ComputeResult struct {
	Settlement *models.Settlement
	Deltas     []models.LedgerDelta
}

// Compute runs the full calculation against a working copy of ledger
// state: per-load pay, gross pool, deduction allocation, net. Re-running
// with unchanged inputs and unchanged ledger state yields an identical
// result.
func (s *SettlementService) Compute(req *SettlementRequest) (*ComputeResult, error) {
	eligible, err := s.ledger.EligibleExpenses(req.DriverID, req.LoadIDs)
	if err != nil {
		return nil, err
	}
	return s.computeWith(req, eligible)
}

func (s *SettlementService) computeWith(req *SettlementRequest, eligible []*models.Expense) (*ComputeResult, error) {
	if len(req.LoadIDs) == 0 {
		return nil, fmt.Errorf("settlement for driver %s: no loads selected", req.DriverID)
	}

	loads, err := s.store.GetLoadsByIDs(req.LoadIDs)
	if err != nil {
		return nil, err
	}
	for _, load := range loads {
		if load.DriverID != req.DriverID {
			return nil, fmt.Errorf("load %s is assigned to driver %s, not %s", load.ID, load.DriverID, req.DriverID)
		}
	}

	// Allocation order depends on chronological delivery order.
	sort.Slice(loads, func(i, j int) bool {
		ri, rj := utils.RecognitionDate(loads[i]), utils.RecognitionDate(loads[j])
		if ri.Equal(rj) {
			return loads[i].ID < loads[j].ID
		}
		return ri.Before(rj)
	})

	profile, err := s.store.GetDriver(req.DriverID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		profile = nil
	}

	var warnings []string
	gross := decimal.Zero
	orderedIDs := make([]string, 0, len(loads))
	for _, load := range loads {
		orderedIDs = append(orderedIDs, load.ID)
		result := s.calc.RevenueAndPay(load, profile)
		// Pass-through pay never enters the pool; only SettlementPay
		// is summable here.
		gross = gross.Add(decimal.Decimal(result.SettlementPay))
		if result.MissingProfile {
			warnings = append(warnings, fmt.Sprintf("%s:%s", models.WarningMissingProfile, load.ID))
		}
	}
	gross = utils.Round2(gross)

	alloc, err := s.ledger.Allocate(gross, eligible)
	if err != nil {
		return nil, err
	}

	expenseTypes := make(map[string]string, len(eligible))
	for _, e := range eligible {
		expenseTypes[e.ID] = e.Type
	}
	deductionLines := make([]models.SettlementDeduction, 0, len(alloc.Deltas))
	for _, d := range alloc.Deltas {
		deductionLines = append(deductionLines, models.SettlementDeduction{
			ExpenseID:   d.ExpenseID,
			ExpenseType: expenseTypes[d.ExpenseID],
			Amount:      d.Amount,
		})
	}

	totalDeductions := utils.Round2(req.Advances.Add(req.LumperFees).Add(req.Taxes).Add(alloc.TotalAllocated))
	netPay := utils.Round2(gross.Sub(totalDeductions))
	if netPay.IsNegative() {
		// Surfaced, never clamped: a negative net is an accounting
		// problem the caller has to see.
		warnings = append(warnings, models.WarningNegativeNetPay)
		log.Printf("settlement: driver %s net pay is negative (%s)", req.DriverID, netPay)
	}

	settlement := &models.Settlement{
		DriverID:          req.DriverID,
		LoadIDs:           orderedIDs,
		GrossPay:          gross,
		Advances:          utils.Round2(req.Advances),
		LumperFees:        utils.Round2(req.LumperFees),
		Taxes:             utils.Round2(req.Taxes),
		ExpenseDeductions: utils.Round2(alloc.TotalAllocated),
		TotalDeductions:   totalDeductions,
		NetPay:            netPay,
		Deductions:        deductionLines,
		Status:            models.SettlementStatusComputed,
		Warnings:          warnings,
	}
	return &ComputeResult{Settlement: settlement, Deltas: alloc.Deltas}, nil
}

// Generate computes and commits in one call: the settlement record is
// persisted and the ledger deltas are applied atomically. A commit that
// finds the ledger changed since compute fails with
// ErrConcurrentSettlementConflict and applies nothing.
func (s *SettlementService) Generate(req *SettlementRequest) (*models.Settlement, error) {
	result, err := s.Compute(req)
	if err != nil {
		return nil, err
	}
	return s.Commit(result)
}

// Commit persists a computed settlement and applies its ledger deltas.
func (s *SettlementService) Commit(result *ComputeResult) (*models.Settlement, error) {
	settlement, err := s.store.CommitSettlement(result.Settlement, result.Deltas)
	if err != nil {
		return nil, err
	}
	log.Printf("settlement: committed %s for driver %s (gross %s, deductions %s, net %s)",
		settlement.ID, settlement.DriverID, settlement.GrossPay, settlement.TotalDeductions, settlement.NetPay)
	return settlement, nil
}

// Recompute supersedes a committed settlement: its ledger allocations
// are reversed and a replacement is computed and committed, all as one
// atomic operation. The old record is kept, marked superseded.
func (s *SettlementService) Recompute(settlementID string, req *SettlementRequest) (*models.Settlement, error) {
	old, err := s.store.GetSettlement(settlementID)
	if err != nil {
		return nil, err
	}
	if old.Status != models.SettlementStatusCommitted {
		return nil, fmt.Errorf("settlement %s is %s, only committed settlements can be recomputed", settlementID, old.Status)
	}
	if req.DriverID != old.DriverID {
		return nil, fmt.Errorf("settlement %s belongs to driver %s, not %s", settlementID, old.DriverID, req.DriverID)
	}

	reversals, err := s.ledger.ReversalDeltas(old)
	if err != nil {
		return nil, err
	}

	// The replacement is computed against the ledger as it will look
	// after the reversal, without touching the live state yet.
	eligible, err := s.eligibleAfterReversal(old, req, reversals)
	if err != nil {
		return nil, err
	}
	result, err := s.computeWith(req, eligible)
	if err != nil {
		return nil, err
	}

	replacement, err := s.store.ReplaceSettlement(old.ID, reversals, result.Settlement, result.Deltas)
	if err != nil {
		return nil, err
	}
	log.Printf("settlement: %s superseded by %s", old.ID, replacement.ID)
	return replacement, nil
}

// eligibleAfterReversal builds the working-copy expense list for a
// recompute: the driver's currently active ledgers plus the expenses the
// old settlement had settled outright, all with the old allocations
// undone.
func (s *SettlementService) eligibleAfterReversal(old *models.Settlement, req *SettlementRequest, reversals []models.LedgerDelta) ([]*models.Expense, error) {
	reversed := make(map[string]models.LedgerDelta, len(reversals))
	for _, r := range reversals {
		reversed[r.ExpenseID] = r
	}

	eligible, err := s.ledger.EligibleExpenses(req.DriverID, req.LoadIDs)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(eligible))
	for _, e := range eligible {
		seen[e.ID] = true
		if r, ok := reversed[e.ID]; ok {
			applyReversalCopy(e, r)
		}
	}

	// Expenses the old settlement fully settled are no longer active,
	// so the eligibility query misses them; pull them in explicitly.
	inSet := make(map[string]bool, len(req.LoadIDs))
	for _, id := range req.LoadIDs {
		inSet[id] = true
	}
	for expenseID, r := range reversed {
		if seen[expenseID] {
			continue
		}
		expense, err := s.store.GetExpense(expenseID)
		if err != nil {
			return nil, err
		}
		if expense.DriverID != req.DriverID {
			continue
		}
		if !expense.IsFloating() && !inSet[expense.LoadID] {
			continue
		}
		applyReversalCopy(expense, r)
		eligible = append(eligible, expense)
	}

	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].CreatedAt.Equal(eligible[j].CreatedAt) {
			return eligible[i].ID < eligible[j].ID
		}
		return eligible[i].CreatedAt.Before(eligible[j].CreatedAt)
	})
	return eligible, nil
}

func applyReversalCopy(expense *models.Expense, r models.LedgerDelta) {
	ledger := expense.Ledger
	ledger.AmountPaid = r.NewAmountPaid
	ledger.RemainingBalance = ledger.TotalAmount.Sub(r.NewAmountPaid)
	if ledger.RemainingBalance.IsZero() {
		ledger.Status = models.LedgerStatusSettled
	} else {
		ledger.Status = models.LedgerStatusActive
	}
}
