package services

import (
	"log"

	"github.com/shopspring/decimal"

	"github.com/haulworks/haulbooks-backend/internal/models"
	"github.com/haulworks/haulbooks-backend/internal/utils"
)

// SettlementPay is company-driver pay that funds a settlement's
// deduction pool.
type SettlementPay decimal.Decimal

// PassThroughPay is an owner-operator's own money crossing our books.
// It is a distinct type from SettlementPay on purpose: it must never be
// summed into a company expense or deduction total, and the compiler
// enforces that it can't be by accident.
type PassThroughPay decimal.Decimal

// PayResult is the outcome of computing one load's revenue and pay
type PayResult struct {
	RecognizedRevenue decimal.Decimal

	SettlementPay  SettlementPay
	PassThroughPay PassThroughPay

	// MissingProfile is set when no driver profile exists for a load
	// that needs a computed pay rate. Pay is an explicit zero, never a
	// guessed default percentage.
	MissingProfile bool
}

// PayCalculator computes recognized revenue and driver pay per load.
// Pure: no storage access, no side effects.
type PayCalculator struct {
	commissionRate decimal.Decimal
}

// DefaultCommissionRate is the company's share of an owner-operator's
// load rate.
var DefaultCommissionRate = decimal.NewFromFloat(0.12)

// NewPayCalculator creates a calculator with the given owner-operator
// commission rate (e.g. 0.12 for 12%).
func NewPayCalculator(commissionRate decimal.Decimal) *PayCalculator {
	if commissionRate.IsZero() {
		commissionRate = DefaultCommissionRate
	}
	return &PayCalculator{commissionRate: commissionRate}
}

// RevenueAndPay computes one load's recognized revenue and driver pay.
// profile may be nil; the result then carries the MissingProfile flag
// where a pay rate would have been needed.
func (c *PayCalculator) RevenueAndPay(load *models.Load, profile *models.Driver) PayResult {
	if load.DriverType == models.DriverTypeOwnerOperator {
		// Company earns only the commission; the rest is the
		// owner-operator's own income passing through.
		revenue := utils.Round2(load.Rate.Mul(c.commissionRate))
		passThrough := utils.Round2(load.Rate.Sub(revenue))
		return PayResult{
			RecognizedRevenue: revenue,
			PassThroughPay:    PassThroughPay(passThrough),
		}
	}

	// company_driver and owner_as_driver: full gross is recognized
	result := PayResult{RecognizedRevenue: utils.Round2(load.Rate)}

	// A pay snapshot taken at delivery always wins over the current
	// profile, so delivered pay never drifts.
	if load.StoredDriverPay != nil {
		result.SettlementPay = SettlementPay(utils.Round2(*load.StoredDriverPay))
		return result
	}

	if profile == nil {
		log.Printf("paycalc: no driver profile for load %s (driver %s), pay set to 0", load.ID, load.DriverID)
		result.MissingProfile = true
		return result
	}

	result.SettlementPay = SettlementPay(utils.Round2(load.Rate.Mul(profile.PayRate)))
	return result
}

// RecognizedRevenue computes only the revenue side, for period reports.
func (c *PayCalculator) RecognizedRevenue(load *models.Load) decimal.Decimal {
	if load.DriverType == models.DriverTypeOwnerOperator {
		return utils.Round2(load.Rate.Mul(c.commissionRate))
	}
	return utils.Round2(load.Rate)
}

// SnapshotDriverPay persists a load's pay exactly once, at the moment it
// transitions to delivered. A snapshot that is already set is left alone.
func SnapshotDriverPay(load *models.Load, profile *models.Driver, calc *PayCalculator) {
	if load.StoredDriverPay != nil {
		return
	}
	if !models.RequiresPayRate(load.DriverType) {
		return
	}
	result := calc.RevenueAndPay(load, profile)
	if result.MissingProfile {
		return
	}
	pay := decimal.Decimal(result.SettlementPay)
	load.StoredDriverPay = &pay
}
