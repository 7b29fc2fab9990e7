package utils

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/haulworks/haulbooks-backend/internal/models"
)

// Round2 rounds a money amount to 2 decimal places, half away from zero.
// Every amount stored or reported passes through here so the same input
// always rounds the same way.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// RecognitionDate returns the date a load's revenue is recognized on:
// the delivery date, falling back to the pickup date when delivery is
// absent. This is the canonical period-assignment rule for every report;
// computing it any other way is a defect.
func RecognitionDate(load *models.Load) time.Time {
	if load.DeliveryDate != nil {
		return *load.DeliveryDate
	}
	if load.PickupDate != nil {
		return *load.PickupDate
	}
	return load.CreatedAt
}

// PeriodOf buckets a date into its "YYYY-MM" accounting period.
func PeriodOf(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// PeriodRange returns the half-open [start, end) boundaries of a
// "YYYY-MM" period.
func PeriodRange(period string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", period)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid period %q: %w", period, err)
	}
	return start, start.AddDate(0, 1, 0), nil
}
