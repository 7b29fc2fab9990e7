package services

import (
	"github.com/shopspring/decimal"

	"github.com/haulworks/haulbooks-backend/internal/models"
	"github.com/haulworks/haulbooks-backend/internal/storage"
	"github.com/haulworks/haulbooks-backend/internal/utils"
)

// ReportService produces period financial summaries.
type ReportService struct {
	store storage.Store
	calc  *PayCalculator
}

// NewReportService creates a new report service
func NewReportService(store storage.Store, calc *PayCalculator) *ReportService {
	return &ReportService{store: store, calc: calc}
}

// RevenueSummary is recognized revenue for one accounting period
type RevenueSummary struct {
	Period            string          `json:"period"`
	RecognizedRevenue decimal.Decimal `json:"recognized_revenue"`
	LoadCount         int             `json:"load_count"`
}

// RevenueByPeriod sums recognized revenue over delivered loads whose
// recognition date falls in the period. Owner-operator loads contribute
// only the commission; the rest of their rate is pass-through money and
// never company revenue.
func (r *ReportService) RevenueByPeriod(period string) (*RevenueSummary, error) {
	if _, _, err := utils.PeriodRange(period); err != nil {
		return nil, err
	}

	loads, err := r.store.GetLoadsByStatus(models.LoadStatusDelivered)
	if err != nil {
		return nil, err
	}

	summary := &RevenueSummary{Period: period, RecognizedRevenue: decimal.Zero}
	for _, load := range loads {
		if utils.PeriodOf(utils.RecognitionDate(load)) != period {
			continue
		}
		summary.RecognizedRevenue = summary.RecognizedRevenue.Add(r.calc.RecognizedRevenue(load))
		summary.LoadCount++
	}
	summary.RecognizedRevenue = utils.Round2(summary.RecognizedRevenue)
	return summary, nil
}
