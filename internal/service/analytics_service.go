package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marketdesk/admind/internal/domain"
)

// FinanceReport is the finance analytics response: the daily rollups for the
// requested window plus window totals computed in exact decimal arithmetic.
type FinanceReport struct {
	Days             []domain.FinanceDay `json:"days"`
	TotalDeposits    decimal.Decimal     `json:"totalDeposits"`
	TotalWithdrawals decimal.Decimal     `json:"totalWithdrawals"`
	TotalRevenue     decimal.Decimal     `json:"totalRevenue"`
}

// AnalyticsService serves the finance dashboard.
type AnalyticsService struct {
	finance domain.FinanceStore
}

// NewAnalyticsService creates an AnalyticsService.
func NewAnalyticsService(finance domain.FinanceStore) *AnalyticsService {
	return &AnalyticsService{finance: finance}
}

// Finance returns the rollups for the trailing days window. days is clamped
// to [1, 365]; the default window is 30 days.
func (s *AnalyticsService) Finance(ctx context.Context, days int) (FinanceReport, error) {
	switch {
	case days <= 0:
		days = 30
	case days > 365:
		days = 365
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	rows, err := s.finance.ListDays(ctx, since)
	if err != nil {
		return FinanceReport{}, fmt.Errorf("analytics_service: finance: %w", err)
	}

	report := FinanceReport{Days: rows}
	for _, d := range rows {
		report.TotalDeposits = report.TotalDeposits.Add(d.Deposits)
		report.TotalWithdrawals = report.TotalWithdrawals.Add(d.Withdrawals)
		report.TotalRevenue = report.TotalRevenue.Add(d.Revenue)
	}
	return report, nil
}
