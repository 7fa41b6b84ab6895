package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"realestate-crm/internal/adapters/persistence/models"
	"realestate-crm/internal/adapters/persistence/repositories"
	"realestate-crm/internal/core/domain"
	"realestate-crm/internal/core/finance"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ClosingService rolls completed transactions up into the monthly
// accounting record and the per-consultant revenue columns. Months are
// calendar months of the office location.
type ClosingService struct {
	repos    *repositories.Set
	location *time.Location
	logger   *logrus.Logger
}

// NewClosingService creates a new closing service. A nil location means UTC.
func NewClosingService(repos *repositories.Set, location *time.Location, logger *logrus.Logger) *ClosingService {
	if location == nil {
		location = time.UTC
	}
	return &ClosingService{repos: repos, location: location, logger: logger}
}

// CloseMonthInput represents close month input
type CloseMonthInput struct {
	Month int `json:"month" validate:"required,min=1,max=12"`
	Year  int `json:"year" validate:"required,min=2000,max=2100"`
}

// CloseMonth writes revenue and office share for one month into its
// accounting record. Manually entered expense columns are preserved.
func (s *ClosingService) CloseMonth(ctx context.Context, month, year int) (*models.AccountingRecord, error) {
	var bad []string
	if month < 1 || month > 12 {
		bad = append(bad, "month")
	}
	if year < 2000 || year > 2100 {
		bad = append(bad, "year")
	}
	if len(bad) > 0 {
		return nil, domain.Validation("month must be within 1..12 and year within 2000..2100", bad...)
	}

	// Stored times are UTC; query with UTC bounds of the local month
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.location)
	from := start.UTC()
	to := start.AddDate(0, 1, 0).UTC()

	txs, _, err := s.repos.Transactions.List(ctx, repositories.ListFilter{
		Status:     domain.StatusCompleted,
		DateColumn: "transaction_date",
		From:       &from,
		To:         &to,
	})
	if err != nil {
		return nil, domain.Internal(err)
	}

	shares, err := s.sharePercents(ctx)
	if err != nil {
		return nil, err
	}

	revenue, office := decimal.Zero, decimal.Zero
	for _, summary := range finance.SummarizeConsultantRevenue(transactionFacts(txs), shares) {
		revenue = revenue.Add(summary.Revenue)
		office = office.Add(summary.OfficeShare)
	}

	record, err := s.repos.Accounting.GetByPeriod(ctx, month, year)
	isNew := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !isNew {
		return nil, domain.Internal(err)
	}
	if isNew {
		record = &models.AccountingRecord{Month: month, Year: year}
	}

	record.TotalRevenue = finance.Round2(revenue)
	record.OfficeShare = finance.Round2(office)
	applyAccountingTotals(record)

	if isNew {
		err = s.repos.Accounting.Create(ctx, record)
	} else {
		err = s.repos.Accounting.Update(ctx, record)
	}
	if err != nil {
		return nil, storeError(domain.KindAccounting, err)
	}

	s.logger.WithFields(logrus.Fields{
		"period":       fmt.Sprintf("%02d/%d", month, year),
		"transactions": len(txs),
		"revenue":      record.TotalRevenue.StringFixed(2),
	}).Info("month closed")
	return record, nil
}

// ClosePreviousMonth closes the month before the one now falls in, as seen
// from the office location
func (s *ClosingService) ClosePreviousMonth(ctx context.Context, now time.Time) (*models.AccountingRecord, error) {
	local := now.In(s.location)
	prev := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, s.location).AddDate(0, -1, 0)
	return s.CloseMonth(ctx, int(prev.Month()), prev.Year())
}

// RefreshConsultantRevenue recomputes every user's revenue columns from all
// completed transactions. Running it twice gives the same result.
func (s *ClosingService) RefreshConsultantRevenue(ctx context.Context) (int, error) {
	users, _, err := s.repos.Users.List(ctx, repositories.ListFilter{})
	if err != nil {
		return 0, domain.Internal(err)
	}

	txs, _, err := s.repos.Transactions.List(ctx, repositories.ListFilter{Status: domain.StatusCompleted})
	if err != nil {
		return 0, domain.Internal(err)
	}

	shares := make(map[string]decimal.Decimal, len(users))
	for _, u := range users {
		shares[u.ID] = u.RevenueSharePercent
	}

	byConsultant := make(map[string]finance.RevenueSummary)
	for _, summary := range finance.SummarizeConsultantRevenue(transactionFacts(txs), shares) {
		byConsultant[summary.ConsultantID] = summary
	}

	for _, u := range users {
		summary := byConsultant[u.ID]
		err := s.repos.Users.UpdateRevenue(ctx, u.ID, map[string]interface{}{
			"revenue":                  finance.Round2(summary.Revenue),
			"revenue_office_share":     finance.Round2(summary.OfficeShare),
			"revenue_consultant_share": finance.Round2(summary.ConsultantShare),
			"transaction_count":        summary.TransactionCount,
		})
		if err != nil {
			return 0, domain.Internal(err)
		}
	}

	s.logger.WithField("users", len(users)).Info("consultant revenue refreshed")
	return len(users), nil
}

func (s *ClosingService) sharePercents(ctx context.Context) (map[string]decimal.Decimal, error) {
	users, _, err := s.repos.Users.List(ctx, repositories.ListFilter{})
	if err != nil {
		return nil, domain.Internal(err)
	}
	shares := make(map[string]decimal.Decimal, len(users))
	for _, u := range users {
		shares[u.ID] = u.RevenueSharePercent
	}
	return shares, nil
}
