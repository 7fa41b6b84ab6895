package services

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"realestate-crm/internal/core/domain"
	"realestate-crm/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func march(day int) time.Time {
	return time.Date(2024, time.March, day, 10, 0, 0, 0, time.UTC)
}

func TestCloseMonth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	closing := NewClosingService(f.repos, nil, testutil.Logger())

	// commission 3000 each; consultants keep 40%
	testutil.CreateTransaction(t, f.db, f.cons1.ID, domain.StatusCompleted, 100000, march(5))
	testutil.CreateTransaction(t, f.db, f.cons2.ID, domain.StatusCompleted, 100000, march(20))
	testutil.CreateTransaction(t, f.db, f.cons1.ID, domain.StatusPending, 100000, march(21))
	testutil.CreateTransaction(t, f.db, f.cons1.ID, domain.StatusCompleted, 100000, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC))

	rec, err := closing.CloseMonth(ctx, 3, 2024)
	require.NoError(t, err)
	assert.Equal(t, "6000.00", rec.TotalRevenue.StringFixed(2))
	assert.Equal(t, "3600.00", rec.OfficeShare.StringFixed(2))
	assert.Equal(t, "3600.00", rec.GrossProfit.StringFixed(2))

	// manual columns survive a second close
	rec.FixedExpenses = decimal.NewFromInt(1000)
	rec.Taxes = decimal.NewFromInt(100)
	require.NoError(t, f.repos.Accounting.Update(ctx, rec))

	again, err := closing.CloseMonth(ctx, 3, 2024)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, again.ID)
	assert.Equal(t, "1000.00", again.FixedExpenses.StringFixed(2))
	assert.Equal(t, "2600.00", again.GrossProfit.StringFixed(2))
	assert.Equal(t, "2500.00", again.NetProfit.StringFixed(2))
}

func TestCloseMonth_InvalidPeriod(t *testing.T) {
	f := newFixture(t)
	closing := NewClosingService(f.repos, nil, testutil.Logger())

	_, err := closing.CloseMonth(context.Background(), 13, 1999)
	derr := requireKind(t, err, domain.ErrValidation)
	assert.ElementsMatch(t, []string{"month", "year"}, derr.Fields)
}

func TestClosePreviousMonth(t *testing.T) {
	f := newFixture(t)
	closing := NewClosingService(f.repos, nil, testutil.Logger())

	rec, err := closing.ClosePreviousMonth(context.Background(), time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 12, rec.Month)
	assert.Equal(t, 2023, rec.Year)
	assert.True(t, rec.TotalRevenue.IsZero())
}

func TestClosePreviousMonth_OfficeTimezone(t *testing.T) {
	ist, err := time.LoadLocation("Europe/Istanbul")
	require.NoError(t, err)

	f := newFixture(t)
	closing := NewClosingService(f.repos, ist, testutil.Logger())

	// 00:30 on 1 October in Istanbul, still September in UTC
	testutil.CreateTransaction(t, f.db, f.cons1.ID, domain.StatusCompleted, 100000,
		time.Date(2026, time.September, 30, 21, 30, 0, 0, time.UTC))
	testutil.CreateTransaction(t, f.db, f.cons1.ID, domain.StatusCompleted, 100000,
		time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC))
	// 01:30 on 1 November in Istanbul, still October in UTC
	testutil.CreateTransaction(t, f.db, f.cons1.ID, domain.StatusCompleted, 100000,
		time.Date(2026, time.October, 31, 22, 30, 0, 0, time.UTC))

	// the monthly job fires at 02:30 local on the 1st, which is 23:30 UTC the day before
	fired := time.Date(2026, time.November, 1, 2, 30, 0, 0, ist).UTC()

	rec, err := closing.ClosePreviousMonth(context.Background(), fired)
	require.NoError(t, err)
	assert.Equal(t, 10, rec.Month)
	assert.Equal(t, 2026, rec.Year)
	assert.Equal(t, "6000.00", rec.TotalRevenue.StringFixed(2))
}

func TestRefreshConsultantRevenue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	closing := NewClosingService(f.repos, nil, testutil.Logger())

	testutil.CreateTransaction(t, f.db, f.cons1.ID, domain.StatusCompleted, 100000, march(5))
	testutil.CreateTransaction(t, f.db, f.cons1.ID, domain.StatusCompleted, 50000, march(6))
	testutil.CreateTransaction(t, f.db, f.cons2.ID, domain.StatusCancelled, 100000, march(7))

	for i := 0; i < 2; i++ {
		n, err := closing.RefreshConsultantRevenue(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	}

	u, err := f.repos.Users.GetByID(ctx, f.cons1.ID)
	require.NoError(t, err)
	assert.Equal(t, "4500.00", u.Revenue.StringFixed(2))
	assert.Equal(t, "1800.00", u.RevenueConsultantShare.StringFixed(2))
	assert.Equal(t, "2700.00", u.RevenueOfficeShare.StringFixed(2))
	assert.EqualValues(t, 2, u.TransactionCount)

	u, err = f.repos.Users.GetByID(ctx, f.cons2.ID)
	require.NoError(t, err)
	assert.True(t, u.Revenue.IsZero())
	assert.Zero(t, u.TransactionCount)
}
