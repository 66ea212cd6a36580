package report

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	days          []DailyEarnings
	lowThreshold  int
	rangeStart    time.Time
	rangeEnd      time.Time
	daily         DailyEarnings
	monthly       MonthlyEarnings
	topProducts   []TopProduct
	categorySales []DimensionSales
	brandSales    []DimensionSales
}

func (s *stubRepo) DailyEarnings(_ context.Context, _ time.Time) (*DailyEarnings, error) {
	return &s.daily, nil
}

func (s *stubRepo) MonthlyEarnings(_ context.Context, _ int, _ time.Month) (*MonthlyEarnings, error) {
	return &s.monthly, nil
}

func (s *stubRepo) EarningsByDay(_ context.Context, start, end time.Time) ([]DailyEarnings, error) {
	s.rangeStart, s.rangeEnd = start, end
	return s.days, nil
}

func (s *stubRepo) TopProducts(_ context.Context, _ int) ([]TopProduct, error) {
	return s.topProducts, nil
}

func (s *stubRepo) SalesByCategory(_ context.Context) ([]DimensionSales, error) {
	return s.categorySales, nil
}

func (s *stubRepo) SalesByBrand(_ context.Context) ([]DimensionSales, error) {
	return s.brandSales, nil
}

func (s *stubRepo) LowStock(_ context.Context, threshold int) ([]LowStockProduct, error) {
	s.lowThreshold = threshold
	return nil, nil
}

func TestRange_SumsDailyTotals(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 6)
	repo := &stubRepo{days: []DailyEarnings{
		{Date: start, TotalOrders: 2, TotalEarnings: decimal.RequireFromString("30.50")},
		{Date: start.AddDate(0, 0, 3), TotalOrders: 1, TotalEarnings: decimal.RequireFromString("9.50")},
	}}
	svc := NewService(repo)

	out, err := svc.Range(context.Background(), start, end)
	require.NoError(t, err)

	assert.Equal(t, start, repo.rangeStart)
	assert.Equal(t, end, repo.rangeEnd)
	assert.Equal(t, 3, out.TotalOrders)
	assert.True(t, out.TotalEarnings.Equal(decimal.RequireFromString("40.00")),
		"total %s", out.TotalEarnings)
	assert.Len(t, out.Days, 2)
}

func TestRange_InvertedBoundsRejected(t *testing.T) {
	svc := NewService(&stubRepo{})
	start := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)

	_, err := svc.Range(context.Background(), start, start.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestRange_EmptyRangeHasZeroTotals(t *testing.T) {
	svc := NewService(&stubRepo{})
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	out, err := svc.Range(context.Background(), day, day)
	require.NoError(t, err)
	assert.Zero(t, out.TotalOrders)
	assert.True(t, out.TotalEarnings.IsZero())
}

func TestLowStock_DefaultThreshold(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	_, err := svc.LowStock(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, defaultLowStockThreshold, repo.lowThreshold)

	_, err = svc.LowStock(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, repo.lowThreshold)
}
