// Package report provides read-only earnings rollups over completed orders.
// Only orders in a stock-counting status (confirmed, processing, shipped,
// delivered) contribute to earnings.
package report

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidRange is returned when a date range ends before it starts.
var ErrInvalidRange = errors.New("start date must not be after end date")

// DailyEarnings is the order count and revenue for one calendar day.
type DailyEarnings struct {
	Date          time.Time
	TotalOrders   int
	TotalEarnings decimal.Decimal
}

// MonthlyEarnings is the order count and revenue for one calendar month.
type MonthlyEarnings struct {
	Year          int
	Month         time.Month
	TotalOrders   int
	TotalEarnings decimal.Decimal
}

// TopProduct is a best-seller row: units sold and revenue across counted
// orders.
type TopProduct struct {
	ProductID string
	Name      string
	UnitsSold int
	Revenue   decimal.Decimal
}

// Summary bundles today's and this month's earnings with the current
// best-sellers for the dashboard landing view.
type Summary struct {
	Today       DailyEarnings
	ThisMonth   MonthlyEarnings
	TopProducts []TopProduct
}

// RangeEarnings is the per-day earnings series over a date range plus the
// grand totals across it.
type RangeEarnings struct {
	StartDate     time.Time
	EndDate       time.Time
	Days          []DailyEarnings
	TotalOrders   int
	TotalEarnings decimal.Decimal
}

// DimensionSales is revenue grouped by one catalog dimension entry, such as
// a category or a brand.
type DimensionSales struct {
	ID        int
	Name      string
	Orders    int
	UnitsSold int
	Revenue   decimal.Decimal
}

// LowStockProduct is an active product whose derived availability is at or
// below the requested threshold.
type LowStockProduct struct {
	ProductID string
	Name      string
	Quantity  int
	Available int
	Category  string
	Brand     string
}

// Repository defines the aggregation queries.
type Repository interface {
	DailyEarnings(ctx context.Context, day time.Time) (*DailyEarnings, error)
	MonthlyEarnings(ctx context.Context, year int, month time.Month) (*MonthlyEarnings, error)
	// EarningsByDay buckets counted orders per calendar day within
	// [start, end]. Days without orders produce no row.
	EarningsByDay(ctx context.Context, start, end time.Time) ([]DailyEarnings, error)
	TopProducts(ctx context.Context, limit int) ([]TopProduct, error)
	SalesByCategory(ctx context.Context) ([]DimensionSales, error)
	SalesByBrand(ctx context.Context) ([]DimensionSales, error)
	LowStock(ctx context.Context, threshold int) ([]LowStockProduct, error)
}

// Service exposes the reporting reads.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a reporting Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Daily returns earnings for the given day (today when zero).
func (s *Service) Daily(ctx context.Context, day time.Time) (*DailyEarnings, error) {
	if day.IsZero() {
		day = s.now()
	}
	return s.repo.DailyEarnings(ctx, day)
}

// Monthly returns earnings for the given month (the current month when
// year or month is zero).
func (s *Service) Monthly(ctx context.Context, year int, month time.Month) (*MonthlyEarnings, error) {
	if year == 0 || month == 0 {
		now := s.now()
		year, month = now.Year(), now.Month()
	}
	return s.repo.MonthlyEarnings(ctx, year, month)
}

// Range aggregates earnings per day over [start, end] and totals them.
func (s *Service) Range(ctx context.Context, start, end time.Time) (*RangeEarnings, error) {
	if end.Before(start) {
		return nil, ErrInvalidRange
	}

	days, err := s.repo.EarningsByDay(ctx, start, end)
	if err != nil {
		return nil, err
	}

	out := RangeEarnings{
		StartDate:     start,
		EndDate:       end,
		Days:          days,
		TotalEarnings: decimal.Zero,
	}
	for _, d := range days {
		out.TotalOrders += d.TotalOrders
		out.TotalEarnings = out.TotalEarnings.Add(d.TotalEarnings)
	}
	return &out, nil
}

// SalesByCategory returns revenue grouped by product category.
func (s *Service) SalesByCategory(ctx context.Context) ([]DimensionSales, error) {
	return s.repo.SalesByCategory(ctx)
}

// SalesByBrand returns revenue grouped by product brand.
func (s *Service) SalesByBrand(ctx context.Context) ([]DimensionSales, error) {
	return s.repo.SalesByBrand(ctx)
}

const defaultLowStockThreshold = 10

// LowStock lists active products at or below the availability threshold.
func (s *Service) LowStock(ctx context.Context, threshold int) ([]LowStockProduct, error) {
	if threshold <= 0 {
		threshold = defaultLowStockThreshold
	}
	return s.repo.LowStock(ctx, threshold)
}

// Summary fetches the three dashboard rollups concurrently. The queries are
// independent read-only aggregations, so a shared snapshot is not required.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	now := s.now()
	var out Summary

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		daily, err := s.repo.DailyEarnings(ctx, now)
		if err != nil {
			return err
		}
		out.Today = *daily
		return nil
	})
	g.Go(func() error {
		monthly, err := s.repo.MonthlyEarnings(ctx, now.Year(), now.Month())
		if err != nil {
			return err
		}
		out.ThisMonth = *monthly
		return nil
	})
	g.Go(func() error {
		top, err := s.repo.TopProducts(ctx, 5)
		if err != nil {
			return err
		}
		out.TopProducts = top
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}
