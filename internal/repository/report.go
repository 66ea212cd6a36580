package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/webstore-backoffice/internal/domain/report"
)

// ReportRepository implements report.Repository on PostgreSQL. All rollups
// count only orders in a stock-counting status; pending and cancelled orders
// never contribute to earnings.
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository creates a ReportRepository.
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// DailyEarnings aggregates orders placed on the given calendar day.
func (r *ReportRepository) DailyEarnings(ctx context.Context, day time.Time) (*report.DailyEarnings, error) {
	out := report.DailyEarnings{
		Date: time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location()),
	}
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_amount), 0)
		FROM orders
		WHERE status IN `+stockCountingStatuses+`
		  AND order_date >= $1
		  AND order_date < $1 + INTERVAL '1 day'`,
		out.Date,
	).Scan(&out.TotalOrders, &out.TotalEarnings)
	if err != nil {
		return nil, errors.Wrap(err, "query daily earnings")
	}
	return &out, nil
}

// MonthlyEarnings aggregates orders placed in the given calendar month.
func (r *ReportRepository) MonthlyEarnings(ctx context.Context, year int, month time.Month) (*report.MonthlyEarnings, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	out := report.MonthlyEarnings{Year: year, Month: month}
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_amount), 0)
		FROM orders
		WHERE status IN `+stockCountingStatuses+`
		  AND order_date >= $1
		  AND order_date < $1 + INTERVAL '1 month'`,
		start,
	).Scan(&out.TotalOrders, &out.TotalEarnings)
	if err != nil {
		return nil, errors.Wrap(err, "query monthly earnings")
	}
	return &out, nil
}

// EarningsByDay buckets counted orders per calendar day within [start, end].
func (r *ReportRepository) EarningsByDay(ctx context.Context, start, end time.Time) ([]report.DailyEarnings, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT date_trunc('day', order_date), COUNT(*), SUM(total_amount)
		FROM orders
		WHERE status IN `+stockCountingStatuses+`
		  AND order_date >= $1
		  AND order_date < $2 + INTERVAL '1 day'
		GROUP BY 1
		ORDER BY 1`,
		start, end,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query earnings by day")
	}
	defer rows.Close()

	var out []report.DailyEarnings
	for rows.Next() {
		var d report.DailyEarnings
		if err := rows.Scan(&d.Date, &d.TotalOrders, &d.TotalEarnings); err != nil {
			return nil, errors.Wrap(err, "scan daily earnings")
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SalesByCategory returns revenue grouped by product category.
func (r *ReportRepository) SalesByCategory(ctx context.Context) ([]report.DimensionSales, error) {
	return r.salesByDimension(ctx, "categories", "category_id")
}

// SalesByBrand returns revenue grouped by product brand.
func (r *ReportRepository) SalesByBrand(ctx context.Context) ([]report.DimensionSales, error) {
	return r.salesByDimension(ctx, "brands", "brand_id")
}

// salesByDimension groups counted line items by one reference-data table.
// table and fk come only from the two exported wrappers above.
func (r *ReportRepository) salesByDimension(ctx context.Context, table, fk string) ([]report.DimensionSales, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.name, COUNT(DISTINCT o.id), SUM(oi.quantity), SUM(oi.subtotal)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		JOIN `+table+` t ON t.id = p.`+fk+`
		WHERE o.status IN `+stockCountingStatuses+`
		GROUP BY t.id, t.name
		ORDER BY SUM(oi.subtotal) DESC`,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "query sales by %s", table)
	}
	defer rows.Close()

	var out []report.DimensionSales
	for rows.Next() {
		var ds report.DimensionSales
		if err := rows.Scan(&ds.ID, &ds.Name, &ds.Orders, &ds.UnitsSold, &ds.Revenue); err != nil {
			return nil, errors.Wrapf(err, "scan sales by %s", table)
		}
		out = append(out, ds)
	}
	return out, rows.Err()
}

// LowStock lists active products whose derived availability is at or below
// the threshold, lowest first.
func (r *ReportRepository) LowStock(ctx context.Context, threshold int) ([]report.LowStockProduct, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, quantity, category, brand, available
		FROM (
		    SELECT p.id, p.name, p.quantity,
		           COALESCE(cat.name, '') AS category,
		           COALESCE(b.name, '') AS brand,
		           p.quantity - COALESCE((
		               SELECT SUM(oi.quantity)
		               FROM order_items oi
		               JOIN orders o ON o.id = oi.order_id
		               WHERE oi.product_id = p.id
		                 AND o.status IN `+stockCountingStatuses+`
		           ), 0) AS available
		    FROM products p
		    LEFT JOIN categories cat ON cat.id = p.category_id
		    LEFT JOIN brands b ON b.id = p.brand_id
		    WHERE p.is_active
		) stocked
		WHERE available <= $1
		ORDER BY available`,
		threshold,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query low stock")
	}
	defer rows.Close()

	var out []report.LowStockProduct
	for rows.Next() {
		var lp report.LowStockProduct
		if err := rows.Scan(&lp.ProductID, &lp.Name, &lp.Quantity, &lp.Category, &lp.Brand, &lp.Available); err != nil {
			return nil, errors.Wrap(err, "scan low stock product")
		}
		out = append(out, lp)
	}
	return out, rows.Err()
}

// TopProducts returns the best sellers by units sold across counted orders.
func (r *ReportRepository) TopProducts(ctx context.Context, limit int) ([]report.TopProduct, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, SUM(oi.quantity), SUM(oi.subtotal)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		WHERE o.status IN `+stockCountingStatuses+`
		GROUP BY p.id, p.name
		ORDER BY SUM(oi.quantity) DESC, SUM(oi.subtotal) DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query top products")
	}
	defer rows.Close()

	var out []report.TopProduct
	for rows.Next() {
		var tp report.TopProduct
		if err := rows.Scan(&tp.ProductID, &tp.Name, &tp.UnitsSold, &tp.Revenue); err != nil {
			return nil, errors.Wrap(err, "scan top product")
		}
		out = append(out, tp)
	}
	return out, rows.Err()
}
