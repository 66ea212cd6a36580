package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/webstore-backoffice/internal/domain/report"
)

type dailyEarningsDTO struct {
	Date          string          `json:"date"`
	TotalOrders   int             `json:"total_orders"`
	TotalEarnings decimal.Decimal `json:"total_earnings"`
}

type monthlyEarningsDTO struct {
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	TotalOrders   int             `json:"total_orders"`
	TotalEarnings decimal.Decimal `json:"total_earnings"`
}

type topProductDTO struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitsSold int             `json:"units_sold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

func toDailyDTO(d *report.DailyEarnings) dailyEarningsDTO {
	return dailyEarningsDTO{
		Date:          d.Date.Format(time.DateOnly),
		TotalOrders:   d.TotalOrders,
		TotalEarnings: d.TotalEarnings,
	}
}

func toMonthlyDTO(m *report.MonthlyEarnings) monthlyEarningsDTO {
	return monthlyEarningsDTO{
		Year:          m.Year,
		Month:         int(m.Month),
		TotalOrders:   m.TotalOrders,
		TotalEarnings: m.TotalEarnings,
	}
}

// dailyEarnings serves GET /reports/earnings/daily?date=2026-08-28, defaulting
// to today.
func (h *Handler) dailyEarnings(w http.ResponseWriter, r *http.Request) {
	var day time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	d, err := h.reports.Daily(r.Context(), day)
	if err != nil {
		serverError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toDailyDTO(d))
}

// monthlyEarnings serves GET /reports/earnings/monthly?year=2026&month=8,
// defaulting to the current month.
func (h *Handler) monthlyEarnings(w http.ResponseWriter, r *http.Request) {
	year := queryInt(r, "year", 0)
	month := queryInt(r, "month", 0)
	if month < 0 || month > 12 {
		respondError(w, http.StatusBadRequest, "month must be 1-12")
		return
	}

	m, err := h.reports.Monthly(r.Context(), year, time.Month(month))
	if err != nil {
		serverError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toMonthlyDTO(m))
}

type rangeEarningsDTO struct {
	StartDate     string             `json:"start_date"`
	EndDate       string             `json:"end_date"`
	Days          []dailyEarningsDTO `json:"days"`
	TotalOrders   int                `json:"total_orders"`
	TotalEarnings decimal.Decimal    `json:"total_earnings"`
}

type dimensionSalesDTO struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Orders    int             `json:"total_orders"`
	UnitsSold int             `json:"units_sold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type lowStockDTO struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Available int    `json:"available_quantity"`
	Category  string `json:"category,omitempty"`
	Brand     string `json:"brand,omitempty"`
}

// rangeEarnings serves GET /reports/earnings/range?start_date=...&end_date=...
// with a per-day breakdown plus totals. Both bounds are required.
func (h *Handler) rangeEarnings(w http.ResponseWriter, r *http.Request) {
	start, err := time.Parse(time.DateOnly, r.URL.Query().Get("start_date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse(time.DateOnly, r.URL.Query().Get("end_date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		return
	}

	re, err := h.reports.Range(r.Context(), start, end)
	if err != nil {
		if errors.Is(err, report.ErrInvalidRange) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		serverError(w, r, err)
		return
	}

	days := make([]dailyEarningsDTO, len(re.Days))
	for i := range re.Days {
		days[i] = toDailyDTO(&re.Days[i])
	}
	respond(w, http.StatusOK, rangeEarningsDTO{
		StartDate:     re.StartDate.Format(time.DateOnly),
		EndDate:       re.EndDate.Format(time.DateOnly),
		Days:          days,
		TotalOrders:   re.TotalOrders,
		TotalEarnings: re.TotalEarnings,
	})
}

func (h *Handler) salesByCategory(w http.ResponseWriter, r *http.Request) {
	h.respondDimensionSales(w, r, h.reports.SalesByCategory)
}

func (h *Handler) salesByBrand(w http.ResponseWriter, r *http.Request) {
	h.respondDimensionSales(w, r, h.reports.SalesByBrand)
}

func (h *Handler) respondDimensionSales(w http.ResponseWriter, r *http.Request, fetch func(ctx context.Context) ([]report.DimensionSales, error)) {
	sales, err := fetch(r.Context())
	if err != nil {
		serverError(w, r, err)
		return
	}

	out := make([]dimensionSalesDTO, len(sales))
	for i, ds := range sales {
		out[i] = dimensionSalesDTO{
			ID:        ds.ID,
			Name:      ds.Name,
			Orders:    ds.Orders,
			UnitsSold: ds.UnitsSold,
			Revenue:   ds.Revenue,
		}
	}
	respond(w, http.StatusOK, map[string]any{"data": out})
}

// lowStockProducts serves GET /reports/products/low-stock?threshold=N.
func (h *Handler) lowStockProducts(w http.ResponseWriter, r *http.Request) {
	threshold := queryInt(r, "threshold", 0)
	if threshold < 0 {
		respondError(w, http.StatusBadRequest, "threshold must not be negative")
		return
	}

	products, err := h.reports.LowStock(r.Context(), threshold)
	if err != nil {
		serverError(w, r, err)
		return
	}

	out := make([]lowStockDTO, len(products))
	for i, p := range products {
		out[i] = lowStockDTO{
			ProductID: p.ProductID,
			Name:      p.Name,
			Quantity:  p.Quantity,
			Available: p.Available,
			Category:  p.Category,
			Brand:     p.Brand,
		}
	}
	respond(w, http.StatusOK, map[string]any{"data": out})
}

func (h *Handler) reportSummary(w http.ResponseWriter, r *http.Request) {
	s, err := h.reports.Summary(r.Context())
	if err != nil {
		serverError(w, r, err)
		return
	}

	top := make([]topProductDTO, len(s.TopProducts))
	for i, tp := range s.TopProducts {
		top[i] = topProductDTO{
			ProductID: tp.ProductID,
			Name:      tp.Name,
			UnitsSold: tp.UnitsSold,
			Revenue:   tp.Revenue,
		}
	}

	respond(w, http.StatusOK, map[string]any{
		"today":        toDailyDTO(&s.Today),
		"this_month":   toMonthlyDTO(&s.ThisMonth),
		"top_products": top,
	})
}
