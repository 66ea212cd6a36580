package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/webstore-backoffice/internal/domain/discount"
	"github.com/xenking/webstore-backoffice/internal/domain/product"
)

type discountDTO struct {
	ID         string           `json:"id"`
	ProductID  string           `json:"product_id"`
	Percentage *decimal.Decimal `json:"discount_percentage,omitempty"`
	Amount     *decimal.Decimal `json:"discount_amount,omitempty"`
	StartDate  time.Time        `json:"start_date"`
	EndDate    time.Time        `json:"end_date"`
	IsActive   bool             `json:"is_active"`
	CreatedBy  string           `json:"created_by,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

func toDiscountDTO(d *discount.Discount) discountDTO {
	return discountDTO{
		ID:         d.ID,
		ProductID:  d.ProductID,
		Percentage: d.Percentage,
		Amount:     d.Amount,
		StartDate:  d.StartDate,
		EndDate:    d.EndDate,
		IsActive:   d.Active,
		CreatedBy:  d.CreatedBy,
		CreatedAt:  d.CreatedAt,
	}
}

type createDiscountRequest struct {
	ProductID  string           `json:"product_id" validate:"required,uuid"`
	Percentage *decimal.Decimal `json:"discount_percentage"`
	Amount     *decimal.Decimal `json:"discount_amount"`
	StartDate  time.Time        `json:"start_date" validate:"required"`
	EndDate    time.Time        `json:"end_date" validate:"required"`
}

func (h *Handler) listDiscounts(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	filter := discount.ListFilter{Page: page, Limit: limit}
	if raw := r.URL.Query().Get("active"); raw != "" {
		active := raw == "true"
		filter.Active = &active
	}

	discounts, total, err := h.discounts.List(r.Context(), filter)
	if err != nil {
		serverError(w, r, err)
		return
	}

	out := make([]discountDTO, len(discounts))
	for i := range discounts {
		out[i] = toDiscountDTO(&discounts[i])
	}
	respondList(w, out, total, page, limit)
}

func (h *Handler) getDiscount(w http.ResponseWriter, r *http.Request) {
	d, err := h.discounts.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, discount.ErrNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		serverError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toDiscountDTO(d))
}

func (h *Handler) listProductDiscounts(w http.ResponseWriter, r *http.Request) {
	var active *bool
	if raw := r.URL.Query().Get("active"); raw != "" {
		v := raw == "true"
		active = &v
	}

	discounts, err := h.discounts.ListByProduct(r.Context(), chi.URLParam(r, "id"), active)
	if err != nil {
		serverError(w, r, err)
		return
	}

	out := make([]discountDTO, len(discounts))
	for i := range discounts {
		out[i] = toDiscountDTO(&discounts[i])
	}
	respond(w, http.StatusOK, map[string]any{"data": out})
}

func (h *Handler) createDiscount(w http.ResponseWriter, r *http.Request) {
	var req createDiscountRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	d := &discount.Discount{
		ID:         newID(),
		ProductID:  req.ProductID,
		Percentage: req.Percentage,
		Amount:     req.Amount,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Active:     true,
		CreatedBy:  identityFrom(r.Context()).UserID,
	}
	if err := d.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.discounts.Create(r.Context(), d); err != nil {
		switch {
		case errors.Is(err, product.ErrNotFound):
			respondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, discount.ErrOverlap):
			respondError(w, http.StatusConflict, err.Error())
		default:
			serverError(w, r, err)
		}
		return
	}
	respond(w, http.StatusCreated, toDiscountDTO(d))
}

func (h *Handler) deactivateDiscount(w http.ResponseWriter, r *http.Request) {
	if err := h.discounts.Deactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, discount.ErrNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		serverError(w, r, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}
