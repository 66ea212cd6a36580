package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/webstore-backoffice/internal/domain/product"
)

type productDTO struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price"`
	Quantity          int             `json:"quantity"`
	AvailableQuantity int             `json:"available_quantity"`
	IsActive          bool            `json:"is_active"`
	HasDiscount       bool            `json:"has_discount"`
	DiscountedPrice   decimal.Decimal `json:"discounted_price"`
	Category          string          `json:"category,omitempty"`
	Brand             string          `json:"brand,omitempty"`
	Gender            string          `json:"gender,omitempty"`
	Color             string          `json:"color,omitempty"`
	Size              string          `json:"size,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func toProductDTO(v *product.View) productDTO {
	return productDTO{
		ID:                v.ID,
		Name:              v.Name,
		Description:       v.Description,
		Price:             v.Price,
		Quantity:          v.Quantity,
		AvailableQuantity: v.Available,
		IsActive:          v.Active,
		HasDiscount:       v.HasDiscount,
		DiscountedPrice:   v.DiscountedPrice,
		Category:          v.Refs.Category,
		Brand:             v.Refs.Brand,
		Gender:            v.Refs.Gender,
		Color:             v.Refs.Color,
		Size:              v.Refs.Size,
		CreatedAt:         v.CreatedAt,
		UpdatedAt:         v.UpdatedAt,
	}
}

type createProductRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	Quantity    int             `json:"quantity" validate:"gte=0"`
	CategoryID  int             `json:"category_id"`
	BrandID     int             `json:"brand_id"`
	GenderID    int             `json:"gender_id"`
	ColorID     int             `json:"color_id"`
	SizeID      int             `json:"size_id"`
}

type updateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,max=255"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Quantity    *int             `json:"quantity" validate:"omitempty,gte=0"`
	IsActive    *bool            `json:"is_active"`
	CategoryID  *int             `json:"category_id"`
	BrandID     *int             `json:"brand_id"`
	GenderID    *int             `json:"gender_id"`
	ColorID     *int             `json:"color_id"`
	SizeID      *int             `json:"size_id"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	filter := product.ListFilter{Page: page, Limit: limit}
	if raw := r.URL.Query().Get("active"); raw != "" {
		active := raw == "true"
		filter.Active = &active
	}

	views, total, err := h.products.List(r.Context(), filter)
	if err != nil {
		serverError(w, r, err)
		return
	}

	out := make([]productDTO, len(views))
	for i := range views {
		out[i] = toProductDTO(&views[i])
	}
	respondList(w, out, total, page, limit)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	v, err := h.products.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		serverError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toProductDTO(v))
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Price.IsNegative() {
		respondError(w, http.StatusBadRequest, "price must not be negative")
		return
	}

	p := &product.Product{
		ID:          newID(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Active:      true,
		Refs: product.Refs{
			CategoryID: req.CategoryID,
			BrandID:    req.BrandID,
			GenderID:   req.GenderID,
			ColorID:    req.ColorID,
			SizeID:     req.SizeID,
		},
	}
	if err := h.products.Create(r.Context(), p); err != nil {
		if errors.Is(err, product.ErrUnknownReference) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		serverError(w, r, err)
		return
	}

	v, err := h.products.GetByID(r.Context(), p.ID)
	if err != nil {
		serverError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, toProductDTO(v))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Price != nil && req.Price.IsNegative() {
		respondError(w, http.StatusBadRequest, "price must not be negative")
		return
	}

	v, err := h.products.Update(r.Context(), chi.URLParam(r, "id"), product.Patch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Active:      req.IsActive,
		CategoryID:  req.CategoryID,
		BrandID:     req.BrandID,
		GenderID:    req.GenderID,
		ColorID:     req.ColorID,
		SizeID:      req.SizeID,
	})
	if err != nil {
		switch {
		case errors.Is(err, product.ErrNotFound):
			respondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, product.ErrUnknownReference):
			respondError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			serverError(w, r, err)
		}
		return
	}
	respond(w, http.StatusOK, toProductDTO(v))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		serverError(w, r, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}
