package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/webstore-backoffice/internal/domain/order"
)

type lineItemDTO struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountApplied decimal.Decimal `json:"discount_applied"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

type orderDTO struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"order_number"`
	ClientID        string          `json:"client_id"`
	ClientFirstName string          `json:"client_first_name,omitempty"`
	ClientLastName  string          `json:"client_last_name,omitempty"`
	ClientEmail     string          `json:"client_email,omitempty"`
	OrderDate       time.Time       `json:"order_date"`
	Status          string          `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ShippingAddress string          `json:"shipping_address,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	Items           []lineItemDTO   `json:"items,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func toOrderDTO(o *order.Order) orderDTO {
	dto := orderDTO{
		ID:              o.ID,
		OrderNumber:     o.Number,
		ClientID:        o.ClientID,
		ClientFirstName: o.Client.FirstName,
		ClientLastName:  o.Client.LastName,
		ClientEmail:     o.Client.Email,
		OrderDate:       o.Date,
		Status:          string(o.Status),
		TotalAmount:     o.TotalAmount,
		ShippingAddress: o.ShippingAddress,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, it := range o.Items {
		dto.Items = append(dto.Items, lineItemDTO{
			ID:              it.ID,
			ProductID:       it.ProductID,
			ProductName:     it.ProductName,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			DiscountApplied: it.DiscountApplied,
			Subtotal:        it.Subtotal,
		})
	}
	return dto
}

type createOrderRequest struct {
	ClientID        string                   `json:"client_id" validate:"required,uuid"`
	Items           []createOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress string                   `json:"shipping_address" validate:"max=255"`
	Notes           string                   `json:"notes" validate:"max=1000"`
}

type createOrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed processing shipped delivered cancelled"`
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	filter := order.ListFilter{Page: page, Limit: limit}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := order.Status(raw)
		if !status.Valid() {
			respondError(w, http.StatusBadRequest, "unknown status "+raw)
			return
		}
		filter.Status = &status
	}

	orders, total, err := h.orders.List(r.Context(), filter)
	if err != nil {
		serverError(w, r, err)
		return
	}
	respondOrderList(w, orders, total, page, limit)
}

func (h *Handler) listClientOrders(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	orders, total, err := h.orders.ListByClient(r.Context(), chi.URLParam(r, "id"), page, limit)
	if err != nil {
		serverError(w, r, err)
		return
	}
	respondOrderList(w, orders, total, page, limit)
}

func respondOrderList(w http.ResponseWriter, orders []order.Order, total, page, limit int) {
	out := make([]orderDTO, len(orders))
	for i := range orders {
		out[i] = toOrderDTO(&orders[i])
	}
	respondList(w, out, total, page, limit)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		serverError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toOrderDTO(o))
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	items := make([]order.ItemRequest, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.ItemRequest{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	o, err := h.orders.Create(r.Context(), identityFrom(r.Context()).UserID, order.CreateRequest{
		ClientID:        req.ClientID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
	})
	if err != nil {
		mapOrderError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, toOrderDTO(o))
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), order.Status(req.Status))
	if err != nil {
		mapOrderError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toOrderDTO(o))
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		mapOrderError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toOrderDTO(o))
}

// mapOrderError translates the order workflow's error taxonomy to HTTP
// statuses: missing entities to 404, bad line items to 422, stock and
// transition conflicts to 409.
func mapOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound *order.ProductNotFoundError
		badQty   *order.InvalidQuantityError
		noStock  *order.InsufficientStockError
		badMove  *order.InvalidTransitionError
	)
	switch {
	case errors.Is(err, order.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrClientNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrEmptyItems):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFound):
		respondError(w, http.StatusUnprocessableEntity, notFound.Error())
	case errors.As(err, &badQty):
		respondError(w, http.StatusUnprocessableEntity, badQty.Error())
	case errors.As(err, &noStock):
		respondError(w, http.StatusConflict, noStock.Error())
	case errors.As(err, &badMove):
		respondError(w, http.StatusConflict, badMove.Error())
	case errors.Is(err, order.ErrStatusChanged):
		respondError(w, http.StatusConflict, err.Error())
	default:
		serverError(w, r, err)
	}
}
