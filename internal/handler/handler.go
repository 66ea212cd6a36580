// Package handler exposes the back-office REST API: routing, request
// decoding and validation, and the mapping from domain errors to the JSON
// error envelope.
package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/webstore-backoffice/internal/domain/auth"
	"github.com/xenking/webstore-backoffice/internal/domain/client"
	"github.com/xenking/webstore-backoffice/internal/domain/discount"
	"github.com/xenking/webstore-backoffice/internal/domain/order"
	"github.com/xenking/webstore-backoffice/internal/domain/product"
	"github.com/xenking/webstore-backoffice/internal/domain/refdata"
	"github.com/xenking/webstore-backoffice/internal/domain/report"
	"github.com/xenking/webstore-backoffice/internal/domain/user"
)

// Handler wires the HTTP surface to the domain services.
type Handler struct {
	auth      *auth.Service
	users     user.Repository
	products  product.Repository
	clients   client.Repository
	discounts discount.Repository
	refs      refdata.Repository
	orders    *order.Service
	reports   *report.Service

	validate *validator.Validate
}

// New constructs a Handler with its domain dependencies.
func New(
	authSvc *auth.Service,
	users user.Repository,
	products product.Repository,
	clients client.Repository,
	discounts discount.Repository,
	refs refdata.Repository,
	orders *order.Service,
	reports *report.Service,
) *Handler {
	return &Handler{
		auth:      authSvc,
		users:     users,
		products:  products,
		clients:   clients,
		discounts: discounts,
		refs:      refs,
		orders:    orders,
		reports:   reports,
		validate:  validator.New(),
	}
}

// Routes returns the /api router. Everything except auth/register and
// auth/login requires a bearer token; write access is gated per route by
// role.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Get("/auth/me", h.me)

		r.Get("/products", h.listProducts)
		r.Get("/products/{id}", h.getProduct)
		r.Get("/products/{id}/discounts", h.listProductDiscounts)
		r.Group(func(r chi.Router) {
			r.Use(requireRoles(user.RoleAdmin, user.RoleAdvanced))
			r.Post("/products", h.createProduct)
			r.Put("/products/{id}", h.updateProduct)
			r.Delete("/products/{id}", h.deleteProduct)
		})

		r.Get("/clients", h.listClients)
		r.Get("/clients/{id}", h.getClient)
		r.Get("/clients/{id}/orders", h.listClientOrders)
		r.Post("/clients", h.createClient)
		r.Put("/clients/{id}", h.updateClient)
		r.With(requireRoles(user.RoleAdmin)).Delete("/clients/{id}", h.deleteClient)

		r.Get("/discounts", h.listDiscounts)
		r.Get("/discounts/{id}", h.getDiscount)
		r.Group(func(r chi.Router) {
			r.Use(requireRoles(user.RoleAdmin, user.RoleAdvanced))
			r.Post("/discounts", h.createDiscount)
			r.Delete("/discounts/{id}", h.deactivateDiscount)
		})

		r.Get("/orders", h.listOrders)
		r.Get("/orders/{id}", h.getOrder)
		r.Post("/orders", h.createOrder)
		r.Patch("/orders/{id}/status", h.updateOrderStatus)
		r.Post("/orders/{id}/cancel", h.cancelOrder)

		r.Get("/reference/{kind}", h.listReference)
		r.Group(func(r chi.Router) {
			r.Use(requireRoles(user.RoleAdmin))
			r.Post("/reference/{kind}", h.createReference)
			r.Put("/reference/{kind}/{id}", h.renameReference)
			r.Delete("/reference/{kind}/{id}", h.deleteReference)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireRoles(user.RoleAdmin))
			r.Get("/users", h.listUsers)
			r.Post("/users", h.createUser)
			r.Get("/users/{id}", h.getUser)
			r.Put("/users/{id}", h.updateUser)
			r.Patch("/users/{id}/active", h.setUserActive)
			r.Patch("/users/{id}/reset-password", h.resetUserPassword)
		})

		r.Get("/reports/earnings/daily", h.dailyEarnings)
		r.Get("/reports/earnings/monthly", h.monthlyEarnings)
		r.Get("/reports/earnings/range", h.rangeEarnings)
		r.Get("/reports/sales/category", h.salesByCategory)
		r.Get("/reports/sales/brand", h.salesByBrand)
		r.Get("/reports/products/low-stock", h.lowStockProducts)
		r.Get("/reports/summary", h.reportSummary)
	})

	return r
}

// errorResponse is the uniform error envelope.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, errorResponse{Code: status, Message: message})
}

// decode parses the JSON body into dst and runs struct validation.
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return h.validate.Struct(dst)
}

// serverError logs the unexpected error and hides the details from the
// client.
func serverError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("request failed", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal server error")
}

// pagination is the envelope metadata for list responses.
type pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

type listResponse struct {
	Data       any        `json:"data"`
	Pagination pagination `json:"pagination"`
}

func respondList(w http.ResponseWriter, data any, total, page, limit int) {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	respond(w, http.StatusOK, listResponse{
		Data: data,
		Pagination: pagination{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages,
		},
	})
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// pageParams reads page/limit query parameters with sane bounds.
func pageParams(r *http.Request) (page, limit int) {
	page = queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	limit = queryInt(r, "limit", defaultPageLimit)
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

func newID() string {
	return uuid.New().String()
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
