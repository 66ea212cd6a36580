package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/xenking/webstore-backoffice/internal/domain/client"
)

type clientDTO struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	City      string    `json:"city,omitempty"`
	Country   string    `json:"country,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toClientDTO(c *client.Client) clientDTO {
	return clientDTO{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		City:      c.City,
		Country:   c.Country,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type createClientRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"max=32"`
	Address   string `json:"address" validate:"max=255"`
	City      string `json:"city" validate:"max=100"`
	Country   string `json:"country" validate:"max=100"`
}

type updateClientRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone" validate:"omitempty,max=32"`
	Address   *string `json:"address" validate:"omitempty,max=255"`
	City      *string `json:"city" validate:"omitempty,max=100"`
	Country   *string `json:"country" validate:"omitempty,max=100"`
}

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	clients, total, err := h.clients.List(r.Context(), client.ListFilter{
		Search: r.URL.Query().Get("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		serverError(w, r, err)
		return
	}

	out := make([]clientDTO, len(clients))
	for i := range clients {
		out[i] = toClientDTO(&clients[i])
	}
	respondList(w, out, total, page, limit)
}

func (h *Handler) getClient(w http.ResponseWriter, r *http.Request) {
	c, err := h.clients.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		serverError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toClientDTO(c))
}

func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	c := &client.Client{
		ID:        newID(),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		City:      req.City,
		Country:   req.Country,
	}
	if err := h.clients.Create(r.Context(), c); err != nil {
		if errors.Is(err, client.ErrEmailTaken) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		serverError(w, r, err)
		return
	}

	created, err := h.clients.GetByID(r.Context(), c.ID)
	if err != nil {
		serverError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, toClientDTO(created))
}

func (h *Handler) updateClient(w http.ResponseWriter, r *http.Request) {
	var req updateClientRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.clients.Update(r.Context(), chi.URLParam(r, "id"), client.Patch{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		City:      req.City,
		Country:   req.Country,
	})
	if err != nil {
		switch {
		case errors.Is(err, client.ErrNotFound):
			respondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, client.ErrEmailTaken):
			respondError(w, http.StatusConflict, err.Error())
		default:
			serverError(w, r, err)
		}
		return
	}
	respond(w, http.StatusOK, toClientDTO(c))
}

func (h *Handler) deleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.clients.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		switch {
		case errors.Is(err, client.ErrNotFound):
			respondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, client.ErrHasOrders):
			respondError(w, http.StatusConflict, err.Error())
		default:
			serverError(w, r, err)
		}
		return
	}
	respond(w, http.StatusNoContent, nil)
}
