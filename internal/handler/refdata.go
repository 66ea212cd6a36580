package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/xenking/webstore-backoffice/internal/domain/refdata"
)

type refEntryDTO struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type refEntryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// refKind resolves the {kind} path segment to a dimension, or writes 404.
func refKind(w http.ResponseWriter, r *http.Request) (refdata.Kind, bool) {
	kind, err := refdata.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return "", false
	}
	return kind, true
}

func refEntryID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "id must be an integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) listReference(w http.ResponseWriter, r *http.Request) {
	kind, ok := refKind(w, r)
	if !ok {
		return
	}

	entries, err := h.refs.List(r.Context(), kind)
	if err != nil {
		serverError(w, r, err)
		return
	}

	out := make([]refEntryDTO, len(entries))
	for i, e := range entries {
		out[i] = refEntryDTO{ID: e.ID, Name: e.Name}
	}
	respond(w, http.StatusOK, map[string]any{"data": out})
}

func (h *Handler) createReference(w http.ResponseWriter, r *http.Request) {
	kind, ok := refKind(w, r)
	if !ok {
		return
	}
	var req refEntryRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	e, err := h.refs.Create(r.Context(), kind, req.Name)
	if err != nil {
		if errors.Is(err, refdata.ErrNameTaken) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		serverError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, refEntryDTO{ID: e.ID, Name: e.Name})
}

func (h *Handler) renameReference(w http.ResponseWriter, r *http.Request) {
	kind, ok := refKind(w, r)
	if !ok {
		return
	}
	id, ok := refEntryID(w, r)
	if !ok {
		return
	}
	var req refEntryRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	e, err := h.refs.Rename(r.Context(), kind, id, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, refdata.ErrNotFound):
			respondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, refdata.ErrNameTaken):
			respondError(w, http.StatusConflict, err.Error())
		default:
			serverError(w, r, err)
		}
		return
	}
	respond(w, http.StatusOK, refEntryDTO{ID: e.ID, Name: e.Name})
}

func (h *Handler) deleteReference(w http.ResponseWriter, r *http.Request) {
	kind, ok := refKind(w, r)
	if !ok {
		return
	}
	id, ok := refEntryID(w, r)
	if !ok {
		return
	}

	if err := h.refs.Delete(r.Context(), kind, id); err != nil {
		switch {
		case errors.Is(err, refdata.ErrNotFound):
			respondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, refdata.ErrInUse):
			respondError(w, http.StatusConflict, err.Error())
		default:
			serverError(w, r, err)
		}
		return
	}
	respond(w, http.StatusNoContent, nil)
}
