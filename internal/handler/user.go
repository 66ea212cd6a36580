package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/xenking/webstore-backoffice/internal/domain/auth"
	"github.com/xenking/webstore-backoffice/internal/domain/user"
)

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	users, total, err := h.users.List(r.Context(), page, limit)
	if err != nil {
		serverError(w, r, err)
		return
	}

	out := make([]userDTO, 0, len(users))
	for i := range users {
		out = append(out, toUserDTO(&users[i]))
	}
	respondList(w, out, total, page, limit)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		serverError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toUserDTO(u))
}

// createUser lets an admin open an account directly. Unlike self-service
// registration no token is issued; the new user logs in themselves.
func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, _, err := h.auth.Register(r.Context(), auth.RegisterRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrExists):
			respondError(w, http.StatusConflict, err.Error())
		case errors.Is(err, user.ErrInvalidRole):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			serverError(w, r, err)
		}
		return
	}
	respond(w, http.StatusCreated, toUserDTO(u))
}

type updateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=64"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin advanced_user simple_user"`
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.users.Update(r.Context(), chi.URLParam(r, "id"), user.Patch{
		Username: req.Username,
		Email:    req.Email,
		Role:     req.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			respondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, user.ErrExists):
			respondError(w, http.StatusConflict, err.Error())
		case errors.Is(err, user.ErrInvalidRole):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			serverError(w, r, err)
		}
		return
	}
	respond(w, http.StatusOK, toUserDTO(u))
}

type resetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

func (h *Handler) resetUserPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.auth.ResetPassword(r.Context(), chi.URLParam(r, "id"), req.NewPassword); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		serverError(w, r, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

type setUserActiveRequest struct {
	Active *bool `json:"is_active" validate:"required"`
}

// setUserActive activates or deactivates an account. A deactivated user is
// rejected by requireAuth on their next request.
func (h *Handler) setUserActive(w http.ResponseWriter, r *http.Request) {
	var req setUserActiveRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	if id == identityFrom(r.Context()).UserID {
		respondError(w, http.StatusConflict, "cannot change your own active status")
		return
	}

	if err := h.users.SetActive(r.Context(), id, *req.Active); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		serverError(w, r, err)
		return
	}

	u, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		serverError(w, r, err)
		return
	}
	respond(w, http.StatusOK, toUserDTO(u))
}
