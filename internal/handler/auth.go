package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/webstore-backoffice/internal/domain/auth"
	"github.com/xenking/webstore-backoffice/internal/domain/user"
)

type identityKey struct{}

// identityFrom returns the authenticated caller stored by requireAuth.
func identityFrom(ctx context.Context) *auth.Identity {
	id, _ := ctx.Value(identityKey{}).(*auth.Identity)
	return id
}

// requireAuth verifies the bearer token and re-reads the account, so a
// deactivated user or changed role is rejected on the very next request.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		id, err := h.auth.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				respondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			serverError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRoles gates a route to callers holding one of the given roles.
func requireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := identityFrom(r.Context())
			if id == nil || !id.HasRole(roles...) {
				respondError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=admin advanced_user simple_user"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userDTO struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type authResponse struct {
	User  userDTO `json:"user"`
	Token string  `json:"token"`
}

func toUserDTO(u *user.User) userDTO {
	return userDTO{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.Active,
		CreatedAt: u.CreatedAt,
	}
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, token, err := h.auth.Register(r.Context(), auth.RegisterRequest{
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

	respond(w, http.StatusCreated, authResponse{User: toUserDTO(u), Token: token})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		serverError(w, r, err)
		return
	}

	respond(w, http.StatusOK, authResponse{User: toUserDTO(u), Token: token})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	respond(w, http.StatusOK, map[string]string{
		"id":       id.UserID,
		"username": id.Username,
		"role":     id.Role,
	})
}
