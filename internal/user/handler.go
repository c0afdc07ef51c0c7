package user

import (
	"context"
	"net/http"

	"github.com/frahmantamala/rbac-admin/internal"
	"github.com/frahmantamala/rbac-admin/internal/auth"
	"github.com/frahmantamala/rbac-admin/internal/transport"
)

type ServiceAPI interface {
	ListUsers(ctx context.Context, skip, limit int) ([]auth.UserResponse, error)
	GetUser(ctx context.Context, id int64) (*auth.UserResponse, error)
	CreateUser(ctx context.Context, dto CreateUserDTO) (*auth.UserResponse, error)
	UpdateUser(ctx context.Context, id int64, dto UpdateUserDTO) (*auth.UserResponse, error)
	DeleteUser(ctx context.Context, id int64) error
	AssignRole(ctx context.Context, userID, roleID int64) (*auth.UserResponse, error)
	RemoveRole(ctx context.Context, userID, roleID int64) (*auth.UserResponse, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, internal.ErrUnauthenticated)
		return
	}

	u, err := h.Service.GetUser(r.Context(), principal.ID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, CurrentUserResponse{
		UserResponse: *u,
		Permissions:  principal.Permissions,
	})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := h.ParsePagination(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	users, err := h.Service.ListUsers(r.Context(), page.Skip, page.Limit)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "user_id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	u, err := h.Service.GetUser(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var dto CreateUserDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	u, err := h.Service.CreateUser(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, u)
}

// UpdateUser rejects any body field outside UpdateUserDTO.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "user_id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	var dto UpdateUserDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	u, err := h.Service.UpdateUser(r.Context(), id, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "user_id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	if err := h.Service.DeleteUser(r.Context(), id); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	userID, roleID, err := h.parseUserRole(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	u, err := h.Service.AssignRole(r.Context(), userID, roleID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) RemoveRole(w http.ResponseWriter, r *http.Request) {
	userID, roleID, err := h.parseUserRole(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	u, err := h.Service.RemoveRole(r.Context(), userID, roleID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) parseUserRole(r *http.Request) (int64, int64, error) {
	userID, err := h.ParseIDParam(r, "user_id")
	if err != nil {
		return 0, 0, err
	}
	roleID, err := h.ParseIDParam(r, "role_id")
	if err != nil {
		return 0, 0, err
	}
	return userID, roleID, nil
}
