package rbac

import (
	"context"
	"net/http"

	"github.com/frahmantamala/rbac-admin/internal/transport"
)

type ServiceAPI interface {
	ListRoles(ctx context.Context, skip, limit int) ([]RoleResponse, error)
	GetRole(ctx context.Context, id int64) (*RoleResponse, error)
	CreateRole(ctx context.Context, dto RoleDTO) (*RoleResponse, error)
	UpdateRole(ctx context.Context, id int64, dto RoleDTO) (*RoleResponse, error)
	DeleteRole(ctx context.Context, id int64) error

	ListPermissions(ctx context.Context, skip, limit int) ([]PermissionResponse, error)
	GetPermission(ctx context.Context, id int64) (*PermissionResponse, error)
	CreatePermission(ctx context.Context, dto PermissionDTO) (*PermissionResponse, error)
	UpdatePermission(ctx context.Context, id int64, dto PermissionDTO) (*PermissionResponse, error)
	DeletePermission(ctx context.Context, id int64) error

	AddPermissionToRole(ctx context.Context, roleID, permissionID int64) (*RoleResponse, error)
	RemovePermissionFromRole(ctx context.Context, roleID, permissionID int64) (*RoleResponse, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	page, err := h.ParsePagination(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	roles, err := h.Service.ListRoles(r.Context(), page.Skip, page.Limit)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, roles)
}

func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "role_id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	role, err := h.Service.GetRole(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, role)
}

func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var dto RoleDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	role, err := h.Service.CreateRole(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, role)
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "role_id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	var dto RoleDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	role, err := h.Service.UpdateRole(r.Context(), id, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, role)
}

func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "role_id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	if err := h.Service.DeleteRole(r.Context(), id); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	page, err := h.ParsePagination(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	perms, err := h.Service.ListPermissions(r.Context(), page.Skip, page.Limit)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, perms)
}

func (h *Handler) GetPermission(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "permission_id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	perm, err := h.Service.GetPermission(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, perm)
}

func (h *Handler) CreatePermission(w http.ResponseWriter, r *http.Request) {
	var dto PermissionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	perm, err := h.Service.CreatePermission(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, perm)
}

func (h *Handler) UpdatePermission(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "permission_id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	var dto PermissionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	perm, err := h.Service.UpdatePermission(r.Context(), id, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, perm)
}

func (h *Handler) DeletePermission(w http.ResponseWriter, r *http.Request) {
	id, err := h.ParseIDParam(r, "permission_id")
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	if err := h.Service.DeletePermission(r.Context(), id); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddPermissionToRole(w http.ResponseWriter, r *http.Request) {
	roleID, permID, err := h.parseRolePermission(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	role, err := h.Service.AddPermissionToRole(r.Context(), roleID, permID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, role)
}

func (h *Handler) RemovePermissionFromRole(w http.ResponseWriter, r *http.Request) {
	roleID, permID, err := h.parseRolePermission(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	role, err := h.Service.RemovePermissionFromRole(r.Context(), roleID, permID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, role)
}

func (h *Handler) parseRolePermission(r *http.Request) (int64, int64, error) {
	roleID, err := h.ParseIDParam(r, "role_id")
	if err != nil {
		return 0, 0, err
	}
	permID, err := h.ParseIDParam(r, "permission_id")
	if err != nil {
		return 0, 0, err
	}
	return roleID, permID, nil
}
