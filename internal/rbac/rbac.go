package rbac

import (
	userDatamodel "github.com/frahmantamala/rbac-admin/internal/core/datamodel/user"
)

type PermissionResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type RoleResponse struct {
	ID          int64                `json:"id"`
	Name        string               `json:"name"`
	Permissions []PermissionResponse `json:"permissions"`
}

func ToPermissionResponse(p *userDatamodel.Permission) PermissionResponse {
	return PermissionResponse{ID: p.ID, Name: p.Name}
}

func ToRoleResponse(r *userDatamodel.Role) RoleResponse {
	perms := make([]PermissionResponse, 0, len(r.Permissions))
	for i := range r.Permissions {
		perms = append(perms, ToPermissionResponse(&r.Permissions[i]))
	}
	return RoleResponse{ID: r.ID, Name: r.Name, Permissions: perms}
}

func hasPermission(r *userDatamodel.Role, permissionID int64) bool {
	for _, p := range r.Permissions {
		if p.ID == permissionID {
			return true
		}
	}
	return false
}
