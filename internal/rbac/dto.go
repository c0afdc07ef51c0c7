package rbac

type RoleDTO struct {
	Name string `json:"name" validate:"required,max=100,printascii"`
}

type PermissionDTO struct {
	Name string `json:"name" validate:"required,max=100,printascii"`
}
