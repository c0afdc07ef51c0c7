package user

import "github.com/frahmantamala/rbac-admin/internal/auth"

type CreateUserDTO struct {
	Username string `json:"username" validate:"required,min=3,max=100,printascii"`
	Password string `json:"password" validate:"required,min=3,max=72"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
	FullName string `json:"full_name" validate:"max=255"`
}

// UpdateUserDTO lists every field a caller may change. Nil means unchanged.
type UpdateUserDTO struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=100,printascii"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
	Password *string `json:"password" validate:"omitempty,min=3,max=72"`
}

func (d UpdateUserDTO) IsEmpty() bool {
	return d.Username == nil && d.Email == nil && d.FullName == nil && d.Password == nil
}

type CurrentUserResponse struct {
	auth.UserResponse
	Permissions []string `json:"permissions"`
}
