package auth

import (
	"context"
	"slices"
	"time"

	userDatamodel "github.com/frahmantamala/rbac-admin/internal/core/datamodel/user"
)

// User is the principal resolved from a bearer token. Permissions is the
// effective set at resolution time.
type User struct {
	ID          int64    `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	FullName    string   `json:"full_name"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

func (u *User) HasPermission(permission string) bool {
	return slices.Contains(u.Permissions, permission)
}

// UserStore is the credential store consulted at login and on every request.
// Missing users are reported as internal.ErrUserNotFound.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error)
	Create(ctx context.Context, user *userDatamodel.User) error
	TouchLastLogin(ctx context.Context, userID int64, at time.Time) error
}

// PermissionEvaluator expands a user to the union of permission names over
// the roles currently assigned to it.
type PermissionEvaluator interface {
	EffectivePermissions(ctx context.Context, userID int64) ([]string, error)
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type UserResponse struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	Roles     []string   `json:"roles"`
}

func ToUserResponse(u *userDatamodel.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
		Roles:     userDatamodel.RoleNames(u.Roles),
	}
}
