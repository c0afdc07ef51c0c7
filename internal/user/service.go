package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/rbac-admin/internal"
	"github.com/frahmantamala/rbac-admin/internal/auth"
	"github.com/frahmantamala/rbac-admin/internal/core/common/validation"
	userDatamodel "github.com/frahmantamala/rbac-admin/internal/core/datamodel/user"
)

// RepositoryAPI persists users and their role set. Missing rows are reported
// with internal.ErrUserNotFound or internal.ErrRoleNotFound.
type RepositoryAPI interface {
	List(ctx context.Context, skip, limit int) ([]*userDatamodel.User, error)
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error)
	Create(ctx context.Context, u *userDatamodel.User) error
	Update(ctx context.Context, id int64, columns map[string]interface{}) error
	Delete(ctx context.Context, id int64) error

	GetRole(ctx context.Context, id int64) (*userDatamodel.Role, error)
	AttachRole(ctx context.Context, u *userDatamodel.User, role *userDatamodel.Role) error
	DetachRole(ctx context.Context, u *userDatamodel.User, role *userDatamodel.Role) error
}

type Service struct {
	repo   RepositoryAPI
	hasher auth.PasswordHasher
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, hasher auth.PasswordHasher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		logger: logger,
	}
}

func (s *Service) ListUsers(ctx context.Context, skip, limit int) ([]auth.UserResponse, error) {
	users, err := s.repo.List(ctx, skip, limit)
	if err != nil {
		return nil, err
	}
	out := make([]auth.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, auth.ToUserResponse(u))
	}
	return out, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*auth.UserResponse, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := auth.ToUserResponse(u)
	return &resp, nil
}

func (s *Service) CreateUser(ctx context.Context, dto CreateUserDTO) (*auth.UserResponse, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	hash, err := s.hasher.Hash(dto.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &userDatamodel.User{
		Username:       dto.Username,
		Email:          dto.Email,
		FullName:       dto.FullName,
		HashedPassword: hash,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user created", "user_id", u.ID, "username", u.Username)
	resp := auth.ToUserResponse(u)
	return &resp, nil
}

// UpdateUser applies only the fields present in dto. A new password is
// re-hashed before it is stored.
func (s *Service) UpdateUser(ctx context.Context, id int64, dto UpdateUserDTO) (*auth.UserResponse, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	columns := map[string]interface{}{}
	if dto.Username != nil {
		columns["username"] = *dto.Username
	}
	if dto.Email != nil {
		columns["email"] = *dto.Email
	}
	if dto.FullName != nil {
		columns["full_name"] = *dto.FullName
	}
	if dto.Password != nil {
		hash, err := s.hasher.Hash(*dto.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		columns["hashed_password"] = hash
	}

	if len(columns) > 0 {
		if err := s.repo.Update(ctx, id, columns); err != nil {
			return nil, err
		}
		s.logger.InfoContext(ctx, "user updated", "user_id", id, "fields", len(columns))
	}

	return s.GetUser(ctx, id)
}

// DeleteUser removes the user and its role assignments. Tokens already issued
// to the user stop resolving on their next use.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "user deleted", "user_id", id)
	return nil
}

// AssignRole is a no-op when the user already holds the role.
func (s *Service) AssignRole(ctx context.Context, userID, roleID int64) (*auth.UserResponse, error) {
	u, role, err := s.loadPair(ctx, userID, roleID)
	if err != nil {
		return nil, err
	}

	if !hasRole(u, role.ID) {
		if err := s.repo.AttachRole(ctx, u, role); err != nil {
			return nil, err
		}
		u.Roles = append(u.Roles, *role)
		s.logger.InfoContext(ctx, "role assigned", "user_id", u.ID, "role", role.Name)
	}

	resp := auth.ToUserResponse(u)
	return &resp, nil
}

// RemoveRole is a no-op when the user does not hold the role. This differs
// from rbac.Service.RemovePermissionFromRole, which reports the miss.
func (s *Service) RemoveRole(ctx context.Context, userID, roleID int64) (*auth.UserResponse, error) {
	u, role, err := s.loadPair(ctx, userID, roleID)
	if err != nil {
		return nil, err
	}

	if hasRole(u, role.ID) {
		if err := s.repo.DetachRole(ctx, u, role); err != nil {
			return nil, err
		}
		kept := u.Roles[:0]
		for _, r := range u.Roles {
			if r.ID != role.ID {
				kept = append(kept, r)
			}
		}
		u.Roles = kept
		s.logger.InfoContext(ctx, "role removed", "user_id", u.ID, "role", role.Name)
	}

	resp := auth.ToUserResponse(u)
	return &resp, nil
}

// EnsureUser returns the user with dto.Username, creating it when absent.
func (s *Service) EnsureUser(ctx context.Context, dto CreateUserDTO) (*auth.UserResponse, bool, error) {
	existing, err := s.repo.GetByUsername(ctx, dto.Username)
	if err == nil {
		resp := auth.ToUserResponse(existing)
		return &resp, false, nil
	}
	if !errors.Is(err, internal.ErrUserNotFound) {
		return nil, false, err
	}

	created, err := s.CreateUser(ctx, dto)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

func (s *Service) loadPair(ctx context.Context, userID, roleID int64) (*userDatamodel.User, *userDatamodel.Role, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		return nil, nil, err
	}
	return u, role, nil
}

func hasRole(u *userDatamodel.User, roleID int64) bool {
	for _, r := range u.Roles {
		if r.ID == roleID {
			return true
		}
	}
	return false
}
