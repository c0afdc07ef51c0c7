package rbac

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/rbac-admin/internal"
	"github.com/frahmantamala/rbac-admin/internal/core/common/validation"
	userDatamodel "github.com/frahmantamala/rbac-admin/internal/core/datamodel/user"
)

// RepositoryAPI persists the role/permission graph. Lookups report missing
// rows with internal.ErrRoleNotFound or internal.ErrPermissionNotFound and
// unique name violations with the matching *NameTaken error.
type RepositoryAPI interface {
	ListRoles(ctx context.Context, skip, limit int) ([]*userDatamodel.Role, error)
	GetRole(ctx context.Context, id int64) (*userDatamodel.Role, error)
	GetRoleByName(ctx context.Context, name string) (*userDatamodel.Role, error)
	CreateRole(ctx context.Context, role *userDatamodel.Role) error
	RenameRole(ctx context.Context, role *userDatamodel.Role) error
	DeleteRole(ctx context.Context, id int64) error

	ListPermissions(ctx context.Context, skip, limit int) ([]*userDatamodel.Permission, error)
	GetPermission(ctx context.Context, id int64) (*userDatamodel.Permission, error)
	GetPermissionByName(ctx context.Context, name string) (*userDatamodel.Permission, error)
	CreatePermission(ctx context.Context, perm *userDatamodel.Permission) error
	RenamePermission(ctx context.Context, perm *userDatamodel.Permission) error
	DeletePermission(ctx context.Context, id int64) error

	AttachPermission(ctx context.Context, role *userDatamodel.Role, perm *userDatamodel.Permission) error
	DetachPermission(ctx context.Context, role *userDatamodel.Role, perm *userDatamodel.Permission) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) ListRoles(ctx context.Context, skip, limit int) ([]RoleResponse, error) {
	roles, err := s.repo.ListRoles(ctx, skip, limit)
	if err != nil {
		return nil, err
	}
	out := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, ToRoleResponse(r))
	}
	return out, nil
}

func (s *Service) GetRole(ctx context.Context, id int64) (*RoleResponse, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToRoleResponse(role)
	return &resp, nil
}

func (s *Service) CreateRole(ctx context.Context, dto RoleDTO) (*RoleResponse, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	role := &userDatamodel.Role{Name: dto.Name}
	if err := s.repo.CreateRole(ctx, role); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "role created", "role_id", role.ID, "name", role.Name)
	resp := ToRoleResponse(role)
	return &resp, nil
}

func (s *Service) UpdateRole(ctx context.Context, id int64, dto RoleDTO) (*RoleResponse, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}

	role.Name = dto.Name
	if err := s.repo.RenameRole(ctx, role); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "role renamed", "role_id", role.ID, "name", role.Name)
	resp := ToRoleResponse(role)
	return &resp, nil
}

// DeleteRole also drops the role from every user holding it.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "role deleted", "role_id", id)
	return nil
}

func (s *Service) ListPermissions(ctx context.Context, skip, limit int) ([]PermissionResponse, error) {
	perms, err := s.repo.ListPermissions(ctx, skip, limit)
	if err != nil {
		return nil, err
	}
	out := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		out = append(out, ToPermissionResponse(p))
	}
	return out, nil
}

func (s *Service) GetPermission(ctx context.Context, id int64) (*PermissionResponse, error) {
	perm, err := s.repo.GetPermission(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPermissionResponse(perm)
	return &resp, nil
}

func (s *Service) CreatePermission(ctx context.Context, dto PermissionDTO) (*PermissionResponse, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	perm := &userDatamodel.Permission{Name: dto.Name}
	if err := s.repo.CreatePermission(ctx, perm); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "permission created", "permission_id", perm.ID, "name", perm.Name)
	resp := ToPermissionResponse(perm)
	return &resp, nil
}

func (s *Service) UpdatePermission(ctx context.Context, id int64, dto PermissionDTO) (*PermissionResponse, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	perm, err := s.repo.GetPermission(ctx, id)
	if err != nil {
		return nil, err
	}

	// Renaming changes what the gate matches; routes requiring the old name
	// stop granting access immediately.
	perm.Name = dto.Name
	if err := s.repo.RenamePermission(ctx, perm); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "permission renamed", "permission_id", perm.ID, "name", perm.Name)
	resp := ToPermissionResponse(perm)
	return &resp, nil
}

func (s *Service) DeletePermission(ctx context.Context, id int64) error {
	if err := s.repo.DeletePermission(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "permission deleted", "permission_id", id)
	return nil
}

// AddPermissionToRole fails with a conflict when the permission is already
// on the role.
func (s *Service) AddPermissionToRole(ctx context.Context, roleID, permissionID int64) (*RoleResponse, error) {
	role, perm, err := s.loadPair(ctx, roleID, permissionID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AttachPermission(ctx, role, perm); err != nil {
		return nil, err
	}
	role.Permissions = append(role.Permissions, *perm)

	s.logger.InfoContext(ctx, "permission added to role", "role_id", role.ID, "permission", perm.Name)
	resp := ToRoleResponse(role)
	return &resp, nil
}

// RemovePermissionFromRole fails when the permission is not on the role.
// Removing a role from a user does not; see user.Service.RemoveRole.
func (s *Service) RemovePermissionFromRole(ctx context.Context, roleID, permissionID int64) (*RoleResponse, error) {
	role, perm, err := s.loadPair(ctx, roleID, permissionID)
	if err != nil {
		return nil, err
	}

	if !hasPermission(role, perm.ID) {
		return nil, internal.ErrPermissionNotAssigned
	}

	if err := s.repo.DetachPermission(ctx, role, perm); err != nil {
		return nil, err
	}

	kept := role.Permissions[:0]
	for _, p := range role.Permissions {
		if p.ID != perm.ID {
			kept = append(kept, p)
		}
	}
	role.Permissions = kept

	s.logger.InfoContext(ctx, "permission removed from role", "role_id", role.ID, "permission", perm.Name)
	resp := ToRoleResponse(role)
	return &resp, nil
}

func (s *Service) loadPair(ctx context.Context, roleID, permissionID int64) (*userDatamodel.Role, *userDatamodel.Permission, error) {
	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		return nil, nil, err
	}
	perm, err := s.repo.GetPermission(ctx, permissionID)
	if err != nil {
		return nil, nil, err
	}
	return role, perm, nil
}

// EnsureRoleWithPermissions creates the named role and permissions when
// missing and attaches every permission to the role. Safe to rerun.
func (s *Service) EnsureRoleWithPermissions(ctx context.Context, roleName string, permissionNames []string) (*RoleResponse, error) {
	role, err := s.repo.GetRoleByName(ctx, roleName)
	if err != nil {
		if !errors.Is(err, internal.ErrRoleNotFound) {
			return nil, err
		}
		role = &userDatamodel.Role{Name: roleName}
		if err := s.repo.CreateRole(ctx, role); err != nil {
			return nil, err
		}
	}

	for _, name := range permissionNames {
		perm, err := s.repo.GetPermissionByName(ctx, name)
		if err != nil {
			if !errors.Is(err, internal.ErrPermissionNotFound) {
				return nil, err
			}
			perm = &userDatamodel.Permission{Name: name}
			if err := s.repo.CreatePermission(ctx, perm); err != nil {
				return nil, err
			}
		}
		if hasPermission(role, perm.ID) {
			continue
		}
		if err := s.repo.AttachPermission(ctx, role, perm); err != nil {
			return nil, err
		}
		role.Permissions = append(role.Permissions, *perm)
	}

	resp := ToRoleResponse(role)
	return &resp, nil
}
