package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/frahmantamala/rbac-admin/internal"
	userDatamodel "github.com/frahmantamala/rbac-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/rbac-admin/internal/rbac"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RBACRepository struct {
	db *gorm.DB
}

func NewRBACRepository(db *gorm.DB) rbac.RepositoryAPI {
	return &RBACRepository{db: db}
}

func (r *RBACRepository) ListRoles(ctx context.Context, skip, limit int) ([]*userDatamodel.Role, error) {
	var roles []*userDatamodel.Role
	err := r.db.WithContext(ctx).
		Preload("Permissions").
		Order("id ASC").
		Offset(skip).
		Limit(limit).
		Find(&roles).Error
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

func (r *RBACRepository) GetRole(ctx context.Context, id int64) (*userDatamodel.Role, error) {
	return r.findRole(ctx, "id = ?", id)
}

func (r *RBACRepository) GetRoleByName(ctx context.Context, name string) (*userDatamodel.Role, error) {
	return r.findRole(ctx, "name = ?", name)
}

func (r *RBACRepository) findRole(ctx context.Context, query string, arg interface{}) (*userDatamodel.Role, error) {
	var role userDatamodel.Role
	err := r.db.WithContext(ctx).Preload("Permissions").Where(query, arg).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrRoleNotFound
		}
		return nil, fmt.Errorf("get role: %w", err)
	}
	return &role, nil
}

func (r *RBACRepository) CreateRole(ctx context.Context, role *userDatamodel.Role) error {
	if err := r.db.WithContext(ctx).Omit("Permissions").Create(role).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return internal.ErrRoleNameTaken
		}
		return fmt.Errorf("create role: %w", err)
	}
	return nil
}

func (r *RBACRepository) RenameRole(ctx context.Context, role *userDatamodel.Role) error {
	result := r.db.WithContext(ctx).Model(&userDatamodel.Role{}).Where("id = ?", role.ID).Update("name", role.Name)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return internal.ErrRoleNameTaken
		}
		return fmt.Errorf("rename role: %w", result.Error)
	}
	return nil
}

// DeleteRole removes the role and its join rows in one transaction.
func (r *RBACRepository) DeleteRole(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM role_permissions WHERE role_id = ?", id).Error; err != nil {
			return fmt.Errorf("delete role permissions: %w", err)
		}
		if err := tx.Exec("DELETE FROM user_roles WHERE role_id = ?", id).Error; err != nil {
			return fmt.Errorf("delete user roles: %w", err)
		}
		result := tx.Delete(&userDatamodel.Role{}, id)
		if result.Error != nil {
			return fmt.Errorf("delete role: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return internal.ErrRoleNotFound
		}
		return nil
	})
}

func (r *RBACRepository) ListPermissions(ctx context.Context, skip, limit int) ([]*userDatamodel.Permission, error) {
	var perms []*userDatamodel.Permission
	err := r.db.WithContext(ctx).Order("id ASC").Offset(skip).Limit(limit).Find(&perms).Error
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return perms, nil
}

func (r *RBACRepository) GetPermission(ctx context.Context, id int64) (*userDatamodel.Permission, error) {
	return r.findPermission(ctx, "id = ?", id)
}

func (r *RBACRepository) GetPermissionByName(ctx context.Context, name string) (*userDatamodel.Permission, error) {
	return r.findPermission(ctx, "name = ?", name)
}

func (r *RBACRepository) findPermission(ctx context.Context, query string, arg interface{}) (*userDatamodel.Permission, error) {
	var perm userDatamodel.Permission
	err := r.db.WithContext(ctx).Where(query, arg).First(&perm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrPermissionNotFound
		}
		return nil, fmt.Errorf("get permission: %w", err)
	}
	return &perm, nil
}

func (r *RBACRepository) CreatePermission(ctx context.Context, perm *userDatamodel.Permission) error {
	if err := r.db.WithContext(ctx).Create(perm).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return internal.ErrPermissionNameTaken
		}
		return fmt.Errorf("create permission: %w", err)
	}
	return nil
}

func (r *RBACRepository) RenamePermission(ctx context.Context, perm *userDatamodel.Permission) error {
	result := r.db.WithContext(ctx).Model(&userDatamodel.Permission{}).Where("id = ?", perm.ID).Update("name", perm.Name)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return internal.ErrPermissionNameTaken
		}
		return fmt.Errorf("rename permission: %w", result.Error)
	}
	return nil
}

func (r *RBACRepository) DeletePermission(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM role_permissions WHERE permission_id = ?", id).Error; err != nil {
			return fmt.Errorf("delete role permissions: %w", err)
		}
		result := tx.Delete(&userDatamodel.Permission{}, id)
		if result.Error != nil {
			return fmt.Errorf("delete permission: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return internal.ErrPermissionNotFound
		}
		return nil
	})
}

// AttachPermission links perm to role. The membership check and the insert
// run in one transaction holding the role row, so of two concurrent adds of
// the same pair exactly one reports a conflict.
func (r *RBACRepository) AttachPermission(ctx context.Context, role *userDatamodel.Role, perm *userDatamodel.Permission) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked userDatamodel.Role
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&locked, role.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return internal.ErrRoleNotFound
			}
			return err
		}

		var linked int64
		if err := tx.Table("role_permissions").
			Where("role_id = ? AND permission_id = ?", role.ID, perm.ID).
			Count(&linked).Error; err != nil {
			return err
		}
		if linked > 0 {
			return internal.ErrPermissionAlreadyAssigned
		}

		return tx.Table("role_permissions").Create(map[string]interface{}{
			"role_id":       role.ID,
			"permission_id": perm.ID,
		}).Error
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, internal.ErrPermissionAlreadyAssigned):
		return internal.ErrPermissionAlreadyAssigned
	case errors.Is(err, internal.ErrRoleNotFound):
		return internal.ErrRoleNotFound
	}
	return fmt.Errorf("attach permission: %w", err)
}

func (r *RBACRepository) DetachPermission(ctx context.Context, role *userDatamodel.Role, perm *userDatamodel.Permission) error {
	if err := r.db.WithContext(ctx).Model(&userDatamodel.Role{ID: role.ID}).Association("Permissions").Delete(perm); err != nil {
		return fmt.Errorf("detach permission: %w", err)
	}
	return nil
}
