package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/frahmantamala/rbac-admin/internal"
	userDatamodel "github.com/frahmantamala/rbac-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/rbac-admin/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

func (r *UserRepository) List(ctx context.Context, skip, limit int) ([]*userDatamodel.User, error) {
	var users []*userDatamodel.User
	err := r.db.WithContext(ctx).Preload("Roles").Order("id ASC").Offset(skip).Limit(limit).Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	return r.find(ctx, "id = ?", id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error) {
	return r.find(ctx, "username = ?", username)
}

func (r *UserRepository) find(ctx context.Context, query string, arg interface{}) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Preload("Roles").Where(query, arg).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	if err := r.db.WithContext(ctx).Omit("Roles").Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return internal.ErrUsernameTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, id int64, columns map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("id = ?", id).Updates(columns)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return internal.ErrUsernameTaken
		}
		return fmt.Errorf("update user: %w", result.Error)
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM user_roles WHERE user_id = ?", id).Error; err != nil {
			return fmt.Errorf("delete user roles: %w", err)
		}
		result := tx.Delete(&userDatamodel.User{}, id)
		if result.Error != nil {
			return fmt.Errorf("delete user: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return internal.ErrUserNotFound
		}
		return nil
	})
}

func (r *UserRepository) GetRole(ctx context.Context, id int64) (*userDatamodel.Role, error) {
	var role userDatamodel.Role
	if err := r.db.WithContext(ctx).First(&role, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrRoleNotFound
		}
		return nil, fmt.Errorf("get role: %w", err)
	}
	return &role, nil
}

func (r *UserRepository) AttachRole(ctx context.Context, u *userDatamodel.User, role *userDatamodel.Role) error {
	if err := r.db.WithContext(ctx).Model(&userDatamodel.User{ID: u.ID}).Association("Roles").Append(role); err != nil {
		return fmt.Errorf("attach role: %w", err)
	}
	return nil
}

func (r *UserRepository) DetachRole(ctx context.Context, u *userDatamodel.User, role *userDatamodel.Role) error {
	if err := r.db.WithContext(ctx).Model(&userDatamodel.User{ID: u.ID}).Association("Roles").Delete(role); err != nil {
		return fmt.Errorf("detach role: %w", err)
	}
	return nil
}
