package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const effectivePermissionsQuery = `SELECT DISTINCT p.name
	FROM permissions p
	JOIN role_permissions rp ON rp.permission_id = p.id
	JOIN user_roles ur ON ur.role_id = rp.role_id
	WHERE ur.user_id = ?
	ORDER BY p.name`

// PermissionEvaluator reads the effective permission set straight from the
// join tables on every call.
type PermissionEvaluator struct {
	db    *sqlx.DB
	query string
}

func NewPermissionEvaluator(db *sqlx.DB) *PermissionEvaluator {
	return &PermissionEvaluator{
		db:    db,
		query: db.Rebind(effectivePermissionsQuery),
	}
}

func (e *PermissionEvaluator) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	perms := []string{}
	if err := e.db.SelectContext(ctx, &perms, e.query, userID); err != nil {
		return nil, fmt.Errorf("select effective permissions: %w", err)
	}
	return perms, nil
}
