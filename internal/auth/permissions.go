package auth

// Permission names enforced by the HTTP routes. A name only grants access once
// a Permission row with that name is attached to one of the caller's roles.
const (
	PermCreateUser         = "create_user"
	PermReadUser           = "read_user"
	PermReadAllUsers       = "read_all_users"
	PermUpdateUser         = "update_user"
	PermDeleteUser         = "delete_user"
	PermAssignRoleToUser   = "assign_role_to_user"
	PermRemoveRoleFromUser = "remove_role_from_user"

	PermCreateRole   = "create_role"
	PermReadRole     = "read_role"
	PermReadAllRoles = "read_all_roles"
	PermUpdateRole   = "update_role"
	PermDeleteRole   = "delete_role"

	PermCreatePermission   = "create_permission"
	PermReadPermission     = "read_permission"
	PermReadAllPermissions = "read_all_permissions"
	PermUpdatePermission   = "update_permission"
	PermDeletePermission   = "delete_permission"

	PermAddPermissionToRole      = "add_permission_to_role"
	PermRemovePermissionFromRole = "remove_permission_from_role"

	// Domain capabilities seeded for the records and lab endpoints.
	PermReadHudson    = "read_hudson"
	PermGenerateToken = "generate_token"
)

// AllPermissions is the catalogue granted to the seeded admin role.
func AllPermissions() []string {
	return []string{
		PermCreateUser, PermReadUser, PermReadAllUsers, PermUpdateUser, PermDeleteUser,
		PermAssignRoleToUser, PermRemoveRoleFromUser,
		PermCreateRole, PermReadRole, PermReadAllRoles, PermUpdateRole, PermDeleteRole,
		PermCreatePermission, PermReadPermission, PermReadAllPermissions, PermUpdatePermission, PermDeletePermission,
		PermAddPermissionToRole, PermRemovePermissionFromRole,
		PermReadHudson, PermGenerateToken,
	}
}
