package user

import "time"

type User struct {
	ID             int64      `gorm:"primaryKey"`
	Username       string     `gorm:"column:username;size:100;uniqueIndex;not null"`
	Email          string     `gorm:"column:email;size:255"`
	FullName       string     `gorm:"column:full_name;size:255"`
	HashedPassword string     `gorm:"column:hashed_password;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	LastLogin      *time.Time `gorm:"column:last_login"`
	Roles          []Role     `gorm:"many2many:user_roles;constraint:OnDelete:CASCADE"`
}

type Role struct {
	ID          int64        `gorm:"primaryKey"`
	Name        string       `gorm:"column:name;size:100;uniqueIndex;not null"`
	Permissions []Permission `gorm:"many2many:role_permissions;constraint:OnDelete:CASCADE"`
}

type Permission struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"column:name;size:100;uniqueIndex;not null"`
}

// Models lists every table owned by this package, join tables included through
// the many2many tags.
func Models() []interface{} {
	return []interface{}{&User{}, &Role{}, &Permission{}}
}

func RoleNames(roles []Role) []string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return names
}

func PermissionNames(perms []Permission) []string {
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, p.Name)
	}
	return names
}
