// Package db embeds the goose migrations, one directory per SQL dialect.
package db

import "embed"

//go:embed migrations
var Migrations embed.FS

// MigrationsDir returns the directory inside Migrations for driver.
func MigrationsDir(driver string) string {
	return "migrations/" + driver
}
