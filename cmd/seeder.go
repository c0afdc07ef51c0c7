package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/rbac-admin/internal"
	"github.com/frahmantamala/rbac-admin/internal/auth"
	"github.com/frahmantamala/rbac-admin/internal/rbac"
	rbacPostgres "github.com/frahmantamala/rbac-admin/internal/rbac/postgres"
	"github.com/frahmantamala/rbac-admin/internal/user"
	userPostgres "github.com/frahmantamala/rbac-admin/internal/user/postgres"
	"github.com/frahmantamala/rbac-admin/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const adminRoleName = "admin"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the admin role, the permission catalogue and the admin user",
	Long:  `Create the admin role with every permission attached and the configured admin account. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		gdb, sdb, err := openDatabase(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to init db: %w", err)
		}
		defer sdb.Close()

		return seed(ctx, gdb, cfg)
	},
}

func seed(ctx context.Context, gdb *gorm.DB, cfg *internal.Config) error {
	lg := logger.LoggerWrapper()

	hasher, err := auth.NewPasswordHasher(cfg.Security.PasswordHasher, cfg.Security.BCryptCost)
	if err != nil {
		return err
	}

	rbacService := rbac.NewService(rbacPostgres.NewRBACRepository(gdb), lg)
	userService := user.NewService(userPostgres.NewUserRepository(gdb), hasher, lg)

	role, err := rbacService.EnsureRoleWithPermissions(ctx, adminRoleName, auth.AllPermissions())
	if err != nil {
		return fmt.Errorf("seed admin role: %w", err)
	}
	lg.Info("admin role ready", "role_id", role.ID, "permissions", len(role.Permissions))

	if cfg.Admin.Username == "" || cfg.Admin.Password == "" {
		lg.Warn("admin username or password not configured; skipping admin user")
		return nil
	}

	admin, created, err := userService.EnsureUser(ctx, user.CreateUserDTO{
		Username: cfg.Admin.Username,
		Password: cfg.Admin.Password,
		Email:    cfg.Admin.Email,
		FullName: cfg.Admin.FullName,
	})
	if err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	if !created {
		lg.Info("admin user already exists; will ensure role", "user_id", admin.ID)
	}

	if _, err := userService.AssignRole(ctx, admin.ID, role.ID); err != nil {
		return fmt.Errorf("assign admin role: %w", err)
	}
	lg.Info("seeded admin user", "user_id", admin.ID, "username", admin.Username)
	return nil
}
