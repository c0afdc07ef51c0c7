package rbac_test

import (
	"context"

	"github.com/frahmantamala/rbac-admin/internal"
	userDatamodel "github.com/frahmantamala/rbac-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/rbac-admin/internal/rbac"
	rbacPostgres "github.com/frahmantamala/rbac-admin/internal/rbac/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("RBAC Service", func() {
	var (
		ctx     context.Context
		db      *gorm.DB
		service *rbac.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		db = openTestDB()
		service = rbac.NewService(rbacPostgres.NewRBACRepository(db), testLogger())
	})

	createRole := func(name string) *rbac.RoleResponse {
		role, err := service.CreateRole(ctx, rbac.RoleDTO{Name: name})
		Expect(err).NotTo(HaveOccurred())
		return role
	}

	createPermission := func(name string) *rbac.PermissionResponse {
		perm, err := service.CreatePermission(ctx, rbac.PermissionDTO{Name: name})
		Expect(err).NotTo(HaveOccurred())
		return perm
	}

	Describe("roles", func() {
		It("creates, reads, renames and deletes", func() {
			role := createRole("admin")
			Expect(role.Permissions).To(BeEmpty())

			got, err := service.GetRole(ctx, role.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name).To(Equal("admin"))

			renamed, err := service.UpdateRole(ctx, role.ID, rbac.RoleDTO{Name: "superuser"})
			Expect(err).NotTo(HaveOccurred())
			Expect(renamed.Name).To(Equal("superuser"))

			Expect(service.DeleteRole(ctx, role.ID)).To(Succeed())
			_, err = service.GetRole(ctx, role.ID)
			Expect(err).To(MatchError(internal.ErrRoleNotFound))
		})

		It("rejects duplicate names", func() {
			createRole("admin")
			_, err := service.CreateRole(ctx, rbac.RoleDTO{Name: "admin"})
			Expect(err).To(MatchError(internal.ErrRoleNameTaken))

			other := createRole("auditor")
			_, err = service.UpdateRole(ctx, other.ID, rbac.RoleDTO{Name: "admin"})
			Expect(err).To(MatchError(internal.ErrRoleNameTaken))
		})

		It("reports NotFound for mutations on a missing role", func() {
			_, err := service.UpdateRole(ctx, 404, rbac.RoleDTO{Name: "x"})
			Expect(err).To(MatchError(internal.ErrRoleNotFound))
			Expect(service.DeleteRole(ctx, 404)).To(MatchError(internal.ErrRoleNotFound))
		})

		It("pages with skip and limit", func() {
			for _, name := range []string{"a", "b", "c"} {
				createRole(name)
			}
			page, err := service.ListRoles(ctx, 1, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(page).To(HaveLen(1))
			Expect(page[0].Name).To(Equal("b"))
		})

		It("validates the name", func() {
			_, err := service.CreateRole(ctx, rbac.RoleDTO{Name: ""})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})
	})

	Describe("permissions", func() {
		It("creates, renames and deletes", func() {
			perm := createPermission("read_hudson")

			renamed, err := service.UpdatePermission(ctx, perm.ID, rbac.PermissionDTO{Name: "read_hudson_v2"})
			Expect(err).NotTo(HaveOccurred())
			Expect(renamed.Name).To(Equal("read_hudson_v2"))

			Expect(service.DeletePermission(ctx, perm.ID)).To(Succeed())
			_, err = service.GetPermission(ctx, perm.ID)
			Expect(err).To(MatchError(internal.ErrPermissionNotFound))
		})

		It("rejects duplicate names", func() {
			createPermission("read_hudson")
			_, err := service.CreatePermission(ctx, rbac.PermissionDTO{Name: "read_hudson"})
			Expect(err).To(MatchError(internal.ErrPermissionNameTaken))
		})
	})

	Describe("role permissions", func() {
		var (
			role *rbac.RoleResponse
			perm *rbac.PermissionResponse
		)

		BeforeEach(func() {
			role = createRole("admin")
			perm = createPermission("read_hudson")
		})

		It("adds once and conflicts on the second add", func() {
			updated, err := service.AddPermissionToRole(ctx, role.ID, perm.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Permissions).To(ConsistOf(rbac.PermissionResponse{ID: perm.ID, Name: "read_hudson"}))

			_, err = service.AddPermissionToRole(ctx, role.ID, perm.ID)
			Expect(err).To(MatchError(internal.ErrPermissionAlreadyAssigned))

			got, err := service.GetRole(ctx, role.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Permissions).To(HaveLen(1))
		})

		It("removes a member and fails for a non-member", func() {
			_, err := service.AddPermissionToRole(ctx, role.ID, perm.ID)
			Expect(err).NotTo(HaveOccurred())

			updated, err := service.RemovePermissionFromRole(ctx, role.ID, perm.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Permissions).To(BeEmpty())

			_, err = service.RemovePermissionFromRole(ctx, role.ID, perm.ID)
			Expect(err).To(MatchError(internal.ErrPermissionNotAssigned))
		})

		It("reports NotFound for missing endpoints of the edge", func() {
			_, err := service.AddPermissionToRole(ctx, 999, perm.ID)
			Expect(err).To(MatchError(internal.ErrRoleNotFound))
			_, err = service.AddPermissionToRole(ctx, role.ID, 999)
			Expect(err).To(MatchError(internal.ErrPermissionNotFound))
		})

		It("drops join rows when either side is deleted", func() {
			_, err := service.AddPermissionToRole(ctx, role.ID, perm.ID)
			Expect(err).NotTo(HaveOccurred())

			Expect(service.DeletePermission(ctx, perm.ID)).To(Succeed())
			var count int64
			Expect(db.Table("role_permissions").Count(&count).Error).To(Succeed())
			Expect(count).To(BeZero())
		})

		It("removes a deleted role from its users", func() {
			u := &userDatamodel.User{Username: "alice", HashedPassword: "x"}
			Expect(db.Create(u).Error).To(Succeed())
			Expect(db.Model(u).Association("Roles").Append(&userDatamodel.Role{ID: role.ID, Name: role.Name})).To(Succeed())

			Expect(service.DeleteRole(ctx, role.ID)).To(Succeed())
			var count int64
			Expect(db.Table("user_roles").Where("user_id = ?", u.ID).Count(&count).Error).To(Succeed())
			Expect(count).To(BeZero())
		})
	})

	Describe("EnsureRoleWithPermissions", func() {
		It("is idempotent", func() {
			first, err := service.EnsureRoleWithPermissions(ctx, "admin", []string{"create_user", "read_hudson"})
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Permissions).To(HaveLen(2))

			second, err := service.EnsureRoleWithPermissions(ctx, "admin", []string{"create_user", "read_hudson", "delete_user"})
			Expect(err).NotTo(HaveOccurred())
			Expect(second.ID).To(Equal(first.ID))
			Expect(second.Permissions).To(HaveLen(3))

			perms, err := service.ListPermissions(ctx, 0, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(perms).To(HaveLen(3))
		})
	})
})
