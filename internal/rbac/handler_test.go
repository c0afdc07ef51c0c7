package rbac_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/rbac-admin/internal/rbac"
	rbacPostgres "github.com/frahmantamala/rbac-admin/internal/rbac/postgres"
	"github.com/frahmantamala/rbac-admin/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("RBAC Handler Integration", func() {
	var router *chi.Mux

	BeforeEach(func() {
		db := openTestDB()
		service := rbac.NewService(rbacPostgres.NewRBACRepository(db), testLogger())
		handler := rbac.NewHandler(&transport.BaseHandler{Logger: testLogger()}, service)

		router = chi.NewRouter()
		router.Get("/roles", handler.ListRoles)
		router.Post("/roles", handler.CreateRole)
		router.Get("/roles/{role_id}", handler.GetRole)
		router.Delete("/roles/{role_id}", handler.DeleteRole)
		router.Post("/permissions", handler.CreatePermission)
		router.Post("/roles/{role_id}/permissions/{permission_id}", handler.AddPermissionToRole)
		router.Delete("/roles/{role_id}/permissions/{permission_id}", handler.RemovePermissionFromRole)
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body != "" {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		} else {
			req = httptest.NewRequest(method, path, nil)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("manages the role/permission edge over HTTP", func() {
		rec := do(http.MethodPost, "/roles", `{"name":"admin"}`)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		var role rbac.RoleResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &role)).To(Succeed())

		rec = do(http.MethodPost, "/permissions", `{"name":"read_hudson"}`)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		var perm rbac.PermissionResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &perm)).To(Succeed())

		edge := fmt.Sprintf("/roles/%d/permissions/%d", role.ID, perm.ID)
		Expect(do(http.MethodPost, edge, "").Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodPost, edge, "").Code).To(Equal(http.StatusConflict))
		Expect(do(http.MethodDelete, edge, "").Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodDelete, edge, "").Code).To(Equal(http.StatusNotFound))
	})

	It("returns 409 for a duplicate role name", func() {
		Expect(do(http.MethodPost, "/roles", `{"name":"admin"}`).Code).To(Equal(http.StatusCreated))
		Expect(do(http.MethodPost, "/roles", `{"name":"admin"}`).Code).To(Equal(http.StatusConflict))
	})

	It("returns 404 for a missing role and 400 for a bad id", func() {
		Expect(do(http.MethodGet, "/roles/42", "").Code).To(Equal(http.StatusNotFound))
		Expect(do(http.MethodGet, "/roles/abc", "").Code).To(Equal(http.StatusBadRequest))
		Expect(do(http.MethodDelete, "/roles/42", "").Code).To(Equal(http.StatusNotFound))
	})

	It("validates pagination", func() {
		Expect(do(http.MethodGet, "/roles?limit=0", "").Code).To(Equal(http.StatusBadRequest))
		Expect(do(http.MethodGet, "/roles?limit=101", "").Code).To(Equal(http.StatusBadRequest))
		Expect(do(http.MethodGet, "/roles?skip=-1", "").Code).To(Equal(http.StatusBadRequest))
		Expect(do(http.MethodGet, "/roles", "").Code).To(Equal(http.StatusOK))
	})
})
