package middleware_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/rbac-admin/internal/transport/middleware"
	"github.com/frahmantamala/rbac-admin/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TraceID", func() {
	It("keeps an inbound trace id", func() {
		h := middleware.TraceID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.TraceHeader, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		Expect(rec.Header().Get(middleware.TraceHeader)).To(Equal("abc-123"))
	})

	It("mints one when absent", func() {
		h := middleware.TraceID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(rec.Header().Get(middleware.TraceHeader)).To(HaveLen(36))
	})
})

var _ = Describe("RequestLogger", func() {
	It("masks passwords and tokens in logged bodies", func() {
		var buf bytes.Buffer
		lg := slog.New(slog.NewJSONHandler(&buf, nil))

		h := middleware.RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var in map[string]string
			Expect(json.NewDecoder(r.Body).Decode(&in)).To(Succeed())
			Expect(in["password"]).To(Equal("hunter2"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"jwt.value.here","token_type":"bearer"}`))
		}))

		req := httptest.NewRequest(http.MethodPost, "/auth/register",
			strings.NewReader(`{"username":"alice","password":"hunter2"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer secret-token")
		req = req.WithContext(logger.Into(req.Context(), lg))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		logged := buf.String()
		Expect(rec.Body.String()).To(ContainSubstring("jwt.value.here"))
		Expect(logged).To(ContainSubstring("alice"))
		Expect(logged).NotTo(ContainSubstring("hunter2"))
		Expect(logged).NotTo(ContainSubstring("secret-token"))
		Expect(logged).NotTo(ContainSubstring("jwt.value.here"))
	})
})

var _ = Describe("Recovery", func() {
	It("answers 500 without echoing the panic", func() {
		h := middleware.Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("db password is swordfish")
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(rec.Body.String()).To(ContainSubstring("INTERNAL_ERROR"))
		Expect(rec.Body.String()).NotTo(ContainSubstring("swordfish"))
	})
})

var _ = Describe("CORS", func() {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })

	It("answers preflight for an allowed origin", func() {
		h := middleware.CORS("https://app.example.com")(next)
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/users", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusNoContent))
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://app.example.com"))
		Expect(rec.Header().Get("Access-Control-Allow-Headers")).To(ContainSubstring("Authorization"))
	})

	It("does not echo an unknown origin", func() {
		h := middleware.CORS("https://app.example.com")(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusTeapot))
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
	})
})

var _ = Describe("SecureHeaders", func() {
	It("sets hardening headers", func() {
		h := middleware.SecureHeaders(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(rec.Header().Get("X-Frame-Options")).To(Equal("DENY"))
		Expect(rec.Header().Get("X-Content-Type-Options")).To(Equal("nosniff"))
	})
})
