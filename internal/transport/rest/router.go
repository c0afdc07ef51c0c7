package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/rbac-admin/internal"
	"github.com/frahmantamala/rbac-admin/internal/auth"
	"github.com/frahmantamala/rbac-admin/internal/observability"
	"github.com/frahmantamala/rbac-admin/internal/rbac"
	"github.com/frahmantamala/rbac-admin/internal/transport"
	"github.com/frahmantamala/rbac-admin/internal/transport/middleware"
	"github.com/frahmantamala/rbac-admin/internal/transport/swagger"
	"github.com/frahmantamala/rbac-admin/internal/user"
	"github.com/frahmantamala/rbac-admin/pkg/logger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	"github.com/jmoiron/sqlx"
)

// Routes bundles what RegisterAllRoutes mounts. Metrics and OpenAPI are
// optional.
type Routes struct {
	Server      internal.ServerConfig
	DB          *sqlx.DB
	Logger      *slog.Logger
	Metrics     *observability.Metrics
	MetricsPath string
	OpenAPI     *OpenAPIDocument

	Gate  *auth.Gate
	Auth  *auth.Handler
	Users *user.Handler
	RBAC  *rbac.Handler
}

func RegisterAllRoutes(router *chi.Mux, routes Routes) {
	lg := routes.Logger
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	healthHandler := NewHealthHandler(routes.DB)
	gate := routes.Gate

	router.Use(withLogger(lg))
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.TraceID)
	router.Use(middleware.Recovery)
	router.Use(routes.Metrics.Middleware)
	router.Use(middleware.RequestLogger)
	router.Use(middleware.SecureHeaders(routes.Server.IsProduction))
	router.Use(middleware.CORS(routes.Server.AllowedOrigins))
	if routes.Server.RequestTimeout > 0 {
		router.Use(chiMiddleware.Timeout(routes.Server.RequestTimeout))
	}

	if routes.OpenAPI != nil {
		router.Handle("/openapi.yml", routes.OpenAPI)
		router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))
	}
	if routes.Metrics != nil && routes.MetricsPath != "" {
		router.Handle(routes.MetricsPath, routes.Metrics.Handler())
	}

	credentialLimiter := rateLimiter(routes.Server.LoginRateLimit, transport.NewBaseHandler(lg))

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)
		r.Get("/ping", healthHandler.Ping)

		r.Route("/auth", func(ar chi.Router) {
			ar.With(credentialLimiter).Post("/token", routes.Auth.Login)
			ar.With(credentialLimiter).Post("/register", routes.Auth.Register)
			ar.Post("/logout", routes.Auth.Logout)
		})

		r.Route("/users", func(ur chi.Router) {
			ur.With(gate.Authenticated).Get("/me", routes.Users.GetCurrentUser)

			ur.With(gate.Require(auth.PermCreateUser)).Post("/", routes.Users.CreateUser)
			ur.With(gate.Require(auth.PermReadAllUsers)).Get("/", routes.Users.ListUsers)
			ur.With(gate.Require(auth.PermReadUser)).Get("/{user_id}", routes.Users.GetUser)
			ur.With(gate.Require(auth.PermUpdateUser)).Put("/{user_id}", routes.Users.UpdateUser)
			ur.With(gate.Require(auth.PermDeleteUser)).Delete("/{user_id}", routes.Users.DeleteUser)

			ur.With(gate.Require(auth.PermAssignRoleToUser)).Post("/{user_id}/roles/{role_id}", routes.Users.AssignRole)
			ur.With(gate.Require(auth.PermRemoveRoleFromUser)).Delete("/{user_id}/roles/{role_id}", routes.Users.RemoveRole)
		})

		r.Route("/roles_permissions", func(rp chi.Router) {
			rp.Route("/roles", func(rr chi.Router) {
				rr.With(gate.Require(auth.PermCreateRole)).Post("/", routes.RBAC.CreateRole)
				rr.With(gate.Require(auth.PermReadAllRoles)).Get("/", routes.RBAC.ListRoles)
				rr.With(gate.Require(auth.PermReadRole)).Get("/{role_id}", routes.RBAC.GetRole)
				rr.With(gate.Require(auth.PermUpdateRole)).Put("/{role_id}", routes.RBAC.UpdateRole)
				rr.With(gate.Require(auth.PermDeleteRole)).Delete("/{role_id}", routes.RBAC.DeleteRole)

				rr.With(gate.Require(auth.PermAddPermissionToRole)).Post("/{role_id}/permissions/{permission_id}", routes.RBAC.AddPermissionToRole)
				rr.With(gate.Require(auth.PermRemovePermissionFromRole)).Delete("/{role_id}/permissions/{permission_id}", routes.RBAC.RemovePermissionFromRole)
			})

			rp.Route("/permissions", func(pr chi.Router) {
				pr.With(gate.Require(auth.PermCreatePermission)).Post("/", routes.RBAC.CreatePermission)
				pr.With(gate.Require(auth.PermReadAllPermissions)).Get("/", routes.RBAC.ListPermissions)
				pr.With(gate.Require(auth.PermReadPermission)).Get("/{permission_id}", routes.RBAC.GetPermission)
				pr.With(gate.Require(auth.PermUpdatePermission)).Put("/{permission_id}", routes.RBAC.UpdatePermission)
				pr.With(gate.Require(auth.PermDeletePermission)).Delete("/{permission_id}", routes.RBAC.DeletePermission)
			})
		})
	})
}

func withLogger(lg *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(logger.Into(r.Context(), lg)))
		})
	}
}

// rateLimiter caps credential endpoints per client IP. A limit of zero
// disables it.
func rateLimiter(perMinute int, base *transport.BaseHandler) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			base.WriteAppError(w, r, internal.ErrTooManyRequests)
		}),
	)
}
