package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/rbac-admin/api"
	"github.com/frahmantamala/rbac-admin/internal"
	"github.com/frahmantamala/rbac-admin/internal/auth"
	authPostgres "github.com/frahmantamala/rbac-admin/internal/auth/postgres"
	"github.com/frahmantamala/rbac-admin/internal/observability"
	"github.com/frahmantamala/rbac-admin/internal/rbac"
	rbacPostgres "github.com/frahmantamala/rbac-admin/internal/rbac/postgres"
	"github.com/frahmantamala/rbac-admin/internal/transport"
	"github.com/frahmantamala/rbac-admin/internal/transport/rest"
	"github.com/frahmantamala/rbac-admin/internal/user"
	userPostgres "github.com/frahmantamala/rbac-admin/internal/user/postgres"
	"github.com/frahmantamala/rbac-admin/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const shutdownTimeout = 30 * time.Second

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startHTTPServer(cmd.Context())
	},
}

type Dependencies struct {
	Config *internal.Config
	GormDB *gorm.DB
	DB     *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := initializeDependencies(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() {
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	}()

	srvCfg := deps.Config.Server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", srvCfg.Port),
		Handler:           deps.Router,
		ReadHeaderTimeout: srvCfg.ReadHeaderTimeout,
		ReadTimeout:       srvCfg.ReadTimeout,
		WriteTimeout:      srvCfg.WriteTimeout,
		IdleTimeout:       srvCfg.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deps.Logger.Info("Starting HTTP server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		deps.Logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	deps.Logger.Info("Server stopped")
	return nil
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logCfg := config.Observability.Logging
	logger.InitWithConfig(logger.Options{
		Level:      logCfg.Level,
		Format:     logCfg.Format,
		File:       logCfg.File,
		MaxSizeMB:  logCfg.MaxSizeMB,
		MaxBackups: logCfg.MaxBackups,
	})
	lg := logger.LoggerWrapper()

	gdb, sdb, err := openDatabase(ctx, config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	router, err := buildRouter(ctx, config, gdb, sdb, lg)
	if err != nil {
		_ = sdb.Close()
		return nil, err
	}

	return &Dependencies{
		Config: config,
		GormDB: gdb,
		DB:     sdb,
		Router: router,
		Logger: lg,
	}, nil
}

func buildRouter(ctx context.Context, config *internal.Config, gdb *gorm.DB, sdb *sqlx.DB, lg *slog.Logger) (*chi.Mux, error) {
	hasher, err := auth.NewPasswordHasher(config.Security.PasswordHasher, config.Security.BCryptCost)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewJWTTokenGenerator(config.Security.JWTSecret, config.Security.JWTAlgorithm)
	if err != nil {
		return nil, err
	}

	doc, err := rest.LoadOpenAPIDocument(ctx, api.OpenAPISpec)
	if err != nil {
		return nil, err
	}

	var metrics *observability.Metrics
	if config.Observability.Metrics.Enabled {
		metrics = observability.NewMetrics()
	}

	authService := auth.NewService(
		authPostgres.NewRepository(gdb),
		authPostgres.NewPermissionEvaluator(sdb),
		hasher,
		tokens,
		config.Security.TokenTTL(),
	)
	userService := user.NewService(userPostgres.NewUserRepository(gdb), hasher, lg)
	rbacService := rbac.NewService(rbacPostgres.NewRBACRepository(gdb), lg)

	base := transport.NewBaseHandler(lg)
	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Routes{
		Server:      config.Server,
		DB:          sdb,
		Logger:      lg,
		Metrics:     metrics,
		MetricsPath: config.Observability.Metrics.Path,
		OpenAPI:     doc,
		Gate:        auth.NewGate(authService, metrics, lg),
		Auth:        auth.NewHandler(authService),
		Users:       user.NewHandler(base, userService),
		RBAC:        rbac.NewHandler(base, rbacService),
	})
	return router, nil
}
