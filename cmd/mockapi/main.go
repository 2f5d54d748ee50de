package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/stroytech/stroycrm-backend/api/routes"
	"github.com/stroytech/stroycrm-backend/internal/audit"
	"github.com/stroytech/stroycrm-backend/internal/auth"
	"github.com/stroytech/stroycrm-backend/internal/clients"
	"github.com/stroytech/stroycrm-backend/internal/contractors"
	"github.com/stroytech/stroycrm-backend/internal/dashboard"
	"github.com/stroytech/stroycrm-backend/internal/employees"
	"github.com/stroytech/stroycrm-backend/internal/estimates"
	"github.com/stroytech/stroycrm-backend/internal/projects"
	"github.com/stroytech/stroycrm-backend/internal/users"
	"github.com/stroytech/stroycrm-backend/internal/warehouse"
	"github.com/stroytech/stroycrm-backend/pkg/config"
	"github.com/stroytech/stroycrm-backend/pkg/db"
	"github.com/stroytech/stroycrm-backend/pkg/db/models"
	"github.com/stroytech/stroycrm-backend/pkg/enums"
	"github.com/stroytech/stroycrm-backend/pkg/logger"
	"github.com/stroytech/stroycrm-backend/pkg/security"
)

// Demo server: in-memory SQLite, no Redis. Sessions are not verified and
// idempotency replay is disabled, so it must never face real traffic.
func main() {
	logg := logger.New(logger.Options{ServiceName: "mockapi"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	// The demo server boots without any environment prepared.
	defaults := map[string]string{
		config.EnvAppEnv:    config.AppEnvDev,
		config.EnvPort:      "8080",
		config.EnvDBDSN:     "file:mockapi?mode=memory&cache=shared",
		config.EnvRedisURL:  "redis://localhost:6379/0",
		config.EnvJWTSecret: "mockapi-local-secret",
		config.EnvJWTIssuer: "stroycrm-mockapi",
		config.EnvJWTExpMins: "60",
	}
	for key, value := range defaults {
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "mockapi",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	cfg.DB.Driver = "sqlite"
	cfg.DB.DSN = "file:mockapi?mode=memory&cache=shared"

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := dbClient.DB().AutoMigrate(models.All()...); err != nil {
		logg.Error(context.Background(), "failed to migrate schema", err)
		os.Exit(1)
	}

	if err := seedAdmin(context.Background(), dbClient.DB(), cfg); err != nil {
		logg.Error(context.Background(), "failed to seed admin user", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: noopSessions{},
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	auditor, err := audit.NewRecorder(dbClient.DB(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create audit recorder", err)
		os.Exit(1)
	}

	clientsService, err := clients.NewService(clients.NewRepository(dbClient.DB()), auditor)
	if err != nil {
		logg.Error(context.Background(), "failed to create clients service", err)
		os.Exit(1)
	}

	projectsService, err := projects.NewService(projects.NewRepository(dbClient.DB()), dbClient, auditor)
	if err != nil {
		logg.Error(context.Background(), "failed to create projects service", err)
		os.Exit(1)
	}

	estimatesService, err := estimates.NewService(estimates.NewRepository(dbClient.DB()), dbClient, projectsService, auditor)
	if err != nil {
		logg.Error(context.Background(), "failed to create estimates service", err)
		os.Exit(1)
	}

	contractorsService, err := contractors.NewService(contractors.NewRepository(dbClient.DB()), auditor)
	if err != nil {
		logg.Error(context.Background(), "failed to create contractors service", err)
		os.Exit(1)
	}

	employeesService, err := employees.NewService(employees.NewRepository(dbClient.DB()), auditor)
	if err != nil {
		logg.Error(context.Background(), "failed to create employees service", err)
		os.Exit(1)
	}

	warehouseService, err := warehouse.NewService(warehouse.NewRepository(dbClient.DB()), dbClient, auditor)
	if err != nil {
		logg.Error(context.Background(), "failed to create warehouse service", err)
		os.Exit(1)
	}

	dashboardService, err := dashboard.NewService(dbClient.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to create dashboard service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(cfg, logg, routes.Deps{
		DB: dbClient,

		AuthService:        authService,
		UsersRepo:          usersRepo,
		ClientsService:     clientsService,
		ProjectsService:    projectsService,
		EstimatesService:   estimatesService,
		ContractorsService: contractorsService,
		EmployeesService:   employeesService,
		WarehouseService:   warehouseService,
		DashboardService:   dashboardService,
	})

	addr := ":" + cfg.App.Port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting mock api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "mock api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

// noopSessions stands in for the Redis-backed manager. Every access id is
// accepted and refresh tokens are static.
type noopSessions struct{}

func (noopSessions) Generate(ctx context.Context, accessID string) (string, error) {
	return "mock-refresh-token", nil
}

func (noopSessions) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return oldAccessID, "mock-refresh-token", nil
}

func (noopSessions) Revoke(ctx context.Context, accessID string) error {
	return nil
}

func seedAdmin(ctx context.Context, conn *gorm.DB, cfg *config.Config) error {
	var count int64
	if err := conn.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", "admin").
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := security.HashPassword("admin123", cfg.Password)
	if err != nil {
		return err
	}
	admin := models.User{
		Username:     "admin",
		Email:        "admin@stroycrm.local",
		PasswordHash: hash,
		FirstName:    "Administrator",
		LastName:     "StroyCRM",
		Role:         enums.UserRoleAdmin,
		IsActive:     true,
	}
	return conn.WithContext(ctx).Create(&admin).Error
}
