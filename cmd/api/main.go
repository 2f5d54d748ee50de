package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

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
	"github.com/stroytech/stroycrm-backend/pkg/auth/session"
	"github.com/stroytech/stroycrm-backend/pkg/config"
	"github.com/stroytech/stroycrm-backend/pkg/db"
	"github.com/stroytech/stroycrm-backend/pkg/logger"
	"github.com/stroytech/stroycrm-backend/pkg/metrics"
	"github.com/stroytech/stroycrm-backend/pkg/migrate"
	"github.com/stroytech/stroycrm-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
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
		DB:             dbClient,
		RedisClient:    redisClient,
		SessionManager: sessionManager,
		HTTPMetrics:    metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),

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

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

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
			logg.Error(ctx, "api server stopped unexpectedly", err)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}

	closeErr := multierr.Append(redisClient.Close(), dbClient.Close())
	if closeErr != nil {
		logg.Error(ctx, "error closing dependencies", closeErr)
		os.Exit(1)
	}
}
