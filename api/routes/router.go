package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authcontrollers "github.com/stroytech/stroycrm-backend/api/controllers/auth"
	clientcontrollers "github.com/stroytech/stroycrm-backend/api/controllers/clients"
	contractorcontrollers "github.com/stroytech/stroycrm-backend/api/controllers/contractors"
	dashboardcontrollers "github.com/stroytech/stroycrm-backend/api/controllers/dashboard"
	employeecontrollers "github.com/stroytech/stroycrm-backend/api/controllers/employees"
	estimatecontrollers "github.com/stroytech/stroycrm-backend/api/controllers/estimates"
	healthcontrollers "github.com/stroytech/stroycrm-backend/api/controllers/health"
	projectcontrollers "github.com/stroytech/stroycrm-backend/api/controllers/projects"
	usercontrollers "github.com/stroytech/stroycrm-backend/api/controllers/users"
	warehousecontrollers "github.com/stroytech/stroycrm-backend/api/controllers/warehouse"
	"github.com/stroytech/stroycrm-backend/api/middleware"
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
	"github.com/stroytech/stroycrm-backend/pkg/enums"
	"github.com/stroytech/stroycrm-backend/pkg/logger"
	"github.com/stroytech/stroycrm-backend/pkg/metrics"
	pkgredis "github.com/stroytech/stroycrm-backend/pkg/redis"
)

// Deps bundles everything the HTTP layer needs. RedisClient and
// SessionManager may be nil; session verification, rate limiting and
// idempotency replay are then skipped.
type Deps struct {
	DB             healthcontrollers.Pinger
	RedisClient    *pkgredis.Client
	SessionManager session.AccessSessionChecker
	HTTPMetrics    *metrics.HTTPMetrics

	AuthService        auth.Service
	UsersRepo          *users.Repository
	ClientsService     clients.Service
	ProjectsService    projects.Service
	EstimatesService   estimates.Service
	ContractorsService contractors.Service
	EmployeesService   employees.Service
	WarehouseService   warehouse.Service
	DashboardService   dashboard.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)
	if deps.HTTPMetrics != nil {
		r.Use(deps.HTTPMetrics.Middleware)
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUserLimit,
	)
	loginLimiter := middleware.AuthRateLimit(loginPolicy, nil, logg)
	if deps.RedisClient != nil {
		loginLimiter = middleware.AuthRateLimit(loginPolicy, deps.RedisClient, logg)
	}

	healthDeps := map[string]healthcontrollers.Pinger{
		"database": deps.DB,
		"redis":    nil,
	}
	if deps.RedisClient != nil {
		healthDeps["redis"] = deps.RedisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", healthcontrollers.Live())
		r.Get("/ready", healthcontrollers.Ready(healthDeps))
	})
	r.Handle("/metrics", promhttp.Handler())

	var idemStore pkgredis.IdempotencyStore
	if deps.RedisClient != nil {
		idemStore = deps.RedisClient
	}
	authed := middleware.Auth(cfg.JWT, deps.SessionManager, logg)

	// All four auth endpoints share one subtree: chi mounts a subrouter per
	// path prefix, so splitting them across sibling Routes would leave the
	// later half unreachable.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(loginLimiter).Post("/login", authcontrollers.Login(deps.AuthService, logg))
		r.Post("/refresh", authcontrollers.Refresh(deps.AuthService, logg))
		r.Group(func(r chi.Router) {
			r.Use(authed, middleware.Idempotency(idemStore, logg))
			r.Post("/logout", authcontrollers.Logout(deps.AuthService, logg))
			r.With(middleware.RequireRoles(logg, enums.UserRoleAdmin)).
				Post("/register", authcontrollers.Register(deps.AuthService, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authed)
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/users", func(r chi.Router) {
			r.With(middleware.RequireRoles(logg, enums.DirectorRoles...)).
				Get("/", usercontrollers.List(deps.UsersRepo, logg))
			r.Get("/profile", usercontrollers.Profile(deps.UsersRepo, logg))
			r.Put("/profile", usercontrollers.UpdateProfile(deps.UsersRepo, logg))
		})

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", clientcontrollers.List(deps.ClientsService, logg))
			r.Post("/", clientcontrollers.Create(deps.ClientsService, logg))
			r.Get("/{clientId}", clientcontrollers.Detail(deps.ClientsService, logg))
			r.Put("/{clientId}", clientcontrollers.Update(deps.ClientsService, logg))
			r.Delete("/{clientId}", clientcontrollers.Delete(deps.ClientsService, logg))
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", projectcontrollers.List(deps.ProjectsService, logg))
			r.With(middleware.RequireRoles(logg, enums.DirectorRoles...)).
				Post("/", projectcontrollers.Create(deps.ProjectsService, logg))
			r.Get("/{projectId}", projectcontrollers.Detail(deps.ProjectsService, logg))
			r.Put("/{projectId}", projectcontrollers.Update(deps.ProjectsService, logg))
			r.With(middleware.RequireRoles(logg, enums.DirectorRoles...)).
				Delete("/{projectId}", projectcontrollers.Delete(deps.ProjectsService, logg))
			r.Get("/{projectId}/tasks", projectcontrollers.ListTasks(deps.ProjectsService, logg))
			r.Post("/{projectId}/tasks", projectcontrollers.CreateTask(deps.ProjectsService, logg))
			r.Delete("/{projectId}/tasks/{taskId}", projectcontrollers.DeleteTask(deps.ProjectsService, logg))
			r.Get("/{projectId}/estimates", estimatecontrollers.ListByProject(deps.EstimatesService, logg))
			r.With(middleware.RequireRoles(logg, enums.EstimatorRoles...)).
				Post("/{projectId}/estimates", estimatecontrollers.Create(deps.EstimatesService, logg))
		})
		r.Put("/tasks/{taskId}", projectcontrollers.UpdateTask(deps.ProjectsService, logg))

		r.Route("/estimates/{estimateId}", func(r chi.Router) {
			r.Get("/", estimatecontrollers.Detail(deps.EstimatesService, logg))
			r.Get("/items", estimatecontrollers.ListItems(deps.EstimatesService, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRoles(logg, enums.EstimatorRoles...))
				r.Patch("/", estimatecontrollers.Update(deps.EstimatesService, logg))
				r.Post("/items", estimatecontrollers.AddItem(deps.EstimatesService, logg))
				r.Put("/items/{itemId}", estimatecontrollers.UpdateItem(deps.EstimatesService, logg))
				r.Delete("/items/{itemId}", estimatecontrollers.DeleteItem(deps.EstimatesService, logg))
			})
		})

		r.Route("/contractors", func(r chi.Router) {
			r.Get("/", contractorcontrollers.List(deps.ContractorsService, logg))
			r.Post("/", contractorcontrollers.Create(deps.ContractorsService, logg))
			r.Get("/{contractorId}", contractorcontrollers.Detail(deps.ContractorsService, logg))
			r.Put("/{contractorId}", contractorcontrollers.Update(deps.ContractorsService, logg))
			r.Delete("/{contractorId}", contractorcontrollers.Delete(deps.ContractorsService, logg))
		})

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", employeecontrollers.List(deps.EmployeesService, logg))
			r.Post("/", employeecontrollers.Create(deps.EmployeesService, logg))
			r.Get("/{employeeId}", employeecontrollers.Detail(deps.EmployeesService, logg))
			r.Put("/{employeeId}", employeecontrollers.Update(deps.EmployeesService, logg))
		})

		r.Route("/warehouse/items", func(r chi.Router) {
			r.Get("/", warehousecontrollers.ListItems(deps.WarehouseService, logg))
			r.Post("/", warehousecontrollers.CreateItem(deps.WarehouseService, logg))
			r.Get("/{itemId}", warehousecontrollers.ItemDetail(deps.WarehouseService, logg))
			r.Put("/{itemId}", warehousecontrollers.UpdateItem(deps.WarehouseService, logg))
			r.Get("/{itemId}/movements", warehousecontrollers.ListMovements(deps.WarehouseService, logg))
			r.Post("/{itemId}/movements", warehousecontrollers.CreateMovement(deps.WarehouseService, logg))
		})

		r.Get("/dashboard", dashboardcontrollers.Stats(deps.DashboardService, logg))
	})

	return r
}
