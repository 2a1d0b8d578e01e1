package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/feastline/dispatch-backend/api/controllers"
	"github.com/feastline/dispatch-backend/api/middleware"
	"github.com/feastline/dispatch-backend/internal/analytics"
	"github.com/feastline/dispatch-backend/internal/chefs"
	"github.com/feastline/dispatch-backend/internal/dispatch"
	"github.com/feastline/dispatch-backend/internal/drivers"
	"github.com/feastline/dispatch-backend/internal/ledger"
	"github.com/feastline/dispatch-backend/pkg/bigquery"
	"github.com/feastline/dispatch-backend/pkg/config"
	"github.com/feastline/dispatch-backend/pkg/db"
	"github.com/feastline/dispatch-backend/pkg/logger"
	"github.com/feastline/dispatch-backend/pkg/metrics"
	"github.com/feastline/dispatch-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	bigqueryClient bigquery.Pinger,
	metricsGatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	dispatchService dispatch.Service,
	driversService drivers.Service,
	chefsService chefs.Service,
	ledgerService ledger.Service,
	analyticsService analytics.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(),
		middleware.Metrics(httpMetrics),
		middleware.Logging(logg),
	)

	heartbeatPolicy := middleware.NewRateLimitPolicy(
		"heartbeat",
		cfg.RateLimit.HeartbeatWindow,
		cfg.RateLimit.HeartbeatLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", controllers.HealthLive(cfg))
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient, bigqueryClient))
	})

	if metricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/dispatch", func(r chi.Router) {
			r.Route("/assignments", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAnyRole(logg, "admin", "service"))
					r.Post("/", controllers.CreateAssignment(dispatchService, logg))
					r.Get("/", controllers.ListAssignments(dispatchService, logg))
					r.Get("/{assignmentID}", controllers.GetAssignment(dispatchService, logg))
					r.Post("/{assignmentID}/auto-assign", controllers.AutoAssignAssignment(dispatchService, logg))
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole("driver", logg))
					r.Post("/{assignmentID}/accept", controllers.AcceptAssignment(dispatchService, logg))
					r.Post("/{assignmentID}/pickup", controllers.PickupAssignment(dispatchService, logg))
					r.Post("/{assignmentID}/deliver", controllers.DeliverAssignment(dispatchService, logg))
				})

				r.Post("/{assignmentID}/cancel", controllers.CancelAssignment(dispatchService, logg))
				r.With(middleware.RequireRole("admin", logg)).Post("/{assignmentID}/reassign", controllers.ReassignAssignment(dispatchService, logg))
			})

			r.With(middleware.RequireRole("admin", logg)).Get("/stats", controllers.DispatchStats(analyticsService, logg))
		})

		r.Route("/drivers", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole("driver", logg))
				r.With(middleware.RateLimit(heartbeatPolicy, redisClient, logg)).Post("/heartbeat", controllers.DriverHeartbeat(driversService, logg))
				r.Post("/status", controllers.DriverStatus(driversService, logg))
			})

			r.With(middleware.RequireAnyRole(logg, "driver", "admin")).Get("/{driverID}/earnings", controllers.DriverEarnings(ledgerService, logg))
		})

		r.Route("/chefs", func(r chi.Router) {
			r.Use(middleware.RequireAnyRole(logg, "admin", "service"))
			r.Post("/", controllers.OnboardChef(chefsService, logg))
			r.Get("/{chefID}", controllers.GetChef(chefsService, logg))
		})
	})

	return r
}
