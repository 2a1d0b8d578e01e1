package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/feastline/dispatch-backend/api/routes"
	"github.com/feastline/dispatch-backend/internal/analytics"
	"github.com/feastline/dispatch-backend/internal/assignment"
	"github.com/feastline/dispatch-backend/internal/chefs"
	"github.com/feastline/dispatch-backend/internal/codes"
	"github.com/feastline/dispatch-backend/internal/dispatch"
	"github.com/feastline/dispatch-backend/internal/drivers"
	"github.com/feastline/dispatch-backend/internal/geo"
	"github.com/feastline/dispatch-backend/internal/ledger"
	"github.com/feastline/dispatch-backend/internal/notifications"
	"github.com/feastline/dispatch-backend/internal/orders"
	"github.com/feastline/dispatch-backend/internal/pricing"
	"github.com/feastline/dispatch-backend/internal/realtime"
	"github.com/feastline/dispatch-backend/internal/subscriptions"
	"github.com/feastline/dispatch-backend/pkg/bigquery"
	"github.com/feastline/dispatch-backend/pkg/config"
	"github.com/feastline/dispatch-backend/pkg/db"
	"github.com/feastline/dispatch-backend/pkg/env"
	"github.com/feastline/dispatch-backend/pkg/instance"
	"github.com/feastline/dispatch-backend/pkg/logger"
	"github.com/feastline/dispatch-backend/pkg/maps"
	"github.com/feastline/dispatch-backend/pkg/metrics"
	"github.com/feastline/dispatch-backend/pkg/migrate"
	"github.com/feastline/dispatch-backend/pkg/outbox"
	"github.com/feastline/dispatch-backend/pkg/pubsub"
	"github.com/feastline/dispatch-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	cfg.Service.Kind = "api"

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
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	bigqueryClient, err := bigquery.NewClient(context.Background(), cfg.GCP, cfg.BigQuery, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap bigquery", err)
		os.Exit(1)
	}
	defer func() {
		if err := bigqueryClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing bigquery client", err)
		}
	}()

	mapsClient, err := maps.NewClient(cfg.GoogleMaps.APIKey)
	if err != nil {
		logg.Error(context.Background(), "failed to create maps client", err)
		os.Exit(1)
	}

	geoIndex, err := geo.NewRedisIndex(redisClient, redisClient.GeoIndexKey("drivers"))
	if err != nil {
		logg.Error(context.Background(), "failed to create driver geo index", err)
		os.Exit(1)
	}

	driverFeed, err := drivers.NewFeed(pubsubClient.DriverPublisher())
	if err != nil {
		logg.Error(context.Background(), "failed to create driver event feed", err)
		os.Exit(1)
	}

	driversService, err := drivers.NewService(drivers.NewRepository(dbClient.DB()), geoIndex, driverFeed, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create drivers service", err)
		os.Exit(1)
	}

	chefsService, err := chefs.NewService(chefs.NewRepository(dbClient.DB()), mapsClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create chefs service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	analyticsService, err := analytics.NewService(bigqueryClient, cfg.GCP.ProjectID, cfg.BigQuery.Dataset, cfg.BigQuery.AssignmentEventsTable)
	if err != nil {
		logg.Error(context.Background(), "failed to create analytics service", err)
		os.Exit(1)
	}

	dispatchService, err := dispatch.NewService(dispatch.ServiceParams{
		Tx:            dbClient,
		Assignments:   assignment.NewRepository(dbClient.DB()),
		Orders:        orders.NewRepository(dbClient.DB()),
		Chefs:         chefs.NewRepository(dbClient.DB()),
		Subscriptions: subscriptions.NewRepository(dbClient.DB()),
		Drivers:       driversService,
		Geo:           geoIndex,
		Codes:         codes.NewGenerator(),
		Pricing:       pricing.NewCalculator(cfg.Pricing),
		Outbox:        outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Ledger:        ledgerService,
		Notifications: notificationsService,
		Realtime:      realtime.NewMemoryRegistry(0),
		Metrics:       metrics.NewDispatchMetrics(prometheus.DefaultRegisterer),
		Config:        cfg.Dispatch,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatch service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(
		cfg,
		logg,
		dbClient,
		redisClient,
		bigqueryClient,
		prometheus.DefaultGatherer,
		metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
		dispatchService,
		driversService,
		chefsService,
		ledgerService,
		analyticsService,
	)

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server shutting down gracefully")
}
