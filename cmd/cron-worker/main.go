package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/feastline/dispatch-backend/internal/assignment"
	"github.com/feastline/dispatch-backend/internal/chefs"
	"github.com/feastline/dispatch-backend/internal/codes"
	"github.com/feastline/dispatch-backend/internal/cron"
	"github.com/feastline/dispatch-backend/internal/dispatch"
	"github.com/feastline/dispatch-backend/internal/drivers"
	"github.com/feastline/dispatch-backend/internal/geo"
	"github.com/feastline/dispatch-backend/internal/ledger"
	"github.com/feastline/dispatch-backend/internal/notifications"
	"github.com/feastline/dispatch-backend/internal/orders"
	"github.com/feastline/dispatch-backend/internal/pricing"
	"github.com/feastline/dispatch-backend/internal/realtime"
	"github.com/feastline/dispatch-backend/internal/subscriptions"
	"github.com/feastline/dispatch-backend/pkg/config"
	"github.com/feastline/dispatch-backend/pkg/db"
	"github.com/feastline/dispatch-backend/pkg/logger"
	"github.com/feastline/dispatch-backend/pkg/metrics"
	"github.com/feastline/dispatch-backend/pkg/migrate"
	"github.com/feastline/dispatch-backend/pkg/outbox"
	"github.com/feastline/dispatch-backend/pkg/pubsub"
	"github.com/feastline/dispatch-backend/pkg/redis"
)

const dailyCadence = 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	notificationsRepo := notifications.NewRepository(dbClient.DB())
	notificationsService, err := notifications.NewService(notificationsRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	subscriptionsService, err := subscriptions.NewService(subscriptions.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create subscriptions service", err)
		os.Exit(1)
	}

	outboxRepo := outbox.NewRepository(dbClient.DB())
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
		Outbox:        outbox.NewService(outboxRepo, logg),
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

	autoAssignSweep, err := cron.NewAutoAssignSweepJob(cron.AutoAssignSweepJobParams{
		Logger:   logg,
		Dispatch: dispatchService,
		StaleAge: cfg.Dispatch.StaleAvailableAge,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auto-assign sweep job", err)
		os.Exit(1)
	}

	staleDriverSweep, err := cron.NewStaleDriverSweepJob(cron.StaleDriverSweepJobParams{
		Logger:  logg,
		Drivers: driversService,
		TTL:     cfg.Dispatch.HeartbeatTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stale driver sweep job", err)
		os.Exit(1)
	}

	subscriptionDelivery, err := cron.NewSubscriptionDeliveryJob(cron.SubscriptionDeliveryJobParams{
		Logger:        logg,
		Subscriptions: subscriptionsService,
		Dispatch:      dispatchService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription delivery job", err)
		os.Exit(1)
	}

	outboxRetention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outboxRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	notificationCleanup, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: notificationsRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification cleanup job", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(
		autoAssignSweep,
		staleDriverSweep,
		cron.Every(dailyCadence, subscriptionDelivery),
		cron.Every(dailyCadence, outboxRetention),
		cron.Every(dailyCadence, notificationCleanup),
	)

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env)), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.TickInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return "cron-worker:" + env
}
