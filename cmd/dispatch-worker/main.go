package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/feastline/dispatch-backend/internal/analytics/router"
	"github.com/feastline/dispatch-backend/internal/analytics/worker"
	"github.com/feastline/dispatch-backend/internal/analytics/writer"
	"github.com/feastline/dispatch-backend/pkg/bigquery"
	"github.com/feastline/dispatch-backend/pkg/config"
	"github.com/feastline/dispatch-backend/pkg/logger"
	"github.com/feastline/dispatch-backend/pkg/outbox/idempotency"
	"github.com/feastline/dispatch-backend/pkg/pubsub"
	"github.com/feastline/dispatch-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "dispatch-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "dispatch-worker"

	logg = logger.New(logger.Options{
		ServiceName: "dispatch-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "failed to close redis client", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "failed to close pubsub client", err)
		}
	}()

	bqClient, err := bigquery.NewClient(context.Background(), cfg.GCP, cfg.BigQuery, logg)
	requireResource(ctx, logg, "bigquery client", err)
	defer func() {
		if err := bqClient.Close(); err != nil {
			logg.Error(ctx, "failed to close bigquery client", err)
		}
	}()

	assignmentSub := pubsubClient.AssignmentSubscription()
	if assignmentSub == nil {
		requireResource(ctx, logg, "assignment subscription", errors.New("subscription not configured"))
	}
	driverSub := pubsubClient.DriverSubscription()
	if driverSub == nil {
		requireResource(ctx, logg, "driver subscription", errors.New("subscription not configured"))
	}

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	eventWriter, err := writer.New(bqClient, writer.Config{
		AssignmentTable:  cfg.BigQuery.AssignmentEventsTable,
		DriverEventTable: cfg.BigQuery.DriverEventsTable,
	})
	requireResource(ctx, logg, "analytics bigquery writer", err)

	routingHandler, err := router.NewRouter(eventWriter, logg, nil)
	requireResource(ctx, logg, "analytics router", err)

	assignmentWorker, err := worker.NewService(assignmentSub, routingHandler, manager, logg)
	requireResource(ctx, logg, "assignment worker service", err)

	driverWorker, err := worker.NewService(driverSub, routingHandler, manager, logg)
	requireResource(ctx, logg, "driver worker service", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(runCtx, "dispatch worker ready")

	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(func() error {
		return assignmentWorker.Run(groupCtx)
	})
	group.Go(func() error {
		return driverWorker.Run(groupCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "dispatch worker failed", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
