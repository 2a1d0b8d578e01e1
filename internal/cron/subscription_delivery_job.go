package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/feastline/dispatch-backend/pkg/db/models"
	"github.com/feastline/dispatch-backend/pkg/logger"
)

const defaultDeliveryBatchLimit = 500

// SubscriptionDeliveryJobParams configures the daily meal-plan batch.
type SubscriptionDeliveryJobParams struct {
	Logger        *logger.Logger
	Subscriptions dueSubscriptionLister
	Dispatch      subscriptionDeliveryCreator
	Limit         int
	Now           func() time.Time
}

type dueSubscriptionLister interface {
	ListDueOn(ctx context.Context, day time.Weekday, limit int) ([]models.MealSubscription, error)
}

type subscriptionDeliveryCreator interface {
	CreateSubscriptionDelivery(ctx context.Context, subscription *models.MealSubscription) (*models.DeliveryAssignment, error)
}

// NewSubscriptionDeliveryJob builds the job that opens delivery
// assignments for subscriptions scheduled on the current weekday.
func NewSubscriptionDeliveryJob(params SubscriptionDeliveryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscriptions service required")
	}
	if params.Dispatch == nil {
		return nil, fmt.Errorf("dispatch service required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultDeliveryBatchLimit
	}
	return &subscriptionDeliveryJob{
		logg:          params.Logger,
		subscriptions: params.Subscriptions,
		dispatch:      params.Dispatch,
		limit:         limit,
		now:           now,
	}, nil
}

type subscriptionDeliveryJob struct {
	logg          *logger.Logger
	subscriptions dueSubscriptionLister
	dispatch      subscriptionDeliveryCreator
	limit         int
	now           func() time.Time
}

func (j *subscriptionDeliveryJob) Name() string { return "subscription-delivery-batch" }

func (j *subscriptionDeliveryJob) Run(ctx context.Context) error {
	today := j.now().UTC()
	due, err := j.subscriptions.ListDueOn(ctx, today.Weekday(), j.limit)
	if err != nil {
		return fmt.Errorf("list due subscriptions: %w", err)
	}
	var errs error
	created := 0
	skipped := 0
	for i := range due {
		assignment, err := j.dispatch.CreateSubscriptionDelivery(ctx, &due[i])
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("subscription %s: %w", due[i].ID, err))
			continue
		}
		if assignment == nil {
			skipped++
			continue
		}
		created++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"weekday":    today.Weekday().String(),
		"candidates": len(due),
		"created":    created,
		"skipped":    skipped,
	})
	j.logg.Info(logCtx, "subscription delivery batch complete")
	return errs
}
