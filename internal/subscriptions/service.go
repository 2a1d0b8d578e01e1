package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/feastline/dispatch-backend/pkg/db/models"
	"github.com/feastline/dispatch-backend/pkg/enums"
	pkgerrors "github.com/feastline/dispatch-backend/pkg/errors"
	"github.com/feastline/dispatch-backend/pkg/types"
)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// CreateSubscriptionInput registers a recurring meal plan.
type CreateSubscriptionInput struct {
	CustomerRef     uuid.UUID
	ChefID          uuid.UUID
	DeliveryDays    []string
	Priority        *enums.AssignmentPriority
	DeliveryAddress types.Address
	DeliveryPoint   types.GeographyPoint
}

// Service manages meal-plan subscriptions. Activation on first delivery is
// driven by the dispatch flow, not by this surface.
type Service interface {
	Create(ctx context.Context, in CreateSubscriptionInput) (*models.MealSubscription, error)
	Get(ctx context.Context, id uuid.UUID) (*models.MealSubscription, error)
	ListDueOn(ctx context.Context, day time.Weekday, limit int) ([]models.MealSubscription, error)
}

type service struct {
	repo Repository
}

// NewService builds the subscription service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("subscription repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, in CreateSubscriptionInput) (*models.MealSubscription, error) {
	if in.CustomerRef == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer_ref is required")
	}
	if in.ChefID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "chef_id is required")
	}
	days, err := normalizeDeliveryDays(in.DeliveryDays)
	if err != nil {
		return nil, err
	}
	if !in.DeliveryPoint.Valid() || in.DeliveryPoint.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery point is required")
	}

	priority := enums.AssignmentPriorityNormal
	if in.Priority != nil {
		if !in.Priority.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid priority")
		}
		priority = *in.Priority
	}

	subscription := &models.MealSubscription{
		CustomerRef:     in.CustomerRef,
		ChefID:          in.ChefID,
		Status:          enums.MealSubscriptionStatusPendingFirstDelivery,
		DeliveryDays:    pq.StringArray(days),
		Priority:        priority,
		DeliveryAddress: in.DeliveryAddress,
		DeliveryPoint:   in.DeliveryPoint,
	}
	created, err := s.repo.Create(ctx, subscription)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.MealSubscription, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription id is required")
	}
	subscription, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup subscription")
	}
	return subscription, nil
}

// ListDueOn returns dispatchable subscriptions whose delivery days include
// the given weekday.
func (s *service) ListDueOn(ctx context.Context, day time.Weekday, limit int) ([]models.MealSubscription, error) {
	rows, err := s.repo.ListDispatchable(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subscriptions")
	}

	due := make([]models.MealSubscription, 0, len(rows))
	for _, row := range rows {
		if subscriptionDueOn(row, day) {
			due = append(due, row)
		}
	}
	return due, nil
}

func subscriptionDueOn(subscription models.MealSubscription, day time.Weekday) bool {
	for _, name := range subscription.DeliveryDays {
		if weekday, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]; ok && weekday == day {
			return true
		}
	}
	return false
}

func normalizeDeliveryDays(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one delivery day is required")
	}

	seen := make(map[string]bool, len(raw))
	days := make([]string, 0, len(raw))
	for _, name := range raw {
		normalized := strings.ToLower(strings.TrimSpace(name))
		if _, ok := weekdayNames[normalized]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown delivery day %q", name))
		}
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		days = append(days, normalized)
	}
	return days, nil
}
