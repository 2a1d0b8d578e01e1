package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feastline/dispatch-backend/pkg/db/models"
	"github.com/feastline/dispatch-backend/pkg/enums"
	pkgerrors "github.com/feastline/dispatch-backend/pkg/errors"
)

// CreateAssignmentInput opens a delivery assignment for a ready order.
// DriverID pins the delivery to a specific driver instead of leaving it in
// the open pool; Priority overrides the order's own priority.
type CreateAssignmentInput struct {
	OrderID  uuid.UUID
	DriverID *uuid.UUID
	Priority *enums.AssignmentPriority
}

// CreateAssignment is idempotent per order: a second create for the same
// order fails CONFLICT and reports the existing assignment in details.
func (s *service) CreateAssignment(ctx context.Context, in CreateAssignmentInput) (*models.DeliveryAssignment, error) {
	if in.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if in.Priority != nil && !in.Priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid priority")
	}
	if in.DriverID != nil && *in.DriverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id is required")
	}

	if existing, err := s.assignments.FindByOrderID(ctx, in.OrderID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "assignment already exists for order").
			WithDetails(map[string]any{"assignment_id": existing.ID})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup assignment for order")
	}

	order, err := s.orders.FindByID(ctx, in.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup order")
	}
	if order.Status != enums.OrderStatusReady {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not ready for dispatch")
	}

	pickup, err := s.resolvePickup(ctx, order.ChefID)
	if err != nil {
		return nil, err
	}

	priority := order.Priority
	if in.Priority != nil {
		priority = *in.Priority
	}
	if !priority.IsValid() {
		priority = enums.AssignmentPriorityNormal
	}

	isFirstDelivery := false
	if order.SubscriptionID != nil {
		subscription, err := s.subscriptions.FindByID(ctx, *order.SubscriptionID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup subscription")
			}
		} else {
			isFirstDelivery = subscription.Status == enums.MealSubscriptionStatusPendingFirstDelivery
		}
	}

	now := time.Now().UTC()
	quote := s.pricing.Quote(pickup.KitchenPoint, order.DeliveryPoint, priority, now)

	a := &models.DeliveryAssignment{
		ID:                    uuid.New(),
		OrderID:               order.ID,
		ChefID:                order.ChefID,
		SubscriptionID:        order.SubscriptionID,
		IsFirstDelivery:       isFirstDelivery,
		Status:                enums.AssignmentStatusAvailable,
		Priority:              priority,
		PickupAddress:         pickup.Address,
		PickupPoint:           pickup.KitchenPoint,
		DeliveryAddress:       order.DeliveryAddress,
		DeliveryPoint:         order.DeliveryPoint,
		DeliveryArea:          order.DeliveryArea,
		HandoffNotes:          order.HandoffNotes,
		TotalDistanceKm:       quote.DistanceKm,
		EstimatedDurationMin:  quote.EstimatedDurationMin,
		BaseFee:               quote.BaseFee,
		DistanceFee:           quote.DistanceFee,
		TotalEarning:          quote.TotalEarning,
		AssignedAt:            now,
		EstimatedPickupTime:   quote.EstimatedPickupTime,
		EstimatedDeliveryTime: quote.EstimatedDeliveryTime,
	}

	var claimedDriver *uuid.UUID
	if in.DriverID != nil {
		if err := s.ensureDriverFree(ctx, *in.DriverID); err != nil {
			return nil, err
		}
		claimed, err := s.drivers.ClaimForDispatch(ctx, *in.DriverID)
		if err != nil {
			return nil, err
		}
		if !claimed {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "driver is not available for dispatch")
		}
		claimedDriver = in.DriverID
		a.Status = enums.AssignmentStatusAssigned
		a.DriverID = claimedDriver
		a.AcceptedAt = &now
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.assignments.WithTx(tx)
		code, err := s.codes.Generate(ctx, repo.CodeInUse)
		if err != nil {
			return err
		}
		a.ConfirmationCode = code
		if err := repo.Create(ctx, a); err != nil {
			return err
		}
		if err := s.emitCreated(ctx, tx, a); err != nil {
			return err
		}
		if a.Status == enums.AssignmentStatusAssigned {
			return s.emitAssigned(ctx, tx, a, nil)
		}
		return nil
	})
	if err != nil {
		if claimedDriver != nil {
			s.releaseDriver(ctx, *claimedDriver)
		}
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
			if existing, ferr := s.assignments.FindByOrderID(ctx, in.OrderID); ferr == nil {
				return nil, typed.WithDetails(map[string]any{"assignment_id": existing.ID})
			}
			return nil, typed
		}
		return nil, err
	}

	s.metrics.IncCreated()
	s.fanOut(ctx, enums.EventAssignmentCreated, a, &order.CustomerRef)
	if a.Status == enums.AssignmentStatusAssigned {
		s.fanOut(ctx, enums.EventAssignmentAssigned, a, &order.CustomerRef)
	}
	s.refreshActiveGauge(ctx)
	return a, nil
}

// CreateSubscriptionDelivery books today's run for a meal-plan subscription:
// an order projection plus its assignment in one transaction. A (nil, nil)
// return means the day is already booked.
func (s *service) CreateSubscriptionDelivery(ctx context.Context, subscription *models.MealSubscription) (*models.DeliveryAssignment, error) {
	if subscription == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription is required")
	}
	switch subscription.Status {
	case enums.MealSubscriptionStatusPendingFirstDelivery, enums.MealSubscriptionStatusActive:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "subscription is not dispatchable")
	}

	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	booked, err := s.assignments.ExistsForSubscriptionSince(ctx, subscription.ID, dayStart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check subscription bookings")
	}
	if booked {
		return nil, nil
	}

	pickup, err := s.resolvePickup(ctx, subscription.ChefID)
	if err != nil {
		return nil, err
	}

	quote := s.pricing.Quote(pickup.KitchenPoint, subscription.DeliveryPoint, subscription.Priority, now)
	subscriptionID := subscription.ID

	a := &models.DeliveryAssignment{
		ID:                    uuid.New(),
		ChefID:                subscription.ChefID,
		SubscriptionID:        &subscriptionID,
		IsFirstDelivery:       subscription.Status == enums.MealSubscriptionStatusPendingFirstDelivery,
		Status:                enums.AssignmentStatusAvailable,
		Priority:              subscription.Priority,
		PickupAddress:         pickup.Address,
		PickupPoint:           pickup.KitchenPoint,
		DeliveryAddress:       subscription.DeliveryAddress,
		DeliveryPoint:         subscription.DeliveryPoint,
		TotalDistanceKm:       quote.DistanceKm,
		EstimatedDurationMin:  quote.EstimatedDurationMin,
		BaseFee:               quote.BaseFee,
		DistanceFee:           quote.DistanceFee,
		TotalEarning:          quote.TotalEarning,
		AssignedAt:            now,
		EstimatedPickupTime:   quote.EstimatedPickupTime,
		EstimatedDeliveryTime: quote.EstimatedDeliveryTime,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order := &models.Order{
			ID:              uuid.New(),
			ChefID:          subscription.ChefID,
			CustomerRef:     subscription.CustomerRef,
			SubscriptionID:  &subscriptionID,
			Status:          enums.OrderStatusReady,
			Priority:        subscription.Priority,
			DeliveryAddress: subscription.DeliveryAddress,
			DeliveryPoint:   subscription.DeliveryPoint,
			PlacedAt:        now,
		}
		if _, err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription order")
		}
		a.OrderID = order.ID

		repo := s.assignments.WithTx(tx)
		code, err := s.codes.Generate(ctx, repo.CodeInUse)
		if err != nil {
			return err
		}
		a.ConfirmationCode = code
		if err := repo.Create(ctx, a); err != nil {
			return err
		}
		return s.emitCreated(ctx, tx, a)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncCreated()
	s.fanOut(ctx, enums.EventAssignmentCreated, a, &subscription.CustomerRef)
	return a, nil
}

// resolvePickup loads the chef and validates the kitchen is routable.
func (s *service) resolvePickup(ctx context.Context, chefID uuid.UUID) (*models.Chef, error) {
	chef, err := s.chefs.FindByID(ctx, chefID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "chef not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup chef")
	}
	if !chef.KitchenPoint.Valid() || chef.KitchenPoint.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "chef kitchen location unusable for routing")
	}
	return chef, nil
}
