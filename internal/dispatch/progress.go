package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feastline/dispatch-backend/internal/assignment"
	"github.com/feastline/dispatch-backend/pkg/db/models"
	"github.com/feastline/dispatch-backend/pkg/enums"
	pkgerrors "github.com/feastline/dispatch-backend/pkg/errors"
	"github.com/feastline/dispatch-backend/pkg/outbox"
	"github.com/feastline/dispatch-backend/pkg/outbox/payloads"
	"github.com/feastline/dispatch-backend/pkg/types"
)

// StatusAction selects which confirmation a driver is performing.
type StatusAction string

const (
	ActionPickup  StatusAction = "pickup"
	ActionDeliver StatusAction = "deliver"
)

// UpdateStatusInput carries a driver's confirmation. Pickup wants either
// coordinates near the kitchen or an explicit confirmation; delivery wants
// the handoff code.
type UpdateStatusInput struct {
	AssignmentID   uuid.UUID
	DriverID       uuid.UUID
	Action         StatusAction
	Code           string
	DriverLocation *types.GeographyPoint
	Confirmed      bool
}

// UpdateStatus advances an assignment through pickup or delivery.
func (s *service) UpdateStatus(ctx context.Context, in UpdateStatusInput) (*models.DeliveryAssignment, error) {
	if in.AssignmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id is required")
	}
	if in.DriverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id is required")
	}

	switch in.Action {
	case ActionPickup:
		return s.confirmPickup(ctx, in)
	case ActionDeliver:
		return s.confirmDelivery(ctx, in)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown status action")
	}
}

func (s *service) confirmPickup(ctx context.Context, in UpdateStatusInput) (*models.DeliveryAssignment, error) {
	a, err := s.loadAssignment(ctx, in.AssignmentID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updated := *a
	proof := assignment.PickupProof{DriverLocation: in.DriverLocation, Confirmed: in.Confirmed}
	if err := assignment.ConfirmPickup(&updated, in.DriverID, proof, s.pickupProximityM, now); err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.assignments.WithTx(tx)
		if err := repo.ApplyTransition(ctx, &updated, enums.AssignmentStatusAssigned); err != nil {
			return err
		}
		s.flipOrder(ctx, tx, updated.OrderID, enums.OrderStatusReady, enums.OrderStatusOutForDelivery)
		return s.emitPickedUp(ctx, tx, &updated)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncConfirmation("pickup")
	s.fanOut(ctx, enums.EventAssignmentPickedUp, &updated, s.customerRefFor(ctx, &updated))
	return &updated, nil
}

func (s *service) confirmDelivery(ctx context.Context, in UpdateStatusInput) (*models.DeliveryAssignment, error) {
	a, err := s.loadAssignment(ctx, in.AssignmentID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updated := *a
	if err := assignment.ConfirmDelivery(&updated, in.DriverID, in.Code, now); err != nil {
		return nil, err
	}

	var activated *models.MealSubscription
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.assignments.WithTx(tx)
		if err := repo.ApplyTransition(ctx, &updated, enums.AssignmentStatusPickedUp); err != nil {
			return err
		}
		s.flipOrder(ctx, tx, updated.OrderID, enums.OrderStatusOutForDelivery, enums.OrderStatusDelivered)
		if err := s.ledger.RecordDelivery(ctx, tx, &updated); err != nil {
			return err
		}
		if err := s.emitDelivered(ctx, tx, &updated); err != nil {
			return err
		}
		if updated.SubscriptionID != nil && updated.IsFirstDelivery {
			subscription, err := s.activateSubscription(ctx, tx, &updated, now)
			if err != nil {
				return err
			}
			activated = subscription
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.releaseDriver(ctx, in.DriverID)
	s.metrics.IncConfirmation("delivery")
	s.fanOut(ctx, enums.EventAssignmentDelivered, &updated, s.customerRefFor(ctx, &updated))
	if activated != nil && s.notifications != nil {
		if err := s.notifications.NotifySubscriptionActivated(ctx, activated, updated.ID); err != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"subscription_id": activated.ID.String(),
				"error":           err.Error(),
			})
			s.logg.Warn(logCtx, "subscription activation notification failed")
		}
	}
	s.refreshActiveGauge(ctx)
	return &updated, nil
}

// activateSubscription flips a pending meal plan to active on its first
// completed delivery. The flip is a guarded update and the activation event
// is deduplicated, so concurrent confirmations activate exactly once.
func (s *service) activateSubscription(ctx context.Context, tx *gorm.DB, a *models.DeliveryAssignment, now time.Time) (*models.MealSubscription, error) {
	repo := s.subscriptions.WithTx(tx)
	flipped, err := repo.Activate(ctx, *a.SubscriptionID, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate subscription")
	}
	if !flipped {
		return nil, nil
	}

	subscription, err := repo.FindByID(ctx, *a.SubscriptionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload subscription")
	}

	err = s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventSubscriptionActivated,
		AggregateType: enums.AggregateSubscription,
		AggregateID:   subscription.ID,
		Data: payloads.SubscriptionActivatedEvent{
			SubscriptionID:    subscription.ID,
			CustomerRef:       subscription.CustomerRef,
			ChefID:            subscription.ChefID,
			FirstAssignmentID: a.ID,
			ActivatedAt:       now,
		},
		Version:    1,
		OccurredAt: now,
	})
	if err != nil {
		return nil, err
	}
	return subscription, nil
}

// Cancel terminates an assignment on behalf of an actor. Cancelling a
// picked-up delivery puts the order back in the ready pool for redispatch.
func (s *service) Cancel(ctx context.Context, assignmentID uuid.UUID, actor enums.CancelActor, reason string) (*models.DeliveryAssignment, error) {
	if assignmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id is required")
	}

	a, err := s.loadAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updated := *a
	if err := assignment.Cancel(&updated, actor, reason, now); err != nil {
		return nil, err
	}
	wasActive := a.Status == enums.AssignmentStatusAssigned || a.Status == enums.AssignmentStatusPickedUp

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.assignments.WithTx(tx)
		if err := repo.ApplyTransition(ctx, &updated, a.Status); err != nil {
			return err
		}
		if a.Status == enums.AssignmentStatusPickedUp {
			s.flipOrder(ctx, tx, updated.OrderID, enums.OrderStatusOutForDelivery, enums.OrderStatusReady)
		}
		return s.emitCancelled(ctx, tx, &updated)
	})
	if err != nil {
		return nil, err
	}

	if wasActive && updated.DriverID != nil {
		s.releaseDriver(ctx, *updated.DriverID)
	}
	s.fanOut(ctx, enums.EventAssignmentCancelled, &updated, s.customerRefFor(ctx, &updated))
	s.refreshActiveGauge(ctx)
	return &updated, nil
}

// SweepUnmatched retries matching for assignments that have sat unclaimed
// past the cutoff. Contention is expected; a sweep never fails because one
// assignment was claimed mid-flight.
func (s *service) SweepUnmatched(ctx context.Context, olderThan time.Time, limit int) (int, error) {
	stale, err := s.assignments.ListStaleAvailable(ctx, olderThan, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stale assignments")
	}

	matched := 0
	for i := range stale {
		result, err := s.AutoAssign(ctx, stale[i].ID)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeStateConflict {
				continue
			}
			return matched, err
		}
		if result.Matched {
			matched++
		}
	}
	return matched, nil
}

// flipOrder mirrors the assignment transition onto the order projection.
// The order service owns order state, so a failed or lost flip is logged
// and skipped rather than unwinding the delivery transaction.
func (s *service) flipOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, from, to enums.OrderStatus) {
	flipped, err := s.orders.WithTx(tx).UpdateStatus(ctx, orderID, from, to)
	if err != nil || !flipped {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id": orderID.String(),
			"from":     from.String(),
			"to":       to.String(),
		})
		if err != nil {
			logCtx = s.logg.WithFields(logCtx, map[string]any{"error": err.Error()})
		}
		s.logg.Warn(logCtx, "order status flip skipped")
	}
}
