package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feastline/dispatch-backend/internal/notifications"
	"github.com/feastline/dispatch-backend/internal/realtime"
	"github.com/feastline/dispatch-backend/pkg/db/models"
	"github.com/feastline/dispatch-backend/pkg/enums"
	"github.com/feastline/dispatch-backend/pkg/outbox"
	"github.com/feastline/dispatch-backend/pkg/outbox/payloads"
)

func driverActor(driverID uuid.UUID) *outbox.ActorRef {
	return &outbox.ActorRef{UserID: driverID, Role: enums.RoleDriver.String()}
}

func (s *service) emitCreated(ctx context.Context, tx *gorm.DB, a *models.DeliveryAssignment) error {
	area := ""
	if a.DeliveryArea != nil {
		area = *a.DeliveryArea
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventAssignmentCreated,
		AggregateType: enums.AggregateAssignment,
		AggregateID:   a.ID,
		Data: payloads.AssignmentCreatedEvent{
			AssignmentID:   a.ID,
			OrderID:        a.OrderID,
			ChefID:         a.ChefID,
			SubscriptionID: a.SubscriptionID,
			Priority:       a.Priority,
			DeliveryArea:   area,
			TotalEarning:   a.TotalEarning,
		},
		Version:    1,
		OccurredAt: a.AssignedAt,
	})
}

func (s *service) emitAssigned(ctx context.Context, tx *gorm.DB, a *models.DeliveryAssignment, actor *outbox.ActorRef) error {
	if a.DriverID == nil {
		return errors.New("assigned event requires a driver")
	}
	occurredAt := time.Now().UTC()
	if a.AcceptedAt != nil {
		occurredAt = *a.AcceptedAt
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventAssignmentAssigned,
		AggregateType: enums.AggregateAssignment,
		AggregateID:   a.ID,
		Actor:         actor,
		Data: payloads.AssignmentAssignedEvent{
			AssignmentID:          a.ID,
			OrderID:               a.OrderID,
			DriverID:              *a.DriverID,
			EstimatedPickupTime:   a.EstimatedPickupTime,
			EstimatedDeliveryTime: a.EstimatedDeliveryTime,
		},
		Version:    1,
		OccurredAt: occurredAt,
	})
}

func (s *service) emitReassigned(ctx context.Context, tx *gorm.DB, a *models.DeliveryAssignment, previousDriverID uuid.UUID, reason string) error {
	if a.DriverID == nil {
		return errors.New("reassigned event requires a driver")
	}
	occurredAt := time.Now().UTC()
	if a.AcceptedAt != nil {
		occurredAt = *a.AcceptedAt
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventAssignmentReassigned,
		AggregateType: enums.AggregateAssignment,
		AggregateID:   a.ID,
		Data: payloads.AssignmentReassignedEvent{
			AssignmentID:     a.ID,
			OrderID:          a.OrderID,
			PreviousDriverID: previousDriverID,
			DriverID:         *a.DriverID,
			Reason:           reason,
		},
		Version:    1,
		OccurredAt: occurredAt,
	})
}

func (s *service) emitPickedUp(ctx context.Context, tx *gorm.DB, a *models.DeliveryAssignment) error {
	if a.DriverID == nil || a.PickedUpAt == nil {
		return errors.New("picked up event requires a driver and timestamp")
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventAssignmentPickedUp,
		AggregateType: enums.AggregateAssignment,
		AggregateID:   a.ID,
		Actor:         driverActor(*a.DriverID),
		Data: payloads.AssignmentPickedUpEvent{
			AssignmentID: a.ID,
			OrderID:      a.OrderID,
			DriverID:     *a.DriverID,
			PickedUpAt:   *a.PickedUpAt,
		},
		Version:    1,
		OccurredAt: *a.PickedUpAt,
	})
}

func (s *service) emitDelivered(ctx context.Context, tx *gorm.DB, a *models.DeliveryAssignment) error {
	if a.DriverID == nil || a.DeliveredAt == nil {
		return errors.New("delivered event requires a driver and timestamp")
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventAssignmentDelivered,
		AggregateType: enums.AggregateAssignment,
		AggregateID:   a.ID,
		Actor:         driverActor(*a.DriverID),
		Data: payloads.AssignmentDeliveredEvent{
			AssignmentID: a.ID,
			OrderID:      a.OrderID,
			DriverID:     *a.DriverID,
			DeliveredAt:  *a.DeliveredAt,
			TotalEarning: a.TotalEarning,
		},
		Version:    1,
		OccurredAt: *a.DeliveredAt,
	})
}

func (s *service) emitCancelled(ctx context.Context, tx *gorm.DB, a *models.DeliveryAssignment) error {
	if a.CancelledBy == nil || a.CancelledAt == nil {
		return errors.New("cancelled event requires actor and timestamp")
	}
	reason := ""
	if a.CancelReason != nil {
		reason = *a.CancelReason
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventAssignmentCancelled,
		AggregateType: enums.AggregateAssignment,
		AggregateID:   a.ID,
		Data: payloads.AssignmentCancelledEvent{
			AssignmentID: a.ID,
			OrderID:      a.OrderID,
			DriverID:     a.DriverID,
			CancelledBy:  *a.CancelledBy,
			Reason:       reason,
			CancelledAt:  *a.CancelledAt,
		},
		Version:    1,
		OccurredAt: *a.CancelledAt,
	})
}

// fanOut runs the post-commit side effects for a lifecycle event: stored
// notifications and realtime pushes. Failures are logged and swallowed; the
// state change already committed and the outbox row carries the durable copy.
func (s *service) fanOut(ctx context.Context, event enums.OutboxEventType, a *models.DeliveryAssignment, customerRef *uuid.UUID) {
	var failed error

	if s.notifications != nil {
		err := s.notifications.NotifyAssignmentEvent(ctx, notifications.AssignmentEventInput{
			Event:       event,
			Assignment:  a,
			CustomerRef: customerRef,
		})
		if err != nil {
			failed = err
		}
	}

	if s.realtime != nil {
		snapshot := map[string]any{
			"assignment_id": a.ID,
			"order_id":      a.OrderID,
			"status":        a.Status,
		}
		if a.DriverID != nil {
			snapshot["driver_id"] = *a.DriverID
		}
		rtEvent := realtime.Event{Kind: string(event), Payload: snapshot}

		if err := s.realtime.Publish(ctx, realtime.AssignmentChannel(a.ID.String()), rtEvent); err != nil && failed == nil {
			failed = err
		}
		if a.DriverID != nil {
			switch event {
			case enums.EventAssignmentAssigned, enums.EventAssignmentReassigned, enums.EventAssignmentCancelled:
				if err := s.realtime.Publish(ctx, realtime.DriverChannel(a.DriverID.String()), rtEvent); err != nil && failed == nil {
					failed = err
				}
			}
		}
	}

	if failed != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"assignment_id": a.ID.String(),
			"event":         string(event),
			"error":         failed.Error(),
		})
		s.logg.Warn(logCtx, "post-commit side effects failed")
	}
}

// customerRefFor resolves the customer reference for notification fan-out.
// Best effort; a missing order only degrades the customer copy.
func (s *service) customerRefFor(ctx context.Context, a *models.DeliveryAssignment) *uuid.UUID {
	order, err := s.orders.FindByID(ctx, a.OrderID)
	if err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"assignment_id": a.ID.String(),
			"order_id":      a.OrderID.String(),
		})
		s.logg.Warn(logCtx, "customer lookup for notification failed")
		return nil
	}
	return &order.CustomerRef
}

func (s *service) refreshActiveGauge(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	count, err := s.assignments.CountActive(ctx)
	if err != nil {
		return
	}
	s.metrics.SetActiveAssignments(float64(count))
}
