package router

import (
	"context"
	"fmt"
	"time"

	"github.com/feastline/dispatch-backend/internal/analytics/types"
	"github.com/feastline/dispatch-backend/pkg/logger"
	"github.com/feastline/dispatch-backend/pkg/outbox/payloads"
)

type assignmentCreatedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newAssignmentCreatedHandler(writer Writer, logg *logger.Logger) Handler {
	return &assignmentCreatedHandler{writer: writer, logg: logg}
}

func (h *assignmentCreatedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.AssignmentCreatedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for assignment_created")
	}

	fields := map[string]any{
		"event_type":    envelope.EventType,
		"assignment_id": event.AssignmentID,
		"order_id":      event.OrderID,
		"chef_id":       event.ChefID,
		"priority":      event.Priority,
	}
	logCtx := h.logg.WithFields(ctx, fields)

	row, err := buildAssignmentCreatedRow(envelope, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build assignment row", err)
		return err
	}

	if err := h.writer.InsertAssignment(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert assignment row", err)
		return err
	}

	h.logg.Info(logCtx, "assignment_created handler inserted row")
	return nil
}

func buildAssignmentCreatedRow(envelope types.Envelope, event *payloads.AssignmentCreatedEvent) (types.AssignmentEventRow, error) {
	row, err := baseAssignmentRow(envelope, time.Time{}, event)
	if err != nil {
		return types.AssignmentEventRow{}, err
	}

	row.AssignmentID = uuidPtr(event.AssignmentID)
	row.OrderID = uuidPtr(event.OrderID)
	row.ChefID = uuidPtr(event.ChefID)
	row.SubscriptionID = optionalUUIDPtr(event.SubscriptionID)
	row.Priority = stringPtr(string(event.Priority))
	row.DeliveryArea = stringPtr(event.DeliveryArea)
	row.EarningCents = int64Ptr(event.TotalEarning)
	return row, nil
}
