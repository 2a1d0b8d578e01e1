package router

import (
	"context"
	"fmt"

	"github.com/feastline/dispatch-backend/internal/analytics/types"
	"github.com/feastline/dispatch-backend/pkg/logger"
	"github.com/feastline/dispatch-backend/pkg/outbox/payloads"
)

type assignmentDeliveredHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newAssignmentDeliveredHandler(writer Writer, logg *logger.Logger) Handler {
	return &assignmentDeliveredHandler{writer: writer, logg: logg}
}

func (h *assignmentDeliveredHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.AssignmentDeliveredEvent)
	if !ok {
		return fmt.Errorf("invalid payload for assignment_delivered")
	}

	fields := map[string]any{
		"event_type":    envelope.EventType,
		"assignment_id": event.AssignmentID,
		"driver_id":     event.DriverID,
		"delivered_at":  event.DeliveredAt,
		"earning_cents": event.TotalEarning,
	}
	logCtx := h.logg.WithFields(ctx, fields)

	row, err := baseAssignmentRow(envelope, event.DeliveredAt, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build assignment row", err)
		return err
	}
	row.AssignmentID = uuidPtr(event.AssignmentID)
	row.OrderID = uuidPtr(event.OrderID)
	row.DriverID = uuidPtr(event.DriverID)
	row.EarningCents = int64Ptr(event.TotalEarning)

	if err := h.writer.InsertAssignment(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert assignment row", err)
		return err
	}

	h.logg.Info(logCtx, "assignment_delivered handler inserted row")
	return nil
}
