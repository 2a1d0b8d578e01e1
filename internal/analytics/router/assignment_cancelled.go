package router

import (
	"context"
	"fmt"

	"github.com/feastline/dispatch-backend/internal/analytics/types"
	"github.com/feastline/dispatch-backend/pkg/logger"
	"github.com/feastline/dispatch-backend/pkg/outbox/payloads"
)

type assignmentCancelledHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newAssignmentCancelledHandler(writer Writer, logg *logger.Logger) Handler {
	return &assignmentCancelledHandler{writer: writer, logg: logg}
}

func (h *assignmentCancelledHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.AssignmentCancelledEvent)
	if !ok {
		return fmt.Errorf("invalid payload for assignment_cancelled")
	}

	fields := map[string]any{
		"event_type":    envelope.EventType,
		"assignment_id": event.AssignmentID,
		"cancelled_by":  event.CancelledBy,
	}
	logCtx := h.logg.WithFields(ctx, fields)

	row, err := baseAssignmentRow(envelope, event.CancelledAt, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build assignment row", err)
		return err
	}
	row.AssignmentID = uuidPtr(event.AssignmentID)
	row.OrderID = uuidPtr(event.OrderID)
	row.DriverID = optionalUUIDPtr(event.DriverID)
	row.CancelledBy = stringPtr(string(event.CancelledBy))
	row.Reason = stringPtr(event.Reason)

	if err := h.writer.InsertAssignment(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert assignment row", err)
		return err
	}

	h.logg.Info(logCtx, "assignment_cancelled handler inserted row")
	return nil
}
