package router

import (
	"context"
	"fmt"
	"time"

	"github.com/feastline/dispatch-backend/internal/analytics/types"
	"github.com/feastline/dispatch-backend/pkg/logger"
	"github.com/feastline/dispatch-backend/pkg/outbox/payloads"
)

type assignmentReassignedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newAssignmentReassignedHandler(writer Writer, logg *logger.Logger) Handler {
	return &assignmentReassignedHandler{writer: writer, logg: logg}
}

func (h *assignmentReassignedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.AssignmentReassignedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for assignment_reassigned")
	}

	fields := map[string]any{
		"event_type":         envelope.EventType,
		"assignment_id":      event.AssignmentID,
		"previous_driver_id": event.PreviousDriverID,
		"driver_id":          event.DriverID,
	}
	logCtx := h.logg.WithFields(ctx, fields)

	row, err := baseAssignmentRow(envelope, time.Time{}, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build assignment row", err)
		return err
	}
	row.AssignmentID = uuidPtr(event.AssignmentID)
	row.OrderID = uuidPtr(event.OrderID)
	row.DriverID = uuidPtr(event.DriverID)
	row.PreviousDriverID = uuidPtr(event.PreviousDriverID)
	row.Reason = stringPtr(event.Reason)

	if err := h.writer.InsertAssignment(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert assignment row", err)
		return err
	}

	h.logg.Info(logCtx, "assignment_reassigned handler inserted row")
	return nil
}
