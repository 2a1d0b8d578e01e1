package router

import (
	"context"
	"fmt"

	"github.com/feastline/dispatch-backend/internal/analytics/types"
	"github.com/feastline/dispatch-backend/pkg/logger"
	"github.com/feastline/dispatch-backend/pkg/outbox/payloads"
)

type assignmentPickedUpHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newAssignmentPickedUpHandler(writer Writer, logg *logger.Logger) Handler {
	return &assignmentPickedUpHandler{writer: writer, logg: logg}
}

func (h *assignmentPickedUpHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.AssignmentPickedUpEvent)
	if !ok {
		return fmt.Errorf("invalid payload for assignment_picked_up")
	}

	fields := map[string]any{
		"event_type":    envelope.EventType,
		"assignment_id": event.AssignmentID,
		"driver_id":     event.DriverID,
		"picked_up_at":  event.PickedUpAt,
	}
	logCtx := h.logg.WithFields(ctx, fields)

	row, err := baseAssignmentRow(envelope, event.PickedUpAt, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build assignment row", err)
		return err
	}
	row.AssignmentID = uuidPtr(event.AssignmentID)
	row.OrderID = uuidPtr(event.OrderID)
	row.DriverID = uuidPtr(event.DriverID)

	if err := h.writer.InsertAssignment(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert assignment row", err)
		return err
	}

	h.logg.Info(logCtx, "assignment_picked_up handler inserted row")
	return nil
}
