package router

import (
	"context"
	"fmt"
	"time"

	"github.com/feastline/dispatch-backend/internal/analytics/types"
	"github.com/feastline/dispatch-backend/pkg/logger"
	"github.com/feastline/dispatch-backend/pkg/outbox/payloads"
)

type assignmentAssignedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newAssignmentAssignedHandler(writer Writer, logg *logger.Logger) Handler {
	return &assignmentAssignedHandler{writer: writer, logg: logg}
}

func (h *assignmentAssignedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.AssignmentAssignedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for assignment_assigned")
	}

	fields := map[string]any{
		"event_type":    envelope.EventType,
		"assignment_id": event.AssignmentID,
		"driver_id":     event.DriverID,
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

	if err := h.writer.InsertAssignment(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert assignment row", err)
		return err
	}

	h.logg.Info(logCtx, "assignment_assigned handler inserted row")
	return nil
}
