package router

import (
	"context"
	"fmt"

	"github.com/feastline/dispatch-backend/internal/analytics/types"
	"github.com/feastline/dispatch-backend/pkg/enums"
	"github.com/feastline/dispatch-backend/pkg/logger"
	"github.com/feastline/dispatch-backend/pkg/outbox/payloads"
)

type driverLocationHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newDriverLocationHandler(writer Writer, logg *logger.Logger) Handler {
	return &driverLocationHandler{writer: writer, logg: logg}
}

func (h *driverLocationHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.DriverLocationPingedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for driver_location_pinged")
	}

	fields := map[string]any{
		"event_type": envelope.EventType,
		"driver_id":  event.DriverID,
	}
	logCtx := h.logg.WithFields(ctx, fields)

	row, err := baseDriverRow(envelope, event.At, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build driver row", err)
		return err
	}
	row.DriverID = event.DriverID.String()
	row.Kind = enums.DriverEventKindPing
	row.Lat = float64Ptr(event.Lat)
	row.Lng = float64Ptr(event.Lng)

	if err := h.writer.InsertDriverEvent(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert driver row", err)
		return err
	}

	h.logg.Info(logCtx, "driver_location_pinged handler inserted row")
	return nil
}
