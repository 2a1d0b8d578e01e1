package router

import (
	"context"
	"fmt"
	"time"

	"github.com/feastline/dispatch-backend/internal/analytics/types"
	"github.com/feastline/dispatch-backend/pkg/enums"
	"github.com/feastline/dispatch-backend/pkg/logger"
	"github.com/feastline/dispatch-backend/pkg/outbox/payloads"
)

type driverStatusHandler struct {
	writer Writer
	logg   *logger.Logger
	kind   enums.DriverEventKind
}

func newDriverOnlineHandler(writer Writer, logg *logger.Logger) Handler {
	return &driverStatusHandler{writer: writer, logg: logg, kind: enums.DriverEventKindOnline}
}

func newDriverOfflineHandler(writer Writer, logg *logger.Logger) Handler {
	return &driverStatusHandler{writer: writer, logg: logg, kind: enums.DriverEventKindOffline}
}

func (h *driverStatusHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	driverID, at, err := h.statusFields(payload)
	if err != nil {
		return err
	}

	fields := map[string]any{
		"event_type": envelope.EventType,
		"driver_id":  driverID,
		"kind":       h.kind,
	}
	logCtx := h.logg.WithFields(ctx, fields)

	row, err := baseDriverRow(envelope, at, payload)
	if err != nil {
		h.logg.Error(logCtx, "failed to build driver row", err)
		return err
	}
	row.DriverID = driverID
	row.Kind = h.kind

	if err := h.writer.InsertDriverEvent(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert driver row", err)
		return err
	}

	h.logg.Info(logCtx, "driver status handler inserted row")
	return nil
}

func (h *driverStatusHandler) statusFields(payload any) (string, time.Time, error) {
	switch event := payload.(type) {
	case *payloads.DriverOnlineEvent:
		return event.DriverID.String(), event.At, nil
	case *payloads.DriverOfflineEvent:
		return event.DriverID.String(), event.At, nil
	default:
		return "", time.Time{}, fmt.Errorf("invalid payload for %s driver event", h.kind)
	}
}
