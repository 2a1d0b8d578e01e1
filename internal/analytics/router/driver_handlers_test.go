package router

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/feastline/dispatch-backend/internal/analytics/types"
	"github.com/feastline/dispatch-backend/pkg/enums"
	"github.com/feastline/dispatch-backend/pkg/outbox/payloads"
)

func TestDriverStatusHandlerRecordsOnline(t *testing.T) {
	writer := &fakeWriter{}
	handler := newDriverOnlineHandler(writer, testLogger(t))
	at := time.Date(2025, 6, 4, 7, 45, 0, 0, time.UTC)
	event := &payloads.DriverOnlineEvent{DriverID: uuid.New(), At: at}
	envelope := types.Envelope{
		EventID:    uuid.NewString(),
		EventType:  enums.AnalyticsEventDriverOnline,
		OccurredAt: at.Add(2 * time.Second),
	}

	if err := handler.Handle(context.Background(), envelope, event); err != nil {
		t.Fatalf("handle driver_online: %v", err)
	}

	if len(writer.driverRows) != 1 {
		t.Fatalf("expected 1 driver row, got %d", len(writer.driverRows))
	}
	row := writer.driverRows[0]
	if row.Kind != enums.DriverEventKindOnline {
		t.Fatalf("expected online kind, got %s", row.Kind)
	}
	if row.DriverID != event.DriverID.String() {
		t.Fatalf("driver id mismatch: %s", row.DriverID)
	}
	if !row.OccurredAt.Equal(at) {
		t.Fatalf("expected payload timestamp, got %v", row.OccurredAt)
	}
	if row.Lat != nil || row.Lng != nil {
		t.Fatalf("status rows carry no coordinates, got %v %v", row.Lat, row.Lng)
	}
}

func TestDriverStatusHandlerRecordsOffline(t *testing.T) {
	writer := &fakeWriter{}
	handler := newDriverOfflineHandler(writer, testLogger(t))
	event := &payloads.DriverOfflineEvent{DriverID: uuid.New(), At: time.Now().UTC()}
	envelope := types.Envelope{
		EventID:   uuid.NewString(),
		EventType: enums.AnalyticsEventDriverOffline,
	}

	if err := handler.Handle(context.Background(), envelope, event); err != nil {
		t.Fatalf("handle driver_offline: %v", err)
	}

	if writer.driverRows[0].Kind != enums.DriverEventKindOffline {
		t.Fatalf("expected offline kind, got %s", writer.driverRows[0].Kind)
	}
}

func TestDriverStatusHandlerRejectsWrongPayload(t *testing.T) {
	handler := newDriverOnlineHandler(&fakeWriter{}, testLogger(t))
	envelope := types.Envelope{EventType: enums.AnalyticsEventDriverOnline}
	if err := handler.Handle(context.Background(), envelope, &payloads.DriverLocationPingedEvent{}); err == nil {
		t.Fatal("expected payload type error")
	}
}

func TestDriverLocationHandlerRecordsCoordinates(t *testing.T) {
	writer := &fakeWriter{}
	handler := newDriverLocationHandler(writer, testLogger(t))
	at := time.Date(2025, 6, 4, 8, 0, 30, 0, time.UTC)
	event := &payloads.DriverLocationPingedEvent{
		DriverID: uuid.New(),
		Lat:      6.4281,
		Lng:      3.4219,
		At:       at,
	}
	envelope := types.Envelope{
		EventID:    uuid.NewString(),
		EventType:  enums.AnalyticsEventDriverLocationPinged,
		OccurredAt: at,
	}

	if err := handler.Handle(context.Background(), envelope, event); err != nil {
		t.Fatalf("handle driver_location_pinged: %v", err)
	}

	row := writer.driverRows[0]
	if row.Kind != enums.DriverEventKindPing {
		t.Fatalf("expected ping kind, got %s", row.Kind)
	}
	if row.Lat == nil || *row.Lat != event.Lat {
		t.Fatalf("lat mismatch: %v", row.Lat)
	}
	if row.Lng == nil || *row.Lng != event.Lng {
		t.Fatalf("lng mismatch: %v", row.Lng)
	}
}

func TestDriverLocationHandlerPropagatesWriterErrors(t *testing.T) {
	writer := &fakeWriter{insertErr: context.DeadlineExceeded}
	handler := newDriverLocationHandler(writer, testLogger(t))
	event := &payloads.DriverLocationPingedEvent{DriverID: uuid.New(), At: time.Now().UTC()}
	envelope := types.Envelope{
		EventID:   uuid.NewString(),
		EventType: enums.AnalyticsEventDriverLocationPinged,
	}

	if err := handler.Handle(context.Background(), envelope, event); err == nil {
		t.Fatal("expected insert error to propagate")
	}
}
