package router

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/feastline/dispatch-backend/internal/analytics/types"
	"github.com/feastline/dispatch-backend/pkg/enums"
	"github.com/feastline/dispatch-backend/pkg/outbox/payloads"
)

func TestRouterUnsupportedEvent(t *testing.T) {
	router := newTestRouter(t, nil)
	env := types.Envelope{
		EventType: enums.AnalyticsEventType("unsupported"),
		Payload:   []byte(`{"foo":"bar"}`),
	}
	err := router.Handle(context.Background(), env)
	if !errors.Is(err, ErrUnsupportedEventType) {
		t.Fatalf("expected unsupported error, got %v", err)
	}
}

func TestRouterRejectsEmptyPayload(t *testing.T) {
	router := newTestRouter(t, nil)
	env := types.Envelope{
		EventType: enums.AnalyticsEventAssignmentCreated,
	}
	err := router.Handle(context.Background(), env)
	if err == nil || errors.Is(err, ErrUnsupportedEventType) {
		t.Fatalf("expected payload error, got %v", err)
	}
}

func TestRouterRoutesToOverrideHandler(t *testing.T) {
	handler := &stubHandler{}
	router := newTestRouter(t, map[enums.AnalyticsEventType]Handler{
		enums.AnalyticsEventAssignmentAssigned: handler,
	})
	payload := payloads.AssignmentAssignedEvent{
		AssignmentID: uuid.New(),
		OrderID:      uuid.New(),
		DriverID:     uuid.New(),
	}
	data, _ := json.Marshal(payload)
	env := types.Envelope{
		EventType:  enums.AnalyticsEventAssignmentAssigned,
		OccurredAt: time.Now().UTC(),
		Payload:    data,
	}
	if err := router.Handle(context.Background(), env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handler.called {
		t.Fatalf("handler not invoked")
	}
	event, ok := handler.payload.(*payloads.AssignmentAssignedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", handler.payload)
	}
	if event.DriverID != payload.DriverID {
		t.Fatalf("driver id not decoded: %s", event.DriverID)
	}
}

func TestRouterCoversEveryAnalyticsEvent(t *testing.T) {
	router := newTestRouter(t, nil)
	for _, eventType := range []enums.AnalyticsEventType{
		enums.AnalyticsEventAssignmentCreated,
		enums.AnalyticsEventAssignmentAssigned,
		enums.AnalyticsEventAssignmentReassigned,
		enums.AnalyticsEventAssignmentPickedUp,
		enums.AnalyticsEventAssignmentDelivered,
		enums.AnalyticsEventAssignmentCancelled,
		enums.AnalyticsEventDriverOnline,
		enums.AnalyticsEventDriverOffline,
		enums.AnalyticsEventDriverLocationPinged,
		enums.AnalyticsEventSubscriptionActivated,
	} {
		if _, ok := router.handlers[eventType]; !ok {
			t.Fatalf("no handler registered for %s", eventType)
		}
	}
}

func newTestRouter(t *testing.T, overrides map[enums.AnalyticsEventType]Handler) *Router {
	t.Helper()
	router, err := NewRouter(&fakeWriter{}, testLogger(t), overrides)
	if err != nil {
		t.Fatalf("construct router: %v", err)
	}
	return router
}

type stubHandler struct {
	called  bool
	payload any
}

func (s *stubHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	s.called = true
	s.payload = payload
	return nil
}
