package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/feastline/dispatch-backend/internal/analytics/types"
	"github.com/feastline/dispatch-backend/pkg/enums"
	"github.com/feastline/dispatch-backend/pkg/logger"
	"github.com/feastline/dispatch-backend/pkg/outbox/payloads"
)

var ErrUnsupportedEventType = errors.New("unsupported analytics event type")

// Writer delivers BigQuery rows produced by analytics handlers.
type Writer interface {
	InsertAssignment(ctx context.Context, row types.AssignmentEventRow) error
	InsertDriverEvent(ctx context.Context, row types.DriverStatusEventRow) error
}

// Handler receives an envelope plus a decoded event payload.
type Handler interface {
	Handle(ctx context.Context, envelope types.Envelope, payload any) error
}

type handlerEntry struct {
	factory func() any
	handler Handler
}

// Router dispatches analytics envelopes to the configured handler per event type.
type Router struct {
	handlers map[enums.AnalyticsEventType]handlerEntry
	logg     *logger.Logger
}

// NewRouter wires the default handlers and allows overrides for specific events.
func NewRouter(writer Writer, logg *logger.Logger, overrides map[enums.AnalyticsEventType]Handler) (*Router, error) {
	if writer == nil {
		return nil, errors.New("writer is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	entries := map[enums.AnalyticsEventType]handlerEntry{
		enums.AnalyticsEventAssignmentCreated: {
			factory: func() any { return &payloads.AssignmentCreatedEvent{} },
			handler: newAssignmentCreatedHandler(writer, logg),
		},
		enums.AnalyticsEventAssignmentAssigned: {
			factory: func() any { return &payloads.AssignmentAssignedEvent{} },
			handler: newAssignmentAssignedHandler(writer, logg),
		},
		enums.AnalyticsEventAssignmentReassigned: {
			factory: func() any { return &payloads.AssignmentReassignedEvent{} },
			handler: newAssignmentReassignedHandler(writer, logg),
		},
		enums.AnalyticsEventAssignmentPickedUp: {
			factory: func() any { return &payloads.AssignmentPickedUpEvent{} },
			handler: newAssignmentPickedUpHandler(writer, logg),
		},
		enums.AnalyticsEventAssignmentDelivered: {
			factory: func() any { return &payloads.AssignmentDeliveredEvent{} },
			handler: newAssignmentDeliveredHandler(writer, logg),
		},
		enums.AnalyticsEventAssignmentCancelled: {
			factory: func() any { return &payloads.AssignmentCancelledEvent{} },
			handler: newAssignmentCancelledHandler(writer, logg),
		},
		enums.AnalyticsEventSubscriptionActivated: {
			factory: func() any { return &payloads.SubscriptionActivatedEvent{} },
			handler: newSubscriptionActivatedHandler(writer, logg),
		},
		enums.AnalyticsEventDriverOnline: {
			factory: func() any { return &payloads.DriverOnlineEvent{} },
			handler: newDriverOnlineHandler(writer, logg),
		},
		enums.AnalyticsEventDriverOffline: {
			factory: func() any { return &payloads.DriverOfflineEvent{} },
			handler: newDriverOfflineHandler(writer, logg),
		},
		enums.AnalyticsEventDriverLocationPinged: {
			factory: func() any { return &payloads.DriverLocationPingedEvent{} },
			handler: newDriverLocationHandler(writer, logg),
		},
	}

	for event, custom := range overrides {
		entry, ok := entries[event]
		if !ok || custom == nil {
			continue
		}
		entry.handler = custom
		entries[event] = entry
	}

	return &Router{
		handlers: entries,
		logg:     logg,
	}, nil
}

// Handle dispatches the incoming envelope to the configured handler.
func (r *Router) Handle(ctx context.Context, envelope types.Envelope) error {
	entry, ok := r.handlers[envelope.EventType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedEventType, envelope.EventType)
	}
	payload := entry.factory()
	if len(envelope.Payload) == 0 {
		return fmt.Errorf("empty payload for %s", envelope.EventType)
	}
	if err := json.Unmarshal(envelope.Payload, payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", envelope.EventType, err)
	}

	return entry.handler.Handle(ctx, envelope, payload)
}
