package router

import (
	"context"
	"fmt"

	"github.com/feastline/dispatch-backend/internal/analytics/types"
	"github.com/feastline/dispatch-backend/pkg/logger"
	"github.com/feastline/dispatch-backend/pkg/outbox/payloads"
)

// Subscription activations land in assignment_events keyed by the first
// delivery so funnel queries can join them to the assignment lifecycle.
type subscriptionActivatedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newSubscriptionActivatedHandler(writer Writer, logg *logger.Logger) Handler {
	return &subscriptionActivatedHandler{writer: writer, logg: logg}
}

func (h *subscriptionActivatedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.SubscriptionActivatedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for subscription_activated")
	}

	fields := map[string]any{
		"event_type":      envelope.EventType,
		"subscription_id": event.SubscriptionID,
		"chef_id":         event.ChefID,
	}
	logCtx := h.logg.WithFields(ctx, fields)

	row, err := baseAssignmentRow(envelope, event.ActivatedAt, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build assignment row", err)
		return err
	}
	row.AssignmentID = uuidPtr(event.FirstAssignmentID)
	row.ChefID = uuidPtr(event.ChefID)
	row.SubscriptionID = uuidPtr(event.SubscriptionID)

	if err := h.writer.InsertAssignment(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert assignment row", err)
		return err
	}

	h.logg.Info(logCtx, "subscription_activated handler inserted row")
	return nil
}
