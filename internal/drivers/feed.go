package drivers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/feastline/dispatch-backend/pkg/enums"
	"github.com/feastline/dispatch-backend/pkg/outbox"
	"github.com/feastline/dispatch-backend/pkg/outbox/payloads"
)

const feedPublishTimeout = 5 * time.Second

type feedPublisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) feedPublishResult
}

type feedPublishResult interface {
	Get(ctx context.Context) (string, error)
}

// Feed publishes high-volume driver events straight to Pub/Sub. Heartbeats
// skip the outbox: losing one ping is acceptable, a table write per ping is
// not.
type Feed struct {
	publisher feedPublisher
}

// NewFeed wraps a Pub/Sub publisher for the driver events topic.
func NewFeed(publisher *gcppubsub.Publisher) (*Feed, error) {
	if publisher == nil {
		return nil, fmt.Errorf("driver events publisher required")
	}
	return &Feed{publisher: &gcpFeedPublisher{publisher: publisher}}, nil
}

// PublishStatus reports a driver going online or offline.
func (f *Feed) PublishStatus(ctx context.Context, driverID uuid.UUID, event enums.OutboxEventType, at time.Time) error {
	if event != enums.EventDriverOnline && event != enums.EventDriverOffline {
		return fmt.Errorf("event %s is not a driver status event", event)
	}

	var data any
	if event == enums.EventDriverOnline {
		data = payloads.DriverOnlineEvent{DriverID: driverID, At: at}
	} else {
		data = payloads.DriverOfflineEvent{DriverID: driverID, At: at}
	}
	return f.publish(ctx, driverID, event, at, data)
}

// PublishLocation reports a heartbeat position sample.
func (f *Feed) PublishLocation(ctx context.Context, driverID uuid.UUID, lat, lng float64, at time.Time) error {
	return f.publish(ctx, driverID, enums.EventDriverLocationPinged, at, payloads.DriverLocationPingedEvent{
		DriverID: driverID,
		Lat:      lat,
		Lng:      lng,
		At:       at,
	})
}

func (f *Feed) publish(ctx context.Context, driverID uuid.UUID, event enums.OutboxEventType, at time.Time, data any) error {
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: at.UTC(),
		Actor:      &outbox.ActorRef{UserID: driverID, Role: string(enums.RoleDriver)},
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}
	envelope.Data = raw

	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", event, err)
	}

	msg := &gcppubsub.Message{
		Data: body,
		Attributes: map[string]string{
			"event_id":       envelope.EventID,
			"event_type":     string(event),
			"aggregate_type": string(enums.AggregateDriver),
			"aggregate_id":   driverID.String(),
			"created_at":     envelope.OccurredAt.Format(time.RFC3339Nano),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, feedPublishTimeout)
	defer cancel()

	result := f.publisher.Publish(publishCtx, msg)
	if result == nil {
		return errors.New("driver events publisher returned nil result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("publish %s: %w", event, err)
	}
	return nil
}

type gcpFeedPublisher struct {
	publisher *gcppubsub.Publisher
}

func (p *gcpFeedPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) feedPublishResult {
	if p == nil || p.publisher == nil {
		return nil
	}
	return p.publisher.Publish(ctx, msg)
}
