package router

import (
	"fmt"
	"time"

	"github.com/feastline/dispatch-backend/internal/analytics"
	"github.com/feastline/dispatch-backend/internal/analytics/types"
	analyticswriter "github.com/feastline/dispatch-backend/internal/analytics/writer"
)

// baseAssignmentRow fills the columns every assignment lifecycle row shares.
// occurred is the payload's own stamp; falls back to the envelope when zero.
func baseAssignmentRow(envelope types.Envelope, occurred time.Time, payload any) (types.AssignmentEventRow, error) {
	payloadJSON, err := analyticswriter.EncodeJSON(payload)
	if err != nil {
		return types.AssignmentEventRow{}, fmt.Errorf("encode payload json: %w", err)
	}

	return types.AssignmentEventRow{
		EventID:    envelope.EventID,
		EventType:  string(envelope.EventType),
		OccurredAt: analytics.EventTimestamp(occurred, envelope.OccurredAt, time.Now()),
		Payload:    payloadJSON,
	}, nil
}

func baseDriverRow(envelope types.Envelope, occurred time.Time, payload any) (types.DriverStatusEventRow, error) {
	payloadJSON, err := analyticswriter.EncodeJSON(payload)
	if err != nil {
		return types.DriverStatusEventRow{}, fmt.Errorf("encode payload json: %w", err)
	}

	return types.DriverStatusEventRow{
		EventID:    envelope.EventID,
		OccurredAt: analytics.EventTimestamp(occurred, envelope.OccurredAt, time.Now()),
		Payload:    payloadJSON,
	}, nil
}
