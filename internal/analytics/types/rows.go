package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"

	"github.com/feastline/dispatch-backend/pkg/enums"
)

// AssignmentEventRow mirrors the assignment_events BigQuery schema. One row
// per lifecycle event, flattened so the dashboard can query without JSON
// extraction for the common dimensions.
type AssignmentEventRow struct {
	EventID          string             `bigquery:"event_id"`
	EventType        string             `bigquery:"event_type"`
	OccurredAt       time.Time          `bigquery:"occurred_at"`
	AssignmentID     *string            `bigquery:"assignment_id"`
	OrderID          *string            `bigquery:"order_id"`
	ChefID           *string            `bigquery:"chef_id"`
	SubscriptionID   *string            `bigquery:"subscription_id"`
	DriverID         *string            `bigquery:"driver_id"`
	PreviousDriverID *string            `bigquery:"previous_driver_id"`
	Priority         *string            `bigquery:"priority"`
	DeliveryArea     *string            `bigquery:"delivery_area"`
	EarningCents     *int64             `bigquery:"earning_cents"`
	CancelledBy      *string            `bigquery:"cancelled_by"`
	Reason           *string            `bigquery:"reason"`
	Payload          cbigquery.NullJSON `bigquery:"payload"`
}

// DriverStatusEventRow mirrors the driver_status_events BigQuery schema.
type DriverStatusEventRow struct {
	EventID    string                `bigquery:"event_id"`
	OccurredAt time.Time             `bigquery:"occurred_at"`
	DriverID   string                `bigquery:"driver_id"`
	Kind       enums.DriverEventKind `bigquery:"kind"`
	Lat        *float64              `bigquery:"lat"`
	Lng        *float64              `bigquery:"lng"`
	Payload    cbigquery.NullJSON    `bigquery:"payload"`
}
