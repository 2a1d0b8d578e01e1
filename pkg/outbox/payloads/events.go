package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/feastline/dispatch-backend/pkg/enums"
)

// AssignmentCreatedEvent signals a new delivery assignment waiting for a driver.
type AssignmentCreatedEvent struct {
	AssignmentID   uuid.UUID                `json:"assignment_id"`
	OrderID        uuid.UUID                `json:"order_id"`
	ChefID         uuid.UUID                `json:"chef_id"`
	SubscriptionID *uuid.UUID               `json:"subscription_id,omitempty"`
	Priority       enums.AssignmentPriority `json:"priority"`
	DeliveryArea   string                   `json:"delivery_area,omitempty"`
	TotalEarning   int64                    `json:"total_earning"`
}

// AssignmentAssignedEvent is emitted when a driver claims or is handed an assignment.
type AssignmentAssignedEvent struct {
	AssignmentID          uuid.UUID `json:"assignment_id"`
	OrderID               uuid.UUID `json:"order_id"`
	DriverID              uuid.UUID `json:"driver_id"`
	EstimatedPickupTime   time.Time `json:"estimated_pickup_time"`
	EstimatedDeliveryTime time.Time `json:"estimated_delivery_time"`
}

// AssignmentReassignedEvent is emitted when an admin moves an assignment to another driver.
type AssignmentReassignedEvent struct {
	AssignmentID     uuid.UUID `json:"assignment_id"`
	OrderID          uuid.UUID `json:"order_id"`
	PreviousDriverID uuid.UUID `json:"previous_driver_id"`
	DriverID         uuid.UUID `json:"driver_id"`
	Reason           string    `json:"reason,omitempty"`
}

// AssignmentPickedUpEvent is emitted when the driver confirms pickup at the kitchen.
type AssignmentPickedUpEvent struct {
	AssignmentID uuid.UUID `json:"assignment_id"`
	OrderID      uuid.UUID `json:"order_id"`
	DriverID     uuid.UUID `json:"driver_id"`
	PickedUpAt   time.Time `json:"picked_up_at"`
}

// AssignmentDeliveredEvent surfaces the completed handoff and the earned amount.
type AssignmentDeliveredEvent struct {
	AssignmentID uuid.UUID `json:"assignment_id"`
	OrderID      uuid.UUID `json:"order_id"`
	DriverID     uuid.UUID `json:"driver_id"`
	DeliveredAt  time.Time `json:"delivered_at"`
	TotalEarning int64     `json:"total_earning"`
}

// AssignmentCancelledEvent is emitted whenever an assignment is cancelled pre-delivery.
type AssignmentCancelledEvent struct {
	AssignmentID uuid.UUID         `json:"assignment_id"`
	OrderID      uuid.UUID         `json:"order_id"`
	DriverID     *uuid.UUID        `json:"driver_id,omitempty"`
	CancelledBy  enums.CancelActor `json:"cancelled_by"`
	Reason       string            `json:"reason,omitempty"`
	CancelledAt  time.Time         `json:"cancelled_at"`
}

// DriverOnlineEvent reports a driver opening their shift.
type DriverOnlineEvent struct {
	DriverID uuid.UUID `json:"driver_id"`
	At       time.Time `json:"at"`
}

// DriverOfflineEvent reports a driver closing their shift.
type DriverOfflineEvent struct {
	DriverID uuid.UUID `json:"driver_id"`
	At       time.Time `json:"at"`
}

// DriverLocationPingedEvent carries a heartbeat position sample.
type DriverLocationPingedEvent struct {
	DriverID uuid.UUID `json:"driver_id"`
	Lat      float64   `json:"lat"`
	Lng      float64   `json:"lng"`
	At       time.Time `json:"at"`
}

// SubscriptionActivatedEvent is emitted once when the first delivery completes.
type SubscriptionActivatedEvent struct {
	SubscriptionID    uuid.UUID `json:"subscription_id"`
	CustomerRef       uuid.UUID `json:"customer_ref"`
	ChefID            uuid.UUID `json:"chef_id"`
	FirstAssignmentID uuid.UUID `json:"first_assignment_id"`
	ActivatedAt       time.Time `json:"activated_at"`
}
