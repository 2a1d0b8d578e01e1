package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/feastline/dispatch-backend/pkg/enums"
	"github.com/feastline/dispatch-backend/pkg/types"
)

// DeliveryAssignment binds one order to at most one driver and owns the
// delivery lifecycle from creation through handoff. The delivery side holds
// only a drop-off point and free-text notes; customer identity stays with
// the order service.
type DeliveryAssignment struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID  `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_delivery_assignments_order_id"`
	ChefID          uuid.UUID  `gorm:"column:chef_id;type:uuid;not null"`
	DriverID        *uuid.UUID `gorm:"column:driver_id;type:uuid;index:idx_delivery_assignments_driver_status"`
	SubscriptionID  *uuid.UUID `gorm:"column:subscription_id;type:uuid"`
	IsFirstDelivery bool       `gorm:"column:is_first_delivery;not null;default:false"`

	Status   enums.AssignmentStatus   `gorm:"column:status;type:assignment_status;not null;default:'available';index:idx_delivery_assignments_driver_status"`
	Priority enums.AssignmentPriority `gorm:"column:priority;type:assignment_priority;not null;default:'normal'"`

	PickupAddress   types.Address        `gorm:"column:pickup_address;type:address_t;not null"`
	PickupPoint     types.GeographyPoint `gorm:"column:pickup_point;type:geography(Point,4326);not null"`
	DeliveryAddress types.Address        `gorm:"column:delivery_address;type:address_t;not null"`
	DeliveryPoint   types.GeographyPoint `gorm:"column:delivery_point;type:geography(Point,4326);not null"`
	DeliveryArea    *string              `gorm:"column:delivery_area"`
	HandoffNotes    *string              `gorm:"column:handoff_notes"`

	ConfirmationCode string `gorm:"column:confirmation_code;not null"`

	TotalDistanceKm      float64 `gorm:"column:total_distance_km;not null"`
	EstimatedDurationMin int     `gorm:"column:estimated_duration_min;not null"`
	BaseFee              int64   `gorm:"column:base_fee;not null"`
	DistanceFee          int64   `gorm:"column:distance_fee;not null"`
	TotalEarning         int64   `gorm:"column:total_earning;not null"`

	AssignedAt            time.Time  `gorm:"column:assigned_at;autoCreateTime"`
	AcceptedAt            *time.Time `gorm:"column:accepted_at"`
	PickedUpAt            *time.Time `gorm:"column:picked_up_at"`
	DeliveredAt           *time.Time `gorm:"column:delivered_at"`
	CancelledAt           *time.Time `gorm:"column:cancelled_at"`
	EstimatedPickupTime   time.Time  `gorm:"column:estimated_pickup_time;not null"`
	EstimatedDeliveryTime time.Time  `gorm:"column:estimated_delivery_time;not null"`

	CancelledBy  *enums.CancelActor `gorm:"column:cancelled_by;type:cancel_actor"`
	CancelReason *string            `gorm:"column:cancel_reason"`

	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
