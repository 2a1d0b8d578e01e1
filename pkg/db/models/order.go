package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/feastline/dispatch-backend/pkg/enums"
	"github.com/feastline/dispatch-backend/pkg/types"
)

// Order is the dispatch-facing projection of an order. The order service
// owns the full record; dispatch reads the fields it needs to route a
// delivery and writes status flips as deliveries progress.
type Order struct {
	ID              uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ChefID          uuid.UUID                `gorm:"column:chef_id;type:uuid;not null"`
	CustomerRef     uuid.UUID                `gorm:"column:customer_ref;type:uuid;not null"`
	SubscriptionID  *uuid.UUID               `gorm:"column:subscription_id;type:uuid"`
	Status          enums.OrderStatus        `gorm:"column:status;type:order_status;not null;default:'pending'"`
	Priority        enums.AssignmentPriority `gorm:"column:priority;type:assignment_priority;not null;default:'normal'"`
	DeliveryAddress types.Address            `gorm:"column:delivery_address;type:address_t;not null"`
	DeliveryPoint   types.GeographyPoint     `gorm:"column:delivery_point;type:geography(Point,4326);not null"`
	DeliveryArea    *string                  `gorm:"column:delivery_area"`
	HandoffNotes    *string                  `gorm:"column:handoff_notes"`
	PlacedAt        time.Time                `gorm:"column:placed_at;autoCreateTime"`
	UpdatedAt       time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
