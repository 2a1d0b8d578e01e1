package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/feastline/dispatch-backend/pkg/enums"
	"github.com/feastline/dispatch-backend/pkg/types"
)

// MealSubscription ties recurring deliveries to a chef and customer.
// The first completed delivery flips the plan from pending to active.
type MealSubscription struct {
	ID              uuid.UUID                    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerRef     uuid.UUID                    `gorm:"column:customer_ref;type:uuid;not null"`
	ChefID          uuid.UUID                    `gorm:"column:chef_id;type:uuid;not null"`
	Status          enums.MealSubscriptionStatus `gorm:"column:status;type:meal_subscription_status;not null;default:'pending_first_delivery'"`
	DeliveryDays    pq.StringArray               `gorm:"column:delivery_days;type:text[];not null"`
	Priority        enums.AssignmentPriority     `gorm:"column:priority;type:assignment_priority;not null;default:'normal'"`
	DeliveryAddress types.Address                `gorm:"column:delivery_address;type:address_t;not null"`
	DeliveryPoint   types.GeographyPoint         `gorm:"column:delivery_point;type:geography(Point,4326);not null"`
	ActivatedAt     *time.Time                   `gorm:"column:activated_at"`
	CreatedAt       time.Time                    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                    `gorm:"column:updated_at;autoUpdateTime"`
}
