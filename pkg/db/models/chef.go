package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/feastline/dispatch-backend/pkg/types"
)

// Chef holds the kitchen profile dispatch reads pickup locations from.
type Chef struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	KitchenName  string               `gorm:"column:kitchen_name;not null"`
	Phone        *string              `gorm:"column:phone"`
	Address      types.Address        `gorm:"column:address;type:address_t;not null"`
	KitchenPoint types.GeographyPoint `gorm:"column:kitchen_point;type:geography(Point,4326);not null"`
	Cuisines     pq.StringArray       `gorm:"column:cuisines;type:text[]"`
	Active       bool                 `gorm:"column:active;not null;default:true"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
