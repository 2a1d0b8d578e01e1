package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/feastline/dispatch-backend/pkg/enums"
	"github.com/feastline/dispatch-backend/pkg/types"
)

// Driver is the dispatch-facing view of a delivery driver. Profile and
// credential management live in the identity service; dispatch tracks
// availability, position, and workload.
type Driver struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string                `gorm:"column:name;not null"`
	Phone             *string               `gorm:"column:phone"`
	Status            enums.DriverStatus    `gorm:"column:status;type:driver_status;not null;default:'offline'"`
	Rating            float64               `gorm:"column:rating;type:numeric(3,2);not null;default:0"`
	ActiveAssignments int                   `gorm:"column:active_assignments;not null;default:0"`
	LastLocation      *types.GeographyPoint `gorm:"column:last_location;type:geography(Point,4326)"`
	LastSeenAt        *time.Time            `gorm:"column:last_seen_at"`
	Zones             pq.StringArray        `gorm:"column:zones;type:text[]"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
