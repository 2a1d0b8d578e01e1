package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/feastline/dispatch-backend/pkg/enums"
)

// Notification stores in-app notification payloads for any platform actor.
type Notification struct {
	ID            uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RecipientID   uuid.UUID              `gorm:"column:recipient_id;type:uuid;not null"`
	RecipientRole enums.Role             `gorm:"column:recipient_role;type:text;not null"`
	Type          enums.NotificationType `gorm:"type:notification_type;not null"`
	Title         string                 `gorm:"type:text;not null"`
	Message       string                 `gorm:"type:text;not null"`
	Payload       json.RawMessage        `gorm:"column:payload;type:jsonb"`
	ReadAt        *time.Time             `gorm:"type:timestamptz"`
	CreatedAt     time.Time              `gorm:"type:timestamptz;default:now()"`
}
