package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/feastline/dispatch-backend/pkg/enums"
)

// DriverLedgerEntry records an immutable earnings event for a driver.
// Delivery earnings are unique per assignment so replays cannot double-pay.
type DriverLedgerEntry struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DriverID     uuid.UUID             `gorm:"column:driver_id;type:uuid;not null;index"`
	AssignmentID *uuid.UUID            `gorm:"column:assignment_id;type:uuid;uniqueIndex:idx_driver_ledger_assignment"`
	Type         enums.LedgerEntryType `gorm:"column:type;type:ledger_entry_type;not null"`
	Amount       int64                 `gorm:"column:amount;not null"`
	Metadata     json.RawMessage       `gorm:"column:metadata;type:jsonb"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
}
