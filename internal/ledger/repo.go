package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feastline/dispatch-backend/pkg/db/models"
	"github.com/feastline/dispatch-backend/pkg/enums"
)

// Repository manages persistence for driver earnings entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, entry *models.DriverLedgerEntry) error
	SumDeliveries(ctx context.Context, driverID uuid.UUID, from, to time.Time) (int64, int, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Insert(ctx context.Context, entry *models.DriverLedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// SumDeliveries totals delivery earnings in [from, to) and counts the
// entries behind the total.
func (r *repositoryImpl) SumDeliveries(ctx context.Context, driverID uuid.UUID, from, to time.Time) (int64, int, error) {
	var result struct {
		Total   int64
		Entries int
	}
	err := r.db.WithContext(ctx).
		Model(&models.DriverLedgerEntry{}).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS entries").
		Where("driver_id = ? AND type = ? AND created_at >= ? AND created_at < ?",
			driverID, enums.LedgerEntryDeliveryEarning, from, to).
		Scan(&result).Error
	if err != nil {
		return 0, 0, err
	}
	return result.Total, result.Entries, nil
}
