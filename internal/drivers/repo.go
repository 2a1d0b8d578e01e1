package drivers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feastline/dispatch-backend/pkg/db/models"
	"github.com/feastline/dispatch-backend/pkg/enums"
	"github.com/feastline/dispatch-backend/pkg/types"
)

// Repository exposes driver persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Driver, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Driver, error)
	RecordHeartbeat(ctx context.Context, id uuid.UUID, location types.GeographyPoint, at time.Time) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.DriverStatus) (bool, error)
	ClaimForDispatch(ctx context.Context, id uuid.UUID) (bool, error)
	Release(ctx context.Context, id uuid.UUID) (bool, error)
	ListStaleAvailable(ctx context.Context, lastSeenBefore time.Time, limit int) ([]models.Driver, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a driver repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Driver, error) {
	var row models.Driver
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Driver, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Driver
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) RecordHeartbeat(ctx context.Context, id uuid.UUID, location types.GeographyPoint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Driver{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_location": location,
			"last_seen_at":  at,
		}).Error
}

// UpdateStatus flips a driver's status guarded by the expected current value.
func (r *repositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.DriverStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Driver{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ClaimForDispatch atomically takes an idle available driver for a delivery.
func (r *repositoryImpl) ClaimForDispatch(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Driver{}).
		Where("id = ? AND status = ? AND active_assignments = 0", id, enums.DriverStatusAvailable).
		Updates(map[string]any{
			"status":             enums.DriverStatusBusy,
			"active_assignments": gorm.Expr("active_assignments + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Release returns a busy driver to the available pool.
func (r *repositoryImpl) Release(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Driver{}).
		Where("id = ? AND status = ?", id, enums.DriverStatusBusy).
		Updates(map[string]any{
			"status":             enums.DriverStatusAvailable,
			"active_assignments": 0,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListStaleAvailable returns available drivers whose heartbeat went quiet.
// Busy drivers are left alone; their assignment lifecycle owns them.
func (r *repositoryImpl) ListStaleAvailable(ctx context.Context, lastSeenBefore time.Time, limit int) ([]models.Driver, error) {
	var rows []models.Driver
	err := r.db.WithContext(ctx).
		Where("status = ? AND (last_seen_at IS NULL OR last_seen_at < ?)", enums.DriverStatusAvailable, lastSeenBefore).
		Order("last_seen_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
