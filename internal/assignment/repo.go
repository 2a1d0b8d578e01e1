package assignment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feastline/dispatch-backend/pkg/db"
	"github.com/feastline/dispatch-backend/pkg/db/models"
	"github.com/feastline/dispatch-backend/pkg/enums"
	pkgerrors "github.com/feastline/dispatch-backend/pkg/errors"
	"github.com/feastline/dispatch-backend/pkg/pagination"
)

// Repository exposes delivery assignment persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, a *models.DeliveryAssignment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryAssignment, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.DeliveryAssignment, error)
	FindActiveByDriver(ctx context.Context, driverID uuid.UUID) (*models.DeliveryAssignment, error)
	CodeInUse(ctx context.Context, code string) (bool, error)
	ApplyTransition(ctx context.Context, a *models.DeliveryAssignment, from enums.AssignmentStatus) error
	SwapDriver(ctx context.Context, id, fromDriver, toDriver uuid.UUID, acceptedAt time.Time) (bool, error)
	List(ctx context.Context, params ListQuery) ([]models.DeliveryAssignment, *pagination.Cursor, error)
	ListStaleAvailable(ctx context.Context, olderThan time.Time, limit int) ([]models.DeliveryAssignment, error)
	ExistsForSubscriptionSince(ctx context.Context, subscriptionID uuid.UUID, since time.Time) (bool, error)
	CountActive(ctx context.Context) (int64, error)
}

// ListQuery filters assignment listings.
type ListQuery struct {
	Status   *enums.AssignmentStatus
	DriverID *uuid.UUID
	Limit    int
	Cursor   *pagination.Cursor
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an assignment repository bound to the provided database.
func NewRepository(gdb *gorm.DB) Repository {
	return &repositoryImpl{db: gdb}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// Create inserts the assignment, translating the two uniqueness guarantees
// into typed conflicts.
func (r *repositoryImpl) Create(ctx context.Context, a *models.DeliveryAssignment) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		switch {
		case db.IsUniqueViolation(err, "order_id"):
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "assignment already exists for order")
		case db.IsUniqueViolation(err, "confirmation_code"):
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "confirmation code already in use")
		}
		return err
	}
	return nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryAssignment, error) {
	var row models.DeliveryAssignment
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.DeliveryAssignment, error) {
	var row models.DeliveryAssignment
	if err := r.db.WithContext(ctx).First(&row, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindActiveByDriver returns the driver's single live assignment, if any.
func (r *repositoryImpl) FindActiveByDriver(ctx context.Context, driverID uuid.UUID) (*models.DeliveryAssignment, error) {
	var row models.DeliveryAssignment
	err := r.db.WithContext(ctx).
		Where("driver_id = ? AND status IN ?", driverID, activeStatuses()).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// CodeInUse reports whether a non-cancelled assignment already holds the code.
func (r *repositoryImpl) CodeInUse(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.DeliveryAssignment{}).
		Where("confirmation_code = ? AND status <> ?", code, enums.AssignmentStatusCancelled).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ApplyTransition persists a mutated assignment guarded by its prior status.
// Losing the compare-and-set surfaces as STATE_CONFLICT.
func (r *repositoryImpl) ApplyTransition(ctx context.Context, a *models.DeliveryAssignment, from enums.AssignmentStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.DeliveryAssignment{}).
		Where("id = ? AND status = ?", a.ID, from).
		Updates(map[string]any{
			"status":        a.Status,
			"driver_id":     a.DriverID,
			"accepted_at":   a.AcceptedAt,
			"picked_up_at":  a.PickedUpAt,
			"delivered_at":  a.DeliveredAt,
			"cancelled_at":  a.CancelledAt,
			"cancelled_by":  a.CancelledBy,
			"cancel_reason": a.CancelReason,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "assignment state changed concurrently")
	}
	return nil
}

// SwapDriver moves an assigned delivery onto another driver, guarded by both
// the status and the driver it is being taken from. A false return means a
// concurrent reassignment or transition got there first.
func (r *repositoryImpl) SwapDriver(ctx context.Context, id, fromDriver, toDriver uuid.UUID, acceptedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.DeliveryAssignment{}).
		Where("id = ? AND status = ? AND driver_id = ?", id, enums.AssignmentStatusAssigned, fromDriver).
		Updates(map[string]any{
			"driver_id":   toDriver,
			"accepted_at": acceptedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) List(ctx context.Context, params ListQuery) ([]models.DeliveryAssignment, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.DeliveryAssignment{})
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.DriverID != nil {
		query = query.Where("driver_id = ?", *params.DriverID)
	}
	if params.Cursor != nil {
		query = query.Where("(assigned_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.DeliveryAssignment
	if err := query.Order("assigned_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		next := rows[normalized]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{CreatedAt: next.AssignedAt, ID: next.ID}, nil
	}
	return rows, nil, nil
}

// ListStaleAvailable returns unmatched assignments older than the cutoff,
// oldest first, for the auto-assign sweep.
func (r *repositoryImpl) ListStaleAvailable(ctx context.Context, olderThan time.Time, limit int) ([]models.DeliveryAssignment, error) {
	var rows []models.DeliveryAssignment
	err := r.db.WithContext(ctx).
		Where("status = ? AND assigned_at < ?", enums.AssignmentStatusAvailable, olderThan).
		Order("assigned_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ExistsForSubscriptionSince reports whether the subscription already produced
// a non-cancelled assignment on or after the given instant. The daily batch
// uses it to avoid double-booking a delivery day.
func (r *repositoryImpl) ExistsForSubscriptionSince(ctx context.Context, subscriptionID uuid.UUID, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.DeliveryAssignment{}).
		Where("subscription_id = ? AND status <> ? AND assigned_at >= ?",
			subscriptionID, enums.AssignmentStatusCancelled, since).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountActive counts assignments currently on the road.
func (r *repositoryImpl) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.DeliveryAssignment{}).
		Where("status IN ?", activeStatuses()).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func activeStatuses() []enums.AssignmentStatus {
	return []enums.AssignmentStatus{
		enums.AssignmentStatusAssigned,
		enums.AssignmentStatusPickedUp,
	}
}
