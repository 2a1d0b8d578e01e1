package subscriptions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feastline/dispatch-backend/pkg/db/models"
	"github.com/feastline/dispatch-backend/pkg/enums"
)

// Repository exposes meal subscription persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, subscription *models.MealSubscription) (*models.MealSubscription, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.MealSubscription, error)
	Activate(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	ListDispatchable(ctx context.Context, limit int) ([]models.MealSubscription, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a subscription repository bound to the database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, subscription *models.MealSubscription) (*models.MealSubscription, error) {
	if err := r.db.WithContext(ctx).Create(subscription).Error; err != nil {
		return nil, err
	}
	return subscription, nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.MealSubscription, error) {
	var row models.MealSubscription
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Activate flips pending_first_delivery to active exactly once. A false
// return means the subscription was already active, paused, or cancelled.
func (r *repositoryImpl) Activate(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.MealSubscription{}).
		Where("id = ? AND status = ?", id, enums.MealSubscriptionStatusPendingFirstDelivery).
		Updates(map[string]any{
			"status":       enums.MealSubscriptionStatusActive,
			"activated_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListDispatchable returns subscriptions that can receive deliveries. Day
// matching happens in the service; the day set lives in a text array the
// query layer stays agnostic about.
func (r *repositoryImpl) ListDispatchable(ctx context.Context, limit int) ([]models.MealSubscription, error) {
	var rows []models.MealSubscription
	err := r.db.WithContext(ctx).
		Where("status IN ?", []enums.MealSubscriptionStatus{
			enums.MealSubscriptionStatusPendingFirstDelivery,
			enums.MealSubscriptionStatusActive,
		}).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
