package chefs

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feastline/dispatch-backend/pkg/db/models"
)

// Repository exposes chef persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, chef *models.Chef) (*models.Chef, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Chef, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a chef repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, chef *models.Chef) (*models.Chef, error) {
	if err := r.db.WithContext(ctx).Create(chef).Error; err != nil {
		return nil, err
	}
	return chef, nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Chef, error) {
	var row models.Chef
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}
