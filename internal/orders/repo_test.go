package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/feastline/dispatch-backend/pkg/db/models"
	"github.com/feastline/dispatch-backend/pkg/enums"
	"github.com/feastline/dispatch-backend/pkg/types"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  chef_id TEXT NOT NULL,
  customer_ref TEXT NOT NULL,
  subscription_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  priority TEXT NOT NULL DEFAULT 'normal',
  delivery_address TEXT,
  delivery_point TEXT,
  delivery_area TEXT,
  handoff_notes TEXT,
  placed_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, status enums.OrderStatus) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:          uuid.New(),
		ChefID:      uuid.New(),
		CustomerRef: uuid.New(),
		Status:      status,
		Priority:    enums.AssignmentPriorityNormal,
		DeliveryAddress: types.Address{
			Line1:      "14 Adeola Odeku St",
			City:       "Lagos",
			State:      "LA",
			PostalCode: "101241",
			Country:    "NG",
		},
		DeliveryPoint: types.GeographyPoint{Lat: 6.4281, Lng: 3.4219},
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestOrderRoundTrip(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := seedOrder(t, db, enums.OrderStatusReady)

	row, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusReady, row.Status)
	assert.Equal(t, seeded.ChefID, row.ChefID)
	assert.InDelta(t, 6.4281, row.DeliveryPoint.Lat, 0.0001)
	assert.Equal(t, "Lagos", row.DeliveryAddress.City)
}

func TestOrderFindMissing(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestOrderUpdateStatusGuards(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, enums.OrderStatusReady)

	flipped, err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusReady, enums.OrderStatusOutForDelivery)
	require.NoError(t, err)
	require.True(t, flipped)

	stale, err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusReady, enums.OrderStatusDelivered)
	require.NoError(t, err)
	assert.False(t, stale)

	row, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusOutForDelivery, row.Status)
}
