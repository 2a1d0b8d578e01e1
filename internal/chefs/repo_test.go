package chefs

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/feastline/dispatch-backend/pkg/db/models"
	"github.com/feastline/dispatch-backend/pkg/types"
)

func setupChefsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS chefs (
  id TEXT PRIMARY KEY,
  kitchen_name TEXT NOT NULL,
  phone TEXT,
  address TEXT,
  kitchen_point TEXT,
  cuisines TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func TestChefRoundTrip(t *testing.T) {
	db := setupChefsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	chef := &models.Chef{
		ID:          uuid.New(),
		KitchenName: "Mama Ngozi Kitchen",
		Address: types.Address{
			Line1:      "14 Adeola Odeku St",
			City:       "Lagos",
			State:      "LA",
			PostalCode: "101241",
			Country:    "NG",
			Lat:        6.4281,
			Lng:        3.4219,
		},
		KitchenPoint: types.GeographyPoint{Lat: 6.4281, Lng: 3.4219},
		Cuisines:     pq.StringArray{"nigerian"},
		Active:       true,
	}
	_, err := repo.Create(ctx, chef)
	require.NoError(t, err)

	row, err := repo.FindByID(ctx, chef.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mama Ngozi Kitchen", row.KitchenName)
	assert.InDelta(t, 6.4281, row.KitchenPoint.Lat, 0.0001)
	assert.Equal(t, "Lagos", row.Address.City)
	assert.True(t, row.Active)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
