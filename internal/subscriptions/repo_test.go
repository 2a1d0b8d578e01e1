package subscriptions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/feastline/dispatch-backend/pkg/db/models"
	"github.com/feastline/dispatch-backend/pkg/enums"
	"github.com/feastline/dispatch-backend/pkg/types"
)

func setupSubscriptionsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS meal_subscriptions (
  id TEXT PRIMARY KEY,
  customer_ref TEXT NOT NULL,
  chef_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending_first_delivery',
  delivery_days TEXT NOT NULL,
  priority TEXT NOT NULL DEFAULT 'normal',
  delivery_address TEXT,
  delivery_point TEXT,
  activated_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedSubscription(t *testing.T, db *gorm.DB, status enums.MealSubscriptionStatus, days []string) *models.MealSubscription {
	t.Helper()

	subscription := &models.MealSubscription{
		ID:           uuid.New(),
		CustomerRef:  uuid.New(),
		ChefID:       uuid.New(),
		Status:       status,
		DeliveryDays: pq.StringArray(days),
		Priority:     enums.AssignmentPriorityNormal,
		DeliveryAddress: types.Address{
			Line1:      "5 Admiralty Way",
			City:       "Lekki",
			State:      "LA",
			PostalCode: "105102",
			Country:    "NG",
		},
		DeliveryPoint: types.GeographyPoint{Lat: 6.4478, Lng: 3.4723},
	}
	require.NoError(t, db.Create(subscription).Error)
	return subscription
}

func TestActivateFlipsPendingExactlyOnce(t *testing.T) {
	db := setupSubscriptionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	subscription := seedSubscription(t, db, enums.MealSubscriptionStatusPendingFirstDelivery, []string{"monday"})
	at := time.Date(2026, 4, 6, 12, 0, 0, 0, time.UTC)

	activated, err := repo.Activate(ctx, subscription.ID, at)
	require.NoError(t, err)
	require.True(t, activated)

	row, err := repo.FindByID(ctx, subscription.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.MealSubscriptionStatusActive, row.Status)
	require.NotNil(t, row.ActivatedAt)
	assert.WithinDuration(t, at, *row.ActivatedAt, time.Second)

	again, err := repo.Activate(ctx, subscription.ID, at.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, again)
}

func TestActivateIgnoresNonPendingStatuses(t *testing.T) {
	db := setupSubscriptionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	paused := seedSubscription(t, db, enums.MealSubscriptionStatusPaused, []string{"friday"})
	cancelled := seedSubscription(t, db, enums.MealSubscriptionStatusCancelled, []string{"friday"})

	for _, id := range []uuid.UUID{paused.ID, cancelled.ID} {
		activated, err := repo.Activate(ctx, id, time.Now().UTC())
		require.NoError(t, err)
		assert.False(t, activated)
	}
}

func TestListDispatchableSkipsPausedAndCancelled(t *testing.T) {
	db := setupSubscriptionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	pending := seedSubscription(t, db, enums.MealSubscriptionStatusPendingFirstDelivery, []string{"monday"})
	active := seedSubscription(t, db, enums.MealSubscriptionStatusActive, []string{"tuesday"})
	paused := seedSubscription(t, db, enums.MealSubscriptionStatusPaused, []string{"monday"})

	rows, err := repo.ListDispatchable(ctx, 100)
	require.NoError(t, err)

	ids := make(map[uuid.UUID]bool, len(rows))
	for _, row := range rows {
		ids[row.ID] = true
	}
	assert.True(t, ids[pending.ID])
	assert.True(t, ids[active.ID])
	assert.False(t, ids[paused.ID])
}

func TestSubscriptionDeliveryDaysRoundTrip(t *testing.T) {
	db := setupSubscriptionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	subscription := seedSubscription(t, db, enums.MealSubscriptionStatusActive, []string{"monday", "thursday"})

	row, err := repo.FindByID(ctx, subscription.ID)
	require.NoError(t, err)
	assert.Equal(t, pq.StringArray{"monday", "thursday"}, row.DeliveryDays)
}
