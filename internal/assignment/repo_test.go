package assignment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/feastline/dispatch-backend/pkg/db/models"
	"github.com/feastline/dispatch-backend/pkg/enums"
	pkgerrors "github.com/feastline/dispatch-backend/pkg/errors"
	"github.com/feastline/dispatch-backend/pkg/types"
)

func setupAssignmentTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	assignments := `
CREATE TABLE IF NOT EXISTS delivery_assignments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  chef_id TEXT NOT NULL,
  driver_id TEXT,
  subscription_id TEXT,
  is_first_delivery INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'available',
  priority TEXT NOT NULL DEFAULT 'normal',
  pickup_address TEXT,
  pickup_point TEXT,
  delivery_address TEXT,
  delivery_point TEXT,
  delivery_area TEXT,
  handoff_notes TEXT,
  confirmation_code TEXT NOT NULL,
  total_distance_km REAL NOT NULL DEFAULT 0,
  estimated_duration_min INTEGER NOT NULL DEFAULT 0,
  base_fee INTEGER NOT NULL DEFAULT 0,
  distance_fee INTEGER NOT NULL DEFAULT 0,
  total_earning INTEGER NOT NULL DEFAULT 0,
  assigned_at DATETIME,
  accepted_at DATETIME,
  picked_up_at DATETIME,
  delivered_at DATETIME,
  cancelled_at DATETIME,
  estimated_pickup_time DATETIME,
  estimated_delivery_time DATETIME,
  cancelled_by TEXT,
  cancel_reason TEXT,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(assignments).Error)
	require.NoError(t, db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_delivery_assignments_order_id ON delivery_assignments (order_id);`).Error)
	require.NoError(t, db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_delivery_assignments_confirmation_code_live ON delivery_assignments (confirmation_code) WHERE status <> 'cancelled';`).Error)
	return db
}

func seedAssignment(t *testing.T, db *gorm.DB, status enums.AssignmentStatus, driverID *uuid.UUID, code string, assignedAt time.Time) *models.DeliveryAssignment {
	t.Helper()

	a := &models.DeliveryAssignment{
		ID:               uuid.New(),
		OrderID:          uuid.New(),
		ChefID:           uuid.New(),
		DriverID:         driverID,
		Status:           status,
		Priority:         enums.AssignmentPriorityNormal,
		PickupPoint:      types.GeographyPoint{Lat: 6.4281, Lng: 3.4219},
		DeliveryPoint:    types.GeographyPoint{Lat: 6.5244, Lng: 3.3792},
		ConfirmationCode: code,
		TotalDistanceKm:  11.7,
		BaseFee:          500,
		DistanceFee:      1170,
		TotalEarning:     1670,
		AssignedAt:       assignedAt,
	}
	require.NoError(t, db.Create(a).Error)
	return a
}

func TestRepositoryCreateDuplicateOrder(t *testing.T) {
	db := setupAssignmentTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first := seedAssignment(t, db, enums.AssignmentStatusAvailable, nil, "DUPOR1", time.Now().UTC())

	dup := &models.DeliveryAssignment{
		ID:               uuid.New(),
		OrderID:          first.OrderID,
		ChefID:           uuid.New(),
		Status:           enums.AssignmentStatusAvailable,
		Priority:         enums.AssignmentPriorityNormal,
		ConfirmationCode: "DUPOR2",
	}
	err := repo.Create(ctx, dup)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())

	untouched, err := repo.FindByOrderID(ctx, first.OrderID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, untouched.ID)
}

func TestRepositoryCodeReuseAfterCancellation(t *testing.T) {
	db := setupAssignmentTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	live := seedAssignment(t, db, enums.AssignmentStatusAvailable, nil, "REUSE1", time.Now().UTC())

	clash := &models.DeliveryAssignment{
		ID:               uuid.New(),
		OrderID:          uuid.New(),
		ChefID:           uuid.New(),
		Status:           enums.AssignmentStatusAvailable,
		Priority:         enums.AssignmentPriorityNormal,
		ConfirmationCode: "REUSE1",
	}
	err := repo.Create(ctx, clash)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())

	require.NoError(t, db.Model(&models.DeliveryAssignment{}).
		Where("id = ?", live.ID).
		Update("status", enums.AssignmentStatusCancelled).Error)

	clash.ID = uuid.New()
	require.NoError(t, repo.Create(ctx, clash))

	inUse, err := repo.CodeInUse(ctx, "REUSE1")
	require.NoError(t, err)
	assert.True(t, inUse)
}

func TestRepositoryCodeInUseIgnoresCancelled(t *testing.T) {
	db := setupAssignmentTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedAssignment(t, db, enums.AssignmentStatusCancelled, nil, "GONE01", time.Now().UTC())

	inUse, err := repo.CodeInUse(ctx, "GONE01")
	require.NoError(t, err)
	assert.False(t, inUse)

	inUse, err = repo.CodeInUse(ctx, "NEVER1")
	require.NoError(t, err)
	assert.False(t, inUse)
}

func TestRepositoryApplyTransitionCAS(t *testing.T) {
	db := setupAssignmentTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	row := seedAssignment(t, db, enums.AssignmentStatusAvailable, nil, "CASCAS", time.Now().UTC())
	driverID := uuid.New()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	require.NoError(t, Assign(row, driverID, now))
	require.NoError(t, repo.ApplyTransition(ctx, row, enums.AssignmentStatusAvailable))

	stored, err := repo.FindByID(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.AssignmentStatusAssigned, stored.Status)
	require.NotNil(t, stored.DriverID)
	assert.Equal(t, driverID, *stored.DriverID)
	require.NotNil(t, stored.AcceptedAt)

	// A second caller that still believes the row is available loses the CAS.
	err = repo.ApplyTransition(ctx, row, enums.AssignmentStatusAvailable)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestRepositoryFindActiveByDriver(t *testing.T) {
	db := setupAssignmentTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	driverID := uuid.New()
	seedAssignment(t, db, enums.AssignmentStatusDelivered, &driverID, "ACTIV1", time.Now().UTC())
	active := seedAssignment(t, db, enums.AssignmentStatusPickedUp, &driverID, "ACTIV2", time.Now().UTC())

	found, err := repo.FindActiveByDriver(ctx, driverID)
	require.NoError(t, err)
	assert.Equal(t, active.ID, found.ID)

	_, err = repo.FindActiveByDriver(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListFiltersAndPaginates(t *testing.T) {
	db := setupAssignmentTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	driverID := uuid.New()
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	seedAssignment(t, db, enums.AssignmentStatusDelivered, &driverID, "LIST01", base)
	seedAssignment(t, db, enums.AssignmentStatusDelivered, &driverID, "LIST02", base.Add(time.Minute))
	seedAssignment(t, db, enums.AssignmentStatusDelivered, &driverID, "LIST03", base.Add(2*time.Minute))
	seedAssignment(t, db, enums.AssignmentStatusCancelled, &driverID, "LIST04", base.Add(3*time.Minute))

	status := enums.AssignmentStatusDelivered
	rows, cursor, err := repo.List(ctx, ListQuery{Status: &status, DriverID: &driverID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotNil(t, cursor)
	assert.Equal(t, "LIST03", rows[0].ConfirmationCode)
	assert.Equal(t, "LIST02", rows[1].ConfirmationCode)

	rows, cursor, err = repo.List(ctx, ListQuery{Status: &status, DriverID: &driverID, Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, cursor)
	assert.Equal(t, "LIST01", rows[0].ConfirmationCode)
}

func TestRepositoryListStaleAvailable(t *testing.T) {
	db := setupAssignmentTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	cutoff := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	oldest := seedAssignment(t, db, enums.AssignmentStatusAvailable, nil, "STALE1", cutoff.Add(-2*time.Minute))
	older := seedAssignment(t, db, enums.AssignmentStatusAvailable, nil, "STALE2", cutoff.Add(-time.Minute))
	seedAssignment(t, db, enums.AssignmentStatusAvailable, nil, "STALE3", cutoff.Add(time.Minute))
	seedAssignment(t, db, enums.AssignmentStatusAssigned, nil, "STALE4", cutoff.Add(-time.Hour))

	rows, err := repo.ListStaleAvailable(ctx, cutoff, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, oldest.ID, rows[0].ID)
	assert.Equal(t, older.ID, rows[1].ID)

	rows, err = repo.ListStaleAvailable(ctx, cutoff, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, oldest.ID, rows[0].ID)
}

func TestRepositorySwapDriverGuardsStatusAndDriver(t *testing.T) {
	db := setupAssignmentTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	oldDriver := uuid.New()
	newDriver := uuid.New()
	row := seedAssignment(t, db, enums.AssignmentStatusAssigned, &oldDriver, "SWAP01", time.Now().UTC())
	at := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	swapped, err := repo.SwapDriver(ctx, row.ID, oldDriver, newDriver, at)
	require.NoError(t, err)
	assert.True(t, swapped)

	stored, err := repo.FindByID(ctx, row.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.DriverID)
	assert.Equal(t, newDriver, *stored.DriverID)
	assert.Equal(t, enums.AssignmentStatusAssigned, stored.Status)

	// A second swap still naming the old driver misses the row.
	swapped, err = repo.SwapDriver(ctx, row.ID, oldDriver, uuid.New(), at)
	require.NoError(t, err)
	assert.False(t, swapped)

	// Past pickup the assignment no longer swaps.
	pickedUp := seedAssignment(t, db, enums.AssignmentStatusPickedUp, &oldDriver, "SWAP02", time.Now().UTC())
	swapped, err = repo.SwapDriver(ctx, pickedUp.ID, oldDriver, newDriver, at)
	require.NoError(t, err)
	assert.False(t, swapped)
}

func TestRepositoryExistsForSubscriptionSince(t *testing.T) {
	db := setupAssignmentTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	subID := uuid.New()
	since := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)

	tagSubscription := func(a *models.DeliveryAssignment) {
		require.NoError(t, db.Model(&models.DeliveryAssignment{}).
			Where("id = ?", a.ID).
			Update("subscription_id", subID).Error)
	}

	exists, err := repo.ExistsForSubscriptionSince(ctx, subID, since)
	require.NoError(t, err)
	assert.False(t, exists)

	// A cancelled run does not claim the day.
	tagSubscription(seedAssignment(t, db, enums.AssignmentStatusCancelled, nil, "SUBEX1", since.Add(time.Hour)))
	exists, err = repo.ExistsForSubscriptionSince(ctx, subID, since)
	require.NoError(t, err)
	assert.False(t, exists)

	// Neither does one produced before the window opened.
	tagSubscription(seedAssignment(t, db, enums.AssignmentStatusDelivered, nil, "SUBEX2", since.Add(-time.Hour)))
	exists, err = repo.ExistsForSubscriptionSince(ctx, subID, since)
	require.NoError(t, err)
	assert.False(t, exists)

	tagSubscription(seedAssignment(t, db, enums.AssignmentStatusAvailable, nil, "SUBEX3", since.Add(2*time.Hour)))
	exists, err = repo.ExistsForSubscriptionSince(ctx, subID, since)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsForSubscriptionSince(ctx, uuid.New(), since)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRepositoryCountActive(t *testing.T) {
	db := setupAssignmentTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	driverID := uuid.New()
	seedAssignment(t, db, enums.AssignmentStatusAssigned, &driverID, "CNT001", time.Now().UTC())
	seedAssignment(t, db, enums.AssignmentStatusPickedUp, &driverID, "CNT002", time.Now().UTC())
	seedAssignment(t, db, enums.AssignmentStatusDelivered, &driverID, "CNT003", time.Now().UTC())

	count, err := repo.CountActive(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, int64(2))
}
