package drivers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feastline/dispatch-backend/pkg/db/models"
	"github.com/feastline/dispatch-backend/pkg/enums"
	pkgerrors "github.com/feastline/dispatch-backend/pkg/errors"
	"github.com/feastline/dispatch-backend/pkg/logger"
	"github.com/feastline/dispatch-backend/pkg/types"
)

type geoIndex interface {
	Upsert(ctx context.Context, driverID uuid.UUID, lat, lng float64) error
	Remove(ctx context.Context, driverID uuid.UUID) error
}

type eventFeed interface {
	PublishStatus(ctx context.Context, driverID uuid.UUID, event enums.OutboxEventType, at time.Time) error
	PublishLocation(ctx context.Context, driverID uuid.UUID, lat, lng float64, at time.Time) error
}

// HeartbeatInput is a position ping, optionally carrying a status change.
type HeartbeatInput struct {
	Lat    float64
	Lng    float64
	Status *enums.DriverStatus
}

// Service owns driver availability: heartbeats, shift status, and the
// busy/available flips dispatch rides on.
type Service interface {
	Heartbeat(ctx context.Context, driverID uuid.UUID, in HeartbeatInput) (*models.Driver, error)
	SetStatus(ctx context.Context, driverID uuid.UUID, status enums.DriverStatus) (*models.Driver, error)
	GetDriver(ctx context.Context, driverID uuid.UUID) (*models.Driver, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Driver, error)
	ClaimForDispatch(ctx context.Context, driverID uuid.UUID) (bool, error)
	Release(ctx context.Context, driverID uuid.UUID) error
	SweepStale(ctx context.Context, lastSeenBefore time.Time, limit int) (int, error)
}

type service struct {
	repo  Repository
	index geoIndex
	feed  eventFeed
	logg  *logger.Logger
}

// NewService builds the driver service. The event feed is optional; when nil
// no driver events are published.
func NewService(repo Repository, index geoIndex, feed eventFeed, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("driver repository required")
	}
	if index == nil {
		return nil, fmt.Errorf("geo index required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, index: index, feed: feed, logg: logg}, nil
}

// Heartbeat records the driver's position and refreshes their index entry.
// The optional status rider may move a driver between available and offline;
// busy is owned by dispatch and never changed from a ping.
func (s *service) Heartbeat(ctx context.Context, driverID uuid.UUID, in HeartbeatInput) (*models.Driver, error) {
	if driverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id is required")
	}
	location := types.GeographyPoint{Lat: in.Lat, Lng: in.Lng}
	if !location.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range")
	}
	if in.Status != nil && *in.Status == enums.DriverStatusBusy {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "busy status is set by dispatch")
	}
	if in.Status != nil && !in.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid driver status")
	}

	driver, err := s.findDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.repo.RecordHeartbeat(ctx, driverID, location, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record heartbeat")
	}

	effective := driver.Status
	if in.Status != nil && driver.Status != enums.DriverStatusBusy && *in.Status != driver.Status {
		flipped, err := s.repo.UpdateStatus(ctx, driverID, driver.Status, *in.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update driver status")
		}
		if flipped {
			effective = *in.Status
			s.publishStatusChange(ctx, driverID, effective, now)
		}
	}

	s.syncIndex(ctx, driverID, effective, &location)

	if s.feed != nil {
		if err := s.feed.PublishLocation(ctx, driverID, in.Lat, in.Lng, now); err != nil {
			s.logg.Warn(s.logg.WithDriverID(ctx, driverID.String()), "driver location ping publish failed")
		}
	}

	driver.Status = effective
	driver.LastLocation = &location
	driver.LastSeenAt = &now
	return driver, nil
}

// SetStatus moves a driver between offline and available. Busy drivers are
// locked to their delivery until dispatch releases them.
func (s *service) SetStatus(ctx context.Context, driverID uuid.UUID, status enums.DriverStatus) (*models.Driver, error) {
	if driverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id is required")
	}
	if status != enums.DriverStatusAvailable && status != enums.DriverStatusOffline {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be available or offline")
	}

	driver, err := s.findDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if driver.Status == status {
		return driver, nil
	}
	if driver.Status == enums.DriverStatusBusy {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "driver is on an active delivery")
	}

	flipped, err := s.repo.UpdateStatus(ctx, driverID, driver.Status, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update driver status")
	}
	if !flipped {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "driver status changed concurrently")
	}

	now := time.Now().UTC()
	s.syncIndex(ctx, driverID, status, driver.LastLocation)
	s.publishStatusChange(ctx, driverID, status, now)

	driver.Status = status
	return driver, nil
}

func (s *service) GetDriver(ctx context.Context, driverID uuid.UUID) (*models.Driver, error) {
	if driverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id is required")
	}
	return s.findDriver(ctx, driverID)
}

func (s *service) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Driver, error) {
	rows, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load drivers")
	}
	return rows, nil
}

// ClaimForDispatch flips available+idle to busy. A false return means the
// driver was taken, went offline, or already carries an assignment.
func (s *service) ClaimForDispatch(ctx context.Context, driverID uuid.UUID) (bool, error) {
	claimed, err := s.repo.ClaimForDispatch(ctx, driverID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim driver")
	}
	if claimed {
		if err := s.index.Remove(ctx, driverID); err != nil {
			s.logg.Warn(s.logg.WithDriverID(ctx, driverID.String()), "geo index remove after claim failed")
		}
	}
	return claimed, nil
}

// Release puts a busy driver back in the pool. Releasing a driver who is not
// busy is a no-op so delivery and cancellation flows can call it blindly.
func (s *service) Release(ctx context.Context, driverID uuid.UUID) error {
	released, err := s.repo.Release(ctx, driverID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release driver")
	}
	if !released {
		return nil
	}

	driver, err := s.repo.FindByID(ctx, driverID)
	if err != nil {
		s.logg.Warn(s.logg.WithDriverID(ctx, driverID.String()), "released driver lookup failed")
		return nil
	}
	if driver.LastLocation != nil {
		if err := s.index.Upsert(ctx, driverID, driver.LastLocation.Lat, driver.LastLocation.Lng); err != nil {
			s.logg.Warn(s.logg.WithDriverID(ctx, driverID.String()), "geo index upsert after release failed")
		}
	}
	return nil
}

// SweepStale flips quiet available drivers offline and drops them from the
// index. Returns how many drivers were flipped.
func (s *service) SweepStale(ctx context.Context, lastSeenBefore time.Time, limit int) (int, error) {
	stale, err := s.repo.ListStaleAvailable(ctx, lastSeenBefore, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stale drivers")
	}

	flipped := 0
	now := time.Now().UTC()
	for _, driver := range stale {
		ok, err := s.repo.UpdateStatus(ctx, driver.ID, enums.DriverStatusAvailable, enums.DriverStatusOffline)
		if err != nil {
			return flipped, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark driver offline")
		}
		if !ok {
			continue
		}
		flipped++
		if err := s.index.Remove(ctx, driver.ID); err != nil {
			s.logg.Warn(s.logg.WithDriverID(ctx, driver.ID.String()), "geo index remove for stale driver failed")
		}
		s.publishStatusChange(ctx, driver.ID, enums.DriverStatusOffline, now)
	}
	return flipped, nil
}

func (s *service) findDriver(ctx context.Context, driverID uuid.UUID) (*models.Driver, error) {
	driver, err := s.repo.FindByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup driver")
	}
	return driver, nil
}

// syncIndex restates the index invariant for one driver: present while
// available, absent otherwise.
func (s *service) syncIndex(ctx context.Context, driverID uuid.UUID, status enums.DriverStatus, location *types.GeographyPoint) {
	switch {
	case status == enums.DriverStatusAvailable && location != nil:
		if err := s.index.Upsert(ctx, driverID, location.Lat, location.Lng); err != nil {
			s.logg.Warn(s.logg.WithDriverID(ctx, driverID.String()), "geo index upsert failed")
		}
	case status != enums.DriverStatusAvailable:
		if err := s.index.Remove(ctx, driverID); err != nil {
			s.logg.Warn(s.logg.WithDriverID(ctx, driverID.String()), "geo index remove failed")
		}
	}
}

func (s *service) publishStatusChange(ctx context.Context, driverID uuid.UUID, status enums.DriverStatus, at time.Time) {
	if s.feed == nil {
		return
	}
	event := enums.EventDriverOnline
	if status == enums.DriverStatusOffline {
		event = enums.EventDriverOffline
	}
	if err := s.feed.PublishStatus(ctx, driverID, event, at); err != nil {
		s.logg.Warn(s.logg.WithDriverID(ctx, driverID.String()), "driver status event publish failed")
	}
}
