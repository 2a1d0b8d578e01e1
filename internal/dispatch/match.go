package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feastline/dispatch-backend/internal/assignment"
	"github.com/feastline/dispatch-backend/internal/drivers"
	"github.com/feastline/dispatch-backend/internal/geo"
	"github.com/feastline/dispatch-backend/pkg/db/models"
	"github.com/feastline/dispatch-backend/pkg/enums"
	pkgerrors "github.com/feastline/dispatch-backend/pkg/errors"
	"github.com/feastline/dispatch-backend/pkg/metrics"
)

// Reasons reported when auto assignment finishes without a match.
const (
	ReasonNoDriverAvailable = "no_driver_available"
	ReasonAssignmentTaken   = "assignment_taken"
)

// AutoAssignResult reports how a matching attempt ended. Matched false with
// a nil error is a clean miss; Reason says why.
type AutoAssignResult struct {
	Matched    bool
	Reason     string
	DriverID   *uuid.UUID
	Assignment *models.DeliveryAssignment
}

// Accept lets a driver claim an open assignment. The driver slot is taken
// before the transaction so a crash leaves an over-claimed driver rather
// than a double-booked assignment; the release path compensates.
func (s *service) Accept(ctx context.Context, assignmentID, driverID uuid.UUID) (*models.DeliveryAssignment, error) {
	if assignmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id is required")
	}
	if driverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id is required")
	}

	a, err := s.loadAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updated := *a
	if err := assignment.Assign(&updated, driverID, now); err != nil {
		return nil, err
	}

	if err := s.ensureDriverFree(ctx, driverID); err != nil {
		return nil, err
	}
	claimed, err := s.drivers.ClaimForDispatch(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "driver is not available for dispatch")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.assignments.WithTx(tx)
		if err := repo.ApplyTransition(ctx, &updated, enums.AssignmentStatusAvailable); err != nil {
			return err
		}
		return s.emitAssigned(ctx, tx, &updated, driverActor(driverID))
	})
	if err != nil {
		s.releaseDriver(ctx, driverID)
		return nil, err
	}

	s.fanOut(ctx, enums.EventAssignmentAssigned, &updated, s.customerRefFor(ctx, &updated))
	s.refreshActiveGauge(ctx)
	return &updated, nil
}

// AutoAssign matches an open assignment to the best nearby driver, widening
// the search radius until a candidate sticks or the ladder runs out.
func (s *service) AutoAssign(ctx context.Context, assignmentID uuid.UUID) (*AutoAssignResult, error) {
	if assignmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id is required")
	}
	start := time.Now()

	a, err := s.loadAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if a.Status != enums.AssignmentStatusAvailable {
		s.metrics.ObserveAutoAssign(metrics.AutoAssignConflict, time.Since(start))
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "assignment is not available for matching")
	}

	attempted := make(map[uuid.UUID]bool)
	for _, radiusKm := range s.searchRadiiKm {
		near, err := s.geoIndex.Nearby(ctx, a.PickupPoint.Lat, a.PickupPoint.Lng, radiusKm, s.maxCandidates)
		if err != nil {
			s.metrics.ObserveAutoAssign(metrics.AutoAssignError, time.Since(start))
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query driver index")
		}

		candidates, err := s.rankCandidates(ctx, near, attempted)
		if err != nil {
			s.metrics.ObserveAutoAssign(metrics.AutoAssignError, time.Since(start))
			return nil, err
		}

		for _, candidate := range candidates {
			driverID := candidate.Driver.ID
			attempted[driverID] = true

			claimed, err := s.drivers.ClaimForDispatch(ctx, driverID)
			if err != nil {
				s.metrics.ObserveAutoAssign(metrics.AutoAssignError, time.Since(start))
				return nil, err
			}
			if !claimed {
				continue
			}

			now := time.Now().UTC()
			updated := *a
			if err := assignment.Assign(&updated, driverID, now); err != nil {
				s.releaseDriver(ctx, driverID)
				s.metrics.ObserveAutoAssign(metrics.AutoAssignError, time.Since(start))
				return nil, err
			}

			err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
				repo := s.assignments.WithTx(tx)
				if err := repo.ApplyTransition(ctx, &updated, enums.AssignmentStatusAvailable); err != nil {
					return err
				}
				return s.emitAssigned(ctx, tx, &updated, nil)
			})
			if err != nil {
				s.releaseDriver(ctx, driverID)
				if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeStateConflict {
					s.metrics.ObserveAutoAssign(metrics.AutoAssignConflict, time.Since(start))
					return &AutoAssignResult{Matched: false, Reason: ReasonAssignmentTaken}, nil
				}
				s.metrics.ObserveAutoAssign(metrics.AutoAssignError, time.Since(start))
				return nil, err
			}

			s.metrics.ObserveAutoAssign(metrics.AutoAssignMatched, time.Since(start))
			s.fanOut(ctx, enums.EventAssignmentAssigned, &updated, s.customerRefFor(ctx, &updated))
			s.refreshActiveGauge(ctx)
			return &AutoAssignResult{
				Matched:    true,
				DriverID:   &driverID,
				Assignment: &updated,
			}, nil
		}
	}

	s.metrics.ObserveAutoAssign(metrics.AutoAssignNoDriver, time.Since(start))
	logCtx := s.logg.WithAssignmentID(ctx, a.ID.String())
	s.logg.Info(logCtx, "no driver matched within search radii")
	return &AutoAssignResult{Matched: false, Reason: ReasonNoDriverAvailable}, nil
}

// rankCandidates hydrates geo hits into ranked dispatch candidates, dropping
// drivers already tried this attempt and drivers already carrying a delivery.
func (s *service) rankCandidates(ctx context.Context, near []geo.Candidate, attempted map[uuid.UUID]bool) ([]drivers.Candidate, error) {
	ids := make([]uuid.UUID, 0, len(near))
	distances := make(map[uuid.UUID]float64, len(near))
	for _, hit := range near {
		if attempted[hit.DriverID] {
			continue
		}
		ids = append(ids, hit.DriverID)
		distances[hit.DriverID] = hit.DistanceKm
	}
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.drivers.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load candidate drivers")
	}

	candidates := make([]drivers.Candidate, 0, len(rows))
	for _, row := range rows {
		if row.ActiveAssignments > 0 {
			continue
		}
		candidates = append(candidates, drivers.Candidate{
			Driver:     row,
			DistanceKm: distances[row.ID],
		})
	}
	return drivers.Rank(candidates), nil
}

// Reassign moves an assigned delivery to another driver. The swap is guarded
// by the current driver so racing reassignments cannot both win.
func (s *service) Reassign(ctx context.Context, assignmentID, newDriverID uuid.UUID, reason string) (*models.DeliveryAssignment, error) {
	if assignmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id is required")
	}
	if newDriverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver id is required")
	}

	a, err := s.loadAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if a.Status == enums.AssignmentStatusAssigned && a.DriverID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "assigned delivery has no driver")
	}

	now := time.Now().UTC()
	updated := *a
	if err := assignment.Reassign(&updated, newDriverID, now); err != nil {
		return nil, err
	}
	previousDriverID := *a.DriverID

	if err := s.ensureDriverFree(ctx, newDriverID); err != nil {
		return nil, err
	}
	claimed, err := s.drivers.ClaimForDispatch(ctx, newDriverID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "driver is not available for dispatch")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.assignments.WithTx(tx)
		swapped, err := repo.SwapDriver(ctx, a.ID, previousDriverID, newDriverID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "swap assignment driver")
		}
		if !swapped {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "assignment state changed concurrently")
		}
		return s.emitReassigned(ctx, tx, &updated, previousDriverID, reason)
	})
	if err != nil {
		s.releaseDriver(ctx, newDriverID)
		return nil, err
	}

	s.releaseDriver(ctx, previousDriverID)
	s.fanOut(ctx, enums.EventAssignmentReassigned, &updated, s.customerRefFor(ctx, &updated))
	return &updated, nil
}
