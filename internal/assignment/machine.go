package assignment

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/feastline/dispatch-backend/internal/geo"
	"github.com/feastline/dispatch-backend/pkg/db/models"
	"github.com/feastline/dispatch-backend/pkg/enums"
	pkgerrors "github.com/feastline/dispatch-backend/pkg/errors"
	"github.com/feastline/dispatch-backend/pkg/types"
)

// PickupProof carries whatever the driver offers to prove they are at the
// kitchen: their current coordinates, an explicit confirmation flag, or both.
type PickupProof struct {
	DriverLocation *types.GeographyPoint
	Confirmed      bool
}

// Assign moves an available assignment onto a driver. The caller stamps the
// busy flip and persistence under CAS.
func Assign(a *models.DeliveryAssignment, driverID uuid.UUID, now time.Time) error {
	if err := ensureMutable(a); err != nil {
		return err
	}
	if a.Status != enums.AssignmentStatusAvailable {
		return statusConflict(a.Status)
	}
	if driverID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "driver id is required")
	}

	a.DriverID = &driverID
	a.Status = enums.AssignmentStatusAssigned
	a.AcceptedAt = &now
	return nil
}

// ConfirmPickup marks the handoff from chef to driver. Only the assigned
// driver may confirm, and only with acceptable proof: coordinates within
// proximityM metres of the pickup point, or an explicit confirmation.
func ConfirmPickup(a *models.DeliveryAssignment, driverID uuid.UUID, proof PickupProof, proximityM float64, now time.Time) error {
	if err := ensureMutable(a); err != nil {
		return err
	}
	if a.Status != enums.AssignmentStatusAssigned {
		return statusConflict(a.Status)
	}
	if err := ensureAssignedDriver(a, driverID); err != nil {
		return err
	}

	if !proof.Confirmed {
		if proof.DriverLocation == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "pickup proof required: coordinates or explicit confirmation")
		}
		distanceM := geo.DistanceKm(
			proof.DriverLocation.Lat, proof.DriverLocation.Lng,
			a.PickupPoint.Lat, a.PickupPoint.Lng,
		) * 1000
		if distanceM > proximityM {
			return pkgerrors.New(pkgerrors.CodeValidation, "driver is not at the pickup point")
		}
	}

	a.Status = enums.AssignmentStatusPickedUp
	a.PickedUpAt = &now
	return nil
}

// ConfirmDelivery completes the assignment. The code comparison is
// case-insensitive; a mismatch leaves the assignment untouched.
func ConfirmDelivery(a *models.DeliveryAssignment, driverID uuid.UUID, code string, now time.Time) error {
	if err := ensureMutable(a); err != nil {
		return err
	}
	if a.Status != enums.AssignmentStatusPickedUp {
		return statusConflict(a.Status)
	}
	if err := ensureAssignedDriver(a, driverID); err != nil {
		return err
	}
	if !strings.EqualFold(strings.TrimSpace(code), a.ConfirmationCode) {
		return pkgerrors.New(pkgerrors.CodeInvalidConfirmationCode, "confirmation code does not match")
	}

	a.Status = enums.AssignmentStatusDelivered
	a.DeliveredAt = &now
	return nil
}

// Cancel closes the assignment from any non-terminal status and records who
// pulled the plug. The driver reference is kept for the audit trail.
func Cancel(a *models.DeliveryAssignment, actor enums.CancelActor, reason string, now time.Time) error {
	if err := ensureMutable(a); err != nil {
		return err
	}
	if !actor.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid cancel actor")
	}

	a.Status = enums.AssignmentStatusCancelled
	a.CancelledAt = &now
	a.CancelledBy = &actor
	if trimmed := strings.TrimSpace(reason); trimmed != "" {
		a.CancelReason = &trimmed
	}
	return nil
}

// Reassign swaps the driver on an assigned delivery. Admin override only;
// the orchestrator releases the previous driver.
func Reassign(a *models.DeliveryAssignment, newDriverID uuid.UUID, now time.Time) error {
	if err := ensureMutable(a); err != nil {
		return err
	}
	if a.Status != enums.AssignmentStatusAssigned {
		return statusConflict(a.Status)
	}
	if newDriverID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "driver id is required")
	}
	if a.DriverID != nil && *a.DriverID == newDriverID {
		return pkgerrors.New(pkgerrors.CodeValidation, "assignment already held by this driver")
	}

	a.DriverID = &newDriverID
	a.AcceptedAt = &now
	return nil
}

func ensureMutable(a *models.DeliveryAssignment) error {
	if a == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "assignment is nil")
	}
	if a.Status.IsTerminal() {
		return statusConflict(a.Status)
	}
	return nil
}

func ensureAssignedDriver(a *models.DeliveryAssignment, driverID uuid.UUID) error {
	if a.DriverID == nil || *a.DriverID != driverID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "assignment belongs to another driver")
	}
	return nil
}

func statusConflict(current enums.AssignmentStatus) error {
	switch current {
	case enums.AssignmentStatusAvailable:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "assignment not yet assigned")
	case enums.AssignmentStatusAssigned:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "assignment already assigned")
	case enums.AssignmentStatusPickedUp:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "assignment already picked up")
	case enums.AssignmentStatusDelivered:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "assignment already delivered")
	case enums.AssignmentStatusCancelled:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "assignment already cancelled")
	default:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "assignment in unknown state")
	}
}
