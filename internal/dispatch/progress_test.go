package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/feastline/dispatch-backend/pkg/db/models"
	"github.com/feastline/dispatch-backend/pkg/enums"
	pkgerrors "github.com/feastline/dispatch-backend/pkg/errors"
	"github.com/feastline/dispatch-backend/pkg/types"
)

func TestPickupWithNearbyCoordinates(t *testing.T) {
	f := newDispatchFixture()
	driverID := uuid.New()
	seeded := f.seedAssigned(driverID)

	updated, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		AssignmentID:   seeded.ID,
		DriverID:       driverID,
		Action:         ActionPickup,
		DriverLocation: &types.GeographyPoint{Lat: 6.4290, Lng: 3.4219},
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	if updated.Status != enums.AssignmentStatusPickedUp {
		t.Fatalf("status = %s, want picked_up", updated.Status)
	}
	if updated.PickedUpAt == nil {
		t.Fatal("expected picked_up_at to be stamped")
	}
	if len(f.repo.transitions) != 1 || f.repo.transitions[0] != "assigned->picked_up" {
		t.Fatalf("transitions = %v", f.repo.transitions)
	}
	if len(f.orders.flips) != 1 || f.orders.flips[0] != "ready->out_for_delivery" {
		t.Fatalf("order flips = %v", f.orders.flips)
	}

	events := f.outbox.eventTypes()
	if len(events) != 1 || events[0] != enums.EventAssignmentPickedUp {
		t.Fatalf("outbox events = %v", events)
	}
	if f.outbox.events[0].Actor == nil || f.outbox.events[0].Actor.UserID != driverID {
		t.Fatalf("event actor = %+v", f.outbox.events[0].Actor)
	}
}

func TestPickupTooFarFromKitchen(t *testing.T) {
	f := newDispatchFixture()
	driverID := uuid.New()
	seeded := f.seedAssigned(driverID)

	_, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		AssignmentID:   seeded.ID,
		DriverID:       driverID,
		Action:         ActionPickup,
		DriverLocation: &types.GeographyPoint{Lat: 6.4400, Lng: 3.4219},
	})
	expectCode(t, err, pkgerrors.CodeValidation)
	if f.tx.calls != 0 {
		t.Fatal("expected proof rejection before the transaction")
	}
}

func TestPickupWithExplicitConfirmation(t *testing.T) {
	f := newDispatchFixture()
	driverID := uuid.New()
	seeded := f.seedAssigned(driverID)

	updated, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		AssignmentID: seeded.ID,
		DriverID:     driverID,
		Action:       ActionPickup,
		Confirmed:    true,
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != enums.AssignmentStatusPickedUp {
		t.Fatalf("status = %s, want picked_up", updated.Status)
	}
}

func TestPickupRequiresProof(t *testing.T) {
	f := newDispatchFixture()
	driverID := uuid.New()
	seeded := f.seedAssigned(driverID)

	_, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		AssignmentID: seeded.ID,
		DriverID:     driverID,
		Action:       ActionPickup,
	})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestPickupByWrongDriverForbidden(t *testing.T) {
	f := newDispatchFixture()
	seeded := f.seedAssigned(uuid.New())

	_, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		AssignmentID: seeded.ID,
		DriverID:     uuid.New(),
		Action:       ActionPickup,
		Confirmed:    true,
	})
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestUpdateStatusUnknownAction(t *testing.T) {
	f := newDispatchFixture()
	seeded := f.seedAssigned(uuid.New())

	_, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		AssignmentID: seeded.ID,
		DriverID:     uuid.New(),
		Action:       StatusAction("teleport"),
	})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestDeliveryCompletesAndPaysDriver(t *testing.T) {
	f := newDispatchFixture()
	driverID := uuid.New()
	seeded := f.seedPickedUp(driverID)

	updated, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		AssignmentID: seeded.ID,
		DriverID:     driverID,
		Action:       ActionDeliver,
		Code:         "x7k9p2",
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	if updated.Status != enums.AssignmentStatusDelivered {
		t.Fatalf("status = %s, want delivered", updated.Status)
	}
	if updated.DeliveredAt == nil {
		t.Fatal("expected delivered_at to be stamped")
	}
	if len(f.ledger.recorded) != 1 || f.ledger.recorded[0] != seeded.ID {
		t.Fatalf("ledger entries = %v", f.ledger.recorded)
	}
	if len(f.orders.flips) != 1 || f.orders.flips[0] != "out_for_delivery->delivered" {
		t.Fatalf("order flips = %v", f.orders.flips)
	}
	if len(f.pool.releases) != 1 || f.pool.releases[0] != driverID {
		t.Fatalf("releases = %v, want delivering driver freed", f.pool.releases)
	}

	events := f.outbox.eventTypes()
	if len(events) != 1 || events[0] != enums.EventAssignmentDelivered {
		t.Fatalf("outbox events = %v", events)
	}
	if f.subs.activations != 0 {
		t.Fatalf("unexpected subscription activation")
	}
}

func TestDeliveryRejectsWrongCode(t *testing.T) {
	f := newDispatchFixture()
	driverID := uuid.New()
	seeded := f.seedPickedUp(driverID)

	_, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		AssignmentID: seeded.ID,
		DriverID:     driverID,
		Action:       ActionDeliver,
		Code:         "WRONG1",
	})
	expectCode(t, err, pkgerrors.CodeInvalidConfirmationCode)
	if len(f.ledger.recorded) != 0 {
		t.Fatal("expected no earning for failed confirmation")
	}
	if f.tx.calls != 0 {
		t.Fatal("expected code rejection before the transaction")
	}
}

func TestDeliveryActivatesSubscriptionOnFirstDelivery(t *testing.T) {
	f := newDispatchFixture()
	driverID := uuid.New()
	seeded := f.seedPickedUp(driverID)
	subID := uuid.New()
	seeded.SubscriptionID = &subID
	seeded.IsFirstDelivery = true
	f.subs.subscription = &models.MealSubscription{
		ID:          subID,
		CustomerRef: uuid.New(),
		ChefID:      seeded.ChefID,
		Status:      enums.MealSubscriptionStatusPendingFirstDelivery,
	}

	_, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		AssignmentID: seeded.ID,
		DriverID:     driverID,
		Action:       ActionDeliver,
		Code:         "X7K9P2",
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	if f.subs.activations != 1 {
		t.Fatalf("activations = %d, want 1", f.subs.activations)
	}
	if len(f.outbox.deduped) != 1 || f.outbox.deduped[0].EventType != enums.EventSubscriptionActivated {
		t.Fatalf("deduped events = %v", f.outbox.deduped)
	}
	if len(f.notifier.activations) != 1 || f.notifier.activations[0] != subID {
		t.Fatalf("activation notifications = %v", f.notifier.activations)
	}
}

func TestDeliveryRepeatActivationStaysQuiet(t *testing.T) {
	f := newDispatchFixture()
	driverID := uuid.New()
	seeded := f.seedPickedUp(driverID)
	subID := uuid.New()
	seeded.SubscriptionID = &subID
	seeded.IsFirstDelivery = true
	f.subs.activateOK = false

	_, err := f.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		AssignmentID: seeded.ID,
		DriverID:     driverID,
		Action:       ActionDeliver,
		Code:         "X7K9P2",
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if len(f.outbox.deduped) != 0 {
		t.Fatalf("expected no activation event, got %v", f.outbox.deduped)
	}
	if len(f.notifier.activations) != 0 {
		t.Fatalf("expected no activation notification, got %v", f.notifier.activations)
	}
}

func TestCancelOpenAssignment(t *testing.T) {
	f := newDispatchFixture()
	seeded := f.seedAvailable()

	updated, err := f.svc.Cancel(context.Background(), seeded.ID, enums.CancelActorChef, "kitchen closed early")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if updated.Status != enums.AssignmentStatusCancelled {
		t.Fatalf("status = %s, want cancelled", updated.Status)
	}
	if updated.CancelledBy == nil || *updated.CancelledBy != enums.CancelActorChef {
		t.Fatalf("cancelled_by = %v", updated.CancelledBy)
	}
	if updated.CancelReason == nil || *updated.CancelReason != "kitchen closed early" {
		t.Fatalf("cancel reason = %v", updated.CancelReason)
	}
	if len(f.pool.releases) != 0 {
		t.Fatalf("expected no driver release, got %v", f.pool.releases)
	}
	if len(f.orders.flips) != 0 {
		t.Fatalf("expected no order flip, got %v", f.orders.flips)
	}

	events := f.outbox.eventTypes()
	if len(events) != 1 || events[0] != enums.EventAssignmentCancelled {
		t.Fatalf("outbox events = %v", events)
	}
}

func TestCancelAssignedReleasesDriver(t *testing.T) {
	f := newDispatchFixture()
	driverID := uuid.New()
	seeded := f.seedAssigned(driverID)

	_, err := f.svc.Cancel(context.Background(), seeded.ID, enums.CancelActorCustomer, "changed plans")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if len(f.pool.releases) != 1 || f.pool.releases[0] != driverID {
		t.Fatalf("releases = %v", f.pool.releases)
	}
	if len(f.orders.flips) != 0 {
		t.Fatalf("expected no order flip before pickup, got %v", f.orders.flips)
	}
}

func TestCancelPickedUpReopensOrder(t *testing.T) {
	f := newDispatchFixture()
	driverID := uuid.New()
	seeded := f.seedPickedUp(driverID)

	_, err := f.svc.Cancel(context.Background(), seeded.ID, enums.CancelActorAdmin, "driver unreachable")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if len(f.orders.flips) != 1 || f.orders.flips[0] != "out_for_delivery->ready" {
		t.Fatalf("order flips = %v", f.orders.flips)
	}
	if len(f.pool.releases) != 1 || f.pool.releases[0] != driverID {
		t.Fatalf("releases = %v", f.pool.releases)
	}
}

func TestCancelTerminalAssignmentRejected(t *testing.T) {
	f := newDispatchFixture()
	driverID := uuid.New()
	seeded := f.seedPickedUp(driverID)
	now := time.Now().UTC()
	seeded.Status = enums.AssignmentStatusDelivered
	seeded.DeliveredAt = &now

	_, err := f.svc.Cancel(context.Background(), seeded.ID, enums.CancelActorAdmin, "")
	expectCode(t, err, pkgerrors.CodeStateConflict)
}
