package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/feastline/dispatch-backend/pkg/db/models"
	"github.com/feastline/dispatch-backend/pkg/enums"
)

func TestCancelAssignmentDerivesActorFromRole(t *testing.T) {
	cases := []struct {
		role  enums.Role
		actor enums.CancelActor
	}{
		{role: enums.RoleAdmin, actor: enums.CancelActorAdmin},
		{role: enums.RoleChef, actor: enums.CancelActorChef},
		{role: enums.RoleCustomer, actor: enums.CancelActorCustomer},
		{role: enums.RoleDriver, actor: enums.CancelActorDriver},
		{role: enums.RoleService, actor: enums.CancelActorSystem},
	}

	for _, tc := range cases {
		driverID := uuid.New()
		cancelled := testAssignment(enums.AssignmentStatusCancelled, &driverID)

		var gotActor enums.CancelActor
		var gotReason string
		svc := &testDispatchService{
			cancelFn: func(ctx context.Context, assignmentID uuid.UUID, actor enums.CancelActor, reason string) (*models.DeliveryAssignment, error) {
				gotActor = actor
				gotReason = reason
				return cancelled, nil
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/api/v1/dispatch/assignments/"+cancelled.ID.String()+"/cancel", strings.NewReader(`{"reason":"kitchen closed"}`))
		req = addRouteParam(req, "assignmentID", cancelled.ID.String())
		req = withViewer(req, uuid.NewString(), string(tc.role))
		resp := httptest.NewRecorder()

		CancelAssignment(svc, testLogger())(resp, req)

		if resp.Code != http.StatusOK {
			t.Fatalf("role %s: expected 200 got %d: %s", tc.role, resp.Code, resp.Body.String())
		}
		if gotActor != tc.actor {
			t.Fatalf("role %s: expected actor %s got %s", tc.role, tc.actor, gotActor)
		}
		if gotReason != "kitchen closed" {
			t.Fatalf("role %s: expected reason forwarded got %q", tc.role, gotReason)
		}
	}
}

func TestCancelAssignmentRequiresReason(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/dispatch/assignments/"+uuid.NewString()+"/cancel", strings.NewReader(`{}`))
	req = addRouteParam(req, "assignmentID", uuid.NewString())
	req = withViewer(req, uuid.NewString(), string(enums.RoleAdmin))
	resp := httptest.NewRecorder()

	CancelAssignment(&testDispatchService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCancelAssignmentRejectsUnknownRole(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/dispatch/assignments/"+uuid.NewString()+"/cancel", strings.NewReader(`{"reason":"x"}`))
	req = addRouteParam(req, "assignmentID", uuid.NewString())
	resp := httptest.NewRecorder()

	CancelAssignment(&testDispatchService{}, testLogger())(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestReassignAssignmentForwardsDriverAndReason(t *testing.T) {
	newDriverID := uuid.New()
	reassigned := testAssignment(enums.AssignmentStatusAssigned, &newDriverID)

	var gotDriver uuid.UUID
	var gotReason string
	svc := &testDispatchService{
		reassignFn: func(ctx context.Context, assignmentID, driverID uuid.UUID, reason string) (*models.DeliveryAssignment, error) {
			gotDriver = driverID
			gotReason = reason
			return reassigned, nil
		},
	}

	body := `{"driver_id":"` + newDriverID.String() + `","reason":"driver unresponsive"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/dispatch/assignments/"+reassigned.ID.String()+"/reassign", strings.NewReader(body))
	req = addRouteParam(req, "assignmentID", reassigned.ID.String())
	req = withViewer(req, uuid.NewString(), string(enums.RoleAdmin))
	resp := httptest.NewRecorder()

	ReassignAssignment(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if gotDriver != newDriverID {
		t.Fatalf("expected driver %s got %s", newDriverID, gotDriver)
	}
	if gotReason != "driver unresponsive" {
		t.Fatalf("expected reason forwarded got %q", gotReason)
	}
}

func TestReassignAssignmentRejectsBadDriverID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/dispatch/assignments/"+uuid.NewString()+"/reassign", strings.NewReader(`{"driver_id":"nope","reason":"x"}`))
	req = addRouteParam(req, "assignmentID", uuid.NewString())
	req = withViewer(req, uuid.NewString(), string(enums.RoleAdmin))
	resp := httptest.NewRecorder()

	ReassignAssignment(&testDispatchService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
