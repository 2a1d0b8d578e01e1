package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/feastline/dispatch-backend/api/middleware"
	"github.com/feastline/dispatch-backend/api/responses"
	"github.com/feastline/dispatch-backend/api/validators"
	"github.com/feastline/dispatch-backend/internal/dispatch"
	"github.com/feastline/dispatch-backend/pkg/enums"
	pkgerrors "github.com/feastline/dispatch-backend/pkg/errors"
	"github.com/feastline/dispatch-backend/pkg/logger"
	"github.com/feastline/dispatch-backend/pkg/types"
)

// AcceptAssignment lets the authenticated driver claim an open assignment.
func AcceptAssignment(svc dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispatch service unavailable"))
			return
		}

		driverID, err := driverFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		assignmentID, err := assignmentIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignment, err := svc.Accept(r.Context(), assignmentID, driverID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newAssignmentPayload(assignment, driverID.String(), string(enums.RoleDriver)))
	}
}

type pickupRequest struct {
	Lat       *float64 `json:"lat,omitempty"`
	Lng       *float64 `json:"lng,omitempty"`
	Confirmed bool     `json:"confirmed"`
}

// PickupAssignment confirms pickup with either driver coordinates near the
// kitchen or an explicit confirmation flag.
func PickupAssignment(svc dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispatch service unavailable"))
			return
		}

		driverID, err := driverFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		assignmentID, err := assignmentIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload pickupRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if (payload.Lat == nil) != (payload.Lng == nil) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "lat and lng must be provided together"))
			return
		}

		in := dispatch.UpdateStatusInput{
			AssignmentID: assignmentID,
			DriverID:     driverID,
			Action:       dispatch.ActionPickup,
			Confirmed:    payload.Confirmed,
		}
		if payload.Lat != nil {
			in.DriverLocation = &types.GeographyPoint{Lat: *payload.Lat, Lng: *payload.Lng}
		}

		assignment, err := svc.UpdateStatus(r.Context(), in)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newAssignmentPayload(assignment, driverID.String(), string(enums.RoleDriver)))
	}
}

type deliverRequest struct {
	Code string `json:"code" validate:"required"`
}

// DeliverAssignment completes the handoff with the customer-held code.
func DeliverAssignment(svc dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispatch service unavailable"))
			return
		}

		driverID, err := driverFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		assignmentID, err := assignmentIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload deliverRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignment, err := svc.UpdateStatus(r.Context(), dispatch.UpdateStatusInput{
			AssignmentID: assignmentID,
			DriverID:     driverID,
			Action:       dispatch.ActionDeliver,
			Code:         payload.Code,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newAssignmentPayload(assignment, driverID.String(), string(enums.RoleDriver)))
	}
}

func driverFromContext(r *http.Request) (uuid.UUID, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	driverID, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return driverID, nil
}
