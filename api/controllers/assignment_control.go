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
)

type cancelAssignmentRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// CancelAssignment cancels an assignment on behalf of the caller. The cancel
// actor is derived from the authenticated role, never from the body.
func CancelAssignment(svc dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispatch service unavailable"))
			return
		}

		assignmentID, err := assignmentIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := cancelActorForRole(middleware.RoleFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cancelAssignmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignment, err := svc.Cancel(r.Context(), assignmentID, actor, payload.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		viewer := middleware.UserIDFromContext(r.Context())
		role := middleware.RoleFromContext(r.Context())
		responses.WriteSuccess(w, newAssignmentPayload(assignment, viewer, role))
	}
}

type reassignAssignmentRequest struct {
	DriverID string `json:"driver_id" validate:"required"`
	Reason   string `json:"reason" validate:"required"`
}

// ReassignAssignment moves an active delivery onto a different driver.
func ReassignAssignment(svc dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispatch service unavailable"))
			return
		}

		assignmentID, err := assignmentIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload reassignAssignmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		newDriverID, err := uuid.Parse(payload.DriverID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid driver id"))
			return
		}

		assignment, err := svc.Reassign(r.Context(), assignmentID, newDriverID, payload.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		viewer := middleware.UserIDFromContext(r.Context())
		role := middleware.RoleFromContext(r.Context())
		responses.WriteSuccess(w, newAssignmentPayload(assignment, viewer, role))
	}
}

func cancelActorForRole(role string) (enums.CancelActor, error) {
	switch enums.Role(role) {
	case enums.RoleAdmin:
		return enums.CancelActorAdmin, nil
	case enums.RoleChef:
		return enums.CancelActorChef, nil
	case enums.RoleCustomer:
		return enums.CancelActorCustomer, nil
	case enums.RoleDriver:
		return enums.CancelActorDriver, nil
	case enums.RoleService:
		return enums.CancelActorSystem, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeForbidden, "role cannot cancel assignments")
}
