package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/feastline/dispatch-backend/api/middleware"
	"github.com/feastline/dispatch-backend/api/responses"
	"github.com/feastline/dispatch-backend/api/validators"
	"github.com/feastline/dispatch-backend/internal/dispatch"
	"github.com/feastline/dispatch-backend/pkg/enums"
	pkgerrors "github.com/feastline/dispatch-backend/pkg/errors"
	"github.com/feastline/dispatch-backend/pkg/logger"
	"github.com/feastline/dispatch-backend/pkg/pagination"
)

type createAssignmentRequest struct {
	OrderID  string  `json:"order_id" validate:"required"`
	DriverID *string `json:"driver_id,omitempty"`
	Priority *string `json:"priority,omitempty"`
}

// CreateAssignment opens a delivery assignment for a ready order.
func CreateAssignment(svc dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispatch service unavailable"))
			return
		}

		var payload createAssignmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := uuid.Parse(payload.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		in := dispatch.CreateAssignmentInput{OrderID: orderID}
		if payload.DriverID != nil {
			driverID, err := uuid.Parse(*payload.DriverID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid driver id"))
				return
			}
			in.DriverID = &driverID
		}
		if payload.Priority != nil {
			priority, err := enums.ParseAssignmentPriority(*payload.Priority)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority"))
				return
			}
			in.Priority = &priority
		}

		assignment, err := svc.CreateAssignment(r.Context(), in)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		viewer := middleware.UserIDFromContext(r.Context())
		role := middleware.RoleFromContext(r.Context())
		responses.WriteSuccessStatus(w, http.StatusCreated, newAssignmentPayload(assignment, viewer, role))
	}
}

// GetAssignment returns a single assignment by id.
func GetAssignment(svc dispatch.Service, logg *logger.Logger) http.HandlerFunc {
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

		assignment, err := svc.GetAssignment(r.Context(), assignmentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		viewer := middleware.UserIDFromContext(r.Context())
		role := middleware.RoleFromContext(r.Context())
		responses.WriteSuccess(w, newAssignmentPayload(assignment, viewer, role))
	}
}

// ListAssignments returns a filtered, cursor-paginated page of assignments.
func ListAssignments(svc dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispatch service unavailable"))
			return
		}

		query := dispatch.ListAssignmentsQuery{}

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseAssignmentStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			query.Status = &status
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("driver_id")); raw != "" {
			driverID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid driver id filter"))
				return
			}
			query.DriverID = &driverID
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query.Limit = limit

		cursor, err := pagination.ParseCursor(r.URL.Query().Get("cursor"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
			return
		}
		query.Cursor = cursor

		list, next, err := svc.ListAssignments(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		viewer := middleware.UserIDFromContext(r.Context())
		role := middleware.RoleFromContext(r.Context())
		page := map[string]any{
			"assignments": assignmentPayloads(list, viewer, role),
		}
		if next != nil {
			page["next_cursor"] = pagination.EncodeCursor(*next)
		}
		responses.WriteSuccess(w, page)
	}
}

// AutoAssignAssignment runs driver matching for an available assignment. A
// clean miss is a 200 with matched=false, not an error.
func AutoAssignAssignment(svc dispatch.Service, logg *logger.Logger) http.HandlerFunc {
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

		result, err := svc.AutoAssign(r.Context(), assignmentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := map[string]any{
			"matched": result.Matched,
		}
		if result.Reason != "" {
			payload["reason"] = result.Reason
		}
		if result.DriverID != nil {
			payload["driver_id"] = result.DriverID
		}
		if result.Assignment != nil {
			viewer := middleware.UserIDFromContext(r.Context())
			role := middleware.RoleFromContext(r.Context())
			payload["assignment"] = newAssignmentPayload(result.Assignment, viewer, role)
		}
		responses.WriteSuccess(w, payload)
	}
}

func assignmentIDParam(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "assignmentID"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id is required")
	}
	assignmentID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid assignment id")
	}
	return assignmentID, nil
}
