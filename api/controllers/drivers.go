package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/feastline/dispatch-backend/api/middleware"
	"github.com/feastline/dispatch-backend/api/responses"
	"github.com/feastline/dispatch-backend/api/validators"
	"github.com/feastline/dispatch-backend/internal/drivers"
	"github.com/feastline/dispatch-backend/internal/ledger"
	"github.com/feastline/dispatch-backend/pkg/db/models"
	"github.com/feastline/dispatch-backend/pkg/enums"
	pkgerrors "github.com/feastline/dispatch-backend/pkg/errors"
	"github.com/feastline/dispatch-backend/pkg/logger"
	"github.com/feastline/dispatch-backend/pkg/types"
)

type driverPayload struct {
	ID                uuid.UUID             `json:"id"`
	Name              string                `json:"name"`
	Phone             *string               `json:"phone,omitempty"`
	Status            enums.DriverStatus    `json:"status"`
	Rating            float64               `json:"rating"`
	ActiveAssignments int                   `json:"active_assignments"`
	LastLocation      *types.GeographyPoint `json:"last_location,omitempty"`
	LastSeenAt        *time.Time            `json:"last_seen_at,omitempty"`
	Zones             []string              `json:"zones,omitempty"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

func newDriverPayload(d *models.Driver) driverPayload {
	return driverPayload{
		ID:                d.ID,
		Name:              d.Name,
		Phone:             d.Phone,
		Status:            d.Status,
		Rating:            d.Rating,
		ActiveAssignments: d.ActiveAssignments,
		LastLocation:      d.LastLocation,
		LastSeenAt:        d.LastSeenAt,
		Zones:             d.Zones,
		UpdatedAt:         d.UpdatedAt,
	}
}

type heartbeatRequest struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Status *string `json:"status,omitempty"`
}

// DriverHeartbeat records the authenticated driver's position and refreshes
// the liveness clock. An optional status rides along with the ping.
func DriverHeartbeat(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "driver service unavailable"))
			return
		}

		driverID, err := driverFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload heartbeatRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		in := drivers.HeartbeatInput{Lat: payload.Lat, Lng: payload.Lng}
		if payload.Status != nil {
			status, err := enums.ParseDriverStatus(*payload.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			in.Status = &status
		}

		driver, err := svc.Heartbeat(r.Context(), driverID, in)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newDriverPayload(driver))
	}
}

type driverStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// DriverStatus flips the authenticated driver on or off shift.
func DriverStatus(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "driver service unavailable"))
			return
		}

		driverID, err := driverFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload driverStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseDriverStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		driver, err := svc.SetStatus(r.Context(), driverID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newDriverPayload(driver))
	}
}

// DriverEarnings sums a driver's delivery earnings over a calendar window.
// Drivers can only read their own ledger; admins can read anyone's.
func DriverEarnings(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "driverID"))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "driver id is required"))
			return
		}
		driverID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid driver id"))
			return
		}

		role := middleware.RoleFromContext(r.Context())
		if role != string(enums.RoleAdmin) && middleware.UserIDFromContext(r.Context()) != driverID.String() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "cannot read another driver's earnings"))
			return
		}

		window := enums.EarningsWindowDay
		if raw := strings.TrimSpace(r.URL.Query().Get("window")); raw != "" {
			window, err = enums.ParseEarningsWindow(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid window"))
				return
			}
		}

		summary, err := svc.Earnings(r.Context(), driverID, window)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}
