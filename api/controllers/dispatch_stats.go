package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/feastline/dispatch-backend/api/responses"
	"github.com/feastline/dispatch-backend/internal/analytics"
	"github.com/feastline/dispatch-backend/internal/analytics/types"
	pkgerrors "github.com/feastline/dispatch-backend/pkg/errors"
	"github.com/feastline/dispatch-backend/pkg/logger"
)

// DispatchStats serves fleet KPIs from the warehouse. The window is always
// explicit; optional chef_id and delivery_area narrow the scope.
func DispatchStats(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		start, end, err := resolveStatsRange(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req := types.DispatchQueryRequest{
			Start: start,
			End:   end,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("chef_id")); raw != "" {
			chefID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid chef id"))
				return
			}
			req.ChefID = chefID.String()
		}
		req.DeliveryArea = strings.TrimSpace(r.URL.Query().Get("delivery_area"))

		stats, err := svc.Query(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stats)
	}
}

func resolveStatsRange(r *http.Request) (time.Time, time.Time, error) {
	query := r.URL.Query()
	from := strings.TrimSpace(query.Get("from"))
	to := strings.TrimSpace(query.Get("to"))

	if from == "" || to == "" {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "from and to are required")
	}
	start, err := time.Parse(time.RFC3339, from)
	if err != nil {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid from timestamp")
	}
	end, err := time.Parse(time.RFC3339, to)
	if err != nil {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid to timestamp")
	}
	start = start.UTC()
	end = end.UTC()
	if end.Before(start) {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "end must be after start")
	}
	return start, end, nil
}
