package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/feastline/dispatch-backend/api/responses"
	"github.com/feastline/dispatch-backend/api/validators"
	"github.com/feastline/dispatch-backend/internal/chefs"
	"github.com/feastline/dispatch-backend/pkg/db/models"
	pkgerrors "github.com/feastline/dispatch-backend/pkg/errors"
	"github.com/feastline/dispatch-backend/pkg/logger"
	"github.com/feastline/dispatch-backend/pkg/types"
)

type chefPayload struct {
	ID           uuid.UUID            `json:"id"`
	KitchenName  string               `json:"kitchen_name"`
	Phone        *string              `json:"phone,omitempty"`
	Address      types.Address        `json:"address"`
	KitchenPoint types.GeographyPoint `json:"kitchen_point"`
	Cuisines     []string             `json:"cuisines,omitempty"`
	Active       bool                 `json:"active"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

func newChefPayload(c *models.Chef) chefPayload {
	return chefPayload{
		ID:           c.ID,
		KitchenName:  c.KitchenName,
		Phone:        c.Phone,
		Address:      c.Address,
		KitchenPoint: c.KitchenPoint,
		Cuisines:     c.Cuisines,
		Active:       c.Active,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

type onboardChefRequest struct {
	KitchenName string   `json:"kitchen_name" validate:"required"`
	Phone       *string  `json:"phone,omitempty"`
	PlaceID     string   `json:"place_id" validate:"required"`
	Unit        *string  `json:"unit,omitempty"`
	Cuisines    []string `json:"cuisines,omitempty"`
}

// OnboardChef registers a kitchen. The place id is geocoded once here so
// dispatch never calls the places API on the hot path.
func OnboardChef(svc chefs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chef service unavailable"))
			return
		}

		var payload onboardChefRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		chef, err := svc.Onboard(r.Context(), chefs.OnboardChefInput{
			KitchenName: payload.KitchenName,
			Phone:       payload.Phone,
			PlaceID:     payload.PlaceID,
			Unit:        payload.Unit,
			Cuisines:    payload.Cuisines,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newChefPayload(chef))
	}
}

// GetChef returns a kitchen profile.
func GetChef(svc chefs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chef service unavailable"))
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "chefID"))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "chef id is required"))
			return
		}
		chefID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid chef id"))
			return
		}

		chef, err := svc.Get(r.Context(), chefID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newChefPayload(chef))
	}
}
