package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/feastline/dispatch-backend/pkg/db/models"
	"github.com/feastline/dispatch-backend/pkg/enums"
	"github.com/feastline/dispatch-backend/pkg/types"
)

// assignmentPayload is the wire shape for delivery assignments. The
// confirmation code is withheld unless the viewer is the assigned driver
// and the delivery has not been picked up yet.
type assignmentPayload struct {
	ID              uuid.UUID  `json:"id"`
	OrderID         uuid.UUID  `json:"order_id"`
	ChefID          uuid.UUID  `json:"chef_id"`
	DriverID        *uuid.UUID `json:"driver_id,omitempty"`
	SubscriptionID  *uuid.UUID `json:"subscription_id,omitempty"`
	IsFirstDelivery bool       `json:"is_first_delivery"`

	Status   enums.AssignmentStatus   `json:"status"`
	Priority enums.AssignmentPriority `json:"priority"`

	PickupAddress   types.Address        `json:"pickup_address"`
	PickupPoint     types.GeographyPoint `json:"pickup_point"`
	DeliveryAddress types.Address        `json:"delivery_address"`
	DeliveryPoint   types.GeographyPoint `json:"delivery_point"`
	DeliveryArea    *string              `json:"delivery_area,omitempty"`
	HandoffNotes    *string              `json:"handoff_notes,omitempty"`

	ConfirmationCode string `json:"confirmation_code,omitempty"`

	TotalDistanceKm      float64 `json:"total_distance_km"`
	EstimatedDurationMin int     `json:"estimated_duration_min"`
	BaseFee              int64   `json:"base_fee"`
	DistanceFee          int64   `json:"distance_fee"`
	TotalEarning         int64   `json:"total_earning"`

	AssignedAt            time.Time  `json:"assigned_at"`
	AcceptedAt            *time.Time `json:"accepted_at,omitempty"`
	PickedUpAt            *time.Time `json:"picked_up_at,omitempty"`
	DeliveredAt           *time.Time `json:"delivered_at,omitempty"`
	CancelledAt           *time.Time `json:"cancelled_at,omitempty"`
	EstimatedPickupTime   time.Time  `json:"estimated_pickup_time"`
	EstimatedDeliveryTime time.Time  `json:"estimated_delivery_time"`

	CancelledBy  *enums.CancelActor `json:"cancelled_by,omitempty"`
	CancelReason *string            `json:"cancel_reason,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

func newAssignmentPayload(a *models.DeliveryAssignment, viewerID, viewerRole string) assignmentPayload {
	p := assignmentPayload{
		ID:              a.ID,
		OrderID:         a.OrderID,
		ChefID:          a.ChefID,
		DriverID:        a.DriverID,
		SubscriptionID:  a.SubscriptionID,
		IsFirstDelivery: a.IsFirstDelivery,

		Status:   a.Status,
		Priority: a.Priority,

		PickupAddress:   a.PickupAddress,
		PickupPoint:     a.PickupPoint,
		DeliveryAddress: a.DeliveryAddress,
		DeliveryPoint:   a.DeliveryPoint,
		DeliveryArea:    a.DeliveryArea,
		HandoffNotes:    a.HandoffNotes,

		TotalDistanceKm:      a.TotalDistanceKm,
		EstimatedDurationMin: a.EstimatedDurationMin,
		BaseFee:              a.BaseFee,
		DistanceFee:          a.DistanceFee,
		TotalEarning:         a.TotalEarning,

		AssignedAt:            a.AssignedAt,
		AcceptedAt:            a.AcceptedAt,
		PickedUpAt:            a.PickedUpAt,
		DeliveredAt:           a.DeliveredAt,
		CancelledAt:           a.CancelledAt,
		EstimatedPickupTime:   a.EstimatedPickupTime,
		EstimatedDeliveryTime: a.EstimatedDeliveryTime,

		CancelledBy:  a.CancelledBy,
		CancelReason: a.CancelReason,

		UpdatedAt: a.UpdatedAt,
	}
	if showConfirmationCode(a, viewerID, viewerRole) {
		p.ConfirmationCode = a.ConfirmationCode
	}
	return p
}

func showConfirmationCode(a *models.DeliveryAssignment, viewerID, viewerRole string) bool {
	if viewerRole != string(enums.RoleDriver) {
		return false
	}
	if a.DriverID == nil || a.DriverID.String() != viewerID {
		return false
	}
	return a.PickedUpAt == nil && !a.Status.IsTerminal()
}

func assignmentPayloads(list []models.DeliveryAssignment, viewerID, viewerRole string) []assignmentPayload {
	out := make([]assignmentPayload, 0, len(list))
	for i := range list {
		out = append(out, newAssignmentPayload(&list[i], viewerID, viewerRole))
	}
	return out
}
