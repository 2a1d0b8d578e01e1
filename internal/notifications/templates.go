package notifications

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/feastline/dispatch-backend/pkg/db/models"
	"github.com/feastline/dispatch-backend/pkg/enums"
)

// AssignmentEventInput carries what the templates need to address and word
// a notification. CustomerRef may be nil when the order context was not
// loaded; customer copy is skipped in that case.
type AssignmentEventInput struct {
	Event       enums.OutboxEventType
	Assignment  *models.DeliveryAssignment
	CustomerRef *uuid.UUID
}

type assignmentPayload struct {
	AssignmentID uuid.UUID `json:"assignment_id"`
	OrderID      uuid.UUID `json:"order_id"`
	Code         string    `json:"code,omitempty"`
}

func marshalPayload(assignment *models.DeliveryAssignment, includeCode bool) json.RawMessage {
	payload := assignmentPayload{
		AssignmentID: assignment.ID,
		OrderID:      assignment.OrderID,
	}
	if includeCode {
		payload.Code = assignment.ConfirmationCode
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return raw
}

// renderAssignmentEvent maps one lifecycle event to the notification rows
// it produces. Unknown events render nothing.
func renderAssignmentEvent(in AssignmentEventInput) []models.Notification {
	assignment := in.Assignment
	var rows []models.Notification

	customer := func(kind enums.NotificationType, title, message string, includeCode bool) {
		if in.CustomerRef == nil {
			return
		}
		rows = append(rows, models.Notification{
			RecipientID:   *in.CustomerRef,
			RecipientRole: enums.RoleCustomer,
			Type:          kind,
			Title:         title,
			Message:       message,
			Payload:       marshalPayload(assignment, includeCode),
		})
	}
	driver := func(kind enums.NotificationType, title, message string) {
		if assignment.DriverID == nil {
			return
		}
		rows = append(rows, models.Notification{
			RecipientID:   *assignment.DriverID,
			RecipientRole: enums.RoleDriver,
			Type:          kind,
			Title:         title,
			Message:       message,
			Payload:       marshalPayload(assignment, false),
		})
	}
	chef := func(kind enums.NotificationType, title, message string) {
		rows = append(rows, models.Notification{
			RecipientID:   assignment.ChefID,
			RecipientRole: enums.RoleChef,
			Type:          kind,
			Title:         title,
			Message:       message,
			Payload:       marshalPayload(assignment, false),
		})
	}

	switch in.Event {
	case enums.EventAssignmentCreated:
		customer(enums.NotificationTypeConfirmationCode,
			"Your delivery code",
			fmt.Sprintf("Share code %s with your courier at handoff.", assignment.ConfirmationCode),
			true)
	case enums.EventAssignmentAssigned, enums.EventAssignmentReassigned:
		driver(enums.NotificationTypeJobOffer,
			"New pickup",
			fmt.Sprintf("Pick up at %s, %s.", assignment.PickupAddress.Line1, assignment.PickupAddress.City))
		customer(enums.NotificationTypeDriverAssigned,
			"Courier on the way to the kitchen",
			"A courier has been assigned to your delivery.",
			false)
	case enums.EventAssignmentPickedUp:
		customer(enums.NotificationTypeOutForDelivery,
			"Out for delivery",
			"Your meal is on its way.",
			false)
	case enums.EventAssignmentDelivered:
		customer(enums.NotificationTypeDeliveryCompleted,
			"Delivered",
			"Your meal has arrived. Enjoy!",
			false)
		chef(enums.NotificationTypeDeliveryCompleted,
			"Delivery completed",
			"Your order was handed off to the customer.")
	case enums.EventAssignmentCancelled:
		driver(enums.NotificationTypeAssignmentCancelled,
			"Delivery cancelled",
			"The delivery you were on has been cancelled.")
		chef(enums.NotificationTypeAssignmentCancelled,
			"Delivery cancelled",
			"The courier run for your order was cancelled.")
	}
	return rows
}
