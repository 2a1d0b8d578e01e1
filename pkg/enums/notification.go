package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeJobOffer              NotificationType = "job_offer"
	NotificationTypeConfirmationCode      NotificationType = "confirmation_code"
	NotificationTypeDriverAssigned        NotificationType = "driver_assigned"
	NotificationTypeOutForDelivery        NotificationType = "out_for_delivery"
	NotificationTypeDeliveryCompleted     NotificationType = "delivery_completed"
	NotificationTypeAssignmentCancelled   NotificationType = "assignment_cancelled"
	NotificationTypeSubscriptionActivated NotificationType = "subscription_activated"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeJobOffer,
	NotificationTypeConfirmationCode,
	NotificationTypeDriverAssigned,
	NotificationTypeOutForDelivery,
	NotificationTypeDeliveryCompleted,
	NotificationTypeAssignmentCancelled,
	NotificationTypeSubscriptionActivated,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
