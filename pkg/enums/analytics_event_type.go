package enums

import "fmt"

// AnalyticsEventType is the canonical event_type for analytics routing.
type AnalyticsEventType string

const (
	AnalyticsEventAssignmentCreated     AnalyticsEventType = "assignment_created"
	AnalyticsEventAssignmentAssigned    AnalyticsEventType = "assignment_assigned"
	AnalyticsEventAssignmentReassigned  AnalyticsEventType = "assignment_reassigned"
	AnalyticsEventAssignmentPickedUp    AnalyticsEventType = "assignment_picked_up"
	AnalyticsEventAssignmentDelivered   AnalyticsEventType = "assignment_delivered"
	AnalyticsEventAssignmentCancelled   AnalyticsEventType = "assignment_cancelled"
	AnalyticsEventDriverOnline          AnalyticsEventType = "driver_online"
	AnalyticsEventDriverOffline         AnalyticsEventType = "driver_offline"
	AnalyticsEventDriverLocationPinged  AnalyticsEventType = "driver_location_pinged"
	AnalyticsEventSubscriptionActivated AnalyticsEventType = "subscription_activated"
)

var validAnalyticsEventTypes = []AnalyticsEventType{
	AnalyticsEventAssignmentCreated,
	AnalyticsEventAssignmentAssigned,
	AnalyticsEventAssignmentReassigned,
	AnalyticsEventAssignmentPickedUp,
	AnalyticsEventAssignmentDelivered,
	AnalyticsEventAssignmentCancelled,
	AnalyticsEventDriverOnline,
	AnalyticsEventDriverOffline,
	AnalyticsEventDriverLocationPinged,
	AnalyticsEventSubscriptionActivated,
}

// IsValid reports whether the value matches the canonical analytics event_type enum.
func (a AnalyticsEventType) IsValid() bool {
	for _, candidate := range validAnalyticsEventTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAnalyticsEventType converts the raw string to AnalyticsEventType.
func ParseAnalyticsEventType(value string) (AnalyticsEventType, error) {
	for _, candidate := range validAnalyticsEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid analytics event type %q", value)
}
