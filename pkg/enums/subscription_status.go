package enums

import "fmt"

// MealSubscriptionStatus tracks a recurring meal-plan subscription.
// Plans start pending and activate once their first delivery completes.
type MealSubscriptionStatus string

const (
	MealSubscriptionStatusPendingFirstDelivery MealSubscriptionStatus = "pending_first_delivery"
	MealSubscriptionStatusActive               MealSubscriptionStatus = "active"
	MealSubscriptionStatusPaused               MealSubscriptionStatus = "paused"
	MealSubscriptionStatusCancelled            MealSubscriptionStatus = "cancelled"
)

var validMealSubscriptionStatuses = []MealSubscriptionStatus{
	MealSubscriptionStatusPendingFirstDelivery,
	MealSubscriptionStatusActive,
	MealSubscriptionStatusPaused,
	MealSubscriptionStatusCancelled,
}

// String implements fmt.Stringer.
func (s MealSubscriptionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s MealSubscriptionStatus) IsValid() bool {
	for _, candidate := range validMealSubscriptionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseMealSubscriptionStatus converts raw input into a MealSubscriptionStatus.
func ParseMealSubscriptionStatus(value string) (MealSubscriptionStatus, error) {
	for _, candidate := range validMealSubscriptionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid meal subscription status %q", value)
}
