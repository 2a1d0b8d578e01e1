package enums

import "fmt"

// AssignmentPriority scales driver earnings for expedited deliveries.
type AssignmentPriority string

const (
	AssignmentPriorityLow    AssignmentPriority = "low"
	AssignmentPriorityNormal AssignmentPriority = "normal"
	AssignmentPriorityHigh   AssignmentPriority = "high"
	AssignmentPriorityUrgent AssignmentPriority = "urgent"
)

var validAssignmentPriorities = []AssignmentPriority{
	AssignmentPriorityLow,
	AssignmentPriorityNormal,
	AssignmentPriorityHigh,
	AssignmentPriorityUrgent,
}

// String implements fmt.Stringer.
func (p AssignmentPriority) String() string {
	return string(p)
}

// IsValid reports whether the value is a known AssignmentPriority.
func (p AssignmentPriority) IsValid() bool {
	for _, candidate := range validAssignmentPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseAssignmentPriority converts raw input into an AssignmentPriority.
func ParseAssignmentPriority(value string) (AssignmentPriority, error) {
	for _, candidate := range validAssignmentPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid assignment priority %q", value)
}
