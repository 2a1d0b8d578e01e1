package enums

import "fmt"

// CancelActor records which party cancelled an assignment.
type CancelActor string

const (
	CancelActorAdmin    CancelActor = "admin"
	CancelActorChef     CancelActor = "chef"
	CancelActorCustomer CancelActor = "customer"
	CancelActorDriver   CancelActor = "driver"
	CancelActorSystem   CancelActor = "system"
)

var validCancelActors = []CancelActor{
	CancelActorAdmin,
	CancelActorChef,
	CancelActorCustomer,
	CancelActorDriver,
	CancelActorSystem,
}

// String implements fmt.Stringer.
func (a CancelActor) String() string {
	return string(a)
}

// IsValid reports whether the value is a known CancelActor.
func (a CancelActor) IsValid() bool {
	for _, candidate := range validCancelActors {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseCancelActor converts raw input into a CancelActor.
func ParseCancelActor(value string) (CancelActor, error) {
	for _, candidate := range validCancelActors {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cancel actor %q", value)
}
