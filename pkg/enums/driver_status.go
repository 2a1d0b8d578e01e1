package enums

import "fmt"

// DriverStatus reflects a driver's availability for dispatch.
type DriverStatus string

const (
	DriverStatusOffline   DriverStatus = "offline"
	DriverStatusAvailable DriverStatus = "available"
	DriverStatusBusy      DriverStatus = "busy"
)

var validDriverStatuses = []DriverStatus{
	DriverStatusOffline,
	DriverStatusAvailable,
	DriverStatusBusy,
}

// String implements fmt.Stringer.
func (s DriverStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known DriverStatus.
func (s DriverStatus) IsValid() bool {
	for _, candidate := range validDriverStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseDriverStatus converts raw input into a DriverStatus.
func ParseDriverStatus(value string) (DriverStatus, error) {
	for _, candidate := range validDriverStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid driver status %q", value)
}
