package enums

import "fmt"

// DriverEventKind describes the allowed values for the `kind` column in driver_status_events.
type DriverEventKind string

const (
	DriverEventKindOnline  DriverEventKind = "online"
	DriverEventKindOffline DriverEventKind = "offline"
	DriverEventKindPing    DriverEventKind = "ping"
)

var validDriverEventKinds = []DriverEventKind{
	DriverEventKindOnline,
	DriverEventKindOffline,
	DriverEventKindPing,
}

// IsValid reports whether the value matches the canonical driver event kind enum.
func (d DriverEventKind) IsValid() bool {
	for _, candidate := range validDriverEventKinds {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDriverEventKind converts the raw string to DriverEventKind.
func ParseDriverEventKind(value string) (DriverEventKind, error) {
	for _, candidate := range validDriverEventKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid driver event kind %q", value)
}
