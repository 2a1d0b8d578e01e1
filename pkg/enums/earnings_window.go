package enums

import "fmt"

// EarningsWindow selects the aggregation window for driver earnings queries.
type EarningsWindow string

const (
	EarningsWindowDay   EarningsWindow = "day"
	EarningsWindowWeek  EarningsWindow = "week"
	EarningsWindowMonth EarningsWindow = "month"
)

var validEarningsWindows = []EarningsWindow{
	EarningsWindowDay,
	EarningsWindowWeek,
	EarningsWindowMonth,
}

// String implements fmt.Stringer.
func (w EarningsWindow) String() string {
	return string(w)
}

// IsValid reports whether the value is a known EarningsWindow.
func (w EarningsWindow) IsValid() bool {
	for _, candidate := range validEarningsWindows {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseEarningsWindow converts raw input into an EarningsWindow.
func ParseEarningsWindow(value string) (EarningsWindow, error) {
	for _, candidate := range validEarningsWindows {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid earnings window %q", value)
}
