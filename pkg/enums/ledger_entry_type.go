package enums

import "fmt"

// LedgerEntryType classifies driver ledger entries.
type LedgerEntryType string

const (
	LedgerEntryDeliveryEarning LedgerEntryType = "delivery_earning"
	LedgerEntryBonus           LedgerEntryType = "bonus"
	LedgerEntryAdjustment      LedgerEntryType = "adjustment"
)

var validLedgerEntryTypes = []LedgerEntryType{
	LedgerEntryDeliveryEarning,
	LedgerEntryBonus,
	LedgerEntryAdjustment,
}

// IsValid reports whether the value is a known LedgerEntryType.
func (t LedgerEntryType) IsValid() bool {
	for _, candidate := range validLedgerEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseLedgerEntryType converts raw input into a LedgerEntryType.
func ParseLedgerEntryType(value string) (LedgerEntryType, error) {
	for _, candidate := range validLedgerEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry type %q", value)
}
