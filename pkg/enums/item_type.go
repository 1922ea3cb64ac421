package enums

import (
	"fmt"
	"strings"
)

// ItemType identifies the kind of bookable item.
type ItemType string

const (
	ItemTypeCar       ItemType = "car"
	ItemTypeTour      ItemType = "tour"
	ItemTypeTransport ItemType = "transport"
)

var validItemTypes = []ItemType{
	ItemTypeCar,
	ItemTypeTour,
	ItemTypeTransport,
}

// String implements fmt.Stringer.
func (i ItemType) String() string {
	return string(i)
}

// IsValid reports whether the value is a known ItemType.
func (i ItemType) IsValid() bool {
	for _, candidate := range validItemTypes {
		if candidate == i {
			return true
		}
	}
	return false
}

// HasDateConflicts reports whether bookings of this type block calendar days.
// Tours run on fixed schedules and never conflict.
func (i ItemType) HasDateConflicts() bool {
	return i == ItemTypeCar || i == ItemTypeTransport
}

// ParseItemType converts raw input into an ItemType.
func ParseItemType(value string) (ItemType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validItemTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item type %q", value)
}
