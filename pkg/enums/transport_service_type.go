package enums

import (
	"fmt"
	"strings"
)

// TransportServiceType selects which transport rate applies.
type TransportServiceType string

const (
	ServiceDayTour          TransportServiceType = "Day Tour"
	ServiceOvernight        TransportServiceType = "Overnight"
	ServiceThreeDayTwoNight TransportServiceType = "3D2N"
	ServiceDropAndPick      TransportServiceType = "Drop & Pick"
)

var validTransportServiceTypes = []TransportServiceType{
	ServiceDayTour,
	ServiceOvernight,
	ServiceThreeDayTwoNight,
	ServiceDropAndPick,
}

func (t TransportServiceType) String() string {
	return string(t)
}

func (t TransportServiceType) IsValid() bool {
	for _, candidate := range validTransportServiceTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ExtraDays is the number of calendar days the service runs past its start date.
func (t TransportServiceType) ExtraDays() int {
	switch t {
	case ServiceOvernight:
		return 1
	case ServiceThreeDayTwoNight:
		return 2
	default:
		return 0
	}
}

// ParseTransportServiceType accepts the canonical labels case-insensitively.
func ParseTransportServiceType(value string) (TransportServiceType, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range validTransportServiceTypes {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transport service type %q", value)
}
