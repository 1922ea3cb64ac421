package enums

import "fmt"

// DeliveryMethod decides where a rental car changes hands.
type DeliveryMethod string

const (
	DeliveryMethodPickup   DeliveryMethod = "pickup"
	DeliveryMethodDelivery DeliveryMethod = "delivery"
)

func (d DeliveryMethod) IsValid() bool {
	return d == DeliveryMethodPickup || d == DeliveryMethodDelivery
}

// ParseDeliveryMethod defaults blank input to pickup.
func ParseDeliveryMethod(value string) (DeliveryMethod, error) {
	if value == "" {
		return DeliveryMethodPickup, nil
	}
	if d := DeliveryMethod(value); d.IsValid() {
		return d, nil
	}
	return "", fmt.Errorf("invalid delivery method %q", value)
}
