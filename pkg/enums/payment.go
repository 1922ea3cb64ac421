package enums

import "fmt"

// PaymentOption is what the customer chose to pay now.
type PaymentOption string

const (
	PaymentOptionFull        PaymentOption = "full"
	PaymentOptionDownpayment PaymentOption = "downpayment"
)

var validPaymentOptions = []PaymentOption{
	PaymentOptionFull,
	PaymentOptionDownpayment,
}

func (p PaymentOption) String() string {
	return string(p)
}

func (p PaymentOption) IsValid() bool {
	for _, candidate := range validPaymentOptions {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentOption converts raw input into a PaymentOption. Blank input means full payment.
func ParsePaymentOption(value string) (PaymentOption, error) {
	if value == "" {
		return PaymentOptionFull, nil
	}
	for _, candidate := range validPaymentOptions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment option %q", value)
}

// PaymentType is what an item accepts.
type PaymentType string

const (
	PaymentTypeFull        PaymentType = "full"
	PaymentTypeDownpayment PaymentType = "downpayment"
)

func (p PaymentType) IsValid() bool {
	return p == PaymentTypeFull || p == PaymentTypeDownpayment
}

// AmountType distinguishes percentage from fixed-amount rules (promotions, downpayments).
type AmountType string

const (
	AmountTypePercentage AmountType = "percentage"
	AmountTypeFixed      AmountType = "fixed"
)

func (a AmountType) IsValid() bool {
	return a == AmountTypePercentage || a == AmountTypeFixed
}

// ParseAmountType converts raw input into an AmountType.
func ParseAmountType(value string) (AmountType, error) {
	switch AmountType(value) {
	case AmountTypePercentage, AmountTypeFixed:
		return AmountType(value), nil
	}
	return "", fmt.Errorf("invalid amount type %q", value)
}
