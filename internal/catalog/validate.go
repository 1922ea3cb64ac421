package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/dryd-travel/booking-backend/internal/quote"
	"github.com/dryd-travel/booking-backend/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// Validate reports every configuration problem of item at once.
func Validate(item quote.Item) error {
	var err error
	if !item.Type.IsValid() {
		err = multierr.Append(err, fmt.Errorf("unknown item type %q", item.Type))
	}
	if strings.TrimSpace(item.Name) == "" {
		err = multierr.Append(err, fmt.Errorf("name is required"))
	}

	switch item.Type {
	case enums.ItemTypeCar:
		if item.PricePerDayCents < 0 {
			err = multierr.Append(err, fmt.Errorf("price per day must not be negative"))
		}
	case enums.ItemTypeTour:
		if item.PriceCents < 0 {
			err = multierr.Append(err, fmt.Errorf("price must not be negative"))
		}
		if item.MaxGroupSize < 0 {
			err = multierr.Append(err, fmt.Errorf("max group size must not be negative"))
		}
		if item.StartDate != nil && item.EndDate != nil && item.EndDate.Before(*item.StartDate) {
			err = multierr.Append(err, fmt.Errorf("tour ends before it starts"))
		}
	case enums.ItemTypeTransport:
		err = multierr.Append(err, validateRates(item.Pricing))
		if item.Capacity < 0 {
			err = multierr.Append(err, fmt.Errorf("capacity must not be negative"))
		}
	}

	if item.Promotion != nil {
		err = multierr.Append(err, validateAmount("promotion", item.Promotion.DiscountType, item.Promotion.DiscountValue))
	}

	switch item.PaymentType {
	case enums.PaymentTypeFull:
	case enums.PaymentTypeDownpayment:
		err = multierr.Append(err, validateAmount("downpayment", item.DownpaymentType, item.DownpaymentValue))
		if item.DownpaymentValue.IsZero() {
			err = multierr.Append(err, fmt.Errorf("downpayment value is required"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("unknown payment type %q", item.PaymentType))
	}
	return err
}

func validateRates(rates []quote.TransportRate) error {
	if len(rates) == 0 {
		return fmt.Errorf("at least one destination rate is required")
	}
	var err error
	seen := map[string]bool{}
	for i, rate := range rates {
		dest := strings.TrimSpace(rate.Destination)
		if dest == "" {
			err = multierr.Append(err, fmt.Errorf("rate %d: destination is required", i))
			continue
		}
		if seen[strings.ToLower(dest)] {
			err = multierr.Append(err, fmt.Errorf("rate %d: duplicate destination %q", i, dest))
		}
		seen[strings.ToLower(dest)] = true
		for _, price := range []*int64{rate.DayTourCents, rate.OvernightCents, rate.ThreeDayTwoNightCents, rate.DropAndPickCents} {
			if price != nil && *price < 0 {
				err = multierr.Append(err, fmt.Errorf("rate %d: prices must not be negative", i))
				break
			}
		}
	}
	return err
}

func validateAmount(field string, kind enums.AmountType, value decimal.Decimal) error {
	var err error
	switch kind {
	case enums.AmountTypePercentage:
		if value.GreaterThan(hundred) {
			err = multierr.Append(err, fmt.Errorf("%s percentage must not exceed 100", field))
		}
	case enums.AmountTypeFixed:
	default:
		err = multierr.Append(err, fmt.Errorf("%s type %q is invalid", field, kind))
	}
	if value.IsNegative() {
		err = multierr.Append(err, fmt.Errorf("%s value must not be negative", field))
	}
	return err
}
