// Package quote prices a booking selection. It is pure: no I/O, no clocks, no logging.
package quote

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dryd-travel/booking-backend/pkg/enums"
)

// Promotion is a discount rule attached to an item.
type Promotion struct {
	DiscountType  enums.AmountType `json:"discountType"`
	DiscountValue decimal.Decimal  `json:"discountValue"`
	Title         string           `json:"title"`
}

// TransportRate prices one destination. A nil field means that service is not offered there.
type TransportRate struct {
	Destination           string `json:"destination"`
	Region                string `json:"region,omitempty"`
	DayTourCents          *int64 `json:"dayTourPrice,omitempty"`
	OvernightCents        *int64 `json:"ovnPrice,omitempty"`
	ThreeDayTwoNightCents *int64 `json:"threeDayTwoNightPrice,omitempty"`
	DropAndPickCents      *int64 `json:"dropAndPickPrice,omitempty"`
}

// PriceFor returns the rate for a service type, or nil when it is not offered.
func (r TransportRate) PriceFor(service enums.TransportServiceType) *int64 {
	switch service {
	case enums.ServiceDayTour:
		return r.DayTourCents
	case enums.ServiceOvernight:
		return r.OvernightCents
	case enums.ServiceThreeDayTwoNight:
		return r.ThreeDayTwoNightCents
	case enums.ServiceDropAndPick:
		return r.DropAndPickCents
	default:
		return nil
	}
}

// Item is a bookable car, tour or transport service. Only the fields of its Type are read.
type Item struct {
	ID   uuid.UUID      `json:"id"`
	Type enums.ItemType `json:"type"`
	Name string         `json:"name"`

	// car
	PricePerDayCents int64  `json:"pricePerDayCents,omitempty"`
	PickupLocation   string `json:"pickupLocation,omitempty"`

	// tour
	PriceCents   int64      `json:"priceCents,omitempty"`
	StartDate    *time.Time `json:"startDate,omitempty"`
	EndDate      *time.Time `json:"endDate,omitempty"`
	MaxGroupSize int        `json:"maxGroupSize,omitempty"`

	// transport
	Pricing  []TransportRate `json:"pricing,omitempty"`
	Capacity int             `json:"capacity,omitempty"`

	OriginalPriceCents *int64     `json:"originalPriceCents,omitempty"`
	Promotion          *Promotion `json:"promotion,omitempty"`

	PaymentType      enums.PaymentType `json:"paymentType"`
	DownpaymentType  enums.AmountType  `json:"downpaymentType,omitempty"`
	DownpaymentValue decimal.Decimal   `json:"downpaymentValue"`
}

// OffersDownpayment reports whether customers may pay part of the total upfront.
func (i Item) OffersDownpayment() bool {
	return i.PaymentType == enums.PaymentTypeDownpayment
}

// RateFor finds the pricing row for a destination. Matching is exact after trimming.
func (i Item) RateFor(destination string) (TransportRate, bool) {
	destination = strings.TrimSpace(destination)
	for _, rate := range i.Pricing {
		if strings.TrimSpace(rate.Destination) == destination {
			return rate, true
		}
	}
	return TransportRate{}, false
}

// Selection is what the customer picked on the booking form.
type Selection struct {
	StartDate            *time.Time                 `json:"startDate,omitempty"`
	Time                 string                     `json:"time,omitempty"`
	NumberOfDays         int                        `json:"numberOfDays,omitempty"`
	NumberOfGuests       int                        `json:"numberOfGuests,omitempty"`
	TransportDestination string                     `json:"transportDestination,omitempty"`
	TransportServiceType enums.TransportServiceType `json:"transportServiceType,omitempty"`
	DeliveryMethod       enums.DeliveryMethod       `json:"deliveryMethod,omitempty"`
	PaymentOption        enums.PaymentOption        `json:"paymentOption,omitempty"`
}

// Quote is the priced result. All amounts are centavos.
type Quote struct {
	ItemType             enums.ItemType      `json:"itemType"`
	BaseCents            int64               `json:"baseCents"`
	DiscountCents        int64               `json:"discountCents"`
	TotalCents           int64               `json:"totalCents"`
	DownpaymentCents     int64               `json:"downpaymentCents"`
	RequiredPaymentCents int64               `json:"requiredPaymentCents"`
	PaymentOption        enums.PaymentOption `json:"paymentOption"`
	PromotionTitle       string              `json:"promotionTitle,omitempty"`
	EndDate              *time.Time          `json:"endDate,omitempty"`
}

// PromotionApplied reports whether a discount reduced the total.
func (q Quote) PromotionApplied() bool {
	return q.DiscountCents > 0
}
