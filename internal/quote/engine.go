package quote

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dryd-travel/booking-backend/pkg/auth"
	"github.com/dryd-travel/booking-backend/pkg/enums"
	"github.com/dryd-travel/booking-backend/pkg/money"
)

const (
	// MaxDays is the longest car rental a single booking may cover.
	MaxDays = 366
	// MaxGuests bounds tour and transport party sizes.
	MaxGuests = 1000
)

var (
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// ComputeQuote prices sel against item. The downpayment option only lowers the
// required payment for an authenticated session on an item that offers one.
func ComputeQuote(item Item, sel Selection, session auth.Session) Quote {
	base, end := BasePrice(item, sel)

	var total, discount int64
	var title string
	if item.Promotion != nil && base > 0 {
		total, discount = ApplyPromotion(*item.Promotion, base)
		if discount > 0 {
			title = item.Promotion.Title
		}
	} else {
		total = money.ClampNonNegative(base)
	}

	option := NormalizePaymentOption(item, sel.PaymentOption)
	if option == enums.PaymentOptionDownpayment && !session.Authenticated {
		option = enums.PaymentOptionFull
	}

	downpayment := ComputeDownpayment(item, total)

	return Quote{
		ItemType:             item.Type,
		BaseCents:            money.ClampNonNegative(base),
		DiscountCents:        discount,
		TotalCents:           total,
		DownpaymentCents:     downpayment,
		RequiredPaymentCents: RequiredPayment(option, total, downpayment),
		PaymentOption:        option,
		PromotionTitle:       title,
		EndDate:              end,
	}
}

// BasePrice returns the undiscounted price and the derived end date for sel.
// The price may be negative when the catalog holds a negative rate; callers clamp.
// Day or guest counts outside [0, MaxDays] / [0, MaxGuests] price at 0 with no end date.
func BasePrice(item Item, sel Selection) (int64, *time.Time) {
	switch item.Type {
	case enums.ItemTypeCar:
		if sel.NumberOfDays < 0 || sel.NumberOfDays > MaxDays {
			return 0, nil
		}
		var end *time.Time
		if sel.StartDate != nil && sel.NumberOfDays > 0 {
			end = addDays(*sel.StartDate, sel.NumberOfDays)
		}
		return mulCents(int64(sel.NumberOfDays), item.PricePerDayCents), end

	case enums.ItemTypeTour:
		end := item.EndDate
		if end == nil && sel.StartDate != nil {
			start := *sel.StartDate
			end = &start
		}
		if sel.NumberOfGuests < 0 || sel.NumberOfGuests > MaxGuests {
			return 0, end
		}
		return mulCents(int64(sel.NumberOfGuests), item.PriceCents), end

	case enums.ItemTypeTransport:
		var end *time.Time
		if sel.StartDate != nil && sel.TransportServiceType.IsValid() {
			end = addDays(*sel.StartDate, sel.TransportServiceType.ExtraDays())
		}
		rate, ok := item.RateFor(sel.TransportDestination)
		if !ok {
			return 0, end
		}
		price := rate.PriceFor(sel.TransportServiceType)
		if price == nil {
			return 0, end
		}
		return *price, end
	}
	return 0, nil
}

// mulCents multiplies a count by a unit price. A product that does not fit in
// int64 yields 0 so it can never wrap into a small payable amount.
func mulCents(count, unitCents int64) int64 {
	product := decimal.NewFromInt(count).Mul(decimal.NewFromInt(unitCents))
	if product.GreaterThan(maxCents) || product.LessThan(minCents) {
		return 0
	}
	return product.IntPart()
}

// ApplyPromotion subtracts promo from base and returns the clamped total and the amount actually taken off.
func ApplyPromotion(promo Promotion, base int64) (total int64, discount int64) {
	if base <= 0 {
		return money.ClampNonNegative(base), 0
	}
	var off int64
	switch promo.DiscountType {
	case enums.AmountTypePercentage:
		off = money.Percent(base, promo.DiscountValue)
	case enums.AmountTypeFixed:
		off = money.FromDecimal(promo.DiscountValue)
	}
	total = money.ClampNonNegative(base - off)
	return total, base - total
}

// ComputeDownpayment returns the upfront amount an item asks for. A fixed
// downpayment is not capped at the total.
func ComputeDownpayment(item Item, totalCents int64) int64 {
	if !item.OffersDownpayment() || totalCents <= 0 {
		return 0
	}
	switch item.DownpaymentType {
	case enums.AmountTypePercentage:
		return money.ClampNonNegative(money.Percent(totalCents, item.DownpaymentValue))
	case enums.AmountTypeFixed:
		return money.ClampNonNegative(money.FromDecimal(item.DownpaymentValue))
	}
	return 0
}

// RequiredPayment is what the customer must transfer now.
func RequiredPayment(option enums.PaymentOption, totalCents, downpaymentCents int64) int64 {
	if option == enums.PaymentOptionDownpayment {
		return downpaymentCents
	}
	return totalCents
}

// NormalizePaymentOption falls back to full payment when the item takes no downpayment,
// so a stale choice on the form cannot shrink the required amount to zero.
func NormalizePaymentOption(item Item, option enums.PaymentOption) enums.PaymentOption {
	if option == enums.PaymentOptionDownpayment && item.OffersDownpayment() {
		return enums.PaymentOptionDownpayment
	}
	return enums.PaymentOptionFull
}

func addDays(t time.Time, days int) *time.Time {
	end := t.AddDate(0, 0, days)
	return &end
}
