package quote

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dryd-travel/booking-backend/pkg/auth"
	"github.com/dryd-travel/booking-backend/pkg/enums"
)

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func cents(v int64) *int64 { return &v }

func loggedIn() auth.Session {
	return auth.Session{UserID: uuid.New(), Role: enums.RoleCustomer, Authenticated: true}
}

func transportItem() Item {
	return Item{
		Type: enums.ItemTypeTransport,
		Pricing: []TransportRate{
			{
				Destination:           "Tagaytay",
				DayTourCents:          cents(100000),
				OvernightCents:        cents(180000),
				ThreeDayTwoNightCents: cents(250000),
				DropAndPickCents:      cents(60000),
			},
			{Destination: "Batangas", DayTourCents: cents(120000)},
		},
	}
}

func TestCarQuote(t *testing.T) {
	item := Item{Type: enums.ItemTypeCar, PricePerDayCents: 250000}

	for _, days := range []int{1, 3, 7} {
		q := ComputeQuote(item, Selection{StartDate: day("2024-06-04"), NumberOfDays: days}, auth.Anonymous())
		assert.Equal(t, int64(days)*250000, q.TotalCents)
		require.NotNil(t, q.EndDate)
		assert.Equal(t, day("2024-06-04").AddDate(0, 0, days), *q.EndDate)
		assert.Equal(t, q.TotalCents, q.RequiredPaymentCents)
	}
}

func TestCarQuoteNeverNegative(t *testing.T) {
	negative := Item{Type: enums.ItemTypeCar, PricePerDayCents: -5000}
	q := ComputeQuote(negative, Selection{StartDate: day("2024-06-04"), NumberOfDays: 3}, auth.Anonymous())
	assert.Equal(t, int64(0), q.TotalCents)
	assert.Equal(t, int64(0), q.BaseCents)

	missing := Item{Type: enums.ItemTypeCar}
	q = ComputeQuote(missing, Selection{NumberOfDays: 3}, auth.Anonymous())
	assert.Equal(t, int64(0), q.TotalCents)
	assert.Nil(t, q.EndDate)

	q = ComputeQuote(Item{Type: enums.ItemTypeCar, PricePerDayCents: 1000}, Selection{StartDate: day("2024-06-04"), NumberOfDays: -2}, auth.Anonymous())
	assert.Equal(t, int64(0), q.TotalCents)
	assert.Nil(t, q.EndDate)
}

func TestCarQuoteWithoutPromotionIsExactProduct(t *testing.T) {
	item := Item{Type: enums.ItemTypeCar, PricePerDayCents: 349999}
	for _, days := range []int{1, 2, 30, MaxDays} {
		q := ComputeQuote(item, Selection{StartDate: day("2024-06-04"), NumberOfDays: days}, auth.Anonymous())
		assert.Equal(t, int64(days)*349999, q.TotalCents)
		assert.Equal(t, q.BaseCents, q.TotalCents)
		assert.Zero(t, q.DiscountCents)
		assert.Empty(t, q.PromotionTitle)
	}
}

func TestCountsOutsideBoundsPriceZero(t *testing.T) {
	car := Item{Type: enums.ItemTypeCar, PricePerDayCents: 50000}
	q := ComputeQuote(car, Selection{StartDate: day("2024-06-04"), NumberOfDays: 958861756951422493}, auth.Anonymous())
	assert.Zero(t, q.TotalCents)
	assert.Nil(t, q.EndDate)

	q = ComputeQuote(car, Selection{StartDate: day("2024-06-04"), NumberOfDays: MaxDays + 1}, auth.Anonymous())
	assert.Zero(t, q.TotalCents)

	tour := Item{Type: enums.ItemTypeTour, PriceCents: 350000}
	q = ComputeQuote(tour, Selection{StartDate: day("2024-06-04"), NumberOfGuests: MaxGuests + 1}, auth.Anonymous())
	assert.Zero(t, q.TotalCents)
}

func TestUnitPriceOverflowPricesZero(t *testing.T) {
	car := Item{Type: enums.ItemTypeCar, PricePerDayCents: math.MaxInt64 / 2}
	q := ComputeQuote(car, Selection{StartDate: day("2024-06-04"), NumberOfDays: 3}, auth.Anonymous())
	assert.Zero(t, q.TotalCents)
	assert.Equal(t, int64(math.MaxInt64/2)*2, mulCents(2, math.MaxInt64/2))
}

func TestTourQuote(t *testing.T) {
	item := Item{Type: enums.ItemTypeTour, PriceCents: 350000, MaxGroupSize: 10}
	q := ComputeQuote(item, Selection{StartDate: day("2024-07-01"), NumberOfGuests: 4}, auth.Anonymous())
	assert.Equal(t, int64(4*350000), q.TotalCents)
	require.NotNil(t, q.EndDate)
	assert.Equal(t, *day("2024-07-01"), *q.EndDate)

	item.EndDate = day("2024-07-03")
	q = ComputeQuote(item, Selection{StartDate: day("2024-07-01"), NumberOfGuests: 12}, auth.Anonymous())
	assert.Equal(t, int64(12*350000), q.TotalCents, "group size is not enforced by the engine")
	assert.Equal(t, *day("2024-07-03"), *q.EndDate)
}

func TestTransportQuoteByServiceType(t *testing.T) {
	item := transportItem()
	start := day("2024-08-10")

	cases := []struct {
		service enums.TransportServiceType
		price   int64
		end     *time.Time
	}{
		{enums.ServiceDayTour, 100000, day("2024-08-10")},
		{enums.ServiceOvernight, 180000, day("2024-08-11")},
		{enums.ServiceThreeDayTwoNight, 250000, day("2024-08-12")},
		{enums.ServiceDropAndPick, 60000, day("2024-08-10")},
	}
	for _, tc := range cases {
		t.Run(string(tc.service), func(t *testing.T) {
			q := ComputeQuote(item, Selection{StartDate: start, TransportDestination: "Tagaytay", TransportServiceType: tc.service}, auth.Anonymous())
			assert.Equal(t, tc.price, q.TotalCents)
			require.NotNil(t, q.EndDate)
			assert.Equal(t, *tc.end, *q.EndDate)
		})
	}
}

func TestTransportQuoteMissingInputsPriceZero(t *testing.T) {
	item := transportItem()
	start := day("2024-08-10")

	q := ComputeQuote(item, Selection{StartDate: start, TransportDestination: "Cebu", TransportServiceType: enums.ServiceDayTour}, auth.Anonymous())
	assert.Equal(t, int64(0), q.TotalCents)

	q = ComputeQuote(item, Selection{StartDate: start, TransportDestination: "Tagaytay"}, auth.Anonymous())
	assert.Equal(t, int64(0), q.TotalCents)
	assert.Nil(t, q.EndDate)

	q = ComputeQuote(item, Selection{StartDate: start, TransportDestination: "Batangas", TransportServiceType: enums.ServiceOvernight}, auth.Anonymous())
	assert.Equal(t, int64(0), q.TotalCents)
}

func TestPromotions(t *testing.T) {
	item := transportItem()
	sel := Selection{StartDate: day("2024-08-10"), TransportDestination: "Tagaytay", TransportServiceType: enums.ServiceDayTour}

	item.Promotion = &Promotion{DiscountType: enums.AmountTypePercentage, DiscountValue: decimal.NewFromInt(20), Title: "Summer"}
	q := ComputeQuote(item, sel, auth.Anonymous())
	assert.Equal(t, int64(80000), q.TotalCents)
	assert.Equal(t, int64(20000), q.DiscountCents)
	assert.Equal(t, int64(100000), q.BaseCents)
	assert.Equal(t, "Summer", q.PromotionTitle)
	assert.True(t, q.PromotionApplied())

	item.Promotion = &Promotion{DiscountType: enums.AmountTypeFixed, DiscountValue: decimal.NewFromInt(150), Title: "Less 150"}
	q = ComputeQuote(item, sel, auth.Anonymous())
	assert.Equal(t, int64(85000), q.TotalCents)
	assert.Equal(t, int64(15000), q.DiscountCents)

	item.Promotion = &Promotion{DiscountType: enums.AmountTypeFixed, DiscountValue: decimal.NewFromInt(5000)}
	q = ComputeQuote(item, sel, auth.Anonymous())
	assert.Equal(t, int64(0), q.TotalCents, "discount larger than price clamps to zero")
	assert.Equal(t, int64(100000), q.DiscountCents)
}

func TestPromotionSkippedWhenBaseIsZero(t *testing.T) {
	item := transportItem()
	item.Promotion = &Promotion{DiscountType: enums.AmountTypeFixed, DiscountValue: decimal.NewFromInt(100), Title: "Promo"}
	q := ComputeQuote(item, Selection{TransportDestination: "Nowhere", TransportServiceType: enums.ServiceDayTour}, auth.Anonymous())
	assert.Equal(t, int64(0), q.TotalCents)
	assert.Equal(t, int64(0), q.DiscountCents)
	assert.Empty(t, q.PromotionTitle)
	assert.False(t, q.PromotionApplied())
}

func TestPercentagePromotionRoundsHalfAwayFromZero(t *testing.T) {
	total, discount := ApplyPromotion(Promotion{DiscountType: enums.AmountTypePercentage, DiscountValue: decimal.RequireFromString("12.5")}, 1003)
	// 12.5% of 10.03 = 1.25375 -> 125 centavos
	assert.Equal(t, int64(125), discount)
	assert.Equal(t, int64(878), total)
}

func TestComputeDownpayment(t *testing.T) {
	pct := Item{PaymentType: enums.PaymentTypeDownpayment, DownpaymentType: enums.AmountTypePercentage, DownpaymentValue: decimal.NewFromInt(20)}
	assert.Equal(t, int64(20000), ComputeDownpayment(pct, 100000))

	fixed := Item{PaymentType: enums.PaymentTypeDownpayment, DownpaymentType: enums.AmountTypeFixed, DownpaymentValue: decimal.NewFromInt(300)}
	assert.Equal(t, int64(30000), ComputeDownpayment(fixed, 100000))
	assert.Equal(t, int64(30000), ComputeDownpayment(fixed, 10000), "fixed downpayment is not capped at the total")

	assert.Equal(t, int64(0), ComputeDownpayment(fixed, 0))
	assert.Equal(t, int64(0), ComputeDownpayment(Item{PaymentType: enums.PaymentTypeFull}, 100000))

	negative := Item{PaymentType: enums.PaymentTypeDownpayment, DownpaymentType: enums.AmountTypeFixed, DownpaymentValue: decimal.NewFromInt(-10)}
	assert.Equal(t, int64(0), ComputeDownpayment(negative, 100000))
}

func TestRequiredPayment(t *testing.T) {
	assert.Equal(t, int64(200), RequiredPayment(enums.PaymentOptionDownpayment, 1000, 200))
	assert.Equal(t, int64(1000), RequiredPayment(enums.PaymentOptionFull, 1000, 200))
	assert.Equal(t, int64(1000), RequiredPayment("", 1000, 200))
}

func TestDownpaymentUsesDiscountedTotal(t *testing.T) {
	item := Item{
		Type:             enums.ItemTypeCar,
		PricePerDayCents: 100000,
		Promotion:        &Promotion{DiscountType: enums.AmountTypePercentage, DiscountValue: decimal.NewFromInt(50)},
		PaymentType:      enums.PaymentTypeDownpayment,
		DownpaymentType:  enums.AmountTypePercentage,
		DownpaymentValue: decimal.NewFromInt(20),
	}
	sel := Selection{StartDate: day("2024-06-01"), NumberOfDays: 2, PaymentOption: enums.PaymentOptionDownpayment}

	q := ComputeQuote(item, sel, loggedIn())
	assert.Equal(t, int64(100000), q.TotalCents)
	assert.Equal(t, int64(20000), q.DownpaymentCents)
	assert.Equal(t, int64(20000), q.RequiredPaymentCents)
	assert.Equal(t, enums.PaymentOptionDownpayment, q.PaymentOption)
}

func TestDownpaymentRequiresSession(t *testing.T) {
	item := Item{
		Type:             enums.ItemTypeCar,
		PricePerDayCents: 100000,
		PaymentType:      enums.PaymentTypeDownpayment,
		DownpaymentType:  enums.AmountTypeFixed,
		DownpaymentValue: decimal.NewFromInt(500),
	}
	sel := Selection{StartDate: day("2024-06-01"), NumberOfDays: 1, PaymentOption: enums.PaymentOptionDownpayment}

	q := ComputeQuote(item, sel, auth.Anonymous())
	assert.Equal(t, q.TotalCents, q.RequiredPaymentCents)
	assert.Equal(t, enums.PaymentOptionFull, q.PaymentOption)
	assert.Equal(t, int64(50000), q.DownpaymentCents)
}

func TestRequiredPaymentEqualsTotalWithoutDownpaymentOption(t *testing.T) {
	items := []Item{
		{Type: enums.ItemTypeCar, PricePerDayCents: 1234, PaymentType: enums.PaymentTypeDownpayment, DownpaymentType: enums.AmountTypePercentage, DownpaymentValue: decimal.NewFromInt(10)},
		{Type: enums.ItemTypeTour, PriceCents: 999},
		transportItem(),
	}
	sel := Selection{StartDate: day("2024-06-01"), NumberOfDays: 2, NumberOfGuests: 3, TransportDestination: "Tagaytay", TransportServiceType: enums.ServiceOvernight}
	for _, item := range items {
		for _, session := range []auth.Session{auth.Anonymous(), loggedIn()} {
			q := ComputeQuote(item, sel, session)
			assert.Equal(t, q.TotalCents, q.RequiredPaymentCents, item.Type)
		}
	}
}

func TestNormalizePaymentOption(t *testing.T) {
	full := Item{PaymentType: enums.PaymentTypeFull}
	dp := Item{PaymentType: enums.PaymentTypeDownpayment}
	assert.Equal(t, enums.PaymentOptionFull, NormalizePaymentOption(full, enums.PaymentOptionDownpayment))
	assert.Equal(t, enums.PaymentOptionDownpayment, NormalizePaymentOption(dp, enums.PaymentOptionDownpayment))
	assert.Equal(t, enums.PaymentOptionFull, NormalizePaymentOption(dp, ""))
}
