package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/dryd-travel/booking-backend/pkg/db/models"
	"github.com/dryd-travel/booking-backend/pkg/enums"
	"github.com/dryd-travel/booking-backend/pkg/money"
)

// publicBookingView is what a customer sees: no contact details of the payer,
// no proof URL.
type publicBookingView struct {
	Reference            string              `json:"paymentReference"`
	Status               enums.BookingStatus `json:"status"`
	ItemType             enums.ItemType      `json:"itemType"`
	ItemID               uuid.UUID           `json:"itemId"`
	ItemName             string              `json:"itemName"`
	StartDate            string              `json:"startDate"`
	EndDate              string              `json:"endDate,omitempty"`
	Time                 string              `json:"time,omitempty"`
	NumberOfDays         int                 `json:"numberOfDays,omitempty"`
	NumberOfGuests       int                 `json:"numberOfGuests,omitempty"`
	PaymentOption        enums.PaymentOption `json:"paymentOption"`
	TotalPrice           string              `json:"totalPrice"`
	RequiredPayment      string              `json:"requiredPayment"`
	AmountPaid           string              `json:"amountPaid"`
	OriginalPrice        string              `json:"originalPrice,omitempty"`
	DiscountApplied      string              `json:"discountApplied,omitempty"`
	PromotionTitle       string              `json:"promotionTitle,omitempty"`
	TransportDestination string              `json:"transportDestination,omitempty"`
	StatusNote           string              `json:"statusNote,omitempty"`
	CreatedAt            time.Time           `json:"createdAt"`
}

func newPublicBookingView(b *models.Booking) publicBookingView {
	view := publicBookingView{
		Reference:            b.Reference,
		Status:               b.Status,
		ItemType:             b.ItemType,
		ItemID:               b.ItemID,
		ItemName:             b.ItemName,
		StartDate:            b.StartDate.UTC().Format(time.DateOnly),
		Time:                 b.Time,
		NumberOfDays:         b.NumberOfDays,
		NumberOfGuests:       b.NumberOfGuests,
		PaymentOption:        b.PaymentOption,
		TotalPrice:           money.Format(b.TotalCents),
		RequiredPayment:      money.Format(b.RequiredPaymentCents),
		AmountPaid:           money.Format(b.AmountPaidCents),
		PromotionTitle:       b.PromotionTitle,
		TransportDestination: b.TransportDestination,
		StatusNote:           b.StatusNote,
		CreatedAt:            b.CreatedAt,
	}
	if b.EndDate != nil {
		view.EndDate = b.EndDate.UTC().Format(time.DateOnly)
	}
	if b.OriginalPriceCents != nil {
		view.OriginalPrice = money.Format(*b.OriginalPriceCents)
		view.DiscountApplied = money.Format(b.DiscountCents)
	}
	return view
}
