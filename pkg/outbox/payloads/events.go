package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/dryd-travel/booking-backend/pkg/enums"
)

// BookingSubmittedEvent is emitted once a submission is stored as pending.
type BookingSubmittedEvent struct {
	BookingID            uuid.UUID           `json:"bookingId"`
	Reference            string              `json:"reference"`
	ItemType             enums.ItemType      `json:"itemType"`
	ItemID               uuid.UUID           `json:"itemId"`
	ItemName             string              `json:"itemName"`
	CustomerName         string              `json:"customerName"`
	Email                string              `json:"email"`
	StartDate            time.Time           `json:"startDate"`
	EndDate              *time.Time          `json:"endDate,omitempty"`
	PaymentOption        enums.PaymentOption `json:"paymentOption"`
	TotalCents           int64               `json:"totalCents"`
	RequiredPaymentCents int64               `json:"requiredPaymentCents"`
	AmountPaidCents      int64               `json:"amountPaidCents"`
	PromotionTitle       string              `json:"promotionTitle,omitempty"`
	PaymentProofURL      string              `json:"paymentProofUrl"`
}

// BookingStatusChangedEvent is emitted for every staff transition.
type BookingStatusChangedEvent struct {
	BookingID uuid.UUID           `json:"bookingId"`
	Reference string              `json:"reference"`
	Email     string              `json:"email"`
	From      enums.BookingStatus `json:"from"`
	To        enums.BookingStatus `json:"to"`
	Note      string              `json:"note,omitempty"`
	ChangedAt time.Time           `json:"changedAt"`
}

// BookingExpiredEvent is emitted by the expiry job for pending bookings nobody reviewed.
type BookingExpiredEvent struct {
	BookingID uuid.UUID `json:"bookingId"`
	Reference string    `json:"reference"`
	Email     string    `json:"email"`
	StartDate time.Time `json:"startDate"`
	ExpiredAt time.Time `json:"expiredAt"`
}

type ContentUpdatedEvent struct {
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
}
