package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dryd-travel/booking-backend/pkg/enums"
	"github.com/dryd-travel/booking-backend/pkg/types"
)

// Booking is an accepted submission awaiting or past staff review.
type Booking struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Reference string              `gorm:"column:reference;not null;uniqueIndex:ux_bookings_reference" json:"reference"`
	ItemType  enums.ItemType      `gorm:"column:item_type;type:text;not null" json:"itemType"`
	ItemID    uuid.UUID           `gorm:"column:item_id;type:uuid;not null" json:"itemId"`
	ItemName  string              `gorm:"column:item_name;not null" json:"itemName"`
	Status    enums.BookingStatus `gorm:"column:status;type:text;not null" json:"status"`
	UserID    *uuid.UUID          `gorm:"column:user_id;type:uuid" json:"userId,omitempty"`

	FirstName       string `gorm:"column:first_name;not null" json:"firstName"`
	LastName        string `gorm:"column:last_name;not null" json:"lastName"`
	Email           string `gorm:"column:email;not null" json:"email"`
	Phone           string `gorm:"column:phone;not null" json:"phone"`
	Address         string `gorm:"column:address;not null" json:"address"`
	SpecialRequests string `gorm:"column:special_requests" json:"specialRequests,omitempty"`
	AgreedToTerms   bool   `gorm:"column:agreed_to_terms;not null" json:"agreedToTerms"`

	StartDate      time.Time  `gorm:"column:start_date;not null" json:"startDate"`
	EndDate        *time.Time `gorm:"column:end_date" json:"endDate,omitempty"`
	Time           string     `gorm:"column:time" json:"time"`
	NumberOfDays   int        `gorm:"column:number_of_days;not null;default:0" json:"numberOfDays"`
	NumberOfGuests int        `gorm:"column:number_of_guests;not null;default:0" json:"numberOfGuests"`

	DeliveryMethod       *enums.DeliveryMethod       `gorm:"column:delivery_method;type:text" json:"deliveryMethod,omitempty"`
	PickupLocation       string                      `gorm:"column:pickup_location" json:"pickupLocation,omitempty"`
	DropoffLocation      string                      `gorm:"column:dropoff_location" json:"dropoffLocation,omitempty"`
	PickupCoordinates    *types.Coordinates          `gorm:"column:pickup_coordinates;type:jsonb" json:"pickupCoordinates,omitempty"`
	DropoffCoordinates   *types.Coordinates          `gorm:"column:dropoff_coordinates;type:jsonb" json:"dropoffCoordinates,omitempty"`
	TransportDestination string                      `gorm:"column:transport_destination" json:"transportDestination,omitempty"`
	TransportServiceType *enums.TransportServiceType `gorm:"column:transport_service_type;type:text" json:"transportServiceType,omitempty"`

	PaymentOption          enums.PaymentOption `gorm:"column:payment_option;type:text;not null" json:"paymentOption"`
	TotalCents             int64               `gorm:"column:total_cents;not null" json:"totalCents"`
	DownpaymentCents       int64               `gorm:"column:downpayment_cents;not null;default:0" json:"downpaymentCents"`
	RequiredPaymentCents   int64               `gorm:"column:required_payment_cents;not null" json:"requiredPaymentCents"`
	AmountPaidCents        int64               `gorm:"column:amount_paid_cents;not null" json:"amountPaidCents"`
	OriginalPriceCents     *int64              `gorm:"column:original_price_cents" json:"originalPriceCents,omitempty"`
	DiscountCents          int64               `gorm:"column:discount_cents;not null;default:0" json:"discountCents"`
	PromotionTitle         string              `gorm:"column:promotion_title" json:"promotionTitle,omitempty"`
	ManualPaymentReference string              `gorm:"column:manual_payment_reference;not null" json:"manualPaymentReference"`
	PaymentProofURL        string              `gorm:"column:payment_proof_url;not null" json:"paymentProofUrl"`

	StatusNote string    `gorm:"column:status_note" json:"statusNote,omitempty"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Booking) TableName() string { return "bookings" }

func (b *Booking) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
