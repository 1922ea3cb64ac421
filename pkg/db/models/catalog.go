package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dryd-travel/booking-backend/pkg/enums"
)

// Promotion is stored as a JSON document on each catalog row.
type Promotion struct {
	DiscountType  enums.AmountType `json:"discountType"`
	DiscountValue decimal.Decimal  `json:"discountValue"`
	Title         string           `json:"title"`
}

// PaymentSettings decides whether an item accepts a downpayment and how much.
type PaymentSettings struct {
	PaymentType      enums.PaymentType `gorm:"column:payment_type;type:text;not null;default:full"`
	DownpaymentType  *enums.AmountType `gorm:"column:downpayment_type;type:text"`
	DownpaymentValue decimal.Decimal   `gorm:"column:downpayment_value;type:numeric(12,2);not null;default:0"`
}

type Car struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name               string          `gorm:"column:name;not null"`
	Brand              string          `gorm:"column:brand"`
	Model              string          `gorm:"column:model"`
	Seats              int             `gorm:"column:seats;not null;default:0"`
	Transmission       string          `gorm:"column:transmission"`
	PickupLocation     string          `gorm:"column:pickup_location"`
	ImageURL           string          `gorm:"column:image_url"`
	PricePerDayCents   int64           `gorm:"column:price_per_day_cents;not null"`
	OriginalPriceCents *int64          `gorm:"column:original_price_cents"`
	Promotion          *Promotion      `gorm:"column:promotion;type:jsonb;serializer:json"`
	PaymentSettings    PaymentSettings `gorm:"embedded"`
	IsActive           bool            `gorm:"column:is_active;not null"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Car) TableName() string { return "cars" }

func (c *Car) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Tour struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Title              string          `gorm:"column:title;not null"`
	Destination        string          `gorm:"column:destination"`
	Description        string          `gorm:"column:description"`
	ImageURL           string          `gorm:"column:image_url"`
	PriceCents         int64           `gorm:"column:price_cents;not null"`
	OriginalPriceCents *int64          `gorm:"column:original_price_cents"`
	StartDate          *time.Time      `gorm:"column:start_date"`
	EndDate            *time.Time      `gorm:"column:end_date"`
	MaxGroupSize       int             `gorm:"column:max_group_size;not null;default:0"`
	Inclusions         pq.StringArray  `gorm:"column:inclusions;type:text[]"`
	Promotion          *Promotion      `gorm:"column:promotion;type:jsonb;serializer:json"`
	PaymentSettings    PaymentSettings `gorm:"embedded"`
	IsActive           bool            `gorm:"column:is_active;not null"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Tour) TableName() string { return "tours" }

func (t *Tour) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TransportRate prices one destination. Nil fields mean the service is not offered there.
type TransportRate struct {
	Destination           string `json:"destination"`
	Region                string `json:"region,omitempty"`
	DayTourCents          *int64 `json:"dayTourPrice,omitempty"`
	OvernightCents        *int64 `json:"ovnPrice,omitempty"`
	ThreeDayTwoNightCents *int64 `json:"threeDayTwoNightPrice,omitempty"`
	DropAndPickCents      *int64 `json:"dropAndPickPrice,omitempty"`
}

type TransportService struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name            string          `gorm:"column:name;not null"`
	VehicleType     string          `gorm:"column:vehicle_type"`
	ImageURL        string          `gorm:"column:image_url"`
	Capacity        int             `gorm:"column:capacity;not null;default:0"`
	Pricing         []TransportRate `gorm:"column:pricing;type:jsonb;serializer:json;not null"`
	Promotion       *Promotion      `gorm:"column:promotion;type:jsonb;serializer:json"`
	PaymentSettings PaymentSettings `gorm:"embedded"`
	IsActive        bool            `gorm:"column:is_active;not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (TransportService) TableName() string { return "transport_services" }

func (s *TransportService) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
