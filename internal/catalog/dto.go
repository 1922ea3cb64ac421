package catalog

import (
	"github.com/dryd-travel/booking-backend/internal/quote"
	"github.com/dryd-travel/booking-backend/pkg/db/models"
	"github.com/dryd-travel/booking-backend/pkg/enums"
)

// Listing is the public view of a bookable item: the priced item plus display fields.
type Listing struct {
	quote.Item

	ImageURL     string   `json:"imageUrl,omitempty"`
	Description  string   `json:"description,omitempty"`
	Destination  string   `json:"destination,omitempty"`
	Brand        string   `json:"brand,omitempty"`
	Model        string   `json:"model,omitempty"`
	Seats        int      `json:"seats,omitempty"`
	Transmission string   `json:"transmission,omitempty"`
	VehicleType  string   `json:"vehicleType,omitempty"`
	Inclusions   []string `json:"inclusions,omitempty"`
}

func fromCar(car models.Car) Listing {
	item := quote.Item{
		ID:                 car.ID,
		Type:               enums.ItemTypeCar,
		Name:               car.Name,
		PricePerDayCents:   car.PricePerDayCents,
		PickupLocation:     car.PickupLocation,
		OriginalPriceCents: car.OriginalPriceCents,
		Promotion:          toPromotion(car.Promotion),
	}
	applyPaymentSettings(&item, car.PaymentSettings)
	return Listing{
		Item:         item,
		ImageURL:     car.ImageURL,
		Brand:        car.Brand,
		Model:        car.Model,
		Seats:        car.Seats,
		Transmission: car.Transmission,
	}
}

func fromTour(tour models.Tour) Listing {
	item := quote.Item{
		ID:                 tour.ID,
		Type:               enums.ItemTypeTour,
		Name:               tour.Title,
		PriceCents:         tour.PriceCents,
		StartDate:          tour.StartDate,
		EndDate:            tour.EndDate,
		MaxGroupSize:       tour.MaxGroupSize,
		OriginalPriceCents: tour.OriginalPriceCents,
		Promotion:          toPromotion(tour.Promotion),
	}
	applyPaymentSettings(&item, tour.PaymentSettings)
	return Listing{
		Item:        item,
		ImageURL:    tour.ImageURL,
		Description: tour.Description,
		Destination: tour.Destination,
		Inclusions:  []string(tour.Inclusions),
	}
}

func fromTransport(svc models.TransportService) Listing {
	rates := make([]quote.TransportRate, 0, len(svc.Pricing))
	for _, rate := range svc.Pricing {
		rates = append(rates, quote.TransportRate{
			Destination:           rate.Destination,
			Region:                rate.Region,
			DayTourCents:          rate.DayTourCents,
			OvernightCents:        rate.OvernightCents,
			ThreeDayTwoNightCents: rate.ThreeDayTwoNightCents,
			DropAndPickCents:      rate.DropAndPickCents,
		})
	}
	item := quote.Item{
		ID:        svc.ID,
		Type:      enums.ItemTypeTransport,
		Name:      svc.Name,
		Pricing:   rates,
		Capacity:  svc.Capacity,
		Promotion: toPromotion(svc.Promotion),
	}
	applyPaymentSettings(&item, svc.PaymentSettings)
	return Listing{
		Item:        item,
		ImageURL:    svc.ImageURL,
		VehicleType: svc.VehicleType,
	}
}

func toPromotion(p *models.Promotion) *quote.Promotion {
	if p == nil {
		return nil
	}
	return &quote.Promotion{
		DiscountType:  p.DiscountType,
		DiscountValue: p.DiscountValue,
		Title:         p.Title,
	}
}

func applyPaymentSettings(item *quote.Item, settings models.PaymentSettings) {
	item.PaymentType = settings.PaymentType
	if item.PaymentType == "" {
		item.PaymentType = enums.PaymentTypeFull
	}
	if settings.DownpaymentType != nil {
		item.DownpaymentType = *settings.DownpaymentType
	}
	item.DownpaymentValue = settings.DownpaymentValue
}
