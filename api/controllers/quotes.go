package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dryd-travel/booking-backend/api/middleware"
	"github.com/dryd-travel/booking-backend/api/responses"
	"github.com/dryd-travel/booking-backend/api/validators"
	"github.com/dryd-travel/booking-backend/internal/availability"
	"github.com/dryd-travel/booking-backend/internal/bookings"
	"github.com/dryd-travel/booking-backend/internal/quote"
	"github.com/dryd-travel/booking-backend/pkg/enums"
	pkgerrors "github.com/dryd-travel/booking-backend/pkg/errors"
	"github.com/dryd-travel/booking-backend/pkg/logger"
	"github.com/dryd-travel/booking-backend/pkg/money"
)

type quoteRequest struct {
	ItemType             string `json:"itemType" validate:"required,oneof=car tour transport"`
	ItemID               string `json:"itemId" validate:"required,uuid"`
	StartDate            string `json:"startDate,omitempty"`
	Time                 string `json:"time,omitempty" validate:"max=16"`
	NumberOfDays         int    `json:"numberOfDays,omitempty" validate:"min=0,max=366"`
	NumberOfGuests       int    `json:"numberOfGuests,omitempty" validate:"min=0,max=1000"`
	TransportDestination string `json:"transportDestination,omitempty" validate:"max=200"`
	TransportServiceType string `json:"transportServiceType,omitempty"`
	DeliveryMethod       string `json:"deliveryMethod,omitempty" validate:"omitempty,oneof=pickup delivery"`
	PaymentOption        string `json:"paymentOption,omitempty" validate:"omitempty,oneof=full downpayment"`
}

// quoteResponse adds display strings so the form can show totals without re-deriving them.
type quoteResponse struct {
	quote.Quote
	TotalPrice      string `json:"totalPrice"`
	RequiredPayment string `json:"requiredPayment"`
	Downpayment     string `json:"downpayment,omitempty"`
	OriginalPrice   string `json:"originalPrice,omitempty"`
	DiscountApplied string `json:"discountApplied,omitempty"`
	StartDate       string `json:"startDate,omitempty"`
	EndDateLabel    string `json:"endDateLabel,omitempty"`
}

// CreateQuote prices a selection against the stored catalog item.
func CreateQuote(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "booking service unavailable"))
			return
		}
		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemType, itemID, sel, err := payload.toSelection()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		q, err := svc.Quote(r.Context(), itemType, itemID, sel, middleware.SessionFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newQuoteResponse(*q, sel.StartDate))
	}
}

func (p quoteRequest) toSelection() (enums.ItemType, uuid.UUID, quote.Selection, error) {
	itemType, err := enums.ParseItemType(p.ItemType)
	if err != nil {
		return "", uuid.Nil, quote.Selection{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown item type")
	}
	itemID, err := uuid.Parse(p.ItemID)
	if err != nil {
		return "", uuid.Nil, quote.Selection{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid itemId")
	}
	sel, err := buildSelection(selectionFields{
		StartDate:            p.StartDate,
		Time:                 p.Time,
		NumberOfDays:         p.NumberOfDays,
		NumberOfGuests:       p.NumberOfGuests,
		TransportDestination: p.TransportDestination,
		TransportServiceType: p.TransportServiceType,
		DeliveryMethod:       p.DeliveryMethod,
		PaymentOption:        p.PaymentOption,
	})
	if err != nil {
		return "", uuid.Nil, quote.Selection{}, err
	}
	return itemType, itemID, sel, nil
}

// selectionFields is the raw, string-typed selection shared by the JSON quote
// body and the multipart booking form.
type selectionFields struct {
	StartDate            string
	Time                 string
	NumberOfDays         int
	NumberOfGuests       int
	TransportDestination string
	TransportServiceType string
	DeliveryMethod       string
	PaymentOption        string
}

func buildSelection(f selectionFields) (quote.Selection, error) {
	if f.NumberOfDays < 0 || f.NumberOfDays > quote.MaxDays {
		return quote.Selection{}, pkgerrors.Newf(pkgerrors.CodeValidation, "numberOfDays must be between 0 and %d", quote.MaxDays).
			WithDetails(map[string]any{"field": "numberOfDays"})
	}
	if f.NumberOfGuests < 0 || f.NumberOfGuests > quote.MaxGuests {
		return quote.Selection{}, pkgerrors.Newf(pkgerrors.CodeValidation, "numberOfGuests must be between 0 and %d", quote.MaxGuests).
			WithDetails(map[string]any{"field": "numberOfGuests"})
	}
	sel := quote.Selection{
		Time:                 strings.TrimSpace(f.Time),
		NumberOfDays:         f.NumberOfDays,
		NumberOfGuests:       f.NumberOfGuests,
		TransportDestination: strings.TrimSpace(f.TransportDestination),
	}
	if raw := strings.TrimSpace(f.StartDate); raw != "" {
		day, err := availability.ParseDate(raw)
		if err != nil {
			return quote.Selection{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "startDate must be YYYY-MM-DD").
				WithDetails(map[string]any{"field": "startDate"})
		}
		sel.StartDate = &day
	}
	if raw := strings.TrimSpace(f.TransportServiceType); raw != "" {
		serviceType, err := enums.ParseTransportServiceType(raw)
		if err != nil {
			return quote.Selection{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown transport service type").
				WithDetails(map[string]any{"field": "transportServiceType"})
		}
		sel.TransportServiceType = serviceType
	}
	delivery, err := enums.ParseDeliveryMethod(strings.TrimSpace(f.DeliveryMethod))
	if err != nil {
		return quote.Selection{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown delivery method").
			WithDetails(map[string]any{"field": "deliveryMethod"})
	}
	sel.DeliveryMethod = delivery
	option, err := enums.ParsePaymentOption(strings.TrimSpace(f.PaymentOption))
	if err != nil {
		return quote.Selection{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown payment option").
			WithDetails(map[string]any{"field": "paymentOption"})
	}
	sel.PaymentOption = option
	return sel, nil
}

func newQuoteResponse(q quote.Quote, start *time.Time) quoteResponse {
	resp := quoteResponse{
		Quote:           q,
		TotalPrice:      money.Format(q.TotalCents),
		RequiredPayment: money.Format(q.RequiredPaymentCents),
	}
	if q.DownpaymentCents > 0 {
		resp.Downpayment = money.Format(q.DownpaymentCents)
	}
	if q.PromotionApplied() {
		resp.OriginalPrice = money.Format(q.BaseCents)
		resp.DiscountApplied = money.Format(q.DiscountCents)
	}
	if start != nil {
		resp.StartDate = availability.FormatDate(*start)
	}
	if q.EndDate != nil {
		resp.EndDateLabel = availability.FormatDate(*q.EndDate)
	}
	return resp
}
