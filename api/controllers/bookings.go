package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dryd-travel/booking-backend/api/middleware"
	"github.com/dryd-travel/booking-backend/api/responses"
	"github.com/dryd-travel/booking-backend/api/validators"
	"github.com/dryd-travel/booking-backend/internal/bookings"
	"github.com/dryd-travel/booking-backend/pkg/enums"
	pkgerrors "github.com/dryd-travel/booking-backend/pkg/errors"
	"github.com/dryd-travel/booking-backend/pkg/logger"
	"github.com/dryd-travel/booking-backend/pkg/types"
)

const (
	maxNameLen     = 100
	maxTextLen     = 500
	maxRequestsLen = 2000

	bookingSubmittedMessage = "Booking submitted successfully! We will confirm once your payment is verified."
)

// SubmitBooking accepts the multipart booking form. Client-sent totals
// (totalPrice, originalPrice, discountApplied, promotionTitle, paymentReference)
// are ignored; the service prices the selection itself.
func SubmitBooking(svc bookings.Service, maxProofBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "booking service unavailable"))
			return
		}
		if err := validators.ParseMultipartForm(w, r, maxProofBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req, err := parseSubmitForm(r, maxProofBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.Submit(r.Context(), req, middleware.SessionFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusCreated, bookingSubmittedMessage, newPublicBookingView(booking))
	}
}

// GetBookingByReference lets a customer check the status of a booking with the
// payment reference they were shown.
func GetBookingByReference(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reference := strings.TrimSpace(chi.URLParam(r, "reference"))
		if reference == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "reference required"))
			return
		}
		booking, err := svc.GetByReference(r.Context(), reference, middleware.SessionFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPublicBookingView(booking))
	}
}

func parseSubmitForm(r *http.Request, maxProofBytes int64) (bookings.SubmitRequest, error) {
	itemType, err := enums.ParseItemType(r.FormValue("itemType"))
	if err != nil {
		return bookings.SubmitRequest{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown item type").
			WithDetails(map[string]any{"field": "itemType"})
	}
	itemID, err := uuid.Parse(strings.TrimSpace(r.FormValue("itemId")))
	if err != nil {
		return bookings.SubmitRequest{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid itemId").
			WithDetails(map[string]any{"field": "itemId"})
	}

	days, err := validators.FormInt(r, "numberOfDays")
	if err != nil {
		return bookings.SubmitRequest{}, err
	}
	guests, err := validators.FormInt(r, "numberOfGuests")
	if err != nil {
		return bookings.SubmitRequest{}, err
	}
	sel, err := buildSelection(selectionFields{
		StartDate:            r.FormValue("startDate"),
		Time:                 validators.FormString(r, "time", 16),
		NumberOfDays:         days,
		NumberOfGuests:       guests,
		TransportDestination: validators.FormString(r, "transportDestination", maxTextLen),
		TransportServiceType: r.FormValue("transportServiceType"),
		DeliveryMethod:       r.FormValue("deliveryMethod"),
		PaymentOption:        r.FormValue("paymentOption"),
	})
	if err != nil {
		return bookings.SubmitRequest{}, err
	}

	pickup, err := types.ParseCoordinates(r.FormValue("pickupCoordinates"))
	if err != nil {
		return bookings.SubmitRequest{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pickup coordinates").
			WithDetails(map[string]any{"field": "pickupCoordinates"})
	}
	dropoff, err := types.ParseCoordinates(r.FormValue("dropoffCoordinates"))
	if err != nil {
		return bookings.SubmitRequest{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid dropoff coordinates").
			WithDetails(map[string]any{"field": "dropoffCoordinates"})
	}

	upload, err := validators.FormFile(r, "paymentProof", maxProofBytes)
	if err != nil {
		return bookings.SubmitRequest{}, err
	}
	var proof *bookings.ProofFile
	if upload != nil {
		proof = &bookings.ProofFile{
			Filename:    upload.Filename,
			ContentType: upload.ContentType,
			Data:        upload.Data,
		}
	}

	return bookings.SubmitRequest{
		ItemType:  itemType,
		ItemID:    itemID,
		Selection: sel,
		Input: bookings.Input{
			FirstName:              validators.FormString(r, "firstName", maxNameLen),
			LastName:               validators.FormString(r, "lastName", maxNameLen),
			Email:                  validators.FormString(r, "email", maxNameLen*2),
			Phone:                  validators.FormString(r, "phone", 32),
			Address:                validators.FormString(r, "address", maxTextLen),
			SpecialRequests:        validators.FormString(r, "specialRequests", maxRequestsLen),
			AgreedToTerms:          validators.FormBool(r, "agreedToTerms"),
			PickupLocation:         validators.FormString(r, "pickupLocation", maxTextLen),
			DropoffLocation:        validators.FormString(r, "dropoffLocation", maxTextLen),
			PickupCoordinates:      pickup,
			DropoffCoordinates:     dropoff,
			AmountPaid:             validators.FormString(r, "amountPaid", 32),
			ManualPaymentReference: validators.FormString(r, "manualPaymentReference", maxNameLen),
			PaymentProof:           proof,
		},
	}, nil
}
