package controllers

import (
	"net/http"
	"strings"

	"github.com/dryd-travel/booking-backend/api/middleware"
	"github.com/dryd-travel/booking-backend/api/responses"
	"github.com/dryd-travel/booking-backend/api/validators"
	"github.com/dryd-travel/booking-backend/internal/bookings"
	"github.com/dryd-travel/booking-backend/pkg/db/models"
	"github.com/dryd-travel/booking-backend/pkg/enums"
	pkgerrors "github.com/dryd-travel/booking-backend/pkg/errors"
	"github.com/dryd-travel/booking-backend/pkg/logger"
	"github.com/dryd-travel/booking-backend/pkg/pagination"
)

// AdminListBookings pages through bookings newest first, filtered by status,
// item type or customer email.
func AdminListBookings(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query := r.URL.Query()
		filter := bookings.ListFilter{
			Email:  strings.TrimSpace(query.Get("email")),
			Limit:  limit,
			Cursor: strings.TrimSpace(query.Get("cursor")),
		}
		if raw := strings.TrimSpace(query.Get("status")); raw != "" {
			status, err := enums.ParseBookingStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filter.Status = &status
		}
		if raw := strings.TrimSpace(query.Get("itemType")); raw != "" {
			itemType, err := enums.ParseItemType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid itemType filter"))
				return
			}
			filter.ItemType = &itemType
		}

		page, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if page.Items == nil {
			page.Items = []models.Booking{}
		}
		responses.WriteSuccess(w, page)
	}
}

func AdminGetBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.URLParamUUID(r, "bookingID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		booking, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

type statusChangeRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed rejected cancelled completed"`
	Note   string `json:"note,omitempty" validate:"max=1000"`
}

// AdminUpdateBookingStatus applies a staff review decision.
func AdminUpdateBookingStatus(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.URLParamUUID(r, "bookingID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload statusChangeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseBookingStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}
		booking, err := svc.UpdateStatus(r.Context(), id, bookings.StatusChange{
			Status: status,
			Note:   validators.SanitizeString(payload.Note, 1000),
		}, middleware.SessionFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}
