package controllers

import (
	"net/http"

	"github.com/dryd-travel/booking-backend/api/responses"
	"github.com/dryd-travel/booking-backend/api/validators"
	"github.com/dryd-travel/booking-backend/internal/availability"
	"github.com/dryd-travel/booking-backend/pkg/logger"
)

type bookedDatesResponse struct {
	ItemType    string   `json:"itemType"`
	ItemID      string   `json:"itemId"`
	BookedDates []string `json:"bookedDates"`
}

// BookedDates lists the calendar days already held for an item, sorted ascending.
func BookedDates(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemType, err := validators.URLParamItemType(r, "itemType")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.URLParamUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dates, err := svc.BookedDates(r.Context(), itemType, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if dates == nil {
			dates = []string{}
		}
		// Clients poll this while the date picker is open.
		w.Header().Set("Cache-Control", "no-store")
		responses.WriteSuccess(w, bookedDatesResponse{
			ItemType:    string(itemType),
			ItemID:      itemID.String(),
			BookedDates: dates,
		})
	}
}
