package controllers

import (
	"net/http"

	"github.com/dryd-travel/booking-backend/api/responses"
	"github.com/dryd-travel/booking-backend/api/validators"
	"github.com/dryd-travel/booking-backend/internal/catalog"
	pkgerrors "github.com/dryd-travel/booking-backend/pkg/errors"
	"github.com/dryd-travel/booking-backend/pkg/logger"
)

// ListItems returns the active catalog for one item type.
func ListItems(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		itemType, err := validators.URLParamItemType(r, "itemType")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listings, err := svc.List(r.Context(), itemType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if listings == nil {
			listings = []catalog.Listing{}
		}
		responses.WriteSuccess(w, listings)
	}
}

func GetItem(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
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
		listing, err := svc.GetListing(r.Context(), itemType, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}
