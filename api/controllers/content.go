package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dryd-travel/booking-backend/api/middleware"
	"github.com/dryd-travel/booking-backend/api/responses"
	"github.com/dryd-travel/booking-backend/api/validators"
	"github.com/dryd-travel/booking-backend/internal/content"
	"github.com/dryd-travel/booking-backend/pkg/logger"
)

// GetContent returns one content entry (disclaimer text or a payment QR image URL).
func GetContent(svc content.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := svc.Get(r.Context(), chi.URLParam(r, "type"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=60")
		responses.WriteSuccess(w, entry)
	}
}

type upsertContentRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required,max=20000"`
}

// AdminUpsertContent creates or replaces a content entry.
func AdminUpsertContent(svc content.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload upsertContentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entry, err := svc.Upsert(r.Context(), content.Entry{
			Type:    chi.URLParam(r, "type"),
			Title:   validators.SanitizeString(payload.Title, 200),
			Content: validators.SanitizeString(payload.Content, 0),
		}, middleware.SessionFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}
