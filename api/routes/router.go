package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dryd-travel/booking-backend/api/controllers"
	"github.com/dryd-travel/booking-backend/api/middleware"
	"github.com/dryd-travel/booking-backend/api/validators"
	"github.com/dryd-travel/booking-backend/internal/availability"
	"github.com/dryd-travel/booking-backend/internal/bookings"
	"github.com/dryd-travel/booking-backend/internal/catalog"
	"github.com/dryd-travel/booking-backend/internal/content"
	"github.com/dryd-travel/booking-backend/internal/notifications"
	"github.com/dryd-travel/booking-backend/pkg/config"
	"github.com/dryd-travel/booking-backend/pkg/enums"
	"github.com/dryd-travel/booking-backend/pkg/logger"
	"github.com/dryd-travel/booking-backend/pkg/redis"
)

// Services groups the domain services the HTTP layer dispatches to.
type Services struct {
	Catalog       catalog.Service
	Availability  availability.Service
	Bookings      bookings.Service
	Content       content.Service
	Notifications notifications.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness map[string]controllers.Pinger,
	idempotencyStore redis.IdempotencyStore,
	gatherer prometheus.Gatherer,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.SecureHeaders(cfg.App.IsProd()),
		middleware.CORS(cfg.HTTP.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	proofBodyLimit := cfg.Booking.MaxProofBytes() + validators.FormOverheadBytes
	idempotentJSON := middleware.Idempotency(idempotencyStore, 1<<20, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))

		r.Get("/content/{type}", controllers.GetContent(svc.Content, logg))

		r.Get("/items/{itemType}", controllers.ListItems(svc.Catalog, logg))
		r.Get("/items/{itemType}/{itemID}", controllers.GetItem(svc.Catalog, logg))
		r.Get("/availability/{itemType}/{itemID}/booked-dates", controllers.BookedDates(svc.Availability, logg))

		r.Post("/quotes", controllers.CreateQuote(svc.Bookings, logg))

		r.With(
			middleware.RateLimitByIP(cfg.Booking.SubmitRatePerMinute, time.Minute, logg),
			middleware.Idempotency(idempotencyStore, proofBodyLimit, logg),
		).Post("/bookings", controllers.SubmitBooking(svc.Bookings, cfg.Booking.MaxProofBytes(), logg))
		r.Get("/bookings/{reference}", controllers.GetBookingByReference(svc.Bookings, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireStaff(logg))

		r.Get("/bookings", controllers.AdminListBookings(svc.Bookings, logg))
		r.Get("/bookings/{bookingID}", controllers.AdminGetBooking(svc.Bookings, logg))
		r.With(idempotentJSON).Patch("/bookings/{bookingID}/status", controllers.AdminUpdateBookingStatus(svc.Bookings, logg))

		r.Get("/notifications", controllers.AdminListNotifications(svc.Notifications, logg))
		r.Post("/notifications/read-all", controllers.AdminMarkAllNotificationsRead(svc.Notifications, logg))
		r.Post("/notifications/{notificationID}/read", controllers.AdminMarkNotificationRead(svc.Notifications, logg))

		r.With(middleware.RequireRole(logg, enums.RoleAdmin), idempotentJSON).
			Put("/content/{type}", controllers.AdminUpsertContent(svc.Content, logg))
	})

	return r
}
