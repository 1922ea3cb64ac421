package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dryd-travel/booking-backend/api/controllers"
	"github.com/dryd-travel/booking-backend/api/routes"
	"github.com/dryd-travel/booking-backend/internal/availability"
	"github.com/dryd-travel/booking-backend/internal/bookings"
	"github.com/dryd-travel/booking-backend/internal/catalog"
	"github.com/dryd-travel/booking-backend/internal/content"
	"github.com/dryd-travel/booking-backend/internal/notifications"
	"github.com/dryd-travel/booking-backend/pkg/config"
	"github.com/dryd-travel/booking-backend/pkg/db"
	"github.com/dryd-travel/booking-backend/pkg/logger"
	"github.com/dryd-travel/booking-backend/pkg/metrics"
	"github.com/dryd-travel/booking-backend/pkg/migrate"
	"github.com/dryd-travel/booking-backend/pkg/outbox"
	"github.com/dryd-travel/booking-backend/pkg/redis"
	"github.com/dryd-travel/booking-backend/pkg/storage/gcs"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.Open(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}
	defer gcsClient.Close()

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	bookingMetrics := metrics.NewBookingMetrics(promRegistry)
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()), logg)
	requireService(logg, "catalog", err)

	availabilityService, err := availability.NewService(availability.ServiceParams{
		Repo:     availability.NewRepository(dbClient.DB()),
		Cache:    redisClient,
		Metrics:  bookingMetrics,
		Logger:   logg,
		CacheTTL: cfg.Booking.BookedDatesCacheTTL,
	})
	requireService(logg, "availability", err)

	bookingService, err := bookings.NewService(bookings.ServiceParams{
		Repo:         bookings.NewRepository(dbClient.DB()),
		DB:           dbClient,
		Catalog:      catalogService,
		Availability: availabilityService,
		Proofs:       gcsClient,
		Guard:        redisClient,
		Outbox:       outboxService,
		Metrics:      bookingMetrics,
		Logger:       logg,
		Config:       cfg.Booking,
	})
	requireService(logg, "bookings", err)

	contentService, err := content.NewService(content.ServiceParams{
		Repo:     content.NewRepository(dbClient.DB()),
		DB:       dbClient,
		Cache:    redisClient,
		Outbox:   outboxService,
		Metrics:  bookingMetrics,
		Logger:   logg,
		CacheTTL: cfg.Content.CacheTTL,
	})
	requireService(logg, "content", err)

	notificationService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	requireService(logg, "notifications", err)

	router := routes.NewRouter(cfg, logg,
		map[string]controllers.Pinger{"db": dbClient, "redis": redisClient, "gcs": gcsClient},
		redisClient,
		promRegistry,
		routes.Services{
			Catalog:       catalogService,
			Availability:  availabilityService,
			Bookings:      bookingService,
			Content:       contentService,
			Notifications: notificationService,
		},
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server stopped")
	}
}

func requireService(logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+name+" service", err)
	os.Exit(1)
}
