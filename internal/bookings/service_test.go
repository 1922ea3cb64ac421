package bookings

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dryd-travel/booking-backend/internal/availability"
	"github.com/dryd-travel/booking-backend/internal/catalog"
	"github.com/dryd-travel/booking-backend/internal/quote"
	"github.com/dryd-travel/booking-backend/pkg/auth"
	"github.com/dryd-travel/booking-backend/pkg/config"
	"github.com/dryd-travel/booking-backend/pkg/db"
	"github.com/dryd-travel/booking-backend/pkg/db/dbtest"
	"github.com/dryd-travel/booking-backend/pkg/db/models"
	"github.com/dryd-travel/booking-backend/pkg/enums"
	pkgerrors "github.com/dryd-travel/booking-backend/pkg/errors"
	"github.com/dryd-travel/booking-backend/pkg/logger"
	"github.com/dryd-travel/booking-backend/pkg/metrics"
	"github.com/dryd-travel/booking-backend/pkg/outbox"
	"github.com/dryd-travel/booking-backend/pkg/redis"
	"github.com/dryd-travel/booking-backend/pkg/redis/redistest"
	"github.com/dryd-travel/booking-backend/pkg/storage/gcs"
)

type memoryProofs struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
}

func (m *memoryProofs) Upload(_ context.Context, object, contentType string, body io.Reader) (*gcs.Object, error) {
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[object] = data
	return &gcs.Object{Bucket: "proofs", Name: object, ContentType: contentType, Size: strconv.Itoa(len(data)), URL: "https://storage.googleapis.com/proofs/" + object}, nil
}

func (m *memoryProofs) Delete(_ context.Context, object string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, object)
	return nil
}

type harness struct {
	svc     Service
	client  *db.Client
	catalog *catalog.Repository
	proofs  *memoryProofs
	guard   *redis.Client
	reg     *prometheus.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	client := dbtest.Open(t)
	cache, _ := redistest.New(t)
	logg := logger.Nop()
	reg := prometheus.NewRegistry()
	m := metrics.NewBookingMetrics(reg)

	catalogRepo := catalog.NewRepository(client.DB())
	catalogSvc, err := catalog.NewService(catalogRepo, logg)
	require.NoError(t, err)
	availabilitySvc, err := availability.NewService(availability.ServiceParams{
		Repo:    availability.NewRepository(client.DB()),
		Cache:   cache,
		Metrics: m,
		Logger:  logg,
	})
	require.NoError(t, err)

	proofs := &memoryProofs{}
	svc, err := NewService(ServiceParams{
		Repo:         NewRepository(client.DB()),
		DB:           client,
		Catalog:      catalogSvc,
		Availability: availabilitySvc,
		Proofs:       proofs,
		Guard:        cache,
		Outbox:       outbox.NewService(outbox.NewRepository(client.DB()), logg),
		Metrics:      m,
		Logger:       logg,
		Config:       config.BookingConfig{InFlightTTL: time.Minute, MaxProofUploadMB: 1, ProofPrefix: "payment-proofs"},
	})
	require.NoError(t, err)
	return &harness{svc: svc, client: client, catalog: catalogRepo, proofs: proofs, guard: cache, reg: reg}
}

func (h *harness) seedCar(t *testing.T) *models.Car {
	t.Helper()
	dpType := enums.AmountTypeFixed
	car := &models.Car{
		Name:             "Mitsubishi Xpander",
		PricePerDayCents: 300000,
		PickupLocation:   "Mactan Airport",
		Promotion:        &models.Promotion{DiscountType: enums.AmountTypeFixed, DiscountValue: decimal.NewFromInt(500), Title: "Weekday deal"},
		PaymentSettings: models.PaymentSettings{
			PaymentType:      enums.PaymentTypeDownpayment,
			DownpaymentType:  &dpType,
			DownpaymentValue: decimal.NewFromInt(1000),
		},
		IsActive: true,
	}
	require.NoError(t, h.catalog.Create(context.Background(), car))
	return car
}

func carRequest(car *models.Car, email, start string, days int, amount string) SubmitRequest {
	in := validInput(amount)
	in.Email = email
	in.PickupLocation = ""
	return SubmitRequest{
		ItemType:  enums.ItemTypeCar,
		ItemID:    car.ID,
		Selection: quote.Selection{StartDate: day(start), Time: "10:00", NumberOfDays: days},
		Input:     in,
	}
}

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}

func TestSubmitStoresBookingAndEmitsEvent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	car := h.seedCar(t)

	// 3 days x 3000 - 500 promo = 8500
	booking, err := h.svc.Submit(ctx, carRequest(car, "Juan@Example.com", "2024-06-04", 3, "8,500.00"), auth.Anonymous())
	require.NoError(t, err)

	assert.Equal(t, enums.BookingStatusPending, booking.Status)
	assert.Equal(t, "juan@example.com", booking.Email)
	assert.Equal(t, int64(850000), booking.TotalCents)
	assert.Equal(t, int64(850000), booking.RequiredPaymentCents)
	assert.Equal(t, int64(100000), booking.DownpaymentCents)
	assert.Equal(t, int64(50000), booking.DiscountCents)
	require.NotNil(t, booking.OriginalPriceCents)
	assert.Equal(t, int64(900000), *booking.OriginalPriceCents)
	assert.Equal(t, "Weekday deal", booking.PromotionTitle)
	assert.Equal(t, "Mactan Airport", booking.PickupLocation)
	assert.Nil(t, booking.UserID)
	assert.Contains(t, booking.PaymentProofURL, "payment-proofs/"+booking.Reference+"/receipt.png")
	assert.Len(t, h.proofs.objects, 1)

	var events []models.OutboxEvent
	require.NoError(t, h.client.DB().Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventBookingSubmitted, events[0].EventType)
	assert.Equal(t, booking.ID, events[0].AggregateID)

	stored, err := h.svc.GetByReference(ctx, booking.Reference, auth.Anonymous())
	require.NoError(t, err)
	assert.Equal(t, booking.ID, stored.ID)

	assert.Equal(t, 1.0, submissionCount(t, h.reg, "car", metrics.OutcomeAccepted))
}

func TestSubmitRejectsOverlapWithStoredBooking(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	car := h.seedCar(t)

	_, err := h.svc.Submit(ctx, carRequest(car, "first@example.com", "2024-06-05", 1, "2500"), auth.Anonymous())
	require.NoError(t, err)

	_, err = h.svc.Submit(ctx, carRequest(car, "second@example.com", "2024-06-04", 3, "8500"), auth.Anonymous())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Contains(t, typed.Message(), "2024-06-05")

	_, err = h.svc.Submit(ctx, carRequest(car, "third@example.com", "2024-06-06", 2, "5500"), auth.Anonymous())
	require.NoError(t, err)
}

func TestSubmitAmountMismatchIsRejected(t *testing.T) {
	h := newHarness(t)
	car := h.seedCar(t)

	_, err := h.svc.Submit(context.Background(), carRequest(car, "a@example.com", "2024-06-10", 1, "2499.99"), auth.Anonymous())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodePayment))
	assert.Empty(t, h.proofs.objects)
	assert.Equal(t, 1.0, submissionCount(t, h.reg, "car", metrics.OutcomeRejected))
}

func TestSubmitDownpaymentForLoggedInCustomer(t *testing.T) {
	h := newHarness(t)
	car := h.seedCar(t)
	session := auth.Session{UserID: uuid.New(), Role: enums.RoleCustomer, Authenticated: true}

	req := carRequest(car, "member@example.com", "2024-07-01", 2, "1000")
	req.Selection.PaymentOption = enums.PaymentOptionDownpayment
	booking, err := h.svc.Submit(context.Background(), req, session)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentOptionDownpayment, booking.PaymentOption)
	assert.Equal(t, int64(100000), booking.RequiredPaymentCents)
	require.NotNil(t, booking.UserID)

	_, err = h.svc.GetByReference(context.Background(), booking.Reference, auth.Anonymous())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
	_, err = h.svc.GetByReference(context.Background(), booking.Reference, session)
	assert.NoError(t, err)

	req = carRequest(car, "guest@example.com", "2024-08-01", 2, "1000")
	req.Selection.PaymentOption = enums.PaymentOptionDownpayment
	_, err = h.svc.Submit(context.Background(), req, auth.Anonymous())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
}

func TestSubmitInFlightDuplicateIsRejected(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	car := h.seedCar(t)
	req := carRequest(car, "dup@example.com", "2024-06-10", 1, "2500")

	key := h.guard.InFlightKey(fingerprint(req))
	ok, err := h.guard.SetNX(ctx, key, "other-request", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = h.svc.Submit(ctx, req, auth.Anonymous())
	assert.True(t, errors.Is(err, errSubmissionInFlight))
	assert.Equal(t, 1.0, submissionCount(t, h.reg, "car", metrics.OutcomeDuplicate))

	released, err := h.guard.ReleaseIfOwner(ctx, key, "other-request")
	require.NoError(t, err)
	require.True(t, released)

	_, err = h.svc.Submit(ctx, req, auth.Anonymous())
	require.NoError(t, err)
	_, err = h.guard.Get(ctx, key)
	assert.True(t, redis.IsNil(err), "guard is released after the submission finishes")
}

func TestSubmitUploadFailureIsDependencyError(t *testing.T) {
	h := newHarness(t)
	car := h.seedCar(t)
	h.proofs.uploadErr = errors.New("gcs down")

	_, err := h.svc.Submit(context.Background(), carRequest(car, "a@example.com", "2024-06-10", 1, "2500"), auth.Anonymous())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))

	var count int64
	require.NoError(t, h.client.DB().Model(&models.Booking{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdateStatusFollowsGraph(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	car := h.seedCar(t)
	booking, err := h.svc.Submit(ctx, carRequest(car, "a@example.com", "2024-06-10", 1, "2500"), auth.Anonymous())
	require.NoError(t, err)

	staff := auth.Session{UserID: uuid.New(), Role: enums.RoleEmployee, Authenticated: true}
	customer := auth.Session{UserID: uuid.New(), Role: enums.RoleCustomer, Authenticated: true}

	_, err = h.svc.UpdateStatus(ctx, booking.ID, StatusChange{Status: enums.BookingStatusConfirmed}, customer)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	_, err = h.svc.UpdateStatus(ctx, booking.ID, StatusChange{Status: enums.BookingStatusExpired}, staff)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict), "expiry is left to the cron job")

	updated, err := h.svc.UpdateStatus(ctx, booking.ID, StatusChange{Status: enums.BookingStatusConfirmed, Note: "payment verified"}, staff)
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusConfirmed, updated.Status)
	assert.Equal(t, "payment verified", updated.StatusNote)

	_, err = h.svc.UpdateStatus(ctx, booking.ID, StatusChange{Status: enums.BookingStatusPending}, staff)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))

	_, err = h.svc.UpdateStatus(ctx, uuid.New(), StatusChange{Status: enums.BookingStatusCancelled}, staff)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	cancelled, err := h.svc.UpdateStatus(ctx, booking.ID, StatusChange{Status: enums.BookingStatusCancelled}, staff)
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusCancelled, cancelled.Status)

	var events []models.OutboxEvent
	require.NoError(t, h.client.DB().Where("event_type = ?", enums.EventBookingStatusChanged).Find(&events).Error)
	assert.Len(t, events, 2)

	// the cancelled booking no longer holds its day
	_, err = h.svc.Submit(ctx, carRequest(car, "b@example.com", "2024-06-10", 1, "2500"), auth.Anonymous())
	assert.NoError(t, err)
}

func TestListPagesNewestFirst(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	car := h.seedCar(t)
	for i, start := range []string{"2024-06-01", "2024-06-03", "2024-06-05"} {
		_, err := h.svc.Submit(ctx, carRequest(car, uuid.NewString()[:6]+"@example.com", start, 1, "2500"), auth.Anonymous())
		require.NoError(t, err, i)
	}

	page, err := h.svc.List(ctx, ListFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)

	next, err := h.svc.List(ctx, ListFilter{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.Empty(t, next.NextCursor)

	_, err = h.svc.List(ctx, ListFilter{Cursor: "???"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestProofObjectName(t *testing.T) {
	assert.Equal(t, "payment-proofs/DRYD-1-ABCD/my_receipt_.png", proofObjectName("/payment-proofs/", "DRYD-1-ABCD", "../my receipt!.png"))
	assert.Equal(t, "payment-proofs/DRYD-1-ABCD/proof", proofObjectName("", "DRYD-1-ABCD", ""))
}

func submissionCount(t *testing.T, reg *prometheus.Registry, itemType, outcome string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "dryd_booking_submissions_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["item_type"] == itemType && labels["outcome"] == outcome {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}
