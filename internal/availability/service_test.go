package availability

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dryd-travel/booking-backend/pkg/db/dbtest"
	"github.com/dryd-travel/booking-backend/pkg/db/models"
	"github.com/dryd-travel/booking-backend/pkg/enums"
	"github.com/dryd-travel/booking-backend/pkg/logger"
	"github.com/dryd-travel/booking-backend/pkg/metrics"
	"github.com/dryd-travel/booking-backend/pkg/redis/redistest"
)

func insertBooking(t *testing.T, db *gorm.DB, itemType enums.ItemType, itemID uuid.UUID, status enums.BookingStatus, start, end string) {
	t.Helper()
	startDay, err := ParseDate(start)
	require.NoError(t, err)
	endDay, err := ParseDate(end)
	require.NoError(t, err)
	row := models.Booking{
		Reference:              "DRYD-" + uuid.NewString()[:8],
		ItemType:               itemType,
		ItemID:                 itemID,
		ItemName:               "Item",
		Status:                 status,
		FirstName:              "Ana",
		LastName:               "Reyes",
		Email:                  "ana@example.com",
		Phone:                  "09171234567",
		Address:                "Makati",
		AgreedToTerms:          true,
		StartDate:              startDay,
		EndDate:                &endDay,
		Time:                   "09:00",
		PaymentOption:          enums.PaymentOptionFull,
		TotalCents:             100000,
		RequiredPaymentCents:   100000,
		AmountPaidCents:        100000,
		ManualPaymentReference: "BANK-1",
		PaymentProofURL:        "https://storage.googleapis.com/bucket/proof.png",
	}
	require.NoError(t, db.Create(&row).Error)
}

func TestBookedDatesFromStoredBookings(t *testing.T) {
	ctx := context.Background()
	client := dbtest.Open(t)
	carID := uuid.New()
	transportID := uuid.New()

	insertBooking(t, client.DB(), enums.ItemTypeCar, carID, enums.BookingStatusConfirmed, "2024-06-04", "2024-06-06")
	insertBooking(t, client.DB(), enums.ItemTypeCar, carID, enums.BookingStatusPending, "2024-06-10", "2024-06-11")
	insertBooking(t, client.DB(), enums.ItemTypeCar, carID, enums.BookingStatusCancelled, "2024-07-01", "2024-07-05")
	insertBooking(t, client.DB(), enums.ItemTypeCar, uuid.New(), enums.BookingStatusConfirmed, "2024-08-01", "2024-08-02")
	insertBooking(t, client.DB(), enums.ItemTypeTransport, transportID, enums.BookingStatusPending, "2024-06-04", "2024-06-05")

	svc, err := NewService(ServiceParams{Repo: NewRepository(client.DB()), Logger: logger.Nop()})
	require.NoError(t, err)

	dates, err := svc.BookedDates(ctx, enums.ItemTypeCar, carID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-06-04", "2024-06-05", "2024-06-10"}, dates)

	dates, err = svc.BookedDates(ctx, enums.ItemTypeTransport, transportID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-06-04", "2024-06-05"}, dates)

	dates, err = svc.BookedDates(ctx, enums.ItemTypeTour, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestBookedDatesRejectsBadInput(t *testing.T) {
	svc, err := NewService(ServiceParams{Repo: &countingRepo{}, Logger: logger.Nop()})
	require.NoError(t, err)
	_, err = svc.BookedDates(context.Background(), "boat", uuid.New())
	assert.Error(t, err)
	_, err = svc.BookedDates(context.Background(), enums.ItemTypeCar, uuid.Nil)
	assert.Error(t, err)
}

type countingRepo struct {
	calls   atomic.Int32
	release chan struct{}
	spans   []Span
}

func (r *countingRepo) ListSpans(ctx context.Context, _ enums.ItemType, _ uuid.UUID) ([]Span, error) {
	r.calls.Add(1)
	if r.release != nil {
		<-r.release
	}
	return r.spans, nil
}

func TestBookedDatesCollapsesConcurrentLoads(t *testing.T) {
	end, _ := ParseDate("2024-06-06")
	start, _ := ParseDate("2024-06-04")
	repo := &countingRepo{
		release: make(chan struct{}),
		spans:   []Span{{ItemType: enums.ItemTypeCar, StartDate: start, EndDate: &end}},
	}
	svc, err := NewService(ServiceParams{Repo: repo, Logger: logger.Nop()})
	require.NoError(t, err)

	itemID := uuid.New()
	var wg sync.WaitGroup
	results := make([][]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dates, err := svc.BookedDates(context.Background(), enums.ItemTypeCar, itemID)
			assert.NoError(t, err)
			results[i] = dates
		}(i)
	}
	time.Sleep(100 * time.Millisecond)
	close(repo.release)
	wg.Wait()

	assert.Equal(t, int32(1), repo.calls.Load())
	for _, dates := range results {
		assert.Equal(t, []string{"2024-06-04", "2024-06-05"}, dates)
	}
}

func TestBookedDatesCacheAndInvalidate(t *testing.T) {
	ctx := context.Background()
	cache, mr := redistest.New(t)
	reg := prometheus.NewRegistry()
	m := metrics.NewBookingMetrics(reg)

	start, _ := ParseDate("2024-06-04")
	end, _ := ParseDate("2024-06-05")
	repo := &countingRepo{spans: []Span{{ItemType: enums.ItemTypeCar, StartDate: start, EndDate: &end}}}
	svc, err := NewService(ServiceParams{Repo: repo, Cache: cache, Metrics: m, Logger: logger.Nop(), CacheTTL: time.Minute})
	require.NoError(t, err)

	itemID := uuid.New()
	key := cache.BookedDatesKey("car", itemID.String())

	first, err := svc.BookedDates(ctx, enums.ItemTypeCar, itemID)
	require.NoError(t, err)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))

	second, err := svc.BookedDates(ctx, enums.ItemTypeCar, itemID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), repo.calls.Load())

	require.NoError(t, svc.Invalidate(ctx, enums.ItemTypeCar, itemID))
	assert.False(t, mr.Exists(key))

	_, err = svc.BookedDates(ctx, enums.ItemTypeCar, itemID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), repo.calls.Load())

	assert.Equal(t, float64(1), counterValue(t, reg, "dryd_booked_dates_cache_total", metrics.CacheHit))
	assert.Equal(t, float64(2), counterValue(t, reg, "dryd_booked_dates_cache_total", metrics.CacheMiss))
}

func TestBookedDatesIgnoresBrokenCache(t *testing.T) {
	cache, mr := redistest.New(t)
	repo := &countingRepo{}
	svc, err := NewService(ServiceParams{Repo: repo, Cache: cache, Logger: logger.Nop()})
	require.NoError(t, err)

	mr.Close()
	dates, err := svc.BookedDates(context.Background(), enums.ItemTypeCar, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, labelValue string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetValue() == labelValue {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
