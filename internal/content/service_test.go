package content

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dryd-travel/booking-backend/pkg/auth"
	"github.com/dryd-travel/booking-backend/pkg/db/dbtest"
	"github.com/dryd-travel/booking-backend/pkg/db/models"
	"github.com/dryd-travel/booking-backend/pkg/enums"
	pkgerrors "github.com/dryd-travel/booking-backend/pkg/errors"
	"github.com/dryd-travel/booking-backend/pkg/logger"
	"github.com/dryd-travel/booking-backend/pkg/outbox"
	"github.com/dryd-travel/booking-backend/pkg/redis/redistest"
)

var admin = auth.Session{UserID: uuid.New(), Role: enums.RoleAdmin, Authenticated: true}

func TestGetUpsertAndCache(t *testing.T) {
	ctx := context.Background()
	client := dbtest.Open(t)
	cache, mr := redistest.New(t)
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(client.DB()),
		DB:       client,
		Cache:    cache,
		Outbox:   outbox.NewService(outbox.NewRepository(client.DB()), logger.Nop()),
		Logger:   logger.Nop(),
		CacheTTL: time.Minute,
	})
	require.NoError(t, err)

	_, err = svc.Get(ctx, TypeBookingDisclaimer)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	saved, err := svc.Upsert(ctx, Entry{Type: TypeBookingDisclaimer, Title: "Before you book", Content: "Bookings are final once confirmed."}, admin)
	require.NoError(t, err)
	assert.Equal(t, "Before you book", saved.Title)

	got, err := svc.Get(ctx, TypeBookingDisclaimer)
	require.NoError(t, err)
	assert.Equal(t, "Bookings are final once confirmed.", got.Content)
	assert.True(t, mr.Exists(cache.ContentKey(TypeBookingDisclaimer)))

	// served from cache even after the row changes underneath
	require.NoError(t, client.DB().Model(&models.ContentEntry{}).Where("type = ?", TypeBookingDisclaimer).Update("content", "stale").Error)
	got, err = svc.Get(ctx, TypeBookingDisclaimer)
	require.NoError(t, err)
	assert.Equal(t, "Bookings are final once confirmed.", got.Content)

	_, err = svc.Upsert(ctx, Entry{Type: TypeBookingDisclaimer, Title: "Before you book", Content: "Updated terms."}, admin)
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.ContentKey(TypeBookingDisclaimer)))

	got, err = svc.Get(ctx, TypeBookingDisclaimer)
	require.NoError(t, err)
	assert.Equal(t, "Updated terms.", got.Content)

	var events []models.OutboxEvent
	require.NoError(t, client.DB().Find(&events).Error)
	require.Len(t, events, 2)
	assert.Equal(t, enums.EventContentUpdated, events[0].EventType)
	assert.Equal(t, AggregateID(TypeBookingDisclaimer), events[0].AggregateID)
}

func TestGetWorksWithoutRedis(t *testing.T) {
	ctx := context.Background()
	client := dbtest.Open(t)
	cache, mr := redistest.New(t)
	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(client.DB()),
		DB:     client,
		Cache:  cache,
		Outbox: outbox.NewService(outbox.NewRepository(client.DB()), logger.Nop()),
		Logger: logger.Nop(),
	})
	require.NoError(t, err)
	require.NoError(t, client.DB().Create(&models.ContentEntry{Type: TypePaymentQRGCash, Title: "GCash", Content: "https://cdn.example.com/gcash.png"}).Error)

	mr.Close()
	got, err := svc.Get(ctx, TypePaymentQRGCash)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/gcash.png", got.Content)
}

func TestUpsertRules(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(client.DB()),
		DB:     client,
		Outbox: outbox.NewService(outbox.NewRepository(client.DB()), logger.Nop()),
		Logger: logger.Nop(),
	})
	require.NoError(t, err)
	ctx := context.Background()

	employee := auth.Session{UserID: uuid.New(), Role: enums.RoleEmployee, Authenticated: true}
	_, err = svc.Upsert(ctx, Entry{Type: "payment_qr_bank", Title: "BPI"}, employee)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	_, err = svc.Upsert(ctx, Entry{Type: "Bad Type!", Title: "x"}, admin)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.Upsert(ctx, Entry{Type: "payment_qr_bank"}, admin)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.Get(ctx, "../etc")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}
