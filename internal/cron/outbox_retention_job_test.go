package cron

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dryd-travel/booking-backend/pkg/db/dbtest"
	"github.com/dryd-travel/booking-backend/pkg/db/models"
	"github.com/dryd-travel/booking-backend/pkg/enums"
	"github.com/dryd-travel/booking-backend/pkg/logger"
	"github.com/dryd-travel/booking-backend/pkg/outbox"
)

func TestOutboxRetentionJobDeletesOnlyOldPublishedRows(t *testing.T) {
	ctx := context.Background()
	client := dbtest.Open(t)
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	old := now.Add(-45 * 24 * time.Hour)
	recent := now.Add(-2 * 24 * time.Hour)
	insertOutboxEvent(t, client.DB(), &old)
	insertOutboxEvent(t, client.DB(), &recent)
	insertOutboxEvent(t, client.DB(), nil)

	jobIface, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.Nop(),
		DB:         client,
		Repository: outbox.NewRepository(client.DB()),
	})
	require.NoError(t, err)
	job := jobIface.(*outboxRetentionJob)
	job.now = func() time.Time { return now }

	deleted, err := job.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining int64
	require.NoError(t, client.DB().Model(&models.OutboxEvent{}).Count(&remaining).Error)
	assert.Equal(t, int64(2), remaining)
}

func TestOutboxRetentionJobPropagatesError(t *testing.T) {
	client := dbtest.Open(t)
	repo := &failingRetentionRepo{err: errors.New("boom")}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:        logger.Nop(),
		DB:            client,
		Repository:    repo,
		RetentionDays: 7,
	})
	require.NoError(t, err)

	_, err = job.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, repo.called)
}

type failingRetentionRepo struct {
	called int
	err    error
}

func (f *failingRetentionRepo) DeletePublishedBefore(*gorm.DB, time.Time) (int64, error) {
	f.called++
	return 0, f.err
}

func insertOutboxEvent(t *testing.T, db *gorm.DB, publishedAt *time.Time) {
	t.Helper()
	row := models.OutboxEvent{
		EventType:     enums.EventBookingSubmitted,
		AggregateType: enums.AggregateBooking,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"version":1}`),
		PublishedAt:   publishedAt,
	}
	require.NoError(t, db.Create(&row).Error)
}
