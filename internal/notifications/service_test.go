package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dryd-travel/booking-backend/pkg/db/dbtest"
	"github.com/dryd-travel/booking-backend/pkg/db/models"
	"github.com/dryd-travel/booking-backend/pkg/enums"
	pkgerrors "github.com/dryd-travel/booking-backend/pkg/errors"
)

func seedInbox(t *testing.T, repo *Repository, n int) []models.StaffNotification {
	t.Helper()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	out := make([]models.StaffNotification, 0, n)
	for i := 0; i < n; i++ {
		row := models.StaffNotification{
			Type:      enums.NotificationTypeBookingReview,
			Title:     "Booking awaits review",
			Message:   "check the proof",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(context.Background(), &row))
		out = append(out, row)
	}
	return out
}

func TestListPagesNewestFirst(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	rows := seedInbox(t, repo, 3)

	svc, err := NewService(repo)
	require.NoError(t, err)

	first, err := svc.List(context.Background(), ListParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, rows[2].ID, first.Items[0].ID)
	assert.Equal(t, rows[1].ID, first.Items[1].ID)
	assert.NotEmpty(t, first.NextCursor)
	assert.EqualValues(t, 3, first.Unread)

	second, err := svc.List(context.Background(), ListParams{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, rows[0].ID, second.Items[0].ID)
	assert.Empty(t, second.NextCursor)
}

func TestMarkReadAndUnreadFilter(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	rows := seedInbox(t, repo, 2)

	svc, err := NewService(repo)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, svc.MarkRead(ctx, rows[0].ID))
	require.NoError(t, svc.MarkRead(ctx, rows[0].ID), "marking twice is not an error")

	unread, err := svc.List(ctx, ListParams{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread.Items, 1)
	assert.Equal(t, rows[1].ID, unread.Items[0].ID)
	assert.EqualValues(t, 1, unread.Unread)

	count, err := svc.MarkAllRead(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	empty, err := svc.List(ctx, ListParams{UnreadOnly: true})
	require.NoError(t, err)
	assert.NotNil(t, empty.Items)
	assert.Empty(t, empty.Items)
}

func TestMarkReadErrors(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewService(NewRepository(client.DB()))
	require.NoError(t, err)

	err = svc.MarkRead(context.Background(), uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	err = svc.MarkRead(context.Background(), uuid.Nil)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.List(context.Background(), ListParams{Cursor: "%%%"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
