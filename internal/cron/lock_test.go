package cron

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dryd-travel/booking-backend/pkg/redis/redistest"
)

func TestRedisLockIsExclusive(t *testing.T) {
	ctx := context.Background()
	client, mr := redistest.New(t)
	key := client.CronLockKey("worker")

	first, err := NewRedisLock(client, key, time.Minute)
	require.NoError(t, err)
	second, err := NewRedisLock(client, key, time.Minute)
	require.NoError(t, err)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// Releasing a lock we never got must not drop the holder's key.
	require.NoError(t, second.Release(ctx))
	assert.True(t, mr.Exists(key))

	require.NoError(t, first.Release(ctx))
	assert.False(t, mr.Exists(key))

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockLeavesForeignOwnerAfterExpiry(t *testing.T) {
	ctx := context.Background()
	client, mr := redistest.New(t)
	key := client.CronLockKey("worker")

	stale, err := NewRedisLock(client, key, time.Second)
	require.NoError(t, err)
	ok, err := stale.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	fresh, err := NewRedisLock(client, key, time.Minute)
	require.NoError(t, err)
	ok, err = fresh.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, stale.Release(ctx))
	assert.True(t, mr.Exists(key), "stale holder released a lock it no longer owned")
}

func TestNewRedisLockValidatesInput(t *testing.T) {
	client, _ := redistest.New(t)
	_, err := NewRedisLock(nil, "k", time.Minute)
	assert.Error(t, err)
	_, err = NewRedisLock(client, "", time.Minute)
	assert.Error(t, err)

	lock, err := NewRedisLock(client, "k", 0)
	require.NoError(t, err)
	assert.Equal(t, defaultLockTTL, lock.ttl)
}
