// Package dedupe lets Pub/Sub consumers process each outbox event at most once
// per retention window, even though delivery is at-least-once.
package dedupe

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dryd-travel/booking-backend/pkg/redis"
)

// DefaultTTL outlives the subscription's message retention.
const DefaultTTL = 7 * 24 * time.Hour

// Guard claims event IDs per consumer with SETNX.
// Keys look like dryd:idempotency:consumer:<name>:<event_id>.
type Guard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

func NewGuard(store redis.IdempotencyStore, ttl time.Duration) (*Guard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Guard{store: store, ttl: ttl}, nil
}

// Claim reports true when this call is the first to see the event for consumer.
func (g *Guard) Claim(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	key, err := g.key(consumer, eventID)
	if err != nil {
		return false, err
	}
	return g.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), g.ttl)
}

// Release drops a claim so a redelivery can retry the event.
func (g *Guard) Release(ctx context.Context, consumer string, eventID uuid.UUID) error {
	key, err := g.key(consumer, eventID)
	if err != nil {
		return err
	}
	return g.store.Del(ctx, key)
}

func (g *Guard) key(consumer string, eventID uuid.UUID) (string, error) {
	if consumer == "" {
		return "", errors.New("consumer name is required")
	}
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	return g.store.IdempotencyKey("consumer:"+consumer, eventID.String()), nil
}
