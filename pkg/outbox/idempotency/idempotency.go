package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/foliobooks/bookstore-backend/pkg/redis"
)

// Guard deduplicates event deliveries per consumer. The first delivery of
// an event id claims a Redis key with SETNX; redeliveries inside the TTL
// see the key and skip.
// Keys follow `folio:idempotency:evt:processed:<consumer>:<event_id>`.
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
	return &Guard{store: store, ttl: ttl}, nil
}

// CheckAndMark claims the event for the consumer. It reports true when the
// event was already claimed, meaning this delivery is a duplicate.
func (g *Guard) CheckAndMark(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	key, err := g.claimKey(consumer, eventID)
	if err != nil {
		return false, err
	}
	claimed, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, err
	}
	return !claimed, nil
}

// Forget releases a claim so a failed handler can be redelivered.
func (g *Guard) Forget(ctx context.Context, consumer string, eventID uuid.UUID) error {
	key, err := g.claimKey(consumer, eventID)
	if err != nil {
		return err
	}
	return g.store.Del(ctx, key)
}

func (g *Guard) claimKey(consumer string, eventID uuid.UUID) (string, error) {
	if consumer == "" {
		return "", errors.New("consumer name is required")
	}
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	return g.store.IdempotencyKey(fmt.Sprintf("evt:processed:%s", consumer), eventID.String()), nil
}
