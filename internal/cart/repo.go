package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	pkgerrors "github.com/foliobooks/bookstore-backend/pkg/errors"
)

type snapshotStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CartSnapshotKey(customerID string) string
}

// SnapshotRepository persists cart snapshots per customer in Redis so a cart
// survives page reloads. Saving is explicit: the service calls it once per
// applied mutation with exactly the touched cart.
type SnapshotRepository struct {
	store snapshotStore
	ttl   time.Duration
}

// NewSnapshotRepository builds a repository with the configured snapshot TTL.
func NewSnapshotRepository(store snapshotStore, ttl time.Duration) (*SnapshotRepository, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "snapshot store is required")
	}
	if ttl <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "snapshot ttl must be positive")
	}
	return &SnapshotRepository{store: store, ttl: ttl}, nil
}

// Save writes the snapshot, resetting its TTL.
func (r *SnapshotRepository) Save(ctx context.Context, customerID uuid.UUID, snap Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal cart snapshot")
	}
	key := r.store.CartSnapshotKey(customerID.String())
	if err := r.store.Set(ctx, key, payload, r.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart snapshot")
	}
	return nil
}

// Find loads the snapshot for a customer; a missing cart returns nil.
func (r *SnapshotRepository) Find(ctx context.Context, customerID uuid.UUID) (*Snapshot, error) {
	key := r.store.CartSnapshotKey(customerID.String())
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart snapshot")
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cart snapshot")
	}
	return &snap, nil
}

// Delete drops the customer's snapshot, typically after checkout commits.
func (r *SnapshotRepository) Delete(ctx context.Context, customerID uuid.UUID) error {
	if err := r.store.Del(ctx, r.store.CartSnapshotKey(customerID.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart snapshot")
	}
	return nil
}
