package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/foliobooks/bookstore-backend/pkg/config"
	"github.com/foliobooks/bookstore-backend/pkg/logger"
)

// Every key the bookstore writes lives under the folio namespace so a
// shared Redis can be swept by prefix.
const (
	keyNamespace      = "folio"
	idempotencyPrefix = "idempotency"
	sessionPrefix     = "session"
	cartPrefix        = "cart"
	cartLockPrefix    = "cart_lock"
)

var errNotInitialized = errors.New("redis client not initialized")

type commands interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Incr(context.Context, string) *redis.IntCmd
	Expire(context.Context, string, time.Duration) *redis.BoolCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// Client holds the Redis surface the bookstore uses: cart snapshots,
// checkout locks, sessions, rate limit counters, and idempotency claims.
type Client struct {
	store commands
	conn  *redis.Client
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(context.Context) error
}

// IdempotencyStore is the slice of the client the idempotency helpers need.
type IdempotencyStore interface {
	Get(context.Context, string) (string, error)
	SetNX(context.Context, string, any, time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
	Del(context.Context, ...string) error
}

// New connects to Redis and verifies connectivity before returning.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := buildOptions(cfg)
	if err != nil {
		return nil, err
	}
	conn := redis.NewClient(opts)
	if err := conn.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Client{store: conn, conn: conn}, nil
}

// buildOptions prefers a full URL; the address fields fill in whatever the
// URL did not set.
func buildOptions(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("redis url or address is required")
	}

	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	if opts.DB == 0 {
		opts.DB = cfg.DB
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if opts.MinIdleConns == 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.store == nil {
		return errNotInitialized
	}
	return c.store.Set(ctx, key, value, ttl).Err()
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if c.store == nil {
		return "", errNotInitialized
	}
	return c.store.Get(ctx, key).Result()
}

func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if c.store == nil {
		return false, errNotInitialized
	}
	return c.store.SetNX(ctx, key, value, ttl).Result()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	if c.store == nil {
		return errNotInitialized
	}
	return c.store.Del(ctx, keys...).Err()
}

// IncrWithTTL increments a counter and starts its expiry window on the
// first increment only, so the window is fixed rather than sliding.
func (c *Client) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if c.store == nil {
		return 0, errNotInitialized
	}
	count, err := c.store.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if ttl > 0 && count == 1 {
		if _, err := c.store.Expire(ctx, key, ttl).Result(); err != nil {
			return count, err
		}
	}
	return count, nil
}

// IdempotencyKey returns the namespaced key for an idempotency claim.
func (c *Client) IdempotencyKey(scope, id string) string {
	return c.key(idempotencyPrefix, scope, id)
}

// CartSnapshotKey returns the key holding a customer's cart snapshot.
func (c *Client) CartSnapshotKey(customerID string) string {
	return c.key(cartPrefix, customerID)
}

// CartLockKey returns the key guarding a customer's cart during checkout.
func (c *Client) CartLockKey(customerID string) string {
	return c.key(cartLockPrefix, customerID)
}

// AccessSessionKey returns the key for an access-token session record.
func (c *Client) AccessSessionKey(accessID string) string {
	return c.key(sessionPrefix, "access", accessID)
}

// AcquireCartLock claims the checkout lock for a customer's cart. It
// returns false when another checkout already holds it.
func (c *Client) AcquireCartLock(ctx context.Context, customerID, token string, ttl time.Duration) (bool, error) {
	return c.SetNX(ctx, c.CartLockKey(customerID), token, ttl)
}

// ReleaseCartLock drops the checkout lock for a customer's cart.
func (c *Client) ReleaseCartLock(ctx context.Context, customerID string) error {
	return c.Del(ctx, c.CartLockKey(customerID))
}

// HasCartLock reports whether a checkout currently holds the cart lock.
func (c *Client) HasCartLock(ctx context.Context, customerID string) (bool, error) {
	_, err := c.Get(ctx, c.CartLockKey(customerID))
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if c.store == nil {
		return errNotInitialized
	}
	return c.store.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) key(parts ...string) string {
	joined := []string{keyNamespace}
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			joined = append(joined, trimmed)
		}
	}
	return strings.Join(joined, ":")
}
