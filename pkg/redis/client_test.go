package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// memoryCommands fakes the command surface with in-process maps.
type memoryCommands struct {
	data     map[string]string
	counters map[string]int64
	expired  map[string]time.Duration
}

func newMemoryCommands() *memoryCommands {
	return &memoryCommands{
		data:     make(map[string]string),
		counters: make(map[string]int64),
		expired:  make(map[string]time.Duration),
	}
}

func (m *memoryCommands) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *memoryCommands) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *memoryCommands) Get(_ context.Context, key string) *redis.StringCmd {
	value, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (m *memoryCommands) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, held := m.data[key]; held {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *memoryCommands) Incr(_ context.Context, key string) *redis.IntCmd {
	m.counters[key]++
	return redis.NewIntResult(m.counters[key], nil)
}

func (m *memoryCommands) Expire(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	m.expired[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (m *memoryCommands) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestIncrWithTTLStartsWindowOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := newMemoryCommands()
	client := &Client{store: mem}

	count, err := client.IncrWithTTL(ctx, "folio:rate:test", time.Second)
	if err != nil {
		t.Fatalf("IncrWithTTL: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	if mem.expired["folio:rate:test"] != time.Second {
		t.Fatalf("first increment must set the window ttl")
	}

	delete(mem.expired, "folio:rate:test")
	if count, err = client.IncrWithTTL(ctx, "folio:rate:test", time.Second); err != nil || count != 2 {
		t.Fatalf("second increment count=%d err=%v", count, err)
	}
	if len(mem.expired) != 0 {
		t.Fatalf("expiry must not be reset after the first increment")
	}
}

func TestCartLockIsExclusiveUntilReleased(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client := &Client{store: newMemoryCommands()}

	ok, err := client.AcquireCartLock(ctx, "customer-1", "tok-a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first acquire ok=%v err=%v", ok, err)
	}
	held, err := client.HasCartLock(ctx, "customer-1")
	if err != nil || !held {
		t.Fatalf("HasCartLock held=%v err=%v", held, err)
	}

	if ok, err = client.AcquireCartLock(ctx, "customer-1", "tok-b", time.Minute); err != nil || ok {
		t.Fatalf("second acquire must be rejected, ok=%v err=%v", ok, err)
	}

	if err := client.ReleaseCartLock(ctx, "customer-1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if held, err = client.HasCartLock(ctx, "customer-1"); err != nil || held {
		t.Fatalf("lock must be gone after release, held=%v err=%v", held, err)
	}
	if ok, err = client.AcquireCartLock(ctx, "customer-1", "tok-c", time.Minute); err != nil || !ok {
		t.Fatalf("acquire after release ok=%v err=%v", ok, err)
	}
}

func TestKeyNamespaces(t *testing.T) {
	t.Parallel()
	client := &Client{}
	cases := []struct {
		got  string
		want string
	}{
		{client.IdempotencyKey("scope", "id"), "folio:idempotency:scope:id"},
		{client.CartSnapshotKey("customer"), "folio:cart:customer"},
		{client.CartLockKey("customer"), "folio:cart_lock:customer"},
		{client.AccessSessionKey("jti"), "folio:session:access:jti"},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Fatalf("key = %q, want %q", c.got, c.want)
		}
	}
}

func TestUninitializedClientRejectsCommands(t *testing.T) {
	t.Parallel()
	client := &Client{}
	ctx := context.Background()

	if err := client.Set(ctx, "k", "v", 0); !errors.Is(err, errNotInitialized) {
		t.Fatalf("Set err = %v", err)
	}
	if _, err := client.Get(ctx, "k"); !errors.Is(err, errNotInitialized) {
		t.Fatalf("Get err = %v", err)
	}
	if err := client.Ping(ctx); !errors.Is(err, errNotInitialized) {
		t.Fatalf("Ping err = %v", err)
	}
}
