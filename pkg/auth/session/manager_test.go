package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type fakeBackend struct {
	data map[string]string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{data: map[string]string{}}
}

func (f *fakeBackend) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.data[key] = fmt.Sprint(value)
	return nil
}

func (f *fakeBackend) Get(_ context.Context, key string) (string, error) {
	value, ok := f.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return value, nil
}

func (f *fakeBackend) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeBackend) AccessSessionKey(accessID string) string {
	return "folio:session:access:" + accessID
}

func newTestManager() (*Manager, *fakeBackend) {
	backend := newFakeBackend()
	return &Manager{backend: backend, ttl: time.Hour}, backend
}

func TestRotateReplacesSessionExactlyOnce(t *testing.T) {
	t.Parallel()

	manager, backend := newTestManager()
	ctx := context.Background()

	accessID := NewAccessID()
	token, err := manager.Generate(ctx, accessID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if backend.data[backend.AccessSessionKey(accessID)] != token {
		t.Fatal("refresh token must be stored under the access id")
	}

	if _, _, err := manager.Rotate(ctx, accessID, "forged"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("forged token: expected ErrInvalidRefreshToken, got %v", err)
	}

	nextID, nextToken, err := manager.Rotate(ctx, accessID, token)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if nextID == accessID || nextToken == token {
		t.Fatal("rotation must issue a fresh id and token")
	}
	if _, stale := backend.data[backend.AccessSessionKey(accessID)]; stale {
		t.Fatal("old session must be deleted on rotation")
	}

	// The consumed token is single-use.
	if _, _, err := manager.Rotate(ctx, accessID, token); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("replayed rotation: expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestRevokeKillsLiveSession(t *testing.T) {
	t.Parallel()

	manager, _ := newTestManager()
	ctx := context.Background()

	accessID := NewAccessID()
	if _, err := manager.Generate(ctx, accessID); err != nil {
		t.Fatalf("generate: %v", err)
	}

	alive, err := manager.HasSession(ctx, accessID)
	if err != nil || !alive {
		t.Fatalf("expected live session: alive=%v err=%v", alive, err)
	}

	if err := manager.Revoke(ctx, accessID); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	alive, err = manager.HasSession(ctx, accessID)
	if err != nil {
		t.Fatalf("has session: %v", err)
	}
	if alive {
		t.Fatal("revoked session must not report alive")
	}
}
