package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/foliobooks/bookstore-backend/pkg/config"
	redisclient "github.com/foliobooks/bookstore-backend/pkg/redis"
)

// ErrInvalidRefreshToken covers every refresh failure the client may see:
// unknown access ID, expired session, or a token that does not match. One
// error keeps the response from leaking which part was wrong.
var ErrInvalidRefreshToken = errors.New("invalid refresh token")

const refreshTokenBytes = 32

type sessionBackend interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// AccessSessionChecker is the read-only view the auth middleware needs: it
// only asks whether a JWT's session is still alive.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// Manager owns the customer's server-side session: a refresh token stored in
// Redis under the access token's jti. Logout deletes the mapping, which also
// kills the still-valid JWT at the middleware check.
type Manager struct {
	backend sessionBackend
	ttl     time.Duration
}

// NewManager validates the TTL relationship and builds a manager. The
// refresh TTL must outlive the access token or refresh would never work.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	refreshTTL := cfg.RefreshTokenTTL()
	if refreshTTL <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	if accessTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute; refreshTTL <= accessTTL {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", refreshTTL, accessTTL)
	}
	return &Manager{backend: client, ttl: refreshTTL}, nil
}

// NewAccessID mints the identifier shared by the JWT jti and the Redis
// session key.
func NewAccessID() string {
	return uuid.NewString()
}

// Generate stores a fresh refresh token under the access ID and returns it.
func (m *Manager) Generate(ctx context.Context, accessID string) (string, error) {
	if strings.TrimSpace(accessID) == "" {
		return "", fmt.Errorf("access id is required")
	}
	token, err := randomToken()
	if err != nil {
		return "", err
	}
	if err := m.backend.Set(ctx, m.backend.AccessSessionKey(accessID), token, m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Rotate checks the presented refresh token against the stored one and, on
// match, replaces the session under a new access ID. The old mapping is
// deleted so a captured refresh token works at most once.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, presented string) (string, string, error) {
	if strings.TrimSpace(oldAccessID) == "" || strings.TrimSpace(presented) == "" {
		return "", "", ErrInvalidRefreshToken
	}

	oldKey := m.backend.AccessSessionKey(oldAccessID)
	stored, err := m.backend.Get(ctx, oldKey)
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return "", "", ErrInvalidRefreshToken
		}
		return "", "", err
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		return "", "", ErrInvalidRefreshToken
	}

	nextAccessID := NewAccessID()
	nextToken, err := randomToken()
	if err != nil {
		return "", "", err
	}
	if err := m.backend.Set(ctx, m.backend.AccessSessionKey(nextAccessID), nextToken, m.ttl); err != nil {
		return "", "", err
	}
	if err := m.backend.Del(ctx, oldKey); err != nil {
		return "", "", err
	}
	return nextAccessID, nextToken, nil
}

// Revoke drops the session for the access ID. Used by logout.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	return m.backend.Del(ctx, m.backend.AccessSessionKey(accessID))
}

// HasSession reports whether the access ID still maps to a live session.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, fmt.Errorf("access id is required")
	}
	_, err := m.backend.Get(ctx, m.backend.AccessSessionKey(accessID))
	if errors.Is(err, redislib.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func randomToken() (string, error) {
	raw := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
