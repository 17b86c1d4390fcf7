package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/foliobooks/bookstore-backend/api/responses"
	pkgerrors "github.com/foliobooks/bookstore-backend/pkg/errors"
	"github.com/foliobooks/bookstore-backend/pkg/logger"
	pkgredis "github.com/foliobooks/bookstore-backend/pkg/redis"
)

// Replay windows per endpoint. Checkout keeps its records for a week since
// a double-submitted order is far more expensive than a double register.
var idempotentRoutes = map[string]time.Duration{
	http.MethodPost + " /api/v1/auth/register": 24 * time.Hour,
	http.MethodPost + " /api/v1/checkout":      7 * 24 * time.Hour,
}

// storedResponse is the replayable result of a completed request. The
// request hash pins the key to one body: reusing the key with a different
// body is rejected rather than replayed.
type storedResponse struct {
	Status      int               `json:"status"`
	Body        string            `json:"body"`
	Headers     map[string]string `json:"headers,omitempty"`
	RequestHash string            `json:"request_hash"`
}

// Idempotency replays stored responses for configured mutation endpoints.
// Requests to those endpoints must carry an Idempotency-Key header.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, guarded := replayWindow(r)
			if !guarded || store == nil {
				next.ServeHTTP(w, r)
				return
			}

			clientKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
			if clientKey == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			sum := sha256.Sum256(body)
			requestHash := base64.StdEncoding.EncodeToString(sum[:])
			scope := strings.Join([]string{CustomerIDFromContext(r.Context()), r.Method, r.URL.Path}, "|")
			key := store.IdempotencyKey(scope, clientKey)

			stored, err := store.Get(r.Context(), key)
			if err != nil && !errors.Is(err, redis.Nil) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			}
			if stored != "" {
				replay(r.Context(), logg, w, stored, requestHash)
				return
			}

			capture := &captureWriter{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			record := storedResponse{
				Status:      capture.statusOrOK(),
				Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
				RequestHash: requestHash,
			}
			if ct := capture.Header().Get("Content-Type"); ct != "" {
				record.Headers = map[string]string{"Content-Type": ct}
			}

			payload, err := json.Marshal(record)
			if err != nil {
				logStoreFailure(r.Context(), logg, "marshal idempotency record", err)
				return
			}
			if _, err := store.SetNX(r.Context(), key, string(payload), ttl); err != nil {
				logStoreFailure(r.Context(), logg, "persist idempotency record", err)
			}
		})
	}
}

func replayWindow(r *http.Request) (time.Duration, bool) {
	pattern := r.URL.Path
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			pattern = p
		}
	}
	ttl, ok := idempotentRoutes[r.Method+" "+pattern]
	return ttl, ok
}

func replay(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, stored, requestHash string) {
	var record storedResponse
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	if record.RequestHash != requestHash {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
		return
	}
	if ct := record.Headers["Content-Type"]; ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(record.Status)
	if decoded, err := base64.StdEncoding.DecodeString(record.Body); err == nil {
		_, _ = w.Write(decoded)
	}
}

type captureWriter struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *captureWriter) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *captureWriter) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *captureWriter) statusOrOK() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

func logStoreFailure(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil || err == nil {
		return
	}
	logg.Error(ctx, msg, err)
}
