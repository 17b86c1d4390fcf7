package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/foliobooks/bookstore-backend/pkg/auth"
	"github.com/foliobooks/bookstore-backend/pkg/auth/session"
	"github.com/foliobooks/bookstore-backend/pkg/config"
)

type stubSessionVerifier struct {
	ok  bool
	err error
}

func (s stubSessionVerifier) HasSession(ctx context.Context, accessID string) (bool, error) {
	return s.ok, s.err
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, customerID uuid.UUID, email string) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{
		CustomerID: customerID,
		Email:      email,
		JTI:        session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthRejections(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	revokedToken := mintTestToken(t, cfg, uuid.New(), "reader@example.com")

	cases := []struct {
		name     string
		header   string
		verifier stubSessionVerifier
	}{
		{name: "missing token", verifier: stubSessionVerifier{ok: true}},
		{name: "garbage token", header: "Bearer invalid", verifier: stubSessionVerifier{ok: true}},
		{name: "revoked session", header: "Bearer " + revokedToken, verifier: stubSessionVerifier{ok: false}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var reached bool
			handler := Auth(cfg, tc.verifier, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)

			if resp.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401 got %d", resp.Code)
			}
			if reached {
				t.Fatal("handler must not run for rejected requests")
			}
		})
	}
}

func TestAuthAllowsValidToken(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	customerID := uuid.New()
	token := mintTestToken(t, cfg, customerID, "reader@example.com")

	var captured struct {
		customer string
		email    string
	}
	handler := Auth(cfg, stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.customer = CustomerIDFromContext(r.Context())
		captured.email = CustomerEmailFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.customer != customerID.String() {
		t.Fatalf("expected customer %s got %s", customerID, captured.customer)
	}
	if captured.email != "reader@example.com" {
		t.Fatalf("expected email in context, got %q", captured.email)
	}
}
