package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/foliobooks/bookstore-backend/pkg/config"
)

func tokenConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "token-test-secret",
		Issuer:            "foliobooks",
		ExpirationMinutes: 30,
	}
}

func TestMintRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := tokenConfig()
	now := time.Now().UTC()
	customerID := uuid.New()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{
		CustomerID: customerID,
		Email:      "reader@example.com",
		JTI:        "jti-fixed",
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.CustomerID != customerID || claims.Email != "reader@example.com" {
		t.Fatalf("claims not preserved: %+v", claims)
	}
	if claims.Issuer != cfg.Issuer || claims.ID != "jti-fixed" {
		t.Fatalf("registered claims wrong: issuer=%q jti=%q", claims.Issuer, claims.ID)
	}

	wantExp := now.Add(30 * time.Minute)
	if gap := claims.ExpiresAt.Sub(wantExp); gap < -time.Second || gap > time.Second {
		t.Fatalf("exp drift: want ~%v got %v", wantExp, claims.ExpiresAt)
	}
}

func TestMintGeneratesJTIWhenBlank(t *testing.T) {
	t.Parallel()

	token, err := MintAccessToken(tokenConfig(), time.Now(), AccessTokenPayload{CustomerID: uuid.New()})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	claims, err := ParseAccessToken(tokenConfig(), token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.ID == "" {
		t.Fatal("expected a generated jti")
	}
}

func TestParseRejectsTamperedToken(t *testing.T) {
	t.Parallel()

	token, err := MintAccessToken(tokenConfig(), time.Now(), AccessTokenPayload{CustomerID: uuid.New()})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(tokenConfig(), token+"x"); err == nil {
		t.Fatal("tampered token must not parse")
	}
}

func TestExpiredTokenStillParsesForRefresh(t *testing.T) {
	t.Parallel()

	cfg := tokenConfig()
	expiredAt := time.Now().Add(-2 * time.Hour)
	token, err := MintAccessToken(cfg, expiredAt, AccessTokenPayload{CustomerID: uuid.New(), JTI: "jti-old"})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if _, err := ParseAccessToken(cfg, token); err == nil || !strings.Contains(err.Error(), "expired") {
		t.Fatalf("strict parse must reject expiry: %v", err)
	}

	claims, err := ParseAccessTokenAllowExpired(cfg, token)
	if err != nil {
		t.Fatalf("lenient parse: %v", err)
	}
	if claims.ID != "jti-old" {
		t.Fatalf("refresh needs the original jti, got %q", claims.ID)
	}
}

func TestMintRequiresCustomer(t *testing.T) {
	t.Parallel()

	if _, err := MintAccessToken(tokenConfig(), time.Now(), AccessTokenPayload{}); err == nil {
		t.Fatal("expected missing customer id error")
	}
}
