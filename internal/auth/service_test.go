package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/foliobooks/bookstore-backend/pkg/auth"
	"github.com/foliobooks/bookstore-backend/pkg/config"
	"github.com/foliobooks/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/foliobooks/bookstore-backend/pkg/errors"
	"github.com/foliobooks/bookstore-backend/pkg/security"
)

func TestServiceLoginIssuesTokens(t *testing.T) {
	password := "reader-secret"
	customer := &models.Customer{
		ID:           uuid.New(),
		Email:        "reader@example.com",
		PasswordHash: mustHashPassword(t, password),
		FirstName:    "Ada",
		LastName:     "Reader",
		IsActive:     true,
	}
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "foliobooks",
		ExpirationMinutes: 30,
	}

	svc, sessionMgr := buildTestService(t, customer, cfg)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "  Reader@Example.com ",
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.CustomerID != customer.ID {
		t.Fatalf("expected customer id claim %s, got %s", customer.ID, claims.CustomerID)
	}
	if claims.ID == "" {
		t.Fatalf("expected jti on access token")
	}
	if sessionMgr.accessID != claims.ID {
		t.Fatalf("expected session keyed by jti %q, got %q", claims.ID, sessionMgr.accessID)
	}
	if resp.RefreshToken != sessionMgr.refreshToken {
		t.Fatalf("expected refresh token from session manager")
	}
	if resp.Customer.Email != customer.Email {
		t.Fatalf("expected customer projection, got %+v", resp.Customer)
	}
	if customer.LastLoginAt == nil {
		t.Fatalf("expected last login to be recorded")
	}
}

func TestServiceLoginRejectsBadPassword(t *testing.T) {
	customer := &models.Customer{
		ID:           uuid.New(),
		Email:        "reader@example.com",
		PasswordHash: mustHashPassword(t, "correct-horse"),
		IsActive:     true,
	}

	svc, _ := buildTestService(t, customer, testJWTConfig())

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    customer.Email,
		Password: "wrong-horse",
	})
	assertUnauthorized(t, err)
}

func TestServiceLoginRejectsInactiveAccount(t *testing.T) {
	password := "reader-secret"
	customer := &models.Customer{
		ID:           uuid.New(),
		Email:        "dormant@example.com",
		PasswordHash: mustHashPassword(t, password),
		IsActive:     false,
	}

	svc, _ := buildTestService(t, customer, testJWTConfig())

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    customer.Email,
		Password: password,
	})
	assertUnauthorized(t, err)
}

func TestServiceLoginRejectsUnknownEmail(t *testing.T) {
	svc, _ := buildTestService(t, nil, testJWTConfig())

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	assertUnauthorized(t, err)
}

func buildTestService(t *testing.T, customer *models.Customer, jwtCfg config.JWTConfig) (Service, *stubSessionManager) {
	t.Helper()
	sessionMgr := &stubSessionManager{refreshToken: "refresh-token"}
	svc, err := NewService(ServiceParams{
		CustomerRepo:   &stubCustomerRepo{customer: customer},
		SessionManager: sessionMgr,
		JWTConfig:      jwtCfg,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, sessionMgr
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "foliobooks",
		ExpirationMinutes: 30,
	}
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func assertUnauthorized(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected unauthorized error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if typed.Message() != invalidCredentialsMessage {
		t.Fatalf("expected generic credential message, got %q", typed.Message())
	}
}

type stubCustomerRepo struct {
	customer *models.Customer
}

func (s *stubCustomerRepo) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	if s.customer == nil || s.customer.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	return s.customer, nil
}

func (s *stubCustomerRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if s.customer != nil && s.customer.ID == id {
		s.customer.LastLoginAt = &at
	}
	return nil
}

type stubSessionManager struct {
	refreshToken string
	accessID     string
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	s.accessID = accessID
	return s.refreshToken, nil
}
