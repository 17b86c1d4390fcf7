package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/foliobooks/bookstore-backend/api/responses"
	pkgAuth "github.com/foliobooks/bookstore-backend/pkg/auth"
	"github.com/foliobooks/bookstore-backend/pkg/auth/session"
	"github.com/foliobooks/bookstore-backend/pkg/config"
	pkgerrors "github.com/foliobooks/bookstore-backend/pkg/errors"
	"github.com/foliobooks/bookstore-backend/pkg/logger"
)

// bearerFromHeader extracts the token from an Authorization header. The
// scheme prefix is optional.
func bearerFromHeader(r *http.Request) string {
	token := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[len("bearer "):])
	}
	return token
}

// authenticate resolves the request token into verified claims. The session
// check catches tokens still within their JWT expiry whose session was
// revoked by logout.
func authenticate(r *http.Request, cfg config.JWTConfig, verifier session.AccessSessionChecker) (*pkgAuth.AccessTokenClaims, error) {
	token := bearerFromHeader(r)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}

	if verifier != nil {
		ok, err := verifier.HasSession(r.Context(), claims.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable")
		}
	}
	return claims, nil
}

// Auth validates a bearer token and seeds the request context with the claims.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authenticate(r, cfg, verifier)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			customerID := claims.CustomerID.String()
			ctx := context.WithValue(r.Context(), ctxCustomerID, customerID)
			ctx = context.WithValue(ctx, ctxCustomerEmail, claims.Email)
			if logg != nil {
				ctx = logg.WithCustomerID(ctx, customerID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
