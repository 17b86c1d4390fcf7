package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/foliobooks/bookstore-backend/api/responses"
	"github.com/foliobooks/bookstore-backend/api/validators"
	pkgAuth "github.com/foliobooks/bookstore-backend/pkg/auth"
	"github.com/foliobooks/bookstore-backend/pkg/auth/session"
	"github.com/foliobooks/bookstore-backend/pkg/config"
	"github.com/foliobooks/bookstore-backend/pkg/errors"
	"github.com/foliobooks/bookstore-backend/pkg/logger"
)

type sessionTokenRotator interface {
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// bearerToken pulls the raw token out of the Authorization header. The
// "Bearer " prefix is optional; some storefront clients send the bare JWT.
func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if rest, ok := strings.CutPrefix(strings.ToLower(header), "bearer "); ok {
		header = strings.TrimSpace(header[len(header)-len(rest):])
	}
	if header == "" {
		return "", errors.New(errors.CodeUnauthorized, "missing credentials")
	}
	return header, nil
}

// sessionClaims parses the presented access token even when expired and
// verifies it carries a session id. Logout and refresh both operate on
// tokens that may already be past their expiry.
func sessionClaims(r *http.Request, cfg config.JWTConfig) (*pkgAuth.AccessTokenClaims, error) {
	raw, err := bearerToken(r)
	if err != nil {
		return nil, err
	}

	claims, err := pkgAuth.ParseAccessTokenAllowExpired(cfg, raw)
	if err != nil {
		return nil, errors.Wrap(errors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, errors.New(errors.CodeUnauthorized, "missing session id")
	}
	return claims, nil
}

// AuthLogout revokes the refresh mapping tied to the presented access token.
func AuthLogout(manager sessionTokenRotator, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manager == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "session manager unavailable"))
			return
		}

		claims, err := sessionClaims(r, cfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := manager.Revoke(r.Context(), claims.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, errors.Wrap(errors.CodeInternal, err, "revoke session"))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

// AuthRefresh rotates the refresh token and issues a new access token.
func AuthRefresh(manager sessionTokenRotator, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manager == nil {
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeInternal, "session manager unavailable"))
			return
		}

		var body refreshRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		claims, err := sessionClaims(r, cfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		newAccessID, newRefreshToken, err := manager.Rotate(r.Context(), claims.ID, body.RefreshToken)
		switch {
		case err == session.ErrInvalidRefreshToken:
			responses.WriteError(r.Context(), logg, w, errors.New(errors.CodeUnauthorized, "invalid refresh token"))
			return
		case err != nil:
			responses.WriteError(r.Context(), logg, w, errors.Wrap(errors.CodeInternal, err, "rotate session"))
			return
		}

		accessToken, err := pkgAuth.MintAccessToken(cfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
			CustomerID: claims.CustomerID,
			Email:      claims.Email,
			JTI:        newAccessID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, errors.Wrap(errors.CodeInternal, err, "mint jwt"))
			return
		}

		w.Header().Set(accessTokenHeader, accessToken)
		responses.WriteSuccess(w, refreshResponse{
			AccessToken:  accessToken,
			RefreshToken: newRefreshToken,
		})
	}
}
