package controllers

import (
	"net/http"

	"github.com/foliobooks/bookstore-backend/api/responses"
	"github.com/foliobooks/bookstore-backend/api/validators"
	"github.com/foliobooks/bookstore-backend/internal/auth"
	pkgerrors "github.com/foliobooks/bookstore-backend/pkg/errors"
	"github.com/foliobooks/bookstore-backend/pkg/logger"
)

// AuthRegister creates a customer account and immediately logs it in so the
// storefront lands the new customer in a signed-in session.
func AuthRegister(reg auth.RegisterService, svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if reg == nil || svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if _, err := reg.Register(ctx, body); err != nil {
			if logg != nil {
				logg.Error(ctx, "register failed", err)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Login(ctx, auth.LoginRequest{Email: body.Email, Password: body.Password})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		w.Header().Set(accessTokenHeader, result.AccessToken)
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
