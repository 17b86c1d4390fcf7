package controllers

import (
	"net/http"

	"github.com/foliobooks/bookstore-backend/api/responses"
	"github.com/foliobooks/bookstore-backend/api/validators"
	"github.com/foliobooks/bookstore-backend/internal/auth"
	pkgerrors "github.com/foliobooks/bookstore-backend/pkg/errors"
	"github.com/foliobooks/bookstore-backend/pkg/logger"
)

// accessTokenHeader carries the freshly minted JWT on login, register, and
// refresh responses in addition to the JSON body.
const accessTokenHeader = "X-Folio-Token"

// AuthLogin wires the login endpoint into the HTTP layer.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Login(ctx, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		w.Header().Set(accessTokenHeader, result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}
