package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/foliobooks/bookstore-backend/api/middleware"
	pkgerrors "github.com/foliobooks/bookstore-backend/pkg/errors"
)

func customerIDFromContext(r *http.Request) (uuid.UUID, error) {
	if r == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer context missing")
	}
	raw := middleware.CustomerIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer context missing")
	}
	customerID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid customer id")
	}
	return customerID, nil
}
