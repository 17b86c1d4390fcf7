package controllers

import (
	"net/http"
	"strings"

	"github.com/foliobooks/bookstore-backend/api/middleware"
	"github.com/foliobooks/bookstore-backend/api/responses"
	checkoutsvc "github.com/foliobooks/bookstore-backend/internal/checkout"
	"github.com/foliobooks/bookstore-backend/pkg/enums"
	pkgerrors "github.com/foliobooks/bookstore-backend/pkg/errors"
	"github.com/foliobooks/bookstore-backend/pkg/logger"
)

// Checkout submits the customer's cart as an order. The Idempotency-Key
// header doubles as the order-level idempotency key so a replayed request
// returns the already-committed order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
		if key == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
			return
		}

		result, err := svc.Execute(ctx, customerID, checkoutsvc.Input{
			IdempotencyKey: key,
			CustomerEmail:  middleware.CustomerEmailFromContext(ctx),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		switch result.State {
		case enums.CheckoutStateCommitted:
			responses.WriteSuccessStatus(w, http.StatusCreated, result)
		case enums.CheckoutStateBlocked:
			responses.WriteSuccessStatus(w, http.StatusConflict, result)
		default:
			responses.WriteSuccess(w, result)
		}
	}
}
